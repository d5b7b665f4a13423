package store

import (
	"sort"

	"github.com/eth-sri/nice2predict/dictionary"
)

// factorEntry is one factor's scored label multiset as tracked during tree
// construction. remaining is the working multiset used only to decide
// further branching ("visited-at-this-level bag" of spec §4.3); ids is the
// original, unmodified multiset returned to callers.
type factorEntry struct {
	ids       []dictionary.Id
	remaining []dictionary.Id
	weight    float64
}

// factorNode is one node of the multi-level factor candidate tree of spec
// §4.3: the full (sorted desc) list of factors reachable through this node,
// plus children keyed by the label id branched on.
type factorNode struct {
	factors  []factorEntry
	children map[dictionary.Id]*factorNode
}

func buildFactorNode(entries []factorEntry, depth, maxDepth, branchThreshold int) *factorNode {
	node := &factorNode{factors: entries}
	if depth >= maxDepth || len(entries) <= branchThreshold {
		return node
	}
	groups := make(map[dictionary.Id][]factorEntry)
	for _, e := range entries {
		seen := make(map[dictionary.Id]bool)
		for _, l := range e.remaining {
			if seen[l] {
				continue
			}
			seen[l] = true
			groups[l] = append(groups[l], e)
		}
	}
	if len(groups) == 0 {
		return node
	}
	node.children = make(map[dictionary.Id]*factorNode, len(groups))
	for label, members := range groups {
		reduced := make([]factorEntry, len(members))
		for i, e := range members {
			reduced[i] = factorEntry{
				ids:       e.ids,
				remaining: removeOne(e.remaining, label),
				weight:    e.weight,
			}
		}
		node.children[label] = buildFactorNode(reduced, depth+1, maxDepth, branchThreshold)
	}
	return node
}

func removeOne(ids []dictionary.Id, target dictionary.Id) []dictionary.Id {
	out := make([]dictionary.Id, 0, len(ids))
	removed := false
	for _, id := range ids {
		if !removed && id == target {
			removed = true
			continue
		}
		out = append(out, id)
	}
	return out
}

// buildFactorTrees rebuilds the per-arity candidate trees from the current
// factor weights, called by Prepare.
func (s *Store) buildFactorTrees() {
	s.mu.RLock()
	byArity := make(map[int][]factorEntry)
	for h, recs := range s.factorSet {
		w := float64(0)
		if aw, ok := s.factorWeights[h]; ok {
			w = aw.Load()
		}
		for _, rec := range recs {
			byArity[len(rec.ids)] = append(byArity[len(rec.ids)], factorEntry{
				ids:       rec.ids,
				remaining: append([]dictionary.Id(nil), rec.ids...),
				weight:    w,
			})
		}
	}
	s.mu.RUnlock()

	trees := make(map[int]*factorNode, len(byArity))
	for arity, entries := range byArity {
		sort.Slice(entries, func(i, j int) bool { return entries[i].weight > entries[j].weight })
		trees[arity] = buildFactorNode(entries, 0, s.cfg.MaximumDepth, s.cfg.BranchThreshold)
	}

	s.idxMu.Lock()
	s.factorTrees = trees
	s.idxMu.Unlock()
}
