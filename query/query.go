// Package query implements C4, the per-request query and assignment model:
// building the arc/scope/factor graph and its adjacency tables from a raw
// feature list (spec §4.4), and the scoring primitives the inference and
// training passes evaluate candidate moves against.
package query

import (
	"sort"

	"github.com/eth-sri/nice2predict/dictionary"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/scylladb/go-set"
)

// ArcInput is one binary-relation feature record, as presented by a caller
// before the relation string is interned.
type ArcInput struct {
	A        int    `json:"a"`
	B        int    `json:"b"`
	Relation string `json:"relation"`
}

// ScopeInput is one "all-different" constraint, as presented by a caller.
type ScopeInput struct {
	Nodes []int `json:"nodes"`
}

// FactorInput is one unordered factor group, as presented by a caller.
type FactorInput struct {
	Nodes []int `json:"nodes"`
}

// Arc is an interned, typed binary relation between two node indices.
type Arc struct {
	A, B int
	Type dictionary.Id
}

// Query is the graph of one request: interned arcs, scopes and factor
// groups, plus the adjacency tables invariant 4 of the data model requires
// (per-node arc list, deduped and sorted).
type Query struct {
	N       int
	Arcs    []Arc
	Scopes  [][]int
	Factors [][]int

	AdjArcs     [][]Arc
	ArcsBetween map[[2]int][]Arc
	ScopesOf    [][]int
	FactorsOf   [][]int
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Build interns every arc's relation type against dict and assembles the
// query graph. A relation string never interned into dict (no training
// query ever mentioned it) is not a request-local label: per spec §7 the
// feature is skipped silently, since relations known only at serving time
// cannot contribute to inference.
func Build(dict *dictionary.Dictionary, arcs []ArcInput, scopes []ScopeInput, factors []FactorInput) *Query {
	q := &Query{}

	for _, a := range arcs {
		typ := dict.Find(a.Relation)
		if typ == dictionary.AbsentId {
			continue
		}
		q.Arcs = append(q.Arcs, Arc{A: a.A, B: a.B, Type: typ})
	}

	for _, s := range scopes {
		set := mapset.NewThreadUnsafeSet[int]()
		for _, n := range s.Nodes {
			set.Add(n)
		}
		nodes := set.ToSlice()
		sort.Ints(nodes)
		q.Scopes = append(q.Scopes, nodes)
	}

	for _, f := range factors {
		nodes := append([]int(nil), f.Nodes...)
		q.Factors = append(q.Factors, nodes)
	}

	q.N = computeNodeCount(q.Arcs, q.Scopes, q.Factors)
	q.buildAdjacency()
	return q
}

func computeNodeCount(arcs []Arc, scopes, factors [][]int) int {
	max := -1
	for _, a := range arcs {
		if a.A > max {
			max = a.A
		}
		if a.B > max {
			max = a.B
		}
	}
	for _, s := range scopes {
		for _, n := range s {
			if n > max {
				max = n
			}
		}
	}
	for _, f := range factors {
		for _, n := range f {
			if n > max {
				max = n
			}
		}
	}
	return max + 1
}

func (q *Query) buildAdjacency() {
	q.AdjArcs = make([][]Arc, q.N)
	q.ArcsBetween = make(map[[2]int][]Arc)
	q.ScopesOf = make([][]int, q.N)
	q.FactorsOf = make([][]int, q.N)

	perNode := make([]mapset.Set[Arc], q.N)
	for i := range perNode {
		perNode[i] = mapset.NewThreadUnsafeSet[Arc]()
	}
	for _, a := range q.Arcs {
		perNode[a.A].Add(a)
		perNode[a.B].Add(a)
		key := pairKey(a.A, a.B)
		q.ArcsBetween[key] = append(q.ArcsBetween[key], a)
	}
	for n := range perNode {
		list := perNode[n].ToSlice()
		sort.Slice(list, func(i, j int) bool {
			if list[i].A != list[j].A {
				return list[i].A < list[j].A
			}
			if list[i].B != list[j].B {
				return list[i].B < list[j].B
			}
			return list[i].Type < list[j].Type
		})
		q.AdjArcs[n] = list
	}

	for si, s := range q.Scopes {
		for _, n := range s {
			q.ScopesOf[n] = append(q.ScopesOf[n], si)
		}
	}
	for fi, f := range q.Factors {
		seen := set.NewIntSet()
		for _, n := range f {
			if seen.Has(n) {
				continue
			}
			seen.Add(n)
			q.FactorsOf[n] = append(q.FactorsOf[n], fi)
		}
	}
}
