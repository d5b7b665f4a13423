package query

import (
	"sort"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/store"
)

// Scorer evaluates the scoring primitives of spec §4.4 against one Query,
// one Assignment and a shared Store. It holds no state of its own beyond
// these references, so it is cheap to construct per inference pass.
type Scorer struct {
	q          *Query
	st         *store.Store
	asg        *Assignment
	useFactors bool
}

// NewScorer builds a Scorer. useFactors gates factor-feature contributions
// entirely, matching the `use_factors` configuration option.
func NewScorer(q *Query, st *store.Store, asg *Assignment, useFactors bool) *Scorer {
	return &Scorer{q: q, st: st, asg: asg, useFactors: useFactors}
}

func (s *Scorer) factorScore(fi int, labelOf func(int) dictionary.Id) float64 {
	nodes := s.q.Factors[fi]
	ids := make([]dictionary.Id, len(nodes))
	for i, n := range nodes {
		ids[i] = labelOf(n)
	}
	return s.st.FactorWeight(ids)
}

func (s *Scorer) nodeScoreVia(n int, labelOf func(int) dictionary.Id) float64 {
	total := 0.0
	for _, arc := range s.q.AdjArcs[n] {
		total += s.st.ArcWeight(labelOf(arc.A), labelOf(arc.B), arc.Type)
	}
	if s.useFactors {
		for _, fi := range s.q.FactorsOf[n] {
			total += s.factorScore(fi, labelOf)
		}
	}
	total -= s.asg.PenaltyDelta(n)
	return total
}

func (s *Scorer) currentLabel(n int) dictionary.Id { return s.asg.Labels[n] }

// NodeScore is node_score(n): the current contribution of n to the total
// score, under the assignment's current labels.
func (s *Scorer) NodeScore(n int) float64 {
	return s.nodeScoreVia(n, s.currentLabel)
}

// NodeScoreWith is node_score_with(n, nStar, lStar): node_score(n) as if
// node nStar carried label lStar, leaving the assignment untouched.
func (s *Scorer) NodeScoreWith(n, nStar int, lStar dictionary.Id) float64 {
	return s.nodeScoreVia(n, func(node int) dictionary.Id {
		if node == nStar {
			return lStar
		}
		return s.asg.Labels[node]
	})
}

// NodeScoreOnAssigned is node_score_on_assigned(n, assigned): node_score(n)
// restricted to arcs whose other endpoint is flagged assigned, used by the
// greedy seed pass before every node has a label.
func (s *Scorer) NodeScoreOnAssigned(n int, assigned []bool) float64 {
	total := 0.0
	for _, arc := range s.q.AdjArcs[n] {
		other := arc.A
		if other == n {
			other = arc.B
		}
		if !assigned[other] {
			continue
		}
		total += s.st.ArcWeight(s.asg.Labels[arc.A], s.asg.Labels[arc.B], arc.Type)
	}
	total -= s.asg.PenaltyDelta(n)
	return total
}

// NodePairScore is node_pair_score(n1, n2, l1, l2): the sum over arcs
// between n1 and n2 with l1/l2 substituted for their current labels.
func (s *Scorer) NodePairScore(n1, n2 int, l1, l2 dictionary.Id) float64 {
	total := 0.0
	for _, arc := range s.q.ArcsBetween[pairKey(n1, n2)] {
		la, lb := l1, l2
		if arc.A == n2 {
			la, lb = l2, l1
		}
		total += s.st.ArcWeight(la, lb, arc.Type)
	}
	return total
}

// TotalScore is total_score(): the sum of every arc and (if enabled) factor
// weight under the current assignment, minus every active penalty.
func (s *Scorer) TotalScore() float64 {
	total := 0.0
	for _, arc := range s.q.Arcs {
		total += s.st.ArcWeight(s.asg.Labels[arc.A], s.asg.Labels[arc.B], arc.Type)
	}
	if s.useFactors {
		for fi := range s.q.Factors {
			total += s.factorScore(fi, s.currentLabel)
		}
	}
	for n := 0; n < s.q.N; n++ {
		total -= s.asg.PenaltyDelta(n)
	}
	return total
}

// HasConflict is has_conflict(n): true iff some other node sharing a scope
// with n currently carries the same label. A node labeled with the
// configured unknown label never conflicts.
func (s *Scorer) HasConflict(n int) bool {
	if unk, ok := s.st.UnknownID(); ok && s.asg.Labels[n] == unk {
		return false
	}
	label := s.asg.Labels[n]
	for _, si := range s.q.ScopesOf[n] {
		for _, n2 := range s.q.Scopes[si] {
			if n2 != n && s.asg.Labels[n2] == label {
				return true
			}
		}
	}
	return false
}

// Candidates is candidates(n, beam): the union of best_by_b_type entries
// for arcs where n is the "a" endpoint and best_by_a_type entries for arcs
// where n is the "b" endpoint, each truncated to beam before the union,
// deduplicated by id keeping the best weight seen, and returned sorted desc
// by that weight.
func (s *Scorer) Candidates(n, beam int) []dictionary.Id {
	best := make(map[dictionary.Id]float64)
	consider := func(list []store.LabelCandidate) {
		k := beam
		if k > len(list) {
			k = len(list)
		}
		for i := 0; i < k; i++ {
			c := list[i]
			if w, ok := best[c.Label]; !ok || c.Weight > w {
				best[c.Label] = c.Weight
			}
		}
	}
	for _, arc := range s.q.AdjArcs[n] {
		if arc.A == n {
			consider(s.st.BestByBType(s.asg.Labels[arc.B], arc.Type))
		}
		if arc.B == n {
			consider(s.st.BestByAType(s.asg.Labels[arc.A], arc.Type))
		}
	}
	ids := make([]dictionary.Id, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return best[ids[i]] > best[ids[j]] })
	return ids
}

// FactorLabels returns the current labels of factor fi's nodes, in the
// factor's declared node order (a multiset by construction).
func (s *Scorer) FactorLabels(fi int) []dictionary.Id {
	nodes := s.q.Factors[fi]
	ids := make([]dictionary.Id, len(nodes))
	for i, n := range nodes {
		ids[i] = s.asg.Labels[n]
	}
	return ids
}
