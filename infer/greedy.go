package infer

import (
	"math"

	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/validator"
)

// greedySeed implements spec §4.5.1(1): initialize assigned = ¬infer, then
// repeatedly extract the infer node with the most already-assigned
// neighbors from a min-priority queue keyed by the negated count, assigning
// it the best validator-legal, scope-legal candidate of candidates(n, 4)
// scored via node_score_on_assigned.
func greedySeed(q *query.Query, scorer *query.Scorer, asg *query.Assignment, val *validator.Validator) {
	assigned := make([]bool, q.N)
	neighborAssigned := make([]int, q.N)
	pq := newNodeQueue()

	for n := 0; n < q.N; n++ {
		assigned[n] = !asg.Infer[n]
	}
	for n := 0; n < q.N; n++ {
		if assigned[n] {
			continue
		}
		cnt := 0
		for _, arc := range q.AdjArcs[n] {
			other := arc.A
			if other == n {
				other = arc.B
			}
			if assigned[other] {
				cnt++
			}
		}
		neighborAssigned[n] = cnt
		pq.push(n, -cnt)
	}

	for pq.Len() > 0 {
		n := pq.popMin()

		best := asg.Labels[n]
		bestScore := math.Inf(-1)
		for _, c := range scorer.Candidates(n, 4) {
			if !val.IsValid(c) {
				continue
			}
			asg.Labels[n] = c
			if !scorer.HasConflict(n) {
				sc := scorer.NodeScoreOnAssigned(n, assigned)
				if sc > bestScore {
					bestScore = sc
					best = c
				}
			}
		}
		asg.Labels[n] = best
		assigned[n] = true

		for _, arc := range q.AdjArcs[n] {
			other := arc.A
			if other == n {
				other = arc.B
			}
			if assigned[other] {
				continue
			}
			neighborAssigned[other]++
			pq.update(other, -neighborAssigned[other])
		}
	}
}
