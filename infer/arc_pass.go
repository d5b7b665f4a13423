package infer

import (
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/store"
	"github.com/eth-sri/nice2predict/validator"
)

// arcPass implements spec §4.5.4: for each arc whose endpoints are both
// infer and neither exceeds the configured degree cutoff, read the top
// beam entries of best_by_type and accept the best simultaneous-label
// proposal that is validator-legal and scope-legal on both endpoints.
func arcPass(q *query.Query, st *store.Store, scorer *query.Scorer, asg *query.Assignment, val *validator.Validator, beam, skipAboveDegree int) {
	for _, arc := range q.Arcs {
		a, b := arc.A, arc.B
		if !asg.Infer[a] || !asg.Infer[b] {
			continue
		}
		if len(q.AdjArcs[a]) > skipAboveDegree || len(q.AdjArcs[b]) > skipAboveDegree {
			continue
		}

		origA, origB := asg.Labels[a], asg.Labels[b]
		list := st.BestByType(arc.Type)
		k := beam
		if k > len(list) {
			k = len(list)
		}

		bestScore := scorer.NodeScore(a) + scorer.NodeScore(b)
		bestA, bestB := origA, origB
		for i := 0; i < k; i++ {
			la, lb := list[i].Key.A, list[i].Key.B
			if !val.IsValid(la) || !val.IsValid(lb) {
				continue
			}
			asg.Labels[a], asg.Labels[b] = la, lb
			if scorer.HasConflict(a) || scorer.HasConflict(b) {
				asg.Labels[a], asg.Labels[b] = origA, origB
				continue
			}
			sc := scorer.NodeScore(a) + scorer.NodeScore(b)
			asg.Labels[a], asg.Labels[b] = origA, origB
			if sc > bestScore {
				bestScore = sc
				bestA, bestB = la, lb
			}
		}
		asg.Labels[a], asg.Labels[b] = bestA, bestB
	}
}
