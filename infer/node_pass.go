package infer

import (
	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/validator"
)

// nodePass implements spec §4.5.3: for each infer node in ascending index
// order, evaluate node_score at the current label and at each candidate,
// skipping validator-invalid and scope-conflicting moves. When
// duplicateNameResolution is set, a candidate that conflicts with exactly
// one other infer node is also considered as the swap-like move described
// there.
func nodePass(q *query.Query, scorer *query.Scorer, asg *query.Assignment, val *validator.Validator, beam int, duplicateNameResolution bool) {
	for n := 0; n < q.N; n++ {
		if !asg.Infer[n] {
			continue
		}
		current := asg.Labels[n]
		bestScore := scorer.NodeScore(n)
		bestSingle := current
		haveSwap := false
		var swapPartner int
		var swapLabel dictionary.Id

		for _, c := range scorer.Candidates(n, beam) {
			if c == current || !val.IsValid(c) {
				continue
			}

			asg.Labels[n] = c
			conflict := scorer.HasConflict(n)
			if !conflict {
				sc := scorer.NodeScore(n)
				if sc > bestScore {
					bestScore = sc
					bestSingle = c
					haveSwap = false
				}
				asg.Labels[n] = current
				continue
			}
			asg.Labels[n] = current

			if !duplicateNameResolution {
				continue
			}
			partners := conflictingPartners(q, asg, n, c)
			if len(partners) != 1 || !asg.Infer[partners[0]] {
				continue
			}
			n2 := partners[0]
			preN2 := scorer.NodeScore(n2)
			origN2 := asg.Labels[n2]

			asg.Labels[n] = c
			asg.Labels[n2] = current
			legal := !scorer.HasConflict(n) && !scorer.HasConflict(n2)
			if legal {
				metric := scorer.NodeScore(n) + scorer.NodeScore(n2) - preN2
				if metric > bestScore {
					bestScore = metric
					haveSwap = true
					swapPartner = n2
					swapLabel = c
				}
			}
			asg.Labels[n] = current
			asg.Labels[n2] = origN2
		}

		if haveSwap {
			asg.Labels[n] = swapLabel
			asg.Labels[swapPartner] = current
		} else {
			asg.Labels[n] = bestSingle
		}
	}
}

func conflictingPartners(q *query.Query, asg *query.Assignment, n int, label dictionary.Id) []int {
	seen := make(map[int]bool)
	var out []int
	for _, si := range q.ScopesOf[n] {
		for _, n2 := range q.Scopes[si] {
			if n2 != n && asg.Labels[n2] == label && !seen[n2] {
				seen[n2] = true
				out = append(out, n2)
			}
		}
	}
	return out
}
