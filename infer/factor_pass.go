package infer

import (
	"math"
	"math/rand"
	"sort"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/store"
	"github.com/eth-sri/nice2predict/validator"
)

// maxSafeFactorial returns n! and true, or (0, false) if the result would
// overflow int64, per spec §7's "integer overflow in factorial" rule.
func maxSafeFactorial(n int) (int64, bool) {
	result := int64(1)
	for i := 2; i <= n; i++ {
		if result > math.MaxInt64/int64(i) {
			return 0, false
		}
		result *= int64(i)
	}
	return result, true
}

func sortedCopy(ids []dictionary.Id) []dictionary.Id {
	out := append([]dictionary.Id(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func allPermutations(items []dictionary.Id) [][]dictionary.Id {
	n := len(items)
	if n == 0 {
		return [][]dictionary.Id{{}}
	}
	sorted := sortedCopy(items)
	used := make([]bool, n)
	cur := make([]dictionary.Id, 0, n)
	var out [][]dictionary.Id
	var rec func()
	rec = func() {
		if len(cur) == n {
			out = append(out, append([]dictionary.Id(nil), cur...))
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, sorted[i])
			rec()
			cur = cur[:len(cur)-1]
			used[i] = false
		}
	}
	rec()
	return out
}

func samplePermutations(items []dictionary.Id, count int, rng *rand.Rand) [][]dictionary.Id {
	out := make([][]dictionary.Id, 0, count)
	for i := 0; i < count; i++ {
		perm := append([]dictionary.Id(nil), items...)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		out = append(out, perm)
	}
	return out
}

// candidatePermutations enumerates every permutation of free lexicographically
// when that count fits within beamSize without overflowing int64, otherwise
// falls back to sampling beamSize random permutations (spec §4.5.5).
func candidatePermutations(free []dictionary.Id, beamSize int, rng *rand.Rand) [][]dictionary.Id {
	count, ok := maxSafeFactorial(len(free))
	if ok && count <= int64(beamSize) {
		return allPermutations(free)
	}
	return samplePermutations(free, beamSize, rng)
}

// subtractMultiset returns cand with given's elements removed by
// multiplicity, and false if cand is not a superset of given.
func subtractMultiset(cand, given []dictionary.Id) ([]dictionary.Id, bool) {
	remaining := append([]dictionary.Id(nil), cand...)
	for _, g := range given {
		idx := -1
		for i, r := range remaining {
			if r == g {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return remaining, true
}

// factorPass implements spec §4.5.5: for each factor, retrieve candidate
// label multisets via the store's factor candidate tree keyed by the given
// (non-infer) labels, and commit the best validator-legal, scope-legal
// assignment of the remaining free labels onto the infer nodes.
func factorPass(q *query.Query, st *store.Store, scorer *query.Scorer, asg *query.Assignment, val *validator.Validator, factorsLimit, permutationsBeamSize int, rng *rand.Rand) {
	for _, nodes := range q.Factors {
		var infNodes []int
		var givLabels []dictionary.Id
		for _, n := range nodes {
			if asg.Infer[n] {
				infNodes = append(infNodes, n)
			} else {
				givLabels = append(givLabels, asg.Labels[n])
			}
		}
		if len(infNodes) == 0 {
			continue
		}

		candidates := st.FactorCandidates(len(nodes), givLabels, factorsLimit)
		original := make([]dictionary.Id, len(infNodes))
		for i, n := range infNodes {
			original[i] = asg.Labels[n]
		}

		bestScore := math.Inf(-1)
		var bestPerm []dictionary.Id

		for _, cand := range candidates {
			free, ok := subtractMultiset(cand, givLabels)
			if !ok || len(free) != len(infNodes) {
				continue
			}
			for _, perm := range candidatePermutations(free, permutationsBeamSize, rng) {
				valid := true
				for i, n := range infNodes {
					if !val.IsValid(perm[i]) {
						valid = false
						break
					}
					asg.Labels[n] = perm[i]
				}
				if valid {
					for _, n := range infNodes {
						if scorer.HasConflict(n) {
							valid = false
							break
						}
					}
				}
				if valid {
					score := 0.0
					for _, n := range infNodes {
						score += scorer.NodeScore(n)
					}
					if score > bestScore {
						bestScore = score
						bestPerm = append([]dictionary.Id(nil), perm...)
					}
				}
				for i, n := range infNodes {
					asg.Labels[n] = original[i]
				}
			}
		}

		if bestPerm != nil {
			for i, n := range infNodes {
				asg.Labels[n] = bestPerm[i]
			}
		}
	}
}
