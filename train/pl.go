package train

import (
	"github.com/chewxy/math32"
	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/query"
)

// applyHypotheticalGradient adds delta to every arc and factor feature that
// would be touched if node n carried label, box-projected into [0, hi],
// leaving asg's actual labels unchanged.
func (d *Driver) applyHypotheticalGradient(q *query.Query, asg *query.Assignment, n int, label dictionary.Id, delta, hi float64) {
	orig := asg.Labels[n]
	asg.Labels[n] = label
	for _, arc := range q.AdjArcs[n] {
		d.st.AddArcDelta(asg.Labels[arc.A], asg.Labels[arc.B], arc.Type, delta, 0, hi)
	}
	if d.cfg.Infer.UseFactors {
		for _, fi := range q.FactorsOf[n] {
			d.st.AddFactorDelta(factorLabels(q.Factors[fi], asg.Labels), delta, 0, hi)
		}
	}
	asg.Labels[n] = orig
}

// plStep implements spec §4.5.7: for each infer node n, build the
// candidate set C (top max_labels_z candidates plus the current label),
// compute the conditional distribution over C via node_score_with, then
// subtract η times each candidate's probability mass from the features it
// would touch and add back |C|·η times the reference labeling's features.
func (d *Driver) plStep(q *query.Query, ref *query.Assignment, eta, hi float64) {
	scorer := query.NewScorer(q, d.st, ref, d.cfg.Infer.UseFactors)

	for n := 0; n < q.N; n++ {
		if !ref.Infer[n] {
			continue
		}
		present := map[dictionary.Id]bool{ref.Labels[n]: true}
		candidates := []dictionary.Id{ref.Labels[n]}
		for _, c := range scorer.Candidates(n, d.cfg.MaxLabelsZ) {
			if !present[c] {
				present[c] = true
				candidates = append(candidates, c)
			}
		}

		scores := make([]float32, len(candidates))
		maxScore := float32(math32.Inf(-1))
		for i, c := range candidates {
			scores[i] = float32(scorer.NodeScoreWith(n, n, c))
			if scores[i] > maxScore {
				maxScore = scores[i]
			}
		}

		z := float32(0)
		weights := make([]float32, len(candidates))
		argmax := 0
		for i := range candidates {
			weights[i] = math32.Exp(scores[i] - maxScore)
			z += weights[i]
			if scores[i] > scores[argmax] {
				argmax = i
			}
		}

		for i, c := range candidates {
			p := float64(weights[i] / z)
			d.applyHypotheticalGradient(q, ref, n, c, -eta*p, hi)
		}
		d.applyHypotheticalGradient(q, ref, n, ref.Labels[n], eta*float64(len(candidates)), hi)

		known := true
		if unk, ok := d.st.UnknownID(); ok {
			known = candidates[argmax] != unk
		}
		d.st.Stats.Record(candidates[argmax] == ref.Labels[n], known)
	}
}
