package train

import (
	"math/rand"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/infer"
	"github.com/eth-sri/nice2predict/query"
)

func factorLabels(nodes []int, labels []dictionary.Id) []dictionary.Id {
	ids := make([]dictionary.Id, len(nodes))
	for i, n := range nodes {
		ids[i] = labels[n]
	}
	return ids
}

// ssvmStep implements spec §4.5.6's per-query gradient step: snapshot the
// reference labeling, run MAP inference with every infer node penalized
// against its reference label (loss-augmented decoding), then move every
// touched arc/factor weight by +η at the reference labeling and −η at the
// loss-augmented labeling, box-projected into [0, hi].
func (d *Driver) ssvmStep(q *query.Query, ref *query.Assignment, eta, hi float64, rng *rand.Rand) {
	working := ref.Clone()
	for n := 0; n < q.N; n++ {
		if working.Infer[n] {
			working.SetPenalty(n, ref.Labels[n], d.cfg.SVMMargin)
		}
	}

	infer.MapInference(q, d.st, working, d.val, d.cfg.Infer, rng)

	for _, arc := range q.Arcs {
		d.st.AddArcDelta(ref.Labels[arc.A], ref.Labels[arc.B], arc.Type, eta, 0, hi)
		d.st.AddArcDelta(working.Labels[arc.A], working.Labels[arc.B], arc.Type, -eta, 0, hi)
	}
	if d.cfg.Infer.UseFactors {
		for _, f := range q.Factors {
			d.st.AddFactorDelta(factorLabels(f, ref.Labels), eta, 0, hi)
			d.st.AddFactorDelta(factorLabels(f, working.Labels), -eta, 0, hi)
		}
	}

	for n := 0; n < q.N; n++ {
		if !ref.Infer[n] {
			continue
		}
		known := true
		if unk, ok := d.st.UnknownID(); ok {
			known = working.Labels[n] != unk
		}
		d.st.Stats.Record(working.Labels[n] == ref.Labels[n], known)
	}
}
