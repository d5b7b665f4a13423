package infer

import (
	"math/rand"
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/store"
	"github.com/stretchr/testify/assert"
)

func TestMapInferencePullsInferNodeTowardHighWeightArc(t *testing.T) {
	dict := dictionary.New()
	interner := query.NewTrainingInterner(dict)
	rel := interner.Intern("REL")
	labelA := interner.Intern("A")
	labelB := interner.Intern("B")

	q := query.Build(dict, []query.ArcInput{{A: 0, B: 1, Relation: "REL"}}, nil, nil)

	st := store.New(store.DefaultConfig())
	st.AddArcDelta(labelA, labelB, rel, 10, -1e9, 1e9)
	st.AddArcDelta(labelA, labelA, rel, 1, -1e9, 1e9)
	st.Prepare()

	asg := query.BuildAssignment(q.N, interner, []query.LabelInput{
		{Node: 0, Label: "A", Infer: false},
		{Node: 1, Label: "A", Infer: true},
	})

	cfg := DefaultConfig()
	cfg.InitialGreedyAssignmentPass = false
	cfg.PerFactorPasses = 0
	rng := rand.New(rand.NewSource(7))

	MapInference(q, st, asg, nil, cfg, rng)
	assert.Equal(t, labelB, asg.Labels[1])
}

func TestMapInferenceLeavesNonInferNodesUntouched(t *testing.T) {
	dict := dictionary.New()
	interner := query.NewTrainingInterner(dict)
	rel := interner.Intern("REL")
	labelA := interner.Intern("A")
	labelB := interner.Intern("B")

	q := query.Build(dict, []query.ArcInput{{A: 0, B: 1, Relation: "REL"}}, nil, nil)
	st := store.New(store.DefaultConfig())
	st.AddArcDelta(labelA, labelB, rel, 10, -1e9, 1e9)
	st.Prepare()

	asg := query.BuildAssignment(q.N, interner, []query.LabelInput{
		{Node: 0, Label: "A", Infer: false},
		{Node: 1, Label: "A", Infer: true},
	})

	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(1))
	MapInference(q, st, asg, nil, cfg, rng)

	assert.Equal(t, labelA, asg.Labels[0])
}
