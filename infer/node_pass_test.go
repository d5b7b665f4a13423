package infer

import (
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/store"
	"github.com/stretchr/testify/assert"
)

// A chain 0--REL-->1--REL-->2 where weight(A,B)=5 dominates weight(A,A)=1,
// so the per-node pass should pull node 1's label toward B.
func buildChain(t *testing.T) (*query.Query, *store.Store, *query.Assignment, dictionary.Id, dictionary.Id) {
	dict := dictionary.New()
	interner := query.NewTrainingInterner(dict)
	rel := interner.Intern("REL")
	labelA := interner.Intern("A")
	labelB := interner.Intern("B")

	q := query.Build(dict, []query.ArcInput{
		{A: 0, B: 1, Relation: "REL"},
		{A: 1, B: 2, Relation: "REL"},
	}, nil, nil)

	st := store.New(store.DefaultConfig())
	st.AddArcDelta(labelA, labelB, rel, 5, -1e9, 1e9)
	st.AddArcDelta(labelA, labelA, rel, 1, -1e9, 1e9)
	st.Prepare()

	asg := query.BuildAssignment(q.N, interner, []query.LabelInput{
		{Node: 0, Label: "A", Infer: false},
		{Node: 1, Label: "A", Infer: true},
		{Node: 2, Label: "A", Infer: false},
	})
	return q, st, asg, labelA, labelB
}

func TestNodePassPrefersHigherScoringCandidate(t *testing.T) {
	q, st, asg, _, labelB := buildChain(t)
	scorer := query.NewScorer(q, st, asg, false)
	nodePass(q, scorer, asg, nil, 4, true)
	assert.Equal(t, labelB, asg.Labels[1])
}
