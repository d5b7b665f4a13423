package query

import (
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/store"
	"github.com/stretchr/testify/assert"
)

func setupChain(t *testing.T) (*Query, *store.Store, *Assignment, dictionary.Id, dictionary.Id, dictionary.Id) {
	dict := dictionary.New()
	interner := NewTrainingInterner(dict)
	relType := interner.Intern("NEXT")

	q := Build(dict, []ArcInput{
		{A: 0, B: 1, Relation: "NEXT"},
		{A: 1, B: 2, Relation: "NEXT"},
	}, []ScopeInput{{Nodes: []int{0, 1}}}, nil)

	st := store.New(store.DefaultConfig())
	labelA := interner.Intern("A")
	labelB := interner.Intern("B")
	st.AddArcDelta(labelA, labelB, relType, 3, -1e9, 1e9)
	st.AddArcDelta(labelB, labelA, relType, 1, -1e9, 1e9)
	st.Prepare()

	asg := BuildAssignment(q.N, interner, []LabelInput{
		{Node: 0, Label: "A", Infer: false},
		{Node: 1, Label: "B", Infer: true},
		{Node: 2, Label: "A", Infer: true},
	})
	return q, st, asg, relType, labelA, labelB
}

func TestNodeScoreSumsAdjacentArcs(t *testing.T) {
	q, st, asg, _, _, _ := setupChain(t)
	s := NewScorer(q, st, asg, false)
	assert.Equal(t, float64(3), s.NodeScore(0))
	assert.Equal(t, float64(3)+float64(1), s.NodeScore(1))
}

func TestNodeScoreWithSubstitutesHypotheticalLabel(t *testing.T) {
	q, st, asg, _, labelA, _ := setupChain(t)
	s := NewScorer(q, st, asg, false)
	// If node 1 were labeled A instead of B, arc(0,1) becomes (A,A) = 0
	assert.Equal(t, float64(0), s.NodeScoreWith(0, 1, labelA))
}

func TestHasConflictRespectsUnknownException(t *testing.T) {
	q, st, asg, _, labelA, _ := setupChain(t)
	asg.Labels[1] = labelA // now nodes 0 and 1 share scope 0 with equal label A
	s := NewScorer(q, st, asg, false)
	assert.True(t, s.HasConflict(0))

	st.SetUnknown(labelA)
	assert.False(t, s.HasConflict(0))
}

func TestCandidatesUnionsBothDirectionsDeduped(t *testing.T) {
	q, st, asg, _, _, labelB := setupChain(t)
	s := NewScorer(q, st, asg, false)
	// Node 1 is "b" of arc(0,1) (best_by_a_type[(A,NEXT)] = {B}) and "a" of
	// arc(1,2) (best_by_b_type[(A,NEXT)] = {B}); the union holds B once.
	cands := s.Candidates(1, 4)
	assert.Equal(t, []dictionary.Id{labelB}, cands)
}

func TestTotalScoreSumsAllArcs(t *testing.T) {
	q, st, asg, _, _, _ := setupChain(t)
	s := NewScorer(q, st, asg, false)
	// arc(0,1)=(A,B)=3, arc(1,2)=(B,A)=1
	assert.Equal(t, float64(4), s.TotalScore())
}
