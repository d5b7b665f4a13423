package query

import (
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/stretchr/testify/assert"
)

func TestBuildAssignmentDefaultsUnmentionedNodes(t *testing.T) {
	dict := dictionary.New()
	interner := NewTrainingInterner(dict)
	a := BuildAssignment(3, interner, []LabelInput{
		{Node: 1, Label: "int", Infer: true},
	})
	assert.Equal(t, dictionary.AbsentId, a.Labels[0])
	assert.False(t, a.Infer[0])
	assert.True(t, a.Infer[1])
}

func TestBuildAssignmentSkipsOutOfRangeNode(t *testing.T) {
	dict := dictionary.New()
	interner := NewTrainingInterner(dict)
	a := BuildAssignment(2, interner, []LabelInput{{Node: 9, Label: "x"}})
	assert.Equal(t, dictionary.AbsentId, a.Labels[0])
	assert.Equal(t, dictionary.AbsentId, a.Labels[1])
}

func TestTrainingInternerGrowsDictionary(t *testing.T) {
	dict := dictionary.New()
	interner := NewTrainingInterner(dict)
	id := interner.Intern("int")
	assert.Equal(t, id, dict.Find("int"))
}

func TestQueryInternerDoesNotMutateDictionary(t *testing.T) {
	dict := dictionary.New()
	pool := NewQueryInterner(dict)
	id := pool.Intern("unseen")
	assert.Less(t, id, dictionary.Id(0))
	assert.Equal(t, dictionary.AbsentId, dict.Find("unseen"))

	name, ok := pool.Name(id)
	assert.True(t, ok)
	assert.Equal(t, "unseen", name)
}

func TestQueryInternerReusesExistingDictionaryId(t *testing.T) {
	dict := dictionary.New()
	known := dict.Add("int")
	pool := NewQueryInterner(dict)
	assert.Equal(t, known, pool.Intern("int"))
}

func TestPenaltyDeltaOnlyAppliesWhenLabelMatches(t *testing.T) {
	dict := dictionary.New()
	interner := NewTrainingInterner(dict)
	a := BuildAssignment(1, interner, []LabelInput{{Node: 0, Label: "int"}})
	a.SetPenalty(0, a.Labels[0], 1.5)
	assert.Equal(t, 1.5, a.PenaltyDelta(0))

	a.Labels[0] = interner.Intern("string")
	assert.Equal(t, float64(0), a.PenaltyDelta(0))
}

func TestCloneIsIndependent(t *testing.T) {
	dict := dictionary.New()
	interner := NewTrainingInterner(dict)
	a := BuildAssignment(1, interner, []LabelInput{{Node: 0, Label: "int"}})
	b := a.Clone()
	b.Labels[0] = dictionary.AbsentId
	assert.NotEqual(t, a.Labels[0], b.Labels[0])
}
