package query

import (
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/stretchr/testify/assert"
)

func TestBuildSkipsUnknownRelation(t *testing.T) {
	dict := dictionary.New()
	varType := dict.Add("VAR_TYPE")

	q := Build(dict,
		[]ArcInput{
			{A: 0, B: 1, Relation: "VAR_TYPE"},
			{A: 1, B: 2, Relation: "NEVER_SEEN"},
		},
		nil, nil)

	assert.Len(t, q.Arcs, 1)
	assert.Equal(t, Arc{A: 0, B: 1, Type: varType}, q.Arcs[0])
	assert.Equal(t, 2, q.N) // max index from the kept arc only
}

func TestBuildComputesNodeCountAcrossAllFeatureKinds(t *testing.T) {
	dict := dictionary.New()
	dict.Add("REL")
	q := Build(dict,
		[]ArcInput{{A: 0, B: 1, Relation: "REL"}},
		[]ScopeInput{{Nodes: []int{2, 5, 2}}},
		[]FactorInput{{Nodes: []int{3, 4}}})

	assert.Equal(t, 6, q.N)
	assert.Equal(t, []int{2, 5}, q.Scopes[0])
}

func TestAdjacencyDedupesAndSortsPerNode(t *testing.T) {
	dict := dictionary.New()
	dict.Add("REL")
	q := Build(dict,
		[]ArcInput{
			{A: 0, B: 1, Relation: "REL"},
			{A: 0, B: 1, Relation: "REL"}, // duplicate, must be deduped
			{A: 2, B: 0, Relation: "REL"},
		}, nil, nil)

	assert.Len(t, q.AdjArcs[0], 2)
	assert.Equal(t, q.AdjArcs[0][0].A, 0)
	assert.Equal(t, q.AdjArcs[0][1].A, 2)
}

func TestArcsBetweenIsUndirected(t *testing.T) {
	dict := dictionary.New()
	dict.Add("REL")
	q := Build(dict, []ArcInput{{A: 3, B: 1, Relation: "REL"}}, nil, nil)
	assert.Len(t, q.ArcsBetween[[2]int{1, 3}], 1)
}

func TestFactorsOfDedupesRepeatedNodeInOneFactor(t *testing.T) {
	dict := dictionary.New()
	q := Build(dict, nil, nil, []FactorInput{{Nodes: []int{0, 0, 1}}})
	assert.Equal(t, []int{0}, q.FactorsOf[0])
}
