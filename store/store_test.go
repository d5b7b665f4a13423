package store

import (
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/stretchr/testify/assert"
)

func TestAddArcCreatesAndAccumulates(t *testing.T) {
	s := New(DefaultConfig())
	s.AddArc(1, 2, 3)
	s.AddArc(1, 2, 3)
	assert.Equal(t, float64(2), s.ArcWeight(1, 2, 3))
	assert.Equal(t, float64(0), s.ArcWeight(1, 2, 4))
}

func TestAddFactorDedupesMultisetsRegardlessOfOrder(t *testing.T) {
	s := New(DefaultConfig())
	s.AddFactor([]dictionary.Id{1, 2, 3})
	s.AddFactor([]dictionary.Id{3, 1, 2})
	assert.Equal(t, float64(2), s.FactorWeight([]dictionary.Id{1, 2, 3}))
	assert.Len(t, s.AllFactorFeatures(), 1)
}

func TestWeightBoxInvariantAfterOppositeGradients(t *testing.T) {
	// spec S6: lambda_reg=2 => hi=0.5. One large positive and one large
	// negative gradient on the same feature must leave the weight in
	// [0, 0.5].
	s := New(DefaultConfig())
	hi := 0.5
	s.AddArcDelta(1, 2, 3, 100, 0, hi)
	got := s.AddArcDelta(1, 2, 3, -100, 0, hi)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, hi)
}

func TestInitializeWeightsSetsHalfOfHi(t *testing.T) {
	s := New(DefaultConfig())
	s.AddArc(1, 2, 3)
	s.AddFactor([]dictionary.Id{4, 5})
	s.InitializeWeights(0.5)
	assert.Equal(t, 0.25, s.ArcWeight(1, 2, 3))
	assert.Equal(t, 0.25, s.FactorWeight([]dictionary.Id{4, 5}))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := New(DefaultConfig())
	s.AddArc(1, 2, 3)
	s.AddFactor([]dictionary.Id{4, 5})
	snap := s.SnapshotWeights()
	s.AddArcDelta(1, 2, 3, 99, -1e9, 1e9)
	s.AddFactorDelta([]dictionary.Id{4, 5}, 99, -1e9, 1e9)
	s.Restore(snap)
	assert.Equal(t, float64(1), s.ArcWeight(1, 2, 3))
	assert.Equal(t, float64(1), s.FactorWeight([]dictionary.Id{4, 5}))
}

func TestRareLabelReplacementRewritesArcsAndFreq(t *testing.T) {
	s := New(Config{MaximumDepth: 2, BranchThreshold: 16, MinFreqKnownLabel: 2})
	const unknown dictionary.Id = 99
	s.SetUnknown(unknown)
	// label 1 is common (freq 2), label 2 is rare (freq 1).
	s.IncrLabelFreq(1)
	s.IncrLabelFreq(1)
	s.IncrLabelFreq(2)
	s.AddArc(1, 2, 10)
	s.AddArc(1, 3, 10) // 3 never recorded in label_freq => rare
	s.Prepare()

	assert.Equal(t, unknown, s.ReplaceRareLabel(2))
	assert.Equal(t, dictionary.Id(1), s.ReplaceRareLabel(1))

	// both original arcs should have been folded into (1, unknown, 10)
	// with summed weight.
	assert.Equal(t, float64(2), s.ArcWeight(1, unknown, 10))
}

func TestPrepareBuildsSortedCandidateIndexes(t *testing.T) {
	s := New(DefaultConfig())
	s.AddArcDelta(1, 2, 7, 5, -1e9, 1e9)
	s.AddArcDelta(1, 3, 7, 9, -1e9, 1e9)
	s.AddArcDelta(1, 4, 7, 1, -1e9, 1e9)
	s.Prepare()

	best := s.BestByAType(1, 7)
	assert.Len(t, best, 3)
	assert.Equal(t, dictionary.Id(3), best[0].Label)
	assert.Equal(t, dictionary.Id(2), best[1].Label)
	assert.Equal(t, dictionary.Id(4), best[2].Label)
}

func TestFactorCandidatesWalksTreeByGivenLabels(t *testing.T) {
	s := New(Config{MaximumDepth: 2, BranchThreshold: 0})
	s.AddFactorDelta([]dictionary.Id{1, 2, 3}, 10, -1e9, 1e9)
	s.AddFactorDelta([]dictionary.Id{1, 2, 4}, 5, -1e9, 1e9)
	s.AddFactorDelta([]dictionary.Id{5, 6, 7}, 1, -1e9, 1e9)
	s.Prepare()

	cands := s.FactorCandidates(3, []dictionary.Id{1}, 10)
	assert.Len(t, cands, 2)
}
