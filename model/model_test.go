package model

import (
	"path/filepath"
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestModel() (*Model, dictionary.Id, dictionary.Id, dictionary.Id, dictionary.Id) {
	dict := dictionary.New()
	a := dict.Add("A")
	b := dict.Add("B")
	rel := dict.Add("REL")
	unk := dict.Add("UNK")

	st := store.New(store.DefaultConfig())
	st.SetUnknown(unk)
	st.AddArc(a, b, rel)
	st.AddArcDelta(a, b, rel, -0.25, 0, 1) // count 1 - 0.25 = 0.75
	st.AddFactor([]dictionary.Id{a, b})
	st.AddFactorDelta([]dictionary.Id{a, b}, -0.75, 0, 1) // count 1 - 0.75 = 0.25
	st.IncrLabelFreq(a)
	st.IncrLabelFreq(a)
	st.IncrLabelFreq(b)
	st.Prepare()

	return &Model{Dict: dict, St: st}, a, b, rel, unk
}

func TestSaveLoadRoundTripsFeaturesAndStrings(t *testing.T) {
	m, a, b, rel, unk := buildTestModel()
	prefix := filepath.Join(t.TempDir(), "test")

	require.NoError(t, Save(prefix, m))

	loaded, err := Load(prefix, store.DefaultConfig(), "UNK")
	require.NoError(t, err)

	assert.Equal(t, m.Dict.Count(), loaded.Dict.Count())
	for _, id := range []dictionary.Id{a, b, rel, unk} {
		name, _ := m.Dict.Get(id)
		gotID := loaded.Dict.Find(name)
		assert.NotEqual(t, dictionary.AbsentId, gotID)
	}

	loadedA := loaded.Dict.Find("A")
	loadedB := loaded.Dict.Find("B")
	loadedRel := loaded.Dict.Find("REL")
	assert.InDelta(t, 0.75, loaded.St.ArcWeight(loadedA, loadedB, loadedRel), 1e-9)
	assert.InDelta(t, 0.25, loaded.St.FactorWeight([]dictionary.Id{loadedA, loadedB}), 1e-9)
	assert.Equal(t, 2, loaded.St.LabelFreq(loadedA))
	assert.Equal(t, 1, loaded.St.LabelFreq(loadedB))

	loadedUnk, ok := loaded.St.UnknownID()
	require.True(t, ok)
	name, _ := loaded.Dict.Get(loadedUnk)
	assert.Equal(t, "UNK", name)
}

func TestSaveSkipsLabelFreqFileWhenNoUnknownLabel(t *testing.T) {
	dict := dictionary.New()
	a := dict.Add("A")
	b := dict.Add("B")
	rel := dict.Add("REL")
	st := store.New(store.DefaultConfig())
	st.AddArc(a, b, rel)
	st.Prepare()

	prefix := filepath.Join(t.TempDir(), "test")
	require.NoError(t, Save(prefix, &Model{Dict: dict, St: st}))

	_, err := Load(prefix, store.DefaultConfig(), "")
	assert.NoError(t, err)
}

func TestDumpSummarizesCountsAndFrequencies(t *testing.T) {
	m, _, _, _, _ := buildTestModel()
	summary := Dump(m)

	assert.Equal(t, m.Dict.Count(), summary.StringCount)
	assert.Equal(t, 1, summary.ArcFeatureCount)
	assert.Equal(t, 1, summary.FactorFeatureCount)
	assert.Equal(t, "UNK", summary.UnknownLabel)
	require.Len(t, summary.LabelFrequencies, 2)
	assert.Equal(t, "A", summary.LabelFrequencies[0].Label)
	assert.Equal(t, 2, summary.LabelFrequencies[0].Count)
	assert.Equal(t, "B", summary.LabelFrequencies[1].Label)
	assert.Equal(t, 1, summary.LabelFrequencies[1].Count)
}
