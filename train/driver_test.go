package train

import (
	"testing"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/recordio"
	"github.com/eth-sri/nice2predict/store"
	"github.com/stretchr/testify/assert"
)

func chainRecord() recordio.Record {
	return recordio.Record{
		Arcs: []query.ArcInput{{A: 0, B: 1, Relation: "REL"}},
		Labels: []query.LabelInput{
			{Node: 0, Label: "A", Infer: false},
			{Node: 1, Label: "B", Infer: true},
		},
	}
}

func TestConfigValidateRejectsNonPositiveRegularization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RegularizationConst = 0
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsUnknownMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestTrainSSVMLearnsReferenceArcWeight(t *testing.T) {
	dict := dictionary.New()
	st := store.New(store.DefaultConfig())
	cfg := DefaultConfig()
	cfg.Method = MethodSSVM
	cfg.NumTrainingPasses = 3
	cfg.NumThreads = 1
	cfg.RegularizationConst = 1
	cfg.StartLearningRate = 0.1
	cfg.InitialLearningRateSSVM = 0.1
	cfg.Infer.UseFactors = false

	d := NewDriver(dict, nil, st, cfg)
	rec := chainRecord()
	d.AddQuery(&rec)
	st.Prepare()

	err := d.Train([]recordio.Record{rec})
	assert.NoError(t, err)

	relType := dict.Find("REL")
	labelA := dict.Find("A")
	labelB := dict.Find("B")
	w := st.ArcWeight(labelA, labelB, relType)
	assert.Greater(t, w, float64(0))
	assert.LessOrEqual(t, w, float64(1)) // box: hi = 1/regularization_const = 1
}

func TestTrainPLCompletesAndKeepsWeightsInBox(t *testing.T) {
	dict := dictionary.New()
	st := store.New(store.DefaultConfig())
	cfg := DefaultConfig()
	cfg.Method = MethodPL
	cfg.NumTrainingPasses = 2
	cfg.NumThreads = 1
	cfg.RegularizationConst = 2
	cfg.Infer.UseFactors = false

	d := NewDriver(dict, nil, st, cfg)
	rec := chainRecord()
	d.AddQuery(&rec)
	st.Prepare()

	err := d.Train([]recordio.Record{rec})
	assert.NoError(t, err)

	relType := dict.Find("REL")
	labelA := dict.Find("A")
	labelB := dict.Find("B")
	w := st.ArcWeight(labelA, labelB, relType)
	assert.GreaterOrEqual(t, w, float64(0))
	assert.LessOrEqual(t, w, 0.5)
}
