package train

import (
	"math"
	"math/rand"
	"time"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/nlog"
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/recordio"
	"github.com/eth-sri/nice2predict/store"
	"github.com/eth-sri/nice2predict/validator"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Driver owns the shared model state for one training run: the dictionary
// and validator built ahead of time, the weight store being trained, and
// the training configuration.
type Driver struct {
	dict *dictionary.Dictionary
	val  *validator.Validator
	st   *store.Store
	cfg  Config
}

// NewDriver constructs a training driver over an already-populated
// dictionary and validator.
func NewDriver(dict *dictionary.Dictionary, val *validator.Validator, st *store.Store, cfg Config) *Driver {
	return &Driver{dict: dict, val: val, st: st, cfg: cfg}
}

// AddQuery ingests one training record into the weight store before
// Prepare is called: every arc and factor the query mentions has its
// co-occurrence count bumped, and every assigned label's frequency is
// incremented, per spec §3's "C1 grows monotonically during AddQuery"
// lifecycle.
func (d *Driver) AddQuery(rec *recordio.Record) {
	interner := query.NewTrainingInterner(d.dict)
	for _, a := range rec.Arcs {
		d.dict.Add(a.Relation)
	}
	q := query.Build(d.dict, rec.Arcs, rec.Scopes, rec.Factors)
	asg := query.BuildAssignment(q.N, interner, rec.Labels)

	for _, arc := range q.Arcs {
		d.st.AddArc(asg.Labels[arc.A], asg.Labels[arc.B], arc.Type)
	}
	if d.cfg.Infer.UseFactors {
		for _, f := range q.Factors {
			ids := make([]dictionary.Id, len(f))
			for i, n := range f {
				ids[i] = asg.Labels[n]
			}
			d.st.AddFactor(ids)
		}
	}
	for n := 0; n < q.N; n++ {
		if asg.Labels[n] != dictionary.AbsentId {
			d.st.IncrLabelFreq(asg.Labels[n])
		}
	}
}

func (d *Driver) methodForPass(pass int) Method {
	if d.cfg.Method == MethodPLSSVM {
		if pass < d.cfg.NumPassChangeTraining {
			return MethodPL
		}
		return MethodSSVM
	}
	return d.cfg.Method
}

func (d *Driver) learningRateForPass(pass int) float64 {
	switch d.cfg.LearningRateFormula {
	case RatePropSqrtPass:
		return d.cfg.StartLearningRate / math.Sqrt(float64(pass+1))
	case RatePropPass:
		return d.cfg.StartLearningRate / float64(pass+1)
	case RatePropPassAndInitial:
		return d.cfg.StartLearningRate / (1 + d.cfg.PLLambda*float64(pass+1))
	default:
		return d.cfg.StartLearningRate
	}
}

// Train runs InitializeFeatureWeights followed by up to NumTrainingPasses
// epochs over records, per spec §4.5.6/§4.5.7/§4.5.8. Prepare must already
// have been called on the store (typically right after every AddQuery
// call) so the candidate index used by inference during loss-augmented
// decoding and PL's conditional normalizer is built.
func (d *Driver) Train(records []recordio.Record) error {
	if err := d.cfg.Validate(); err != nil {
		return errors.Trace(err)
	}
	hi := 1 / d.cfg.RegularizationConst
	d.st.InitializeWeights(hi)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	eta := d.cfg.StartLearningRate
	prevErrorRate := math.Inf(1)
	var prevMethod Method

	for pass := 0; pass < d.cfg.NumTrainingPasses; pass++ {
		method := d.methodForPass(pass)
		if method != prevMethod {
			if method == MethodSSVM {
				eta = d.cfg.InitialLearningRateSSVM
			} else {
				eta = d.cfg.StartLearningRate
			}
			prevErrorRate = math.Inf(1)
		} else if method != MethodSSVM {
			eta = d.learningRateForPass(pass)
		}
		prevMethod = method

		var snap *store.WeightSnapshot
		if method == MethodSSVM {
			snap = d.st.SnapshotWeights()
		}
		d.st.Stats.Reset()

		if err := d.runEpoch(records, method, eta, hi, rng); err != nil {
			return errors.Trace(err)
		}

		errorRate := 1 - d.st.Stats.Snapshot().Rate()
		if method == MethodSSVM && errorRate > prevErrorRate {
			d.st.Restore(snap)
			eta /= 2
			nlog.Logger().Warn("ssvm epoch regressed, reverted and halved learning rate",
				zap.Int("pass", pass), zap.Float64("learning_rate", eta))
		} else {
			prevErrorRate = errorRate
		}

		nlog.Logger().Info("training epoch complete",
			zap.Int("pass", pass),
			zap.String("method", string(method)),
			zap.Float64("error_rate", errorRate),
			zap.Float64("learning_rate", eta))

		if eta < d.cfg.StopLearningRate {
			break
		}
	}
	return nil
}

func (d *Driver) runEpoch(records []recordio.Record, method Method, eta, hi float64, seedRng *rand.Rand) error {
	reader := recordio.NewShuffledReader(records, seedRng)
	workerRngs := make([]*rand.Rand, d.cfg.NumThreads)
	for i := range workerRngs {
		workerRngs[i] = rand.New(rand.NewSource(seedRng.Int63()))
	}
	return run(len(records), d.cfg.NumThreads, func(workerID, jobID int) error {
		rec, ok := reader.Next()
		if !ok {
			return nil
		}
		return d.trainOne(rec, method, eta, hi, workerRngs[workerID])
	})
}

func (d *Driver) trainOne(rec *recordio.Record, method Method, eta, hi float64, rng *rand.Rand) error {
	interner := query.NewTrainingInterner(d.dict)
	q := query.Build(d.dict, rec.Arcs, rec.Scopes, rec.Factors)
	ref := query.BuildAssignment(q.N, interner, rec.Labels)

	for n := 0; n < q.N; n++ {
		if ref.Labels[n] != dictionary.AbsentId {
			ref.Labels[n] = d.st.ReplaceRareLabel(ref.Labels[n])
		}
	}

	switch method {
	case MethodPL:
		d.plStep(q, ref, eta, hi)
	default:
		d.ssvmStep(q, ref, eta, hi, rng)
	}
	return nil
}
