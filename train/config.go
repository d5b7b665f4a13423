// Package train implements C5's learning half (spec §4.5.6-4.5.8): SSVM
// loss-augmented structured training, pseudolikelihood training, their
// combination, and the num_threads parallel epoch driver.
package train

import (
	"github.com/eth-sri/nice2predict/infer"
	"github.com/juju/errors"
)

// Method selects a training objective.
type Method string

const (
	MethodSSVM   Method = "ssvm"
	MethodPL     Method = "pl"
	MethodPLSSVM Method = "pl_ssvm"
)

// LearningRateFormula selects how pseudolikelihood's per-pass learning rate
// is derived from its initial value.
type LearningRateFormula string

const (
	RateFixed             LearningRateFormula = "fixed"
	RatePropSqrtPass      LearningRateFormula = "prop_sqrt_pass"
	RatePropPass          LearningRateFormula = "prop_pass"
	RatePropPassAndInitial LearningRateFormula = "prop_pass_and_initial_learn_rate"
)

// Config holds the training-related subset of spec §6's configuration
// surface.
type Config struct {
	Method Method `mapstructure:"training_method"`

	RegularizationConst float64 `mapstructure:"regularization_const"` // λ_reg; hi = 1/λ_reg
	SVMMargin           float64 `mapstructure:"svm_margin"`           // δ, loss-augmentation penalty
	MaxLabelsZ          int     `mapstructure:"max_labels_z"`         // beam_z, default 16

	NumTrainingPasses     int `mapstructure:"num_training_passes"`
	NumPassChangeTraining int `mapstructure:"num_pass_change_training"` // default 10, for pl_ssvm

	LearningRateFormula LearningRateFormula `mapstructure:"learning_rate_update_formula_pl"`
	PLLambda            float64             `mapstructure:"pl_lambda"`

	StartLearningRate       float64 `mapstructure:"start_learning_rate"`
	StopLearningRate        float64 `mapstructure:"stop_learning_rate"` // default 1e-4
	InitialLearningRateSSVM float64 `mapstructure:"initial_learning_rate_ssvm"`

	NumThreads int `mapstructure:"num_threads"` // default 8

	Infer infer.Config `mapstructure:"infer"`
}

// DefaultConfig returns the defaults named throughout spec §4.5.6-§4.5.8.
func DefaultConfig() Config {
	return Config{
		Method:                  MethodSSVM,
		RegularizationConst:     1,
		SVMMargin:               1,
		MaxLabelsZ:              16,
		NumTrainingPasses:       24,
		NumPassChangeTraining:   10,
		LearningRateFormula:     RatePropSqrtPass,
		PLLambda:                1,
		StartLearningRate:       0.1,
		StopLearningRate:        1e-4,
		InitialLearningRateSSVM: 0.1,
		NumThreads:              8,
		Infer:                   infer.DefaultConfig(),
	}
}

// Validate rejects configuration spec §7 treats as fatal at load time: a
// non-positive regularization constant (the weight box [0, 1/λ] would be
// empty or unbounded) or an unrecognized training method.
func (c Config) Validate() error {
	if c.RegularizationConst <= 0 {
		return errors.Errorf("train: regularization_const must be > 0, got %v", c.RegularizationConst)
	}
	switch c.Method {
	case MethodSSVM, MethodPL, MethodPLSSVM:
	default:
		return errors.Errorf("train: unknown training_method %q", c.Method)
	}
	switch c.LearningRateFormula {
	case RateFixed, RatePropSqrtPass, RatePropPass, RatePropPassAndInitial:
	default:
		return errors.Errorf("train: unknown learning_rate_update_formula_pl %q", c.LearningRateFormula)
	}
	return nil
}
