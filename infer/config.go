// Package infer implements C5's inference half (spec §4.5.1-4.5.5): the
// greedy seed pass, loopy belief propagation, and the per-node, per-arc and
// per-factor local search passes that together produce a MAP assignment.
package infer

// Config holds the tunables of spec §6's configuration surface that affect
// inference behavior.
type Config struct {
	InitialGreedyAssignmentPass bool `mapstructure:"initial_greedy_assignment_pass"`
	DuplicateNameResolution     bool `mapstructure:"duplicate_name_resolution"`

	PerNodePasses   int `mapstructure:"graph_per_node_passes"`
	PerArcPasses    int `mapstructure:"graph_per_arc_passes"`
	PerFactorPasses int `mapstructure:"graph_per_factor_passes"`
	LoopyBPPasses   int `mapstructure:"graph_loopy_bp_passes"`

	LoopyBPStepsPerPass int `mapstructure:"graph_loopy_bp_steps_per_pass"`
	LoopyBeam           int `mapstructure:"loopy_beam"`

	SkipPerArcOptimizationForNodesAboveDegree int `mapstructure:"skip_per_arc_optimization_for_nodes_above_degree"`

	UseFactors           bool `mapstructure:"use_factors"`
	FactorsLimit         int  `mapstructure:"factors_limit"`
	PermutationsBeamSize int  `mapstructure:"permutations_beam_size"`

	BeamMin int `mapstructure:"beam_min"`
	BeamMax int `mapstructure:"beam_max"`
}

// DefaultConfig returns the defaults named in spec §4.5.1-§4.5.5.
func DefaultConfig() Config {
	return Config{
		InitialGreedyAssignmentPass:               true,
		DuplicateNameResolution:                   true,
		PerNodePasses:                              8,
		PerArcPasses:                               5,
		PerFactorPasses:                            1,
		LoopyBPPasses:                              0,
		LoopyBPStepsPerPass:                        3,
		LoopyBeam:                                  32,
		SkipPerArcOptimizationForNodesAboveDegree:   32,
		UseFactors:                                  true,
		FactorsLimit:                                128,
		PermutationsBeamSize:                        64,
		BeamMin:                                     4,
		BeamMax:                                     64,
	}
}
