package infer

import (
	"math/rand"

	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/store"
	"github.com/eth-sri/nice2predict/validator"
)

// MapInference runs the full pipeline of spec §4.5.1 against asg in place:
// an optional greedy seed pass, then iterated local search alternating
// loopy BP, per-node, per-arc and per-factor passes with beam-size doubling,
// terminating early once a pass leaves total_score unchanged.
func MapInference(q *query.Query, st *store.Store, asg *query.Assignment, val *validator.Validator, cfg Config, rng *rand.Rand) {
	scorer := query.NewScorer(q, st, asg, cfg.UseFactors)

	if cfg.InitialGreedyAssignmentPass {
		greedySeed(q, scorer, asg, val)
	}

	passes := cfg.PerNodePasses
	if cfg.PerArcPasses > passes {
		passes = cfg.PerArcPasses
	}
	if cfg.LoopyBPPasses > passes {
		passes = cfg.LoopyBPPasses
	}

	beam := cfg.BeamMin
	if beam <= 0 {
		beam = 4
	}
	prevScore := scorer.TotalScore()

	for i := 0; i < passes; i++ {
		if i < cfg.LoopyBPPasses {
			loopyBP(q, scorer, asg, cfg.LoopyBeam, cfg.LoopyBPStepsPerPass)
		}
		if i < cfg.PerNodePasses {
			nodePass(q, scorer, asg, val, beam, cfg.DuplicateNameResolution)
		}
		if i < cfg.PerArcPasses {
			arcPass(q, st, scorer, asg, val, beam, cfg.SkipPerArcOptimizationForNodesAboveDegree)
		}
		if cfg.UseFactors && i < cfg.PerFactorPasses {
			factorPass(q, st, scorer, asg, val, cfg.FactorsLimit, cfg.PermutationsBeamSize, rng)
		}

		score := scorer.TotalScore()
		if score == prevScore {
			break
		}
		prevScore = score

		if beam < cfg.BeamMax {
			beam *= 2
			if beam > cfg.BeamMax {
				beam = cfg.BeamMax
			}
		}
	}
}
