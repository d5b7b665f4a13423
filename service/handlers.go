package service

import (
	"math/rand"
	"sort"
	"time"

	"github.com/eth-sri/nice2predict/infer"
	"github.com/eth-sri/nice2predict/model"
	"github.com/eth-sri/nice2predict/query"
	"github.com/eth-sri/nice2predict/validator"
	"github.com/juju/errors"
)

// Engine serves the three RPC procedures of spec §6 against one loaded,
// read-only model (C1 dictionary + C3 weight store) and validator.
type Engine struct {
	m    *model.Model
	val  *validator.Validator
	cfg  infer.Config
	defN int
}

// NewEngine wraps a loaded model for serving.
func NewEngine(m *model.Model, val *validator.Validator, cfg infer.Config) *Engine {
	return &Engine{m: m, val: val, cfg: cfg, defN: 5}
}

func (e *Engine) buildQuery(p QueryPayload) (*query.Query, *query.Assignment, *query.LabelPool, error) {
	arcs := make([]query.ArcInput, len(p.Arcs))
	for i, a := range p.Arcs {
		arcs[i] = query.ArcInput{A: a.A, B: a.B, Relation: a.Relation}
	}
	scopes := make([]query.ScopeInput, len(p.Scopes))
	for i, s := range p.Scopes {
		scopes[i] = query.ScopeInput{Nodes: s.Nodes}
	}
	factors := make([]query.FactorInput, len(p.Factors))
	for i, f := range p.Factors {
		factors[i] = query.FactorInput{Nodes: f.Nodes}
	}
	labels := make([]query.LabelInput, len(p.Assignment))
	for i, l := range p.Assignment {
		labels[i] = query.LabelInput{Node: l.Node, Label: l.Label, Infer: l.Infer}
	}

	q := query.Build(e.m.Dict, arcs, scopes, factors)
	if q.N == 0 {
		return nil, nil, nil, errors.New("service: empty query")
	}
	interner := query.NewQueryInterner(e.m.Dict)
	asg := query.BuildAssignment(q.N, interner, labels)
	return q, asg, interner, nil
}

func (e *Engine) infer(asg *query.Assignment, q *query.Query) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	infer.MapInference(q, e.m.St, asg, e.val, e.cfg, rng)
}

// assignmentToPayload resolves every label through interner, so request-
// local labels that never made it into C1 (names the caller supplied that
// were never interned by training) still round-trip as strings.
func assignmentToPayload(interner *query.LabelPool, asg *query.Assignment) []LabelPayload {
	out := make([]LabelPayload, len(asg.Labels))
	for n := range asg.Labels {
		name, _ := interner.Name(asg.Labels[n])
		out[n] = LabelPayload{Node: n, Label: name, Infer: asg.Infer[n]}
	}
	return out
}

// Infer runs MAP inference to completion and returns the final assignment.
func (e *Engine) Infer(p QueryPayload) (*InferResponse, error) {
	q, asg, interner, err := e.buildQuery(p)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.infer(asg, q)
	return &InferResponse{Assignment: assignmentToPayload(interner, asg)}, nil
}

// NBest runs MAP inference to completion, then reports each infer node's
// top-n scored label candidates against the converged assignment.
func (e *Engine) NBest(p QueryPayload, n int) (*NBestResponse, error) {
	if n <= 0 {
		n = e.defN
	}
	q, asg, interner, err := e.buildQuery(p)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.infer(asg, q)

	scorer := query.NewScorer(q, e.m.St, asg, e.cfg.UseFactors)
	var results []NodeNBest
	for node := 0; node < q.N; node++ {
		if !asg.Infer[node] {
			continue
		}
		candidates := scorer.Candidates(node, n)
		scored := make([]LabelScore, 0, len(candidates))
		for _, c := range candidates {
			name, ok := interner.Name(c)
			if !ok {
				continue
			}
			scored = append(scored, LabelScore{Label: name, Score: scorer.NodeScoreWith(node, node, c)})
		}
		sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
		if len(scored) > n {
			scored = scored[:n]
		}
		results = append(results, NodeNBest{Node: node, Candidates: scored})
	}
	return &NBestResponse{Results: results}, nil
}

// ShowGraph runs MAP inference to completion, then reports the node/edge
// view for visualization: every node with its final label and a
// given/inferred color, plus every arc as a deduped undirected edge.
func (e *Engine) ShowGraph(p QueryPayload) (*ShowGraphResponse, error) {
	q, asg, interner, err := e.buildQuery(p)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.infer(asg, q)

	nodes := make([]GraphNode, q.N)
	for n := 0; n < q.N; n++ {
		name, _ := interner.Name(asg.Labels[n])
		color := colorGiven
		if asg.Infer[n] {
			color = colorInferred
		}
		nodes[n] = GraphNode{Id: n, Label: name, Color: color}
	}

	seen := make(map[[2]int]bool)
	var edges []GraphEdge
	for _, arc := range q.Arcs {
		a, b := arc.A, arc.B
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if seen[key] {
			continue
		}
		seen[key] = true
		name, _ := interner.Name(arc.Type)
		edges = append(edges, GraphEdge{Label: name, Source: arc.A, Target: arc.B})
	}
	return &ShowGraphResponse{Nodes: nodes, Edges: edges}, nil
}
