package infer

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/query"
)

type bpMessage struct {
	fromLabel dictionary.Id
	score     float64
}

type bpEntry struct {
	node  int
	label dictionary.Id
	total float64
	msg   map[int]bpMessage // keyed by neighbor node
}

// loopyBP implements spec §4.5.2: a sparse max-product table keyed by
// (node, label) for every infer node, seeded with the current label and the
// top loopyBeam candidates of each type, relaxed for stepsPerPass rounds,
// then traced back by visiting entries desc by total score and propagating
// each anchor's best-incoming labels outward by BFS.
func loopyBP(q *query.Query, scorer *query.Scorer, asg *query.Assignment, loopyBeam, stepsPerPass int) {
	labelsOf := make(map[int][]dictionary.Id)
	entries := make(map[int]map[dictionary.Id]*bpEntry)

	for n := 0; n < q.N; n++ {
		if !asg.Infer[n] {
			continue
		}
		seen := map[dictionary.Id]bool{asg.Labels[n]: true}
		labels := []dictionary.Id{asg.Labels[n]}
		for _, c := range scorer.Candidates(n, loopyBeam) {
			if !seen[c] {
				seen[c] = true
				labels = append(labels, c)
			}
		}
		labelsOf[n] = labels
		entries[n] = make(map[dictionary.Id]*bpEntry, len(labels))
		for _, l := range labels {
			entries[n][l] = &bpEntry{
				node:  n,
				label: l,
				total: scorer.NodeScoreWith(n, n, l),
				msg:   make(map[int]bpMessage),
			}
		}
	}

	neighborsOf := func(n int) []int {
		seen := make(map[int]bool)
		var out []int
		for _, arc := range q.AdjArcs[n] {
			other := arc.A
			if other == n {
				other = arc.B
			}
			if _, ok := entries[other]; ok && !seen[other] {
				seen[other] = true
				out = append(out, other)
			}
		}
		return out
	}

	for step := 0; step < stepsPerPass; step++ {
		for n, byLabel := range entries {
			neighbors := neighborsOf(n)
			for _, e := range byLabel {
				for _, from := range neighbors {
					bestVal := negInfBP
					var bestFromLabel dictionary.Id
					for _, lp := range labelsOf[from] {
						fe := entries[from][lp]
						oldMsg := 0.0
						if m, ok := fe.msg[n]; ok {
							oldMsg = m.score
						}
						v := fe.total - oldMsg + scorer.NodePairScore(from, n, lp, e.label)
						if v > bestVal {
							bestVal = v
							bestFromLabel = lp
						}
					}
					prevMsg := 0.0
					if m, ok := e.msg[from]; ok {
						prevMsg = m.score
					}
					e.total += bestVal - prevMsg
					e.msg[from] = bpMessage{fromLabel: bestFromLabel, score: bestVal}
				}
			}
		}
	}

	var flat []*bpEntry
	for _, byLabel := range entries {
		for _, e := range byLabel {
			flat = append(flat, e)
		}
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].total > flat[j].total })

	visited := bitset.New(uint(q.N))
	for _, anchor := range flat {
		if visited.Test(uint(anchor.node)) {
			continue
		}
		visited.Set(uint(anchor.node))
		asg.Labels[anchor.node] = anchor.label

		queue := []*bpEntry{anchor}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for from, m := range cur.msg {
				if visited.Test(uint(from)) {
					continue
				}
				visited.Set(uint(from))
				asg.Labels[from] = m.fromLabel
				queue = append(queue, entries[from][m.fromLabel])
			}
		}
	}
}

const negInfBP = -1e308
