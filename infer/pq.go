package infer

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

type pqItem[W constraints.Ordered] struct {
	node     int
	priority W
	index    int
}

type pqHeap[W constraints.Ordered] []*pqItem[W]

func (h pqHeap[W]) Len() int            { return len(h) }
func (h pqHeap[W]) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h pqHeap[W]) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *pqHeap[W]) Push(x interface{}) {
	item := x.(*pqItem[W])
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *pqHeap[W]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// nodeQueue is a mutable-priority min-heap over node indices. It
// generalizes the teacher's container/heap wrapper (base/heap/pq.go) with a
// decrease-key Fix operation, since the greedy seed pass of spec §4.5.1
// must re-prioritize a node's neighbors every time it is assigned.
type nodeQueue struct {
	h     pqHeap[int]
	index map[int]*pqItem[int]
}

func newNodeQueue() *nodeQueue {
	return &nodeQueue{index: make(map[int]*pqItem[int])}
}

func (q *nodeQueue) push(node, priority int) {
	item := &pqItem[int]{node: node, priority: priority}
	q.index[node] = item
	heap.Push(&q.h, item)
}

func (q *nodeQueue) update(node, priority int) {
	item, ok := q.index[node]
	if !ok {
		return
	}
	item.priority = priority
	heap.Fix(&q.h, item.index)
}

func (q *nodeQueue) popMin() int {
	item := heap.Pop(&q.h).(*pqItem[int])
	delete(q.index, item.node)
	return item.node
}

func (q *nodeQueue) Len() int { return len(q.h) }
