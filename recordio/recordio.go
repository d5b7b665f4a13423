// Package recordio is the out-of-scope collaborator spec §5 assumes: a
// reader that hands one training query at a time to a worker, shuffling
// the full training set once into memory and prefetching a single record
// ahead so a worker's read blocks only on a short mutex hold.
package recordio

import (
	"math/rand"
	"sync"

	"github.com/eth-sri/nice2predict/query"
)

// Record is one training query exactly as presented by the training data
// source, before interning.
type Record struct {
	Arcs    []query.ArcInput    `json:"arcs,omitempty"`
	Scopes  []query.ScopeInput  `json:"scopes,omitempty"`
	Factors []query.FactorInput `json:"factors,omitempty"`
	Labels  []query.LabelInput  `json:"labels"`
}

// Reader hands out one Record per call until the set is exhausted.
type Reader interface {
	// Next returns the next record, or ok=false once every record has been
	// delivered.
	Next() (*Record, bool)
}

// ShuffledReader is the in-memory Reader spec §5 describes: the full
// training set is shuffled once at construction, then served one record at
// a time under a short mutex, with the next record prefetched by a
// background goroutine.
type ShuffledReader struct {
	mu sync.Mutex
	ch chan Record
}

// NewShuffledReader shuffles records (read-only; the input slice is not
// modified) and starts prefetching.
func NewShuffledReader(records []Record, rng *rand.Rand) *ShuffledReader {
	shuffled := append([]Record(nil), records...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	r := &ShuffledReader{ch: make(chan Record, 1)}
	go func() {
		defer close(r.ch)
		for _, rec := range shuffled {
			r.ch <- rec
		}
	}()
	return r
}

// Next blocks until a record is prefetched or the set is exhausted.
func (r *ShuffledReader) Next() (*Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := <-r.ch
	if !ok {
		return nil, false
	}
	return &rec, true
}
