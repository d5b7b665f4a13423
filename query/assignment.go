package query

import (
	"sync"

	"github.com/eth-sri/nice2predict/dictionary"
)

// Interner resolves a label string to an id, for assignment building. It
// has two concrete shapes: a training-time interner that grows C1
// permanently, and a per-request pool that allocates ephemeral negative ids
// for names C1 has never seen (spec §3's "two tiers" of label id).
type Interner interface {
	Intern(s string) dictionary.Id
	Name(id dictionary.Id) (string, bool)
}

type trainingInterner struct {
	dict *dictionary.Dictionary
}

// NewTrainingInterner returns an Interner that adds unseen label strings to
// dict permanently, matching "C1 grows monotonically during AddQuery".
func NewTrainingInterner(dict *dictionary.Dictionary) Interner {
	return trainingInterner{dict: dict}
}

func (t trainingInterner) Intern(s string) dictionary.Id { return t.dict.Add(s) }
func (t trainingInterner) Name(id dictionary.Id) (string, bool) { return t.dict.Get(id) }

// LabelPool is the per-query label table of spec §4.4: it interns against
// the shared dictionary when possible, and otherwise allocates a negative
// id, counting down from -2 within this pool, that never collides with a
// real C1 id or AbsentId and is discarded with the request. Ids from
// different pools may coincide.
type LabelPool struct {
	dict *dictionary.Dictionary

	mu    sync.Mutex
	local map[string]dictionary.Id
	names map[dictionary.Id]string
	next  dictionary.Id
}

// NewQueryInterner returns the ephemeral, per-request Interner used to build
// inference/NBest/ShowGraph assignments without mutating C1.
func NewQueryInterner(dict *dictionary.Dictionary) *LabelPool {
	return &LabelPool{
		dict:  dict,
		local: make(map[string]dictionary.Id),
		names: make(map[dictionary.Id]string),
		next:  -2,
	}
}

func (p *LabelPool) Intern(s string) dictionary.Id {
	if id := p.dict.Find(s); id != dictionary.AbsentId {
		return id
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.local[s]; ok {
		return id
	}
	id := p.next
	p.next--
	p.local[s] = id
	p.names[id] = s
	return id
}

func (p *LabelPool) Name(id dictionary.Id) (string, bool) {
	if id >= 0 {
		return p.dict.Get(id)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.names[id]
	return s, ok
}

// LabelInput is one caller-provided node assignment, before interning.
type LabelInput struct {
	Node  int    `json:"node"`
	Label string `json:"label"`
	Infer bool   `json:"infer"`
}

// Penalty is the optional per-node loss-augmentation term of spec §3, used
// only during SSVM's loss-augmented decoding.
type Penalty struct {
	Label dictionary.Id
	Delta float64
	Has   bool
}

// Assignment is the per-node (label, infer) vector of spec §3, sized to a
// Query's node count. Nodes never mentioned by the caller default to
// (label = AbsentId, infer = false), i.e. given and empty.
type Assignment struct {
	Labels    []dictionary.Id
	Infer     []bool
	Penalties []Penalty
}

// BuildAssignment interns every input label via interner and sizes the
// result to n nodes. Inputs naming an out-of-range node index are skipped
// silently, per spec §7's invalid-input rule.
func BuildAssignment(n int, interner Interner, inputs []LabelInput) *Assignment {
	a := &Assignment{
		Labels:    make([]dictionary.Id, n),
		Infer:     make([]bool, n),
		Penalties: make([]Penalty, n),
	}
	for i := range a.Labels {
		a.Labels[i] = dictionary.AbsentId
	}
	for _, in := range inputs {
		if in.Node < 0 || in.Node >= n {
			continue
		}
		a.Labels[in.Node] = interner.Intern(in.Label)
		a.Infer[in.Node] = in.Infer
	}
	return a
}

// Clone returns an independent copy, used to snapshot the reference
// labeling before loss-augmented decoding (spec §4.5.6 step 1).
func (a *Assignment) Clone() *Assignment {
	return &Assignment{
		Labels:    append([]dictionary.Id(nil), a.Labels...),
		Infer:     append([]bool(nil), a.Infer...),
		Penalties: append([]Penalty(nil), a.Penalties...),
	}
}

// SetPenalty installs a loss-augmentation penalty on node n.
func (a *Assignment) SetPenalty(n int, label dictionary.Id, delta float64) {
	a.Penalties[n] = Penalty{Label: label, Delta: delta, Has: true}
}

// ClearPenalties removes every penalty, called before a non-loss-augmented
// inference run reuses the same Assignment.
func (a *Assignment) ClearPenalties() {
	for i := range a.Penalties {
		a.Penalties[i] = Penalty{}
	}
}

// PenaltyDelta returns the score subtraction node n currently incurs: δ if
// a penalty is configured on n and n currently carries that exact label,
// else 0.
func (a *Assignment) PenaltyDelta(n int) float64 {
	p := a.Penalties[n]
	if !p.Has || a.Labels[n] != p.Label {
		return 0
	}
	return p.Delta
}
