// Package store implements C3, the weight store and candidate index: atomic
// weights for pairwise arc features and unordered factor features, the
// label frequency table, rare-label replacement, and the sorted candidate
// tables that back MAP inference (spec §4.3).
package store

import (
	"sort"
	"sync"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/nlog"
	"go.uber.org/zap"
)

// ArcKey identifies a typed, ordered pairwise feature (a, b, type).
type ArcKey struct {
	A, B, Type dictionary.Id
}

// ArcCandidate is a scored arc feature, as stored in best_by_type.
type ArcCandidate struct {
	Weight float64
	Key    ArcKey
}

// LabelCandidate is a scored single-label candidate, as stored in
// best_by_a_type / best_by_b_type.
type LabelCandidate struct {
	Weight float64
	Label  dictionary.Id
}

type aTypeKey struct {
	A, Type dictionary.Id
}

type bTypeKey struct {
	B, Type dictionary.Id
}

// factorRecord is one authoritative factor multiset, kept verbatim for
// re-serialization regardless of hash collisions.
type factorRecord struct {
	ids []dictionary.Id
}

// Config holds the tunables of §4.3 and §6's configuration surface that
// affect the candidate index.
type Config struct {
	MaximumDepth      int    `mapstructure:"maximum_depth"`   // factor candidate tree max depth, default 2
	BranchThreshold   int    `mapstructure:"branch_threshold"` // default 16
	FactorsLimit      int    `mapstructure:"factors_limit"`    // default 128, used by infer, stored for reference
	UnknownLabel      string `mapstructure:"unknown_label"`
	MinFreqKnownLabel int    `mapstructure:"min_freq_known_label"`
}

// DefaultConfig returns the defaults named in spec §4.3/§4.5.5.
func DefaultConfig() Config {
	return Config{
		MaximumDepth:    2,
		BranchThreshold: 16,
		FactorsLimit:    128,
	}
}

// Store is the engine's shared weight table. All exported methods are safe
// for concurrent use; arc/factor weight mutation during training uses
// lock-free compare-and-swap (Hogwild), while structural map mutation
// (AddArc/AddFactor/Prepare) takes a short exclusive lock, matching the
// "frozen during any epoch" lifecycle of spec §5.
type Store struct {
	cfg Config

	mu            sync.RWMutex
	arcWeights    map[ArcKey]*atomicWeight
	factorWeights map[uint64]*atomicWeight
	factorSet     map[uint64][]factorRecord

	labelFreqMu sync.Mutex
	labelFreq   map[dictionary.Id]int

	unknownID    dictionary.Id
	hasUnknown   bool

	Stats *PrecisionStats

	// candidate index, built by Prepare
	idxMu        sync.RWMutex
	bestByType   map[dictionary.Id][]ArcCandidate
	bestByAType  map[aTypeKey][]LabelCandidate
	bestByBType  map[bTypeKey][]LabelCandidate
	factorTrees  map[int]*factorNode
}

// New creates an empty weight store.
func New(cfg Config) *Store {
	return &Store{
		cfg:           cfg,
		arcWeights:    make(map[ArcKey]*atomicWeight),
		factorWeights: make(map[uint64]*atomicWeight),
		factorSet:     make(map[uint64][]factorRecord),
		labelFreq:     make(map[dictionary.Id]int),
		Stats:         NewPrecisionStats(),
	}
}

// SetUnknown configures the rare-label replacement target used by Prepare.
func (s *Store) SetUnknown(id dictionary.Id) {
	s.unknownID = id
	s.hasUnknown = true
}

// UnknownID returns the configured unknown label id, if any.
func (s *Store) UnknownID() (dictionary.Id, bool) {
	return s.unknownID, s.hasUnknown
}

// AddArc increments the co-occurrence count of arc feature (a, b, type) by
// one, creating it if absent. Called while ingesting training queries,
// before Prepare overwrites weights to their training-start value.
func (s *Store) AddArc(a, b, typ dictionary.Id) {
	key := ArcKey{A: a, B: b, Type: typ}
	w := s.getOrCreateArc(key)
	w.AddClamped(1, negInf, posInf)
}

func (s *Store) getOrCreateArc(key ArcKey) *atomicWeight {
	s.mu.RLock()
	w, ok := s.arcWeights[key]
	s.mu.RUnlock()
	if ok {
		return w
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.arcWeights[key]; ok {
		return w
	}
	w = newAtomicWeight(0)
	s.arcWeights[key] = w
	return w
}

// AddFactor increments the co-occurrence count of the factor whose label
// multiset is ids by one, registering the multiset in the authoritative
// factor set if new.
func (s *Store) AddFactor(ids []dictionary.Id) {
	canon := canonicalize(ids)
	h := FactorHash(canon)
	s.mu.Lock()
	found := false
	for _, rec := range s.factorSet[h] {
		if sameMultiset(rec.ids, canon) {
			found = true
			break
		}
	}
	if !found {
		s.factorSet[h] = append(s.factorSet[h], factorRecord{ids: canon})
	}
	w, ok := s.factorWeights[h]
	if !ok {
		w = newAtomicWeight(0)
		s.factorWeights[h] = w
	}
	s.mu.Unlock()
	w.AddClamped(1, negInf, posInf)
}

func canonicalize(ids []dictionary.Id) []dictionary.Id {
	out := append([]dictionary.Id(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sameMultiset(a, b []dictionary.Id) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const (
	negInf = -1e308
	posInf = 1e308
)

// ArcWeight reads the current weight of arc feature (a, b, type), or 0 if
// it does not exist.
func (s *Store) ArcWeight(a, b, typ dictionary.Id) float64 {
	s.mu.RLock()
	w, ok := s.arcWeights[ArcKey{A: a, B: b, Type: typ}]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return w.Load()
}

// FactorWeight reads the current weight of the factor whose label multiset
// is ids (by hash, so distinct multisets that collide alias the same
// weight, per spec §4.3), or 0 if unknown.
func (s *Store) FactorWeight(ids []dictionary.Id) float64 {
	h := FactorHash(ids)
	s.mu.RLock()
	w, ok := s.factorWeights[h]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return w.Load()
}

// AddArcDelta applies a box-projected gradient update to arc feature
// (a, b, type), creating the weight if it does not already exist.
func (s *Store) AddArcDelta(a, b, typ dictionary.Id, delta, lo, hi float64) float64 {
	w := s.getOrCreateArc(ArcKey{A: a, B: b, Type: typ})
	return w.AddClamped(delta, lo, hi)
}

// AddFactorDelta applies a box-projected gradient update to the factor
// whose label multiset is ids, registering it in the factor set if new.
func (s *Store) AddFactorDelta(ids []dictionary.Id, delta, lo, hi float64) float64 {
	canon := canonicalize(ids)
	h := FactorHash(canon)
	s.mu.RLock()
	w, ok := s.factorWeights[h]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		found := false
		for _, rec := range s.factorSet[h] {
			if sameMultiset(rec.ids, canon) {
				found = true
				break
			}
		}
		if !found {
			s.factorSet[h] = append(s.factorSet[h], factorRecord{ids: canon})
		}
		w, ok = s.factorWeights[h]
		if !ok {
			w = newAtomicWeight(0)
			s.factorWeights[h] = w
		}
		s.mu.Unlock()
	}
	return w.AddClamped(delta, lo, hi)
}

// InitializeWeights overwrites every arc and factor weight to hi/2, as
// spec §4.5.6's InitializeFeatureWeights(λ_reg) does with hi = 1/λ_reg.
func (s *Store) InitializeWeights(hi float64) {
	init := hi / 2
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.arcWeights {
		w.Store(init)
	}
	for _, w := range s.factorWeights {
		w.Store(init)
	}
}

// SnapshotWeights captures every current weight value, for SSVM's per-epoch
// revert-on-regression rule (spec §4.5.6, testable property 4).
type WeightSnapshot struct {
	arc    map[ArcKey]float64
	factor map[uint64]float64
}

func (s *Store) SnapshotWeights() *WeightSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &WeightSnapshot{
		arc:    make(map[ArcKey]float64, len(s.arcWeights)),
		factor: make(map[uint64]float64, len(s.factorWeights)),
	}
	for k, w := range s.arcWeights {
		snap.arc[k] = w.Load()
	}
	for k, w := range s.factorWeights {
		snap.factor[k] = w.Load()
	}
	return snap
}

// Restore writes back a snapshot bit-identically.
func (s *Store) Restore(snap *WeightSnapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range snap.arc {
		if w, ok := s.arcWeights[k]; ok {
			w.Store(v)
		}
	}
	for k, v := range snap.factor {
		if w, ok := s.factorWeights[k]; ok {
			w.Store(v)
		}
	}
}

// IncrLabelFreq bumps the training-query occurrence count of id.
func (s *Store) IncrLabelFreq(id dictionary.Id) {
	s.labelFreqMu.Lock()
	s.labelFreq[id]++
	s.labelFreqMu.Unlock()
}

// LabelFreq returns how many training queries contained id.
func (s *Store) LabelFreq(id dictionary.Id) int {
	s.labelFreqMu.Lock()
	defer s.labelFreqMu.Unlock()
	return s.labelFreq[id]
}

// ReplaceRareLabel returns the unknown label id if id's training frequency
// is below the configured threshold (after Prepare has run), else returns
// id unchanged.
func (s *Store) ReplaceRareLabel(id dictionary.Id) dictionary.Id {
	if !s.hasUnknown || s.cfg.MinFreqKnownLabel <= 0 {
		return id
	}
	s.labelFreqMu.Lock()
	_, known := s.labelFreq[id]
	s.labelFreqMu.Unlock()
	if !known {
		return s.unknownID
	}
	return id
}

// Prepare builds the candidate index from the current weights and, if
// rare-label replacement is configured, rewrites label_freq and W_arc per
// spec §4.3's "Rare-label replacement" rule.
func (s *Store) Prepare() {
	if s.hasUnknown && s.cfg.MinFreqKnownLabel > 0 {
		s.applyRareLabelReplacement()
	}
	s.buildArcIndex()
	s.buildFactorTrees()
	nlog.Logger().Info("store prepared",
		zap.Int("arc_features", s.arcFeatureCount()),
		zap.Int("factor_features", s.factorFeatureCount()))
}

func (s *Store) arcFeatureCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.arcWeights)
}

func (s *Store) factorFeatureCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, recs := range s.factorSet {
		n += len(recs)
	}
	return n
}

func (s *Store) applyRareLabelReplacement() {
	s.labelFreqMu.Lock()
	kept := make(map[dictionary.Id]int)
	for id, freq := range s.labelFreq {
		if freq >= s.cfg.MinFreqKnownLabel {
			kept[id] = freq
		}
	}
	s.labelFreq = kept
	s.labelFreqMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	rewritten := make(map[ArcKey]*atomicWeight, len(s.arcWeights))
	isRare := func(id dictionary.Id) bool {
		_, ok := kept[id]
		return !ok
	}
	for key, w := range s.arcWeights {
		newKey := key
		if isRare(newKey.A) {
			newKey.A = s.unknownID
		}
		if isRare(newKey.B) {
			newKey.B = s.unknownID
		}
		if existing, ok := rewritten[newKey]; ok {
			existing.AddClamped(w.Load(), negInf, posInf)
		} else {
			rewritten[newKey] = newAtomicWeight(w.Load())
		}
	}
	s.arcWeights = rewritten
}

func (s *Store) buildArcIndex() {
	s.mu.RLock()
	type entry struct {
		key ArcKey
		w   float64
	}
	entries := make([]entry, 0, len(s.arcWeights))
	for k, w := range s.arcWeights {
		entries = append(entries, entry{key: k, w: w.Load()})
	}
	s.mu.RUnlock()

	byType := make(map[dictionary.Id][]ArcCandidate)
	byAType := make(map[aTypeKey][]LabelCandidate)
	byBType := make(map[bTypeKey][]LabelCandidate)
	for _, e := range entries {
		byType[e.key.Type] = append(byType[e.key.Type], ArcCandidate{Weight: e.w, Key: e.key})
		byAType[aTypeKey{A: e.key.A, Type: e.key.Type}] = append(byAType[aTypeKey{A: e.key.A, Type: e.key.Type}], LabelCandidate{Weight: e.w, Label: e.key.B})
		byBType[bTypeKey{B: e.key.B, Type: e.key.Type}] = append(byBType[bTypeKey{B: e.key.B, Type: e.key.Type}], LabelCandidate{Weight: e.w, Label: e.key.A})
	}
	for t := range byType {
		sortArcCandidates(byType[t])
	}
	for k := range byAType {
		sortLabelCandidates(byAType[k])
	}
	for k := range byBType {
		sortLabelCandidates(byBType[k])
	}

	s.idxMu.Lock()
	s.bestByType = byType
	s.bestByAType = byAType
	s.bestByBType = byBType
	s.idxMu.Unlock()
}

func sortArcCandidates(c []ArcCandidate) {
	sort.Slice(c, func(i, j int) bool { return c[i].Weight > c[j].Weight })
}

func sortLabelCandidates(c []LabelCandidate) {
	sort.Slice(c, func(i, j int) bool { return c[i].Weight > c[j].Weight })
}

// BestByType returns the candidate arcs of the given relation type, sorted
// desc by weight.
func (s *Store) BestByType(typ dictionary.Id) []ArcCandidate {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	return s.bestByType[typ]
}

// BestByAType returns, sorted desc by weight, the candidate labels for "b"
// given a fixed label on "a" and a relation type.
func (s *Store) BestByAType(a, typ dictionary.Id) []LabelCandidate {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	return s.bestByAType[aTypeKey{A: a, Type: typ}]
}

// BestByBType returns, sorted desc by weight, the candidate labels for "a"
// given a fixed label on "b" and a relation type.
func (s *Store) BestByBType(b, typ dictionary.Id) []LabelCandidate {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	return s.bestByBType[bTypeKey{B: b, Type: typ}]
}

// FactorCandidates returns up to beam candidate factor label-multisets of
// the given arity, found by walking the per-size candidate tree (spec
// §4.3) with the given labels, deepest-first.
func (s *Store) FactorCandidates(arity int, given []dictionary.Id, beam int) [][]dictionary.Id {
	s.idxMu.RLock()
	root := s.factorTrees[arity]
	s.idxMu.RUnlock()
	if root == nil {
		return nil
	}
	node := root
	for _, l := range given {
		if node.children == nil {
			break
		}
		child, ok := node.children[l]
		if !ok {
			break
		}
		node = child
	}
	n := beam
	if n > len(node.factors) {
		n = len(node.factors)
	}
	out := make([][]dictionary.Id, n)
	for i := 0; i < n; i++ {
		out[i] = node.factors[i].ids
	}
	return out
}

// AllArcFeatures enumerates every arc feature and its weight, for
// persistence.
func (s *Store) AllArcFeatures() []ArcCandidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ArcCandidate, 0, len(s.arcWeights))
	for k, w := range s.arcWeights {
		out = append(out, ArcCandidate{Weight: w.Load(), Key: k})
	}
	return out
}

// FactorFeature is one authoritative factor multiset and its current
// weight, for persistence.
type FactorFeature struct {
	Ids    []dictionary.Id
	Weight float64
}

// AllFactorFeatures enumerates every authoritative factor multiset and its
// (possibly hash-aliased) weight, for persistence.
func (s *Store) AllFactorFeatures() []FactorFeature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FactorFeature
	for h, recs := range s.factorSet {
		w := float64(0)
		if aw, ok := s.factorWeights[h]; ok {
			w = aw.Load()
		}
		for _, rec := range recs {
			out = append(out, FactorFeature{Ids: append([]dictionary.Id(nil), rec.ids...), Weight: w})
		}
	}
	return out
}

// LabelFrequencies enumerates the label frequency table, for persistence.
func (s *Store) LabelFrequencies() map[dictionary.Id]int {
	s.labelFreqMu.Lock()
	defer s.labelFreqMu.Unlock()
	out := make(map[dictionary.Id]int, len(s.labelFreq))
	for k, v := range s.labelFreq {
		out[k] = v
	}
	return out
}

// LoadArcFeature installs an arc feature at a known weight, used when
// restoring a persisted model.
func (s *Store) LoadArcFeature(a, b, typ dictionary.Id, weight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arcWeights[ArcKey{A: a, B: b, Type: typ}] = newAtomicWeight(weight)
}

// LoadFactorFeature installs a factor feature at a known weight, used when
// restoring a persisted model.
func (s *Store) LoadFactorFeature(ids []dictionary.Id, weight float64) {
	canon := canonicalize(ids)
	h := FactorHash(canon)
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, rec := range s.factorSet[h] {
		if sameMultiset(rec.ids, canon) {
			found = true
			break
		}
	}
	if !found {
		s.factorSet[h] = append(s.factorSet[h], factorRecord{ids: canon})
	}
	s.factorWeights[h] = newAtomicWeight(weight)
}

// LoadLabelFrequency installs a label frequency count, used when restoring
// a persisted model.
func (s *Store) LoadLabelFrequency(id dictionary.Id, count int) {
	s.labelFreqMu.Lock()
	defer s.labelFreqMu.Unlock()
	s.labelFreq[id] = count
}

