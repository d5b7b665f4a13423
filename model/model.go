// Package model implements spec §6's binary model persistence: the three
// `<prefix>_features` / `<prefix>_strings` / `<prefix>_lfreq` files that
// together hold C1's dictionary and C3's weight store, plus a supplemental
// human-readable YAML summary for the `dump` CLI command.
package model

import (
	"io"
	"os"
	"sort"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/encio"
	"github.com/eth-sri/nice2predict/store"
	"github.com/juju/errors"
)

// Model bundles the dictionary and weight store that make up one
// persisted model, per spec §3's "Model" entry.
type Model struct {
	Dict *dictionary.Dictionary
	St   *store.Store
}

// Save writes prefix_features, prefix_strings, and (iff the store has an
// unknown label configured) prefix_lfreq, each bit-exact per spec §6.
func Save(prefix string, m *Model) error {
	if err := saveFeatures(prefix+"_features", m.St); err != nil {
		return errors.Annotate(err, "model: save features")
	}
	if err := saveStrings(prefix+"_strings", m.Dict); err != nil {
		return errors.Annotate(err, "model: save strings")
	}
	if _, ok := m.St.UnknownID(); ok {
		if err := saveLabelFreq(prefix+"_lfreq", m.St); err != nil {
			return errors.Annotate(err, "model: save label frequencies")
		}
	}
	return nil
}

// Load restores a model previously written by Save. unknownLabel is the
// configured unknown-label string (empty if rare-label replacement is
// off); when non-empty the prefix_lfreq file must exist and is loaded.
func Load(prefix string, cfg store.Config, unknownLabel string) (*Model, error) {
	dict, err := loadStrings(prefix + "_strings")
	if err != nil {
		return nil, errors.Annotate(err, "model: load strings")
	}

	st := store.New(cfg)
	if unknownLabel != "" {
		st.SetUnknown(dict.Add(unknownLabel))
	}

	if err := loadFeatures(prefix+"_features", st); err != nil {
		return nil, errors.Annotate(err, "model: load features")
	}

	if unknownLabel != "" {
		if err := loadLabelFreq(prefix+"_lfreq", st); err != nil {
			return nil, errors.Annotate(err, "model: load label frequencies")
		}
	}

	st.Prepare()
	return &Model{Dict: dict, St: st}, nil
}

func saveFeatures(path string, st *store.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	arcs := st.AllArcFeatures()
	sort.Slice(arcs, func(i, j int) bool {
		ai, aj := arcs[i].Key, arcs[j].Key
		if ai.A != aj.A {
			return ai.A < aj.A
		}
		if ai.B != aj.B {
			return ai.B < aj.B
		}
		return ai.Type < aj.Type
	})
	if err := encio.WriteInt32(f, int32(len(arcs))); err != nil {
		return errors.Trace(err)
	}
	for _, a := range arcs {
		if err := writeArcRecord(f, a); err != nil {
			return errors.Trace(err)
		}
	}

	factors := st.AllFactorFeatures()
	sort.Slice(factors, func(i, j int) bool {
		return factorSortKey(factors[i].Ids) < factorSortKey(factors[j].Ids)
	})
	if err := encio.WriteInt32(f, int32(len(factors))); err != nil {
		return errors.Trace(err)
	}
	for _, ff := range factors {
		if err := writeFactorRecord(f, ff); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// factorSortKey gives a stable ordering for the factor records written to
// prefix_features; persistence correctness does not depend on that order.
func factorSortKey(ids []dictionary.Id) int64 {
	var k int64
	for _, id := range ids {
		k = k*1000003 + int64(id)
	}
	return k
}

func writeArcRecord(w io.Writer, a store.ArcCandidate) error {
	if err := encio.WriteInt32(w, a.Key.A); err != nil {
		return err
	}
	if err := encio.WriteInt32(w, a.Key.B); err != nil {
		return err
	}
	if err := encio.WriteInt32(w, a.Key.Type); err != nil {
		return err
	}
	return encio.WriteFloat64(w, a.Weight)
}

func writeFactorRecord(w io.Writer, ff store.FactorFeature) error {
	if err := encio.WriteInt32(w, int32(len(ff.Ids))); err != nil {
		return err
	}
	for _, id := range ff.Ids {
		if err := encio.WriteInt32(w, id); err != nil {
			return err
		}
	}
	return encio.WriteFloat64(w, ff.Weight)
}

func loadFeatures(path string, st *store.Store) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	numArcs, err := encio.ReadInt32(f)
	if err != nil {
		return errors.Trace(err)
	}
	for i := int32(0); i < numArcs; i++ {
		a, err := encio.ReadInt32(f)
		if err != nil {
			return errors.Trace(err)
		}
		b, err := encio.ReadInt32(f)
		if err != nil {
			return errors.Trace(err)
		}
		typ, err := encio.ReadInt32(f)
		if err != nil {
			return errors.Trace(err)
		}
		weight, err := encio.ReadFloat64(f)
		if err != nil {
			return errors.Trace(err)
		}
		st.LoadArcFeature(a, b, typ, weight)
	}

	numFactors, err := encio.ReadInt32(f)
	if err != nil {
		return errors.Trace(err)
	}
	for i := int32(0); i < numFactors; i++ {
		k, err := encio.ReadInt32(f)
		if err != nil {
			return errors.Trace(err)
		}
		ids := make([]dictionary.Id, k)
		for j := int32(0); j < k; j++ {
			id, err := encio.ReadInt32(f)
			if err != nil {
				return errors.Trace(err)
			}
			ids[j] = id
		}
		weight, err := encio.ReadFloat64(f)
		if err != nil {
			return errors.Trace(err)
		}
		st.LoadFactorFeature(ids, weight)
	}
	return nil
}

func saveStrings(path string, dict *dictionary.Dictionary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()
	return errors.Trace(dict.Save(f))
}

func loadStrings(path string) (*dictionary.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return dictionary.Load(f)
}

func saveLabelFreq(path string, st *store.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	freqs := st.LabelFrequencies()
	ids := make([]dictionary.Id, 0, len(freqs))
	for id := range freqs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := encio.WriteInt32(f, int32(len(ids))); err != nil {
		return errors.Trace(err)
	}
	for _, id := range ids {
		if err := encio.WriteInt32(f, id); err != nil {
			return errors.Trace(err)
		}
		if err := encio.WriteInt32(f, int32(freqs[id])); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func loadLabelFreq(path string, st *store.Store) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	n, err := encio.ReadInt32(f)
	if err != nil {
		return errors.Trace(err)
	}
	for i := int32(0); i < n; i++ {
		id, err := encio.ReadInt32(f)
		if err != nil {
			return errors.Trace(err)
		}
		count, err := encio.ReadInt32(f)
		if err != nil {
			return errors.Trace(err)
		}
		st.LoadLabelFrequency(id, int(count))
	}
	return nil
}
