package model

import (
	"sort"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/samber/lo"
)

// Summary is the dump command's human-readable report of a loaded model:
// string count, feature counts, and the label frequency histogram.
type Summary struct {
	StringCount        int            `yaml:"string_count"`
	ArcFeatureCount    int            `yaml:"arc_feature_count"`
	FactorFeatureCount int            `yaml:"factor_feature_count"`
	UnknownLabel       string         `yaml:"unknown_label,omitempty"`
	LabelFrequencies   []LabelFreqRow `yaml:"label_frequencies,omitempty"`
}

// LabelFreqRow is one row of the label frequency histogram, sorted by
// descending count for readability.
type LabelFreqRow struct {
	Label string `yaml:"label"`
	Count int    `yaml:"count"`
}

// Dump builds a Summary of m, suitable for YAML encoding by the dump CLI
// command.
func Dump(m *Model) Summary {
	s := Summary{
		StringCount:        m.Dict.Count(),
		ArcFeatureCount:    len(m.St.AllArcFeatures()),
		FactorFeatureCount: len(m.St.AllFactorFeatures()),
	}
	if unk, ok := m.St.UnknownID(); ok {
		if name, ok := m.Dict.Get(unk); ok {
			s.UnknownLabel = name
		}
	}

	freqs := m.St.LabelFrequencies()
	s.LabelFrequencies = lo.FilterMap(lo.Entries(freqs), func(e lo.Entry[dictionary.Id, int], _ int) (LabelFreqRow, bool) {
		name, ok := m.Dict.Get(e.Key)
		if !ok {
			return LabelFreqRow{}, false
		}
		return LabelFreqRow{Label: name, Count: e.Value}, true
	})
	sort.Slice(s.LabelFrequencies, func(i, j int) bool {
		if s.LabelFrequencies[i].Count != s.LabelFrequencies[j].Count {
			return s.LabelFrequencies[i].Count > s.LabelFrequencies[j].Count
		}
		return s.LabelFrequencies[i].Label < s.LabelFrequencies[j].Label
	})
	return s
}
