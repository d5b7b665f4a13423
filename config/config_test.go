package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  host: 127.0.0.1
  port: 9090
unknown_label: "UNK"
min_freq_known_label: 5
train:
  training_method: pl
  regularization_const: 2
  num_training_passes: 10
infer:
  use_factors: false
`

func writeTemp(t *testing.T, name, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadOverridesDefaultsFromYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "UNK", cfg.UnknownLabel)
	assert.Equal(t, 5, cfg.MinFreqKnownLabel)
	assert.Equal(t, "UNK", cfg.Store.UnknownLabel)
	assert.Equal(t, 5, cfg.Store.MinFreqKnownLabel)
	assert.Equal(t, "pl", string(cfg.Train.Method))
	assert.Equal(t, float64(2), cfg.Train.RegularizationConst)
	assert.False(t, cfg.Infer.UseFactors)
	// Fields not present in the file keep Default()'s values.
	assert.Equal(t, 16, cfg.Train.MaxLabelsZ)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsMinFreqWithoutUnknownLabel(t *testing.T) {
	cfg := Default()
	cfg.MinFreqKnownLabel = 3
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidatePropagatesTrainConfigError(t *testing.T) {
	cfg := Default()
	cfg.Train.RegularizationConst = 0
	assert.Error(t, cfg.Validate())
}
