// Package config assembles the engine's full configuration surface (spec
// §6's configuration table) into one viper-backed struct, mirroring the
// teacher's config package layout and its field-per-option style.
package config

import (
	"strings"

	"github.com/eth-sri/nice2predict/infer"
	"github.com/eth-sri/nice2predict/store"
	"github.com/eth-sri/nice2predict/train"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// ServerConfig holds the serving-layer bind address.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoadDefaultIfNil fills unset fields with the teacher-style defaults when
// config is nil, matching the nil-receiver default pattern.
func (c *ServerConfig) LoadDefaultIfNil() *ServerConfig {
	if c == nil {
		return &ServerConfig{Host: "0.0.0.0", Port: 5745}
	}
	return c
}

// Config is the top-level configuration surface, assembled from the
// per-component Config structs this module already defines plus the
// serving/model-file options spec §6 names alongside them.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  store.Config `mapstructure:"store"`
	Infer  infer.Config `mapstructure:"infer"`
	Train  train.Config `mapstructure:"train"`

	UnknownLabel      string `mapstructure:"unknown_label"`
	MinFreqKnownLabel int    `mapstructure:"min_freq_known_label"`
	ValidLabelsPath   string `mapstructure:"valid_labels"`
}

// Default returns a Config with every component defaulted the way each
// package's own DefaultConfig does.
func Default() Config {
	cfg := Config{
		Server: *(*ServerConfig)(nil).LoadDefaultIfNil(),
		Store:  store.DefaultConfig(),
		Infer:  infer.DefaultConfig(),
		Train:  train.DefaultConfig(),
	}
	syncSharedFields(&cfg)
	return cfg
}

// syncSharedFields propagates the handful of options spec §6 names once
// but this module's per-component Config structs each hold a copy of:
// factors_limit (§4.3's candidate index limit and §4.5.5's per-factor pass
// limit are the same tunable), and the inference tunables training's
// loss-augmented decoding must share with serving.
func syncSharedFields(cfg *Config) {
	cfg.Store.FactorsLimit = cfg.Infer.FactorsLimit
	cfg.Train.Infer = cfg.Infer
}

// Load reads configuration from path (YAML, TOML, or JSON, by extension)
// layered over Default()'s values, mirroring the teacher's
// viper.ReadConfig/Unmarshal pattern.
func Load(path string) (Config, error) {
	cfg := Default()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return cfg, errors.Annotate(err, "config: read")
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Annotate(err, "config: unmarshal")
	}
	cfg.Store.UnknownLabel = cfg.UnknownLabel
	cfg.Store.MinFreqKnownLabel = cfg.MinFreqKnownLabel
	syncSharedFields(&cfg)
	return cfg, nil
}

// Validate rejects a configuration spec §7 treats as fatal at load time:
// an invalid training configuration, or min_freq_known_label set without
// an unknown_label to replace rare labels with.
func (c Config) Validate() error {
	if err := c.Train.Validate(); err != nil {
		return errors.Trace(err)
	}
	if c.MinFreqKnownLabel > 0 && c.UnknownLabel == "" {
		return errors.New("config: min_freq_known_label set without unknown_label")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}
