package main

import (
	"github.com/eth-sri/nice2predict/config"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

// loadConfigFlag loads config.Config from the --config flag if set,
// falling back to component defaults otherwise.
func loadConfigFlag(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, errors.Trace(err)
	}
	return cfg, nil
}
