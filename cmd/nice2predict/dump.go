package main

import (
	"fmt"
	"log"

	"github.com/eth-sri/nice2predict/model"
	"github.com/eth-sri/nice2predict/store"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// cmdDump is the supplemented dump command (PART C.1): read a persisted
// model and print a human-readable YAML summary, grounded in the
// teacher's cmd/dump command tree.
var cmdDump = &cobra.Command{
	Use:   "dump <model-prefix>",
	Short: "print a YAML summary of a persisted model",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDump(cmd, args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	cmdDump.Flags().String("unknown-label", "", "unknown label string, required if the model has a lfreq file")
}

func runDump(cmd *cobra.Command, modelPrefix string) error {
	unknownLabel, _ := cmd.Flags().GetString("unknown-label")

	m, err := model.Load(modelPrefix, store.DefaultConfig(), unknownLabel)
	if err != nil {
		return errors.Annotate(err, "load model")
	}

	summary := model.Dump(m)
	out, err := yaml.Marshal(summary)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Print(string(out))
	return nil
}
