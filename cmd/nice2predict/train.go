package main

import (
	"log"

	"github.com/eth-sri/nice2predict/dictionary"
	"github.com/eth-sri/nice2predict/model"
	"github.com/eth-sri/nice2predict/recordio"
	"github.com/eth-sri/nice2predict/store"
	"github.com/eth-sri/nice2predict/train"
	"github.com/eth-sri/nice2predict/validator"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var cmdTrain = &cobra.Command{
	Use:   "train <corpus.jsonl>",
	Short: "train a model from a JSON-lines corpus and persist it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTrain(cmd, args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	cmdTrain.Flags().String("config", "", "path to a config file (yaml/toml/json)")
	cmdTrain.Flags().String("model-prefix", "model", "output model file prefix")
}

func runTrain(cmd *cobra.Command, corpusPath string) error {
	cfg, err := loadConfigFlag(cmd)
	if err != nil {
		return errors.Trace(err)
	}
	if err := cfg.Validate(); err != nil {
		return errors.Trace(err)
	}
	modelPrefix, _ := cmd.Flags().GetString("model-prefix")

	records, err := recordio.LoadFile(corpusPath)
	if err != nil {
		return errors.Annotate(err, "load corpus")
	}

	dict := dictionary.New()
	st := store.New(cfg.Store)
	if cfg.UnknownLabel != "" {
		st.SetUnknown(dict.Add(cfg.UnknownLabel))
	}

	var val *validator.Validator
	if cfg.ValidLabelsPath != "" {
		rules, err := validator.LoadRulesFile(cfg.ValidLabelsPath)
		if err != nil {
			return errors.Annotate(err, "load valid_labels rules")
		}
		val = validator.New(rules, dict)
	}

	driver := train.NewDriver(dict, val, st, cfg.Train)
	for i := range records {
		driver.AddQuery(&records[i])
	}
	st.Prepare()

	if err := driver.Train(records); err != nil {
		return errors.Annotate(err, "train")
	}

	if err := model.Save(modelPrefix, &model.Model{Dict: dict, St: st}); err != nil {
		return errors.Annotate(err, "save model")
	}
	return nil
}
