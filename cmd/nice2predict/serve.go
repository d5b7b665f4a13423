package main

import (
	"log"

	"github.com/eth-sri/nice2predict/model"
	"github.com/eth-sri/nice2predict/service"
	"github.com/eth-sri/nice2predict/validator"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "serve a trained model's Infer/NBest/ShowGraph RPC surface over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	cmdServe.Flags().String("config", "", "path to a config file (yaml/toml/json)")
	cmdServe.Flags().String("model-prefix", "model", "model file prefix to load")
	cmdServe.Flags().String("host", "", "override the configured bind host")
	cmdServe.Flags().Int("port", 0, "override the configured bind port")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfigFlag(cmd)
	if err != nil {
		return errors.Trace(err)
	}
	modelPrefix, _ := cmd.Flags().GetString("model-prefix")

	m, err := model.Load(modelPrefix, cfg.Store, cfg.UnknownLabel)
	if err != nil {
		return errors.Annotate(err, "load model")
	}

	var val *validator.Validator
	if cfg.ValidLabelsPath != "" {
		rules, err := validator.LoadRulesFile(cfg.ValidLabelsPath)
		if err != nil {
			return errors.Annotate(err, "load valid_labels rules")
		}
		val = validator.New(rules, m.Dict)
	}

	host := cfg.Server.Host
	if h, _ := cmd.Flags().GetString("host"); h != "" {
		host = h
	}
	port := cfg.Server.Port
	if p, _ := cmd.Flags().GetInt("port"); p != 0 {
		port = p
	}

	engine := service.NewEngine(m, val, cfg.Infer)
	srv := service.NewServer(engine, host, port)
	return srv.Start()
}
