// Command nice2predict is the CLI entry point: train a model against a
// JSON-lines corpus, serve a trained model's RPC surface, or dump a
// trained model's contents, grounded in the teacher's cobra command-tree
// layout (cmd/gorse-cli, cmd/dump).
package main

import (
	"fmt"
	"log"

	"github.com/eth-sri/nice2predict/nlog"
	"github.com/spf13/cobra"
)

const versionName = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "nice2predict",
	Short: "nice2predict: structured prediction engine",
	Long:  "nice2predict trains and serves a beam-search MAP inference engine over typed arc and factor features.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionName)
	},
}

func main() {
	nlog.AddFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().Bool("debug", false, "use human-readable development log output")

	rootCmd.AddCommand(cmdTrain)
	rootCmd.AddCommand(cmdServe)
	rootCmd.AddCommand(cmdDump)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(func() {
		debug, _ := rootCmd.PersistentFlags().GetBool("debug")
		nlog.SetLogger(rootCmd.PersistentFlags(), debug)
	})

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
