package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Talentflow/internal/config"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "talentflow",
		Short: "Talentflow recruiting pipeline API",
		Long: `Talentflow serves jobs, candidates, the stage board and assessments over HTTP,
backed by SQLite.

Running without a subcommand starts the server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "read settings from this file instead of ./.env")

	load := func() (*config.Config, error) {
		if envFile != "" {
			return config.Load(envFile)
		}
		return config.Load()
	}

	serve := serveCmd(load)
	root.RunE = serve.RunE
	root.AddCommand(serve)
	root.AddCommand(migrateCmd(load))
	root.AddCommand(tokenCmd(load))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
