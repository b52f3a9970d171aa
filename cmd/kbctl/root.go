package main

import (
	"fmt"
	"os"

	"github.com/hafidzyami/CivilConstructionApp-sub000/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	llmProvider string
	storageType string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Manage the building regulation knowledge base",
	Long: `kbctl builds and queries the regulation knowledge graph.

Typical setup:
  kbctl schema
  kbctl extract building_act.pdf --name "Building Act" --level National --store
  kbctl extract seoul.pdf --name "Seoul Building Ordinance" --level Regional --store
  kbctl ingest --from-storage

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (SERVER_PORT, LLM_PROVIDER, NEO4J_URI, ...)
  3. Config file (--config)
  4. Defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()

		v, err := config.NewViper(cfgFile)
		if err != nil {
			return err
		}

		// Bind flags to viper so they win over env and file
		flags := cmd.Root().PersistentFlags()
		if err := v.BindPFlag("llm.provider", flags.Lookup("llm-provider")); err != nil {
			return err
		}
		if err := v.BindPFlag("storage.type", flags.Lookup("storage")); err != nil {
			return err
		}

		cfg, err = config.FromViper(v)
		if err != nil {
			return err
		}
		if cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", cfgFile)
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (gemini, ollama, openai, none)")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "", "corpus storage backend (local, s3)")
}
