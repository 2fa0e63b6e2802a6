// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/logger"
	"github.com/pdiddy/deep-research/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// appConfig is the merged configuration: defaults, config file,
// environment, then secrets for empty credentials.
var appConfig types.Config

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Answer biomedical research questions from PubMed, ClinicalTrials.gov, and bioRxiv",
	Long: `deep-research classifies a free-text biomedical question, queries every
relevant source (PubMed literature, ClinicalTrials.gov trials, bioRxiv/medRxiv
preprints) concurrently, and synthesizes one cited answer.

Use "ask" for a single question, "serve" for the HTTP API, "sources" to call a
connector directly, and "history" to browse past answers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		secrets.Apply(&cfg, s)

		if err := logger.Init(logger.Config{
			Level:       cfg.Log.Level,
			Format:      cfg.Log.Format,
			OutputPaths: cfg.Log.Outputs,
		}); err != nil {
			return fmt.Errorf("initialising logger: %w", err)
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.L().Debug("loaded secrets", "keys", keys)
		}

		appConfig = cfg
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deep-research.yaml or ~/.config/deep-research/deep-research.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deep-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
