// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-stats CLI.
// fetch runs the acquisition pipeline and writes the citation artifact;
// show and runs inspect what earlier runs produced.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-stats/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from the secrets directory at startup.
	loadedSecrets map[string]string

	// logger is built from the persistent flags before any command runs.
	logger = zap.NewNop()
)

// rootCmd is the base command for the scholar-stats CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-stats",
	Short: "Fetch citation statistics from a scholar profile page",
	Long: `scholar-stats scrapes a researcher's public citation profile and writes
a JSON artifact (headline metrics plus citations per year) for a static
site to render. When the profile cannot be fetched or parsed, a synthetic
artifact is written instead so the site always has data to show.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(format, verbose)
		if err != nil {
			return err
		}
		logger = l

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("could not load .env", zap.Error(err))
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-stats.yaml or ~/.config/scholar-stats/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of credential files")
	rootCmd.PersistentFlags().String("log-format", "console", "log encoding: console or json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-stats")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-stats"))
		}
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
