// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/internal/pipeline"
	"github.com/pdiddy/scholar-stats/internal/publish"
	"github.com/pdiddy/scholar-stats/internal/runlog"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [profile-id]",
	Short: "Scrape a profile and write the citation artifact",
	Long: `Fetch requests the profile page (through the configured proxy, if any),
extracts the headline metrics and the citations-per-year histogram, and
writes them to the output path. If the page cannot be fetched or parsed,
a synthetic artifact is written and the command still succeeds.

The profile id may be given as an argument, with --profile, or through
SCHOLAR_ID / SCHOLAR_STATS_PROFILE_ID.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("profile", "", "profile id to scrape")
	f.StringP("output", "o", "", "artifact path (default js/data/citations.json)")
	f.Duration("timeout", 0, "request timeout covering connect, headers and body (default 30s)")
	f.String("base-url", "", "profile site base URL")
	f.String("user-agent", "", "User-Agent header for the profile request")
	f.String("proxy-host", "", "forward proxy host")
	f.String("proxy-port", "", "forward proxy port")
	f.String("proxy-username", "", "forward proxy username")
	f.String("proxy-password", "", "forward proxy password (prefer .secrets/proxy-password)")
	f.Bool("insecure-skip-verify", false, "accept any TLS certificate (for intercepting proxies)")
	f.String("run-log", "", "SQLite file recording each run")
	f.String("publish-bucket", "", "GCS bucket to mirror the artifact into")
	f.String("publish-object", "", "object name for the GCS mirror (default citations.json)")

	bindFlags(viper.GetViper(), fetchCmd, map[string]string{
		"profile_id":                 "profile",
		"output":                     "output",
		"timeout":                    "timeout",
		"base_url":                   "base-url",
		"user_agent":                 "user-agent",
		"proxy.host":                 "proxy-host",
		"proxy.port":                 "proxy-port",
		"proxy.username":             "proxy-username",
		"proxy.password":             "proxy-password",
		"proxy.insecure_skip_verify": "insecure-skip-verify",
		"run_log":                    "run-log",
		"publish.bucket":             "publish-bucket",
		"publish.object":             "publish-object",
	})

	rootCmd.AddCommand(fetchCmd)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding --%s: %v", flag, err))
		}
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	return fetchProfile(cmd, viper.GetViper(), args)
}

// fetchProfile runs one pipeline pass with the configuration held by v.
// The run log and the publish mirror are optional: if either cannot be set
// up the run continues without it.
func fetchProfile(cmd *cobra.Command, v *viper.Viper, args []string) error {
	cfg := pipelineConfig(v, loadedSecrets)
	if len(args) == 1 {
		cfg.ProfileID = args[0]
	}
	if err := pipeline.Validate(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	deps := pipeline.Deps{Logger: logger}

	if cfg.RunLogPath != "" {
		store, err := runlog.Open(cfg.RunLogPath)
		if err != nil {
			logger.Warn("run log disabled", zap.String("path", cfg.RunLogPath), zap.Error(err))
		} else {
			defer store.Close()
			deps.Recorder = store
		}
	}

	if cfg.Publish.Bucket != "" {
		client, err := publish.NewStorageClient(ctx)
		if err != nil {
			logger.Warn("publishing disabled", zap.Error(err))
		} else {
			defer client.Close()
			gcs, err := publish.NewGCS(publish.StorageWriter{Client: client}, cfg.Publish.Bucket, cfg.Publish.Object)
			if err != nil {
				return failure.New(failure.KindConfiguration, "publish", err)
			}
			logger.Info("mirroring artifact", zap.String("uri", gcs.URI()))
			deps.Publisher = gcs
		}
	}

	run, err := pipeline.New(cfg, deps)
	if err != nil {
		return err
	}
	out, err := run.Execute(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	a := out.Artifact
	fmt.Fprintf(w, "Wrote %s (%s)\n", out.Path, a.Metadata.Source)
	fmt.Fprintf(w, "  %s, %s\n", a.Metadata.Name, a.Metadata.Institution)
	fmt.Fprintf(w, "  citations %d  h-index %d  i10-index %d  years %d\n",
		a.Metrics.TotalCitations, a.Metrics.HIndex, a.Metrics.I10Index, a.CitationsByYear.Len())
	if out.Fallback {
		fmt.Fprintf(w, "  fallback: %s\n", failure.KindOf(out.Cause))
	}
	return nil
}
