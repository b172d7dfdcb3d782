// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs from the run log",
	Long: `Runs prints the most recent entries of the SQLite run log, newest
first: when each run started, whether it wrote live or fallback data, and
why a fallback happened.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("run-log", "", "SQLite run log path")
	runsCmd.Flags().String("profile", "", "only show runs for this profile id")
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("run-log")
	if path == "" {
		path = viper.GetString("run_log")
	}
	if path == "" {
		return failure.Configf("run log path is required (set --run-log or run_log)")
	}
	profile, _ := cmd.Flags().GetString("profile")
	limit, _ := cmd.Flags().GetInt("limit")

	return listRuns(cmd.Context(), cmd.OutOrStdout(), path, profile, limit)
}

// listRuns prints the runs recorded at path. The log must already exist;
// listing never creates one.
func listRuns(ctx context.Context, w io.Writer, path, profile string, limit int) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("run log %s does not exist", path)
		}
		return fmt.Errorf("checking run log %s: %w", path, err)
	}

	store, err := runlog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.Recent(ctx, profile, limit)
	if err != nil {
		return err
	}
	printRuns(w, recs)
	return nil
}

func printRuns(w io.Writer, recs []runlog.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tPROFILE\tSOURCE\tCITATIONS\tDURATION\tFAILURE")
	for _, r := range recs {
		reason := r.FailureKind
		if r.StatusCode != 0 {
			reason = fmt.Sprintf("%s %d", reason, r.StatusCode)
		}
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.ProfileID,
			orDash(r.Source),
			r.TotalCitations,
			r.Duration().Round(time.Millisecond),
			reason,
		)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
