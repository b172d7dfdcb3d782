// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-stats/internal/artifact"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current citation artifact",
	Long: `Show reads the artifact written by fetch and prints it as JSON or YAML.
Years are printed in the order they appear in the file.`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("format", "json", "output format: json or yaml")
	showCmd.Flags().StringP("output", "o", "", "artifact path (default js/data/citations.json)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		path = viper.GetString("output")
	}
	format, _ := cmd.Flags().GetString("format")

	a, err := artifact.Read(path)
	if err != nil {
		return err
	}
	return renderArtifact(cmd.OutOrStdout(), a, format)
}

func renderArtifact(w io.Writer, a types.ScholarArtifact, format string) error {
	switch format {
	case "json":
		data, err := artifact.Encode(a)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q (use json or yaml)", format)
	}
}
