// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact assembles, writes and reads the citations JSON document.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

// DefaultPath is where the display pages look for the artifact.
const DefaultPath = "js/data/citations.json"

// Extraction is everything read from a live profile page.
type Extraction struct {
	Metrics   types.ScholarMetrics
	Since     *types.SinceMetrics
	Identity  types.ProfileIdentity
	Histogram types.CitationHistogram
}

// Build returns the artifact for profileID. When err is non-nil the
// extraction is ignored and the synthetic dataset is returned instead; the
// caller decides beforehand which errors may reach Build.
func Build(profileID string, ex Extraction, err error, now time.Time) types.ScholarArtifact {
	if err != nil {
		return Synthetic(profileID, now)
	}
	return types.ScholarArtifact{
		Metadata: types.ArtifactMetadata{
			ProfileID:   profileID,
			Name:        ex.Identity.Name,
			Institution: ex.Identity.Institution,
			Interests:   ex.Identity.Interests,
			FetchedAt:   now.UTC(),
			Source:      types.SourceLive,
		},
		Metrics:         ex.Metrics,
		MetricsSince:    ex.Since,
		CitationsByYear: ex.Histogram,
	}
}

// Encode renders a as indented JSON with a trailing newline.
func Encode(a types.ScholarArtifact) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// Write encodes a and replaces the file at path, creating parent
// directories as needed. The data goes to a temporary file in the same
// directory that is renamed over path, so readers never see a partial file.
// Failures are KindPersistence.
func Write(path string, a types.ScholarArtifact) error {
	data, err := Encode(a)
	if err != nil {
		return failure.New(failure.KindPersistence, "write", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return failure.New(failure.KindPersistence, "write", fmt.Errorf("creating directory %s: %w", dir, err))
	}

	tmpFile, err := os.CreateTemp(dir, ".citations-*.tmp")
	if err != nil {
		return failure.New(failure.KindPersistence, "write", fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return failure.New(failure.KindPersistence, "write", fmt.Errorf("writing artifact: %w", writeErr))
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return failure.New(failure.KindPersistence, "write", fmt.Errorf("closing temp file: %w", closeErr))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return failure.New(failure.KindPersistence, "write", fmt.Errorf("setting permissions: %w", err))
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return failure.New(failure.KindPersistence, "write", fmt.Errorf("renaming temp file: %w", err))
	}
	return nil
}

// Read loads an artifact from path.
func Read(path string) (types.ScholarArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ScholarArtifact{}, err
	}
	var a types.ScholarArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return types.ScholarArtifact{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return a, nil
}
