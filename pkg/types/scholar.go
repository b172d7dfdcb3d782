// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the pipeline stages: the
// citation artifact, its metrics and histogram, and run configuration.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"
)

// ArtifactSource records whether an artifact carries scraped or synthetic data.
type ArtifactSource string

const (
	SourceLive     ArtifactSource = "live"
	SourceFallback ArtifactSource = "fallback"
)

// ScholarMetrics holds the three headline citation metrics of a profile.
// A metric whose markup is absent or non-numeric is 0, never missing.
type ScholarMetrics struct {
	// TotalCitations is the all-time citation count.
	TotalCitations int `json:"totalCitations" yaml:"totalCitations"`

	// HIndex is the all-time h-index.
	HIndex int `json:"h_index" yaml:"h_index"`

	// I10Index is the all-time i10-index.
	I10Index int `json:"i10_index" yaml:"i10_index"`
}

// SinceMetrics holds the recent-window column of the statistics table
// ("Since 2020"). Year is the window start as printed in the table header.
type SinceMetrics struct {
	Year           string `json:"year" yaml:"year"`
	TotalCitations int    `json:"totalCitations" yaml:"totalCitations"`
	HIndex         int    `json:"h_index" yaml:"h_index"`
	I10Index       int    `json:"i10_index" yaml:"i10_index"`
}

// ProfileIdentity holds the display identity of a profile.
type ProfileIdentity struct {
	Name        string   `json:"name" yaml:"name"`
	Institution string   `json:"institution" yaml:"institution"`
	Interests   []string `json:"interests,omitempty" yaml:"interests,omitempty"`
}

// ArtifactMetadata identifies the profile an artifact describes and when it
// was produced.
type ArtifactMetadata struct {
	ProfileID   string         `json:"profileId" yaml:"profileId"`
	Name        string         `json:"name" yaml:"name"`
	Institution string         `json:"institution" yaml:"institution"`
	Interests   []string       `json:"interests,omitempty" yaml:"interests,omitempty"`
	FetchedAt   time.Time      `json:"fetchedAt" yaml:"fetchedAt"`
	Source      ArtifactSource `json:"source" yaml:"source"`
}

// ScholarArtifact is the persisted JSON document read by the display pages.
// It is built once per pipeline run and never mutated after it is written.
type ScholarArtifact struct {
	Metadata        ArtifactMetadata  `json:"metadata" yaml:"metadata"`
	Metrics         ScholarMetrics    `json:"metrics" yaml:"metrics"`
	MetricsSince    *SinceMetrics     `json:"metricsSince,omitempty" yaml:"metricsSince,omitempty"`
	CitationsByYear CitationHistogram `json:"citationsByYear" yaml:"citationsByYear"`
}

// IsFallback reports whether the artifact carries synthetic data.
func (a ScholarArtifact) IsFallback() bool {
	return a.Metadata.Source == SourceFallback
}

// YearCount is one bar of the citation histogram.
type YearCount struct {
	Year  string
	Count int
}

// CitationHistogram maps a year label to its citation count and remembers
// the order in which years were added. It serializes as a JSON object whose
// keys appear in insertion order. The zero value is an empty histogram.
//
// Set never writes to storage another value may see, so a copied histogram
// is independent of the original.
type CitationHistogram struct {
	entries []YearCount
}

// NewHistogram returns a histogram holding entries in the given order.
func NewHistogram(entries ...YearCount) CitationHistogram {
	var h CitationHistogram
	for _, e := range entries {
		h.Set(e.Year, e.Count)
	}
	return h
}

// Set assigns count to year. A year seen before keeps its first position.
func (h *CitationHistogram) Set(year string, count int) {
	if i := h.find(year); i >= 0 {
		entries := make([]YearCount, len(h.entries))
		copy(entries, h.entries)
		entries[i].Count = count
		h.entries = entries
		return
	}
	// Capping capacity forces append to reallocate.
	n := len(h.entries)
	h.entries = append(h.entries[:n:n], YearCount{Year: year, Count: count})
}

// Get returns the count for year and whether the year is present.
func (h CitationHistogram) Get(year string) (int, bool) {
	i := h.find(year)
	if i < 0 {
		return 0, false
	}
	return h.entries[i].Count, true
}

func (h CitationHistogram) find(year string) int {
	for i, e := range h.entries {
		if e.Year == year {
			return i
		}
	}
	return -1
}

// Len returns the number of years in the histogram.
func (h CitationHistogram) Len() int {
	return len(h.entries)
}

// Years returns the year labels in insertion order.
func (h CitationHistogram) Years() []string {
	years := make([]string, len(h.entries))
	for i, e := range h.entries {
		years[i] = e.Year
	}
	return years
}

// Entries returns a copy of the histogram in insertion order.
func (h CitationHistogram) Entries() []YearCount {
	out := make([]YearCount, len(h.entries))
	copy(out, h.entries)
	return out
}

// MarshalJSON writes the histogram as an object keyed by year.
func (h CitationHistogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range h.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Year)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(e.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by year, keeping the document's key order.
func (h *CitationHistogram) UnmarshalJSON(data []byte) error {
	*h = CitationHistogram{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("citationsByYear: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		year, ok := tok.(string)
		if !ok {
			return fmt.Errorf("citationsByYear: expected year key, got %v", tok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("citationsByYear[%s]: %w", year, err)
		}
		if count < 0 {
			return fmt.Errorf("citationsByYear[%s]: negative count %d", year, count)
		}
		h.Set(year, count)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalYAML emits a mapping node so the year order survives YAML output.
func (h CitationHistogram) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range h.entries {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Year},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(e.Count)},
		)
	}
	return node, nil
}
