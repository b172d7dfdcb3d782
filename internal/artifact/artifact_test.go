// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func liveExtraction() Extraction {
	return Extraction{
		Metrics:   types.ScholarMetrics{TotalCitations: 321, HIndex: 9, I10Index: 8},
		Identity:  types.ProfileIdentity{Name: "Grace Hopper", Institution: "Yale", Interests: []string{"Compilers"}},
		Histogram: types.NewHistogram(types.YearCount{Year: "2022", Count: 10}, types.YearCount{Year: "2021", Count: 7}),
	}
}

func TestBuildLive(t *testing.T) {
	a := Build("abc", liveExtraction(), nil, fixedNow)

	assert.Equal(t, "abc", a.Metadata.ProfileID)
	assert.Equal(t, "Grace Hopper", a.Metadata.Name)
	assert.Equal(t, "Yale", a.Metadata.Institution)
	assert.Equal(t, fixedNow, a.Metadata.FetchedAt)
	assert.Equal(t, types.SourceLive, a.Metadata.Source)
	assert.False(t, a.IsFallback())
	assert.Equal(t, 321, a.Metrics.TotalCitations)
	assert.Equal(t, []string{"2022", "2021"}, a.CitationsByYear.Years())
}

func TestBuildFallback(t *testing.T) {
	a := Build("abc", liveExtraction(), errors.New("boom"), fixedNow)

	assert.True(t, a.IsFallback())
	assert.Equal(t, "abc", a.Metadata.ProfileID)
	assert.Equal(t, SyntheticMetrics, a.Metrics)
}

func TestSynthetic(t *testing.T) {
	a := Synthetic("", fixedNow)
	assert.Equal(t, SampleProfileID, a.Metadata.ProfileID)
	assert.Equal(t, types.SourceFallback, a.Metadata.Source)

	data, err := Encode(a)
	require.NoError(t, err)

	var got struct {
		Metrics         map[string]int `json:"metrics"`
		CitationsByYear map[string]int `json:"citationsByYear"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]int{"totalCitations": 1248, "h_index": 18, "i10_index": 25}, got.Metrics)
	assert.Equal(t, map[string]int{
		"2015": 45, "2016": 78, "2017": 120, "2018": 156, "2019": 210,
		"2020": 245, "2021": 178, "2022": 120, "2023": 72, "2024": 24,
	}, got.CitationsByYear)
}

func TestSyntheticHistogramIsACopy(t *testing.T) {
	h := SyntheticHistogram()
	h.Set("2015", 0)
	again, _ := SyntheticHistogram().Get("2015")
	assert.Equal(t, 45, again)
}

func TestEncodeFieldNames(t *testing.T) {
	data, err := Encode(Build("abc", liveExtraction(), nil, fixedNow))
	require.NoError(t, err)
	s := string(data)

	for _, key := range []string{`"metadata"`, `"profileId"`, `"name"`, `"institution"`, `"fetchedAt": "2025-03-14T09:26:53Z"`,
		`"totalCitations"`, `"h_index"`, `"i10_index"`, `"citationsByYear"`, `"source": "live"`} {
		assert.Contains(t, s, key)
	}
	assert.NotContains(t, s, "null")
	assert.NotContains(t, s, "metricsSince")
	assert.Less(t, strings.Index(s, `"2022"`), strings.Index(s, `"2021"`), "year order must follow insertion order")
	assert.True(t, strings.HasSuffix(s, "}\n"))
}

func TestEncodeEmptyHistogram(t *testing.T) {
	ex := liveExtraction()
	ex.Histogram = types.CitationHistogram{}
	data, err := Encode(Build("abc", ex, nil, fixedNow))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"citationsByYear": {}`)
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "citations.json")
	want := Build("abc", liveExtraction(), nil, fixedNow)

	require.NoError(t, Write(path, want))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, want.Metadata, got.Metadata)
	assert.Equal(t, want.Metrics, got.Metrics)
	assert.Equal(t, want.CitationsByYear.Entries(), got.CitationsByYear.Entries())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.json")

	first := Build("first", liveExtraction(), nil, fixedNow)
	require.NoError(t, Write(path, first))

	second := Synthetic("second", fixedNow.Add(time.Hour))
	require.NoError(t, Write(path, second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Grace Hopper")
	assert.NotContains(t, string(data), "first")

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Metadata.ProfileID)
	assert.Equal(t, 10, got.CitationsByYear.Len())
}

func TestWritePersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Write(filepath.Join(blocker, "citations.json"), Synthetic("", fixedNow))
	require.Error(t, err)
	assert.True(t, failure.IsPersistence(err))
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}
