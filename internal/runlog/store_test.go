// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	runs := []Record{
		{ID: "r1", ProfileID: "alice", StartedAt: base, FinishedAt: base.Add(2 * time.Second), Source: "live", TotalCitations: 10, OutputPath: "out.json"},
		{ID: "r2", ProfileID: "alice", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second), Source: "fallback", FailureKind: "http_status", StatusCode: 429, Message: "fetch: http_status (HTTP 429)", TotalCitations: 1248, OutputPath: "out.json"},
		{ID: "r3", ProfileID: "bob", StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(2 * time.Hour), Source: "live"},
	}
	for _, r := range runs {
		require.NoError(t, s.Record(ctx, r))
	}

	all, err := s.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	alice, err := s.Recent(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	got := alice[0]
	assert.Equal(t, "r2", got.ID)
	assert.Equal(t, "fallback", got.Source)
	assert.Equal(t, "http_status", got.FailureKind)
	assert.Equal(t, 429, got.StatusCode)
	assert.Equal(t, 1248, got.TotalCitations)
	assert.True(t, got.StartedAt.Equal(base.Add(time.Hour)))
	assert.Equal(t, time.Second, got.Duration())
}

func TestRecordReplacesSameID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, Record{ID: "r1", ProfileID: "p", StartedAt: now, FinishedAt: now, Source: "live"}))
	require.NoError(t, s.Record(ctx, Record{ID: "r1", ProfileID: "p", StartedAt: now, FinishedAt: now, Source: "fallback"}))

	got, err := s.Recent(ctx, "p", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fallback", got[0].Source)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Record{ID: "r1", ProfileID: "p", StartedAt: time.Now(), FinishedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent(ctx, "", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
