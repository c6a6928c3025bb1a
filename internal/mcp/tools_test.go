package mcp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsync/internal/document"
	"github.com/Aman-CERP/docsync/internal/gateway"
	"github.com/Aman-CERP/docsync/internal/history"
	"github.com/Aman-CERP/docsync/internal/reconcile"
	"github.com/Aman-CERP/docsync/internal/ui"
)

func TestToSyncOutput(t *testing.T) {
	// Given: a failed report with an item failure
	r := &reconcile.Report{
		ID:        "p1",
		Status:    reconcile.StateFailed,
		Err:       errors.New("persist failed"),
		Added:     1,
		Unchanged: 2,
		Duration:  2 * time.Second,
		Failures: []reconcile.Failure{
			{Identity: "x.txt", Op: reconcile.OpDelete, Err: errors.New("locked")},
			{Identity: "y.txt", Op: reconcile.OpAdd},
		},
	}

	// When: converting
	out := toSyncOutput(r)

	// Then: every field is carried over
	assert.Equal(t, "p1", out.PassID)
	assert.Equal(t, "FAILED", out.Status)
	assert.Equal(t, "persist failed", out.Error)
	assert.Equal(t, int64(2000), out.DurationMS)
	assert.Equal(t, 1, out.Added)
	assert.Equal(t, 2, out.Unchanged)
	require.Len(t, out.Failures, 2)
	assert.Equal(t, FailureOutput{Identity: "x.txt", Op: "delete", Error: "locked"}, out.Failures[0])
	assert.Empty(t, out.Failures[1].Error)
	assert.Nil(t, out.Changes)
}

func TestToSyncOutput_NoFailuresIsEmptySlice(t *testing.T) {
	out := toSyncOutput(&reconcile.Report{Status: reconcile.StateDone})

	assert.NotNil(t, out.Failures)
	assert.Empty(t, out.Failures)
}

func TestToDryRunOutput(t *testing.T) {
	cs := &reconcile.ChangeSet{
		Added:     []string{"a"},
		Unchanged: []string{"b", "c"},
	}

	out := toDryRunOutput(cs)

	assert.Equal(t, "PENDING", out.Status)
	assert.Empty(t, out.PassID)
	assert.Equal(t, 1, out.Added)
	assert.Equal(t, 2, out.Unchanged)
	require.NotNil(t, out.Changes)
	assert.Equal(t, []string{"a"}, out.Changes.Added)
	assert.NotNil(t, out.Changes.Modified)
	assert.NotNil(t, out.Changes.Deleted)
}

func TestToStatusOutput(t *testing.T) {
	started := time.Date(2026, 10, 1, 9, 30, 0, 0, time.FixedZone("X", 2*3600))
	info := ui.StatusInfo{
		DataDir:         "/data",
		Backend:         "vector",
		ManifestEntries: 5,
		IndexCount:      5,
		LastPass: &history.Pass{
			ID:        "p9",
			StartedAt: started,
			Duration:  750 * time.Millisecond,
			Status:    "FAILED",
			Error:     "boom",
			Failures:  []history.Failure{{Identity: "a", Op: "add", Error: "x"}},
		},
		Pending: &reconcile.ChangeSet{Deleted: []string{"gone.txt"}},
	}

	out := toStatusOutput(info)

	assert.Equal(t, "vector", out.Backend)
	assert.Equal(t, 5, out.IndexCount)
	require.NotNil(t, out.LastPass)
	assert.Equal(t, "2026-10-01T07:30:00Z", out.LastPass.StartedAt)
	assert.Equal(t, 1, out.LastPass.Failed)
	assert.Equal(t, int64(750), out.LastPass.DurationMS)
	assert.Equal(t, "boom", out.LastPass.Error)
	require.NotNil(t, out.Pending)
	assert.Equal(t, 1, out.Pending.Deleted)
}

func TestToStatusOutput_NoPassNoPending(t *testing.T) {
	out := toStatusOutput(ui.StatusInfo{IndexCount: -1})

	assert.Nil(t, out.LastPass)
	assert.Nil(t, out.Pending)
	assert.Equal(t, -1, out.IndexCount)
}

func TestToSearchOutput(t *testing.T) {
	hits := []gateway.Hit{
		{
			Identity: "docs/a.txt",
			Score:    0.8,
			Metadata: document.Metadata{FilePath: "/data/docs/a.txt", FileType: "text/plain"},
		},
	}

	out := toSearchOutput(hits)

	require.Len(t, out.Results, 1)
	assert.Equal(t, "docs/a.txt", out.Results[0].Identity)
	assert.InDelta(t, 0.8, out.Results[0].Score, 1e-9)
	assert.Equal(t, "text/plain", out.Results[0].FileType)
	assert.Equal(t, hits[0].Metadata.SourcePath(), out.Results[0].SourcePath)
}

func TestToSearchOutput_NilHits(t *testing.T) {
	out := toSearchOutput(nil)

	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
}
