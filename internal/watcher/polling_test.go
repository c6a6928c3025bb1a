package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBaselinedPoller walks root once without starting the ticker loop.
func newBaselinedPoller(t *testing.T, root string, skip func(string) bool) *PollingWatcher {
	t.Helper()
	p := NewPollingWatcher(time.Hour, skip)
	p.rootPath = root
	snap, err := p.walk()
	require.NoError(t, err)
	p.state = snap
	t.Cleanup(func() { _ = p.Stop() })
	return p
}

func drain(p *PollingWatcher) map[string]Operation {
	got := make(map[string]Operation)
	for {
		select {
		case ev := <-p.Events():
			got[ev.Path] = ev.Operation
		default:
			return got
		}
	}
}

func TestPollingWatcher_DetectChanges(t *testing.T) {
	// Given: a tree with two files and a baseline
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gone.txt"), []byte("x"), 0o644))
	p := newBaselinedPoller(t, root, nil)

	// When: one file is modified, one removed and one nested file created
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("version two"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(root, "gone.txt")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "new.txt"), []byte("x"), 0o644))
	require.NoError(t, p.detectChanges())

	// Then: each change is reported with a slash path
	assert.Equal(t, map[string]Operation{
		"keep.txt":    OpModify,
		"gone.txt":    OpDelete,
		"sub":         OpCreate,
		"sub/new.txt": OpCreate,
	}, drain(p))

	// And: a second poll with no changes is silent
	require.NoError(t, p.detectChanges())
	assert.Empty(t, drain(p))
}

func TestPollingWatcher_SkipsDirectories(t *testing.T) {
	// Given: a skipped storage directory
	root := t.TempDir()
	storage := filepath.Join(root, "storage")
	require.NoError(t, os.MkdirAll(storage, 0o755))
	p := newBaselinedPoller(t, root, func(abs string) bool { return abs == storage })

	// When: a file is written inside it
	require.NoError(t, os.WriteFile(filepath.Join(storage, "m.json"), []byte("{}"), 0o644))
	require.NoError(t, p.detectChanges())

	// Then: nothing is reported
	assert.Empty(t, drain(p))
}

func TestPollingWatcher_StartAndStop(t *testing.T) {
	// Given: a running poller
	root := t.TempDir()
	p := NewPollingWatcher(20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Start(ctx, root) }()

	// When: a file appears
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	// Then: it is reported
	select {
	case ev := <-p.Events():
		assert.Equal(t, "a.txt", ev.Path)
		assert.Equal(t, OpCreate, ev.Operation)
	case <-time.After(2 * time.Second):
		t.Fatal("no polling event")
	}

	// And: Stop ends Start cleanly
	require.NoError(t, p.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return")
	}
}
