package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()

	assert.Equal(t, LogFileName, filepath.Base(path))
	assert.Contains(t, path, ".docsync")
}

func TestLogPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/var/log/docsync", LogFileName), LogPath("/var/log/docsync"))
	assert.Equal(t, DefaultLogPath(), LogPath(""))
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", LogFileName)

	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path})
	require.NoError(t, err)

	logger.Debug("sync_pass_started", slog.String("pass_id", "p1"))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"sync_pass_started"`)
	assert.Contains(t, string(data), `"pass_id":"p1"`)
}

func TestSetup_RespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)

	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func TestFindLogFile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindLogFile("", dir)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, LogFileName), nil, 0o644))
	path, err := FindLogFile("", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LogFileName), path)

	_, err = FindLogFile(filepath.Join(dir, "other.log"), dir)
	assert.Error(t, err)
}

func TestRotatingWriter_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()
	w.maxSize = 100

	line := strings.Repeat("x", 60) + "\n"
	for i := 0; i < 5; i++ {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}

	// Given max 2 backups, the current file plus .1 and .2 exist, .3 does not.
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, line, string(data))
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), LogFileName), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = fmt.Fprintf(w, "writer %d line %d\n", i, j)
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(data), "\n"))
}

func TestViewer_TailFiltersAndFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	lines := []string{
		`{"time":"2026-03-01T10:00:00Z","level":"DEBUG","msg":"sync_pass_state","state":"SCANNING"}`,
		`{"time":"2026-03-01T10:00:01Z","level":"WARN","msg":"gateway_op_failed","identity":"a.txt","op":"add"}`,
		`not json at all`,
		`{"time":"2026-03-01T10:00:02Z","level":"INFO","msg":"sync_pass_complete","added":2}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	var out bytes.Buffer
	v := NewViewer(ViewerConfig{Level: "info", NoColor: true}, &out)

	entries, err := v.Tail(path, 3)
	require.NoError(t, err)
	// The debug line is outside the last 3 lines; the raw line passes.
	require.Len(t, entries, 3)
	assert.False(t, entries[1].IsValid)

	v.Print(entries)
	assert.Contains(t, out.String(), "WARN  gateway_op_failed identity=a.txt op=add")
	assert.Contains(t, out.String(), "not json at all")
	assert.Contains(t, out.String(), "INFO  sync_pass_complete added=2")
}

func TestViewer_PatternFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	content := `{"level":"INFO","msg":"manifest_saved"}` + "\n" + `{"level":"INFO","msg":"sync_pass_started"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := NewViewer(ViewerConfig{Pattern: regexp.MustCompile("manifest"), NoColor: true}, &bytes.Buffer{})

	entries, err := v.Tail(path, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "manifest_saved", entries[0].Msg)
}
