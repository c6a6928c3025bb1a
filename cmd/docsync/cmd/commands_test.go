package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsync/internal/config"
	"github.com/Aman-CERP/docsync/internal/logging"
)

func dirFlags(data, storage string) []string {
	return []string{"--data-dir", data, "--storage-dir", storage}
}

func TestSyncCmd_IndexesDocuments(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{
		"a.txt":     "alpha",
		"b.txt":     "bravo",
		"skip.json": "{}",
	})
	storage := t.TempDir()

	// When: running sync
	out, err := execute(t, append(dirFlags(data, storage), "sync")...)

	// Then: both text documents are added and the manifest is written
	require.NoError(t, err)
	assert.Contains(t, out, "Sync DONE in")
	assert.Contains(t, out, "2 added, 0 modified, 0 deleted, 0 unchanged")
	assert.FileExists(t, filepath.Join(storage, "index_manifest.json"))

	// When: running sync again
	out, err = execute(t, append(dirFlags(data, storage), "sync")...)

	// Then: nothing changes
	require.NoError(t, err)
	assert.Contains(t, out, "0 added, 0 modified, 0 deleted, 2 unchanged")
}

func TestSyncCmd_DryRun(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{"a.txt": "alpha"})
	storage := t.TempDir()

	out, err := execute(t, append(dirFlags(data, storage), "sync", "--dry-run", "--verbose")...)

	require.NoError(t, err)
	assert.Contains(t, out, "Pending: 1 to add, 0 to modify, 0 to delete, 0 unchanged")
	assert.Contains(t, out, "+ a.txt")
	assert.NoFileExists(t, filepath.Join(storage, "index_manifest.json"))
}

func TestSyncCmd_MissingDataDir(t *testing.T) {
	isolate(t)
	storage := t.TempDir()

	_, err := execute(t, append(dirFlags(filepath.Join(t.TempDir(), "missing"), storage), "sync")...)

	require.Error(t, err)
}

func TestStatusCmd_JSON(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{"a.txt": "alpha"})
	storage := t.TempDir()
	_, err := execute(t, append(dirFlags(data, storage), "sync")...)
	require.NoError(t, err)

	// When: asking for JSON status
	out, err := execute(t, append(dirFlags(data, storage), "status", "--json")...)

	// Then: manifest and history are reported
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, data, info["data_dir"])
	assert.EqualValues(t, 1, info["manifest_entries"])
	assert.Contains(t, info, "last_pass")
}

func TestStatusCmd_Text(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{"a.txt": "alpha"})

	out, err := execute(t, append(dirFlags(data, t.TempDir()), "status")...)

	require.NoError(t, err)
	assert.Contains(t, out, "Sync Status: "+data)
	assert.Contains(t, out, "Last pass:")
}

func TestSearchCmd_FindsSyncedDocument(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{
		"apples.txt":  "apples and pears",
		"engines.txt": "diesel engines",
	})
	storage := t.TempDir()
	_, err := execute(t, append(dirFlags(data, storage), "sync")...)
	require.NoError(t, err)

	out, err := execute(t, append(dirFlags(data, storage), "search", "diesel", "--json")...)

	require.NoError(t, err)
	var results []searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "engines.txt", results[0].Identity)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	isolate(t)

	_, err := execute(t, append(dirFlags(t.TempDir(), t.TempDir()), "search")...)

	require.Error(t, err)
}

func TestHistoryCmd(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{"a.txt": "alpha"})
	storage := t.TempDir()

	// Given: no passes yet
	out, err := execute(t, append(dirFlags(data, storage), "history")...)
	require.NoError(t, err)
	assert.Contains(t, out, "No passes recorded yet")

	// When: a pass has run
	_, err = execute(t, append(dirFlags(data, storage), "sync")...)
	require.NoError(t, err)
	out, err = execute(t, append(dirFlags(data, storage), "history")...)

	// Then: it is listed
	require.NoError(t, err)
	assert.Contains(t, out, "DONE")
	assert.Contains(t, out, "+1 ~0 -0")
}

func TestConfigInitCmd(t *testing.T) {
	isolate(t)
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "docsync", "config.yaml")

	// When: creating the user config
	out, err := execute(t, "config", "init", "--user")

	// Then: defaults are written
	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration")
	require.FileExists(t, path)

	// When: running again without --force
	out, err = execute(t, "config", "init", "--user")

	// Then: the file is kept
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	// When: forcing
	out, err = execute(t, "config", "init", "--user", "--force")

	// Then: a backup is made
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestConfigShowCmd_JSON(t *testing.T) {
	isolate(t)
	data := t.TempDir()

	out, err := execute(t, "--data-dir", data, "config", "show", "--json")

	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, data, cfg.Paths.DataDir)
	assert.Equal(t, config.BackendBleve, cfg.Gateway.Backend)
}

func TestConfigPathCmd(t *testing.T) {
	isolate(t)

	out, err := execute(t, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("docsync", "config.yaml"))
}

func TestLogsCmd_ReadsLogFile(t *testing.T) {
	isolate(t)
	logFile := filepath.Join(t.TempDir(), "docsync.log")
	lines := `{"time":"2026-10-01T10:00:00Z","level":"INFO","msg":"sync_pass_completed","added":2}
{"time":"2026-10-01T10:00:01Z","level":"DEBUG","msg":"scan_entry"}
{"time":"2026-10-01T10:00:02Z","level":"ERROR","msg":"persist_failed"}
`
	require.NoError(t, os.WriteFile(logFile, []byte(lines), 0o644))

	out, err := execute(t, "--no-color", "logs", "--file", logFile, "--level", "info")

	require.NoError(t, err)
	assert.Contains(t, out, "sync_pass_completed added=2")
	assert.Contains(t, out, "persist_failed")
	assert.NotContains(t, out, "scan_entry")
}

func TestLogsCmd_InvalidFilter(t *testing.T) {
	isolate(t)
	logFile := filepath.Join(t.TempDir(), "docsync.log")
	require.NoError(t, os.WriteFile(logFile, []byte("{}\n"), 0o644))

	_, err := execute(t, "logs", "--file", logFile, "--filter", "([")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestLogsCmd_DefaultsToConfiguredDir(t *testing.T) {
	home := isolate(t)

	// Given: commands have run, so the default log file exists
	_, err := execute(t, "version")
	require.NoError(t, err)
	require.FileExists(t, logging.LogPath(filepath.Join(home, ".docsync", "logs")))

	// When: viewing logs
	_, err = execute(t, "logs", "-n", "5")

	// Then: the file is found
	require.NoError(t, err)
}

func TestDoctorCmd(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{"a.txt": "alpha"})
	storage := filepath.Join(t.TempDir(), "store")

	// When: checking a fresh setup
	out, err := execute(t, append(dirFlags(data, storage), "doctor")...)

	// Then: it passes with a warning for the missing manifest
	require.NoError(t, err)
	assert.Contains(t, out, "[PASS] data_dir")
	assert.Contains(t, out, "[WARN] manifest")
	assert.Contains(t, out, "Status: READY_WITH_WARNINGS")
}

func TestDoctorCmd_CorruptManifestFails(t *testing.T) {
	isolate(t)
	data := docsDir(t, map[string]string{"a.txt": "alpha"})
	storage := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(storage, "index_manifest.json"), []byte("null"), 0o644))

	// When: checking as JSON
	out, err := execute(t, append(dirFlags(data, storage), "doctor", "--json")...)

	// Then: the command fails and the report names the manifest
	require.Error(t, err)
	assert.Contains(t, out, `"status": "failed"`)
	assert.Contains(t, out, `"name": "manifest"`)
}
