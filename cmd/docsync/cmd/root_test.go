package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the user config at temp dirs so that tests never
// read or write the real ones.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")
	for _, key := range []string{"DOCSYNC_DATA_DIR", "DOCSYNC_STORAGE_DIR", "DOCSYNC_BACKEND", "DOCSYNC_LOG_DIR"} {
		t.Setenv(key, "")
	}
	return home
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// docsDir creates a data directory holding the given files.
func docsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: the root command
	root := NewRootCmd()

	// Then: every subcommand is registered
	for _, name := range []string{"sync", "watch", "status", "search", "history", "doctor", "serve", "config", "logs", "version"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"config", "data-dir", "storage-dir", "log-level", "no-color", "debug"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
}

func TestServeCmd_IsStdioSafe(t *testing.T) {
	root := NewRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)

	_, ok := serve.Annotations[stdioAnnotation]
	assert.True(t, ok, "serve must not log to stdout or stderr")
}

func TestRootOptions_LoadConfig_FlagsOverride(t *testing.T) {
	isolate(t)
	data := t.TempDir()
	storage := t.TempDir()

	// Given: flags naming the data and storage directories
	opts := &rootOptions{dataDir: data, storageDir: storage, logLevel: "debug"}

	// When: loading config
	cfg, err := opts.loadConfig()

	// Then: flags win over defaults
	require.NoError(t, err)
	assert.Equal(t, data, cfg.Paths.DataDir)
	assert.Equal(t, storage, cfg.Paths.StorageDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestRootOptions_LoadConfig_ExplicitFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  data_dir: docs\ngateway:\n  backend: hybrid\n"), 0o644))

	// Given: --config pointing at a file
	opts := &rootOptions{configFile: path}

	// When: loading config
	cfg, err := opts.loadConfig()

	// Then: relative paths resolve against the file's directory
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docs"), cfg.Paths.DataDir)
	assert.Equal(t, "hybrid", cfg.Gateway.Backend)
}

func TestRootOptions_LoadConfig_MissingFile(t *testing.T) {
	isolate(t)

	opts := &rootOptions{configFile: filepath.Join(t.TempDir(), "missing.yaml")}

	_, err := opts.loadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRootCmd_ConfigErrorReachesCommand(t *testing.T) {
	isolate(t)

	// When: running a command that needs config with a missing --config file
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "status")

	// Then: the config error is returned
	require.Error(t, err)
}

func TestRootCmd_ProfileFlags(t *testing.T) {
	isolate(t)
	heap := filepath.Join(t.TempDir(), "heap.prof")

	_, err := execute(t, "--profile-mem", heap, "version")

	require.NoError(t, err)
	assert.FileExists(t, heap)
}
