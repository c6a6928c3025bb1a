// Package config loads docsync configuration.
//
// Values are layered in order of increasing precedence:
//  1. Hardcoded defaults (NewConfig)
//  2. User config (~/.config/docsync/config.yaml)
//  3. Project config (.docsync.yaml in the working directory)
//  4. Environment variables (DOCSYNC_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// ProjectFileName is the project configuration file.
const ProjectFileName = ".docsync.yaml"

// Gateway backends.
const (
	BackendBleve  = "bleve"
	BackendVector = "vector"
	BackendHybrid = "hybrid"
)

// Config represents the complete docsync configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Paths    PathsConfig    `yaml:"paths" json:"paths"`
	Scan     ScanConfig     `yaml:"scan" json:"scan"`
	Sync     SyncConfig     `yaml:"sync" json:"sync"`
	Gateway  GatewayConfig  `yaml:"gateway" json:"gateway"`
	Chunking ChunkingConfig `yaml:"chunking" json:"chunking"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	History  HistoryConfig  `yaml:"history" json:"history"`
}

// PathsConfig locates the document directory and the index storage.
// Relative paths are resolved against the directory passed to Load.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" json:"data_dir"`
	StorageDir   string `yaml:"storage_dir" json:"storage_dir"`
	ManifestFile string `yaml:"manifest_file" json:"manifest_file"`
}

// ScanConfig selects which files are documents.
type ScanConfig struct {
	Extensions     []string `yaml:"extensions" json:"extensions"`
	Recursive      bool     `yaml:"recursive" json:"recursive"`
	Exclude        []string `yaml:"exclude" json:"exclude"`
	MaxFileSize    int64    `yaml:"max_file_size" json:"max_file_size"`
	FollowSymlinks bool     `yaml:"follow_symlinks" json:"follow_symlinks"`

	// Workers bounds concurrent hashing.
	Workers int `yaml:"workers" json:"workers"`

	// CacheSize is the fingerprint cache capacity (0 disables it).
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// SyncConfig configures passes.
type SyncConfig struct {
	// Workers bounds concurrent gateway calls during a pass.
	Workers int `yaml:"workers" json:"workers"`

	// Interval runs a pass periodically in watch mode ("0" disables it).
	Interval string `yaml:"interval" json:"interval"`

	// Debounce coalesces bursts of filesystem events in watch mode.
	Debounce string `yaml:"debounce" json:"debounce"`
}

// GatewayConfig selects the index backend.
type GatewayConfig struct {
	Backend    string `yaml:"backend" json:"backend"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
	RetryDelay string `yaml:"retry_delay" json:"retry_delay"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
}

// ChunkingConfig is handed to document parsers. The sync engine indexes
// whole documents and does not read it.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
}

// LoggingConfig configures the file logger.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	Dir       string `yaml:"dir" json:"dir"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// HistoryConfig configures the pass history database.
type HistoryConfig struct {
	Enabled   bool `yaml:"enabled" json:"enabled"`
	Retention int  `yaml:"retention" json:"retention"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir:      filepath.Join("backend", "files", "data"),
			StorageDir:   filepath.Join("backend", "files", "storage"),
			ManifestFile: "index_manifest.json",
		},
		Scan: ScanConfig{
			Extensions:  []string{".txt"},
			Exclude:     []string{},
			MaxFileSize: 10 * 1024 * 1024,
			Workers:     runtime.NumCPU(),
			CacheSize:   4096,
		},
		Sync: SyncConfig{
			Workers:  1,
			Interval: "0",
			Debounce: "500ms",
		},
		Gateway: GatewayConfig{
			Backend:    BackendBleve,
			MaxRetries: 2,
			RetryDelay: "100ms",
			Dimensions: 256,
		},
		Chunking: ChunkingConfig{
			ChunkSize:    512,
			ChunkOverlap: 64,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Dir:       defaultLogDir(),
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		History: HistoryConfig{
			Enabled:   true,
			Retention: 100,
		},
	}
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docsync", "logs")
	}
	return filepath.Join(home, ".docsync", "logs")
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory layout:
//   - $XDG_CONFIG_HOME/docsync/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/docsync/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docsync", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docsync", "config.yaml")
	}
	return filepath.Join(home, ".config", "docsync", "config.yaml")
}

// Load loads configuration for the project in dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if projectPath := filepath.Join(dir, ProjectFileName); fileExists(projectPath) {
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, err
		}
	}

	return cfg.finish(dir)
}

// LoadFile loads defaults overlaid with the file at path only. Relative paths
// in it are resolved against dir.
func LoadFile(path, dir string) (*Config, error) {
	if !fileExists(path) {
		return nil, docerrors.New(docerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("config file %s not found", path), nil).
			WithSuggestion("run 'docsync config init' to create one")
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg.finish(dir)
}

func (c *Config) finish(dir string) (*Config, error) {
	c.applyEnvOverrides()
	c.resolvePaths(dir)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadYAML overlays the keys present in the file onto c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return docerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return docerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

// applyEnvOverrides applies DOCSYNC_* environment variable overrides.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSYNC_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("DOCSYNC_STORAGE_DIR"); v != "" {
		c.Paths.StorageDir = v
	}
	if v := os.Getenv("DOCSYNC_EXTENSIONS"); v != "" {
		var exts []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		c.Scan.Extensions = exts
	}
	if v := os.Getenv("DOCSYNC_RECURSIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Scan.Recursive = b
		}
	}
	if v := os.Getenv("DOCSYNC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sync.Workers = n
		}
	}
	if v := os.Getenv("DOCSYNC_INTERVAL"); v != "" {
		c.Sync.Interval = v
	}
	if v := os.Getenv("DOCSYNC_BACKEND"); v != "" {
		c.Gateway.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("DOCSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCSYNC_LOG_DIR"); v != "" {
		c.Logging.Dir = v
	}
	if v := os.Getenv("DOCSYNC_HISTORY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = b
		}
	}
}

func (c *Config) resolvePaths(dir string) {
	if dir == "" {
		return
	}
	if c.Paths.DataDir != "" && !filepath.IsAbs(c.Paths.DataDir) {
		c.Paths.DataDir = filepath.Join(dir, c.Paths.DataDir)
	}
	if c.Paths.StorageDir != "" && !filepath.IsAbs(c.Paths.StorageDir) {
		c.Paths.StorageDir = filepath.Join(dir, c.Paths.StorageDir)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return docerrors.ConfigError(fmt.Sprintf(format, args...), nil)
	}

	if c.Paths.DataDir == "" {
		return invalid("paths.data_dir must be set")
	}
	if c.Paths.StorageDir == "" {
		return invalid("paths.storage_dir must be set")
	}
	if c.Paths.ManifestFile == "" || filepath.Base(c.Paths.ManifestFile) != c.Paths.ManifestFile {
		return invalid("paths.manifest_file must be a plain file name, got %q", c.Paths.ManifestFile)
	}

	if len(c.Scan.Extensions) == 0 {
		return invalid("scan.extensions must list at least one extension")
	}
	if c.Scan.MaxFileSize <= 0 {
		return invalid("scan.max_file_size must be positive, got %d", c.Scan.MaxFileSize)
	}
	if c.Scan.Workers < 0 {
		return invalid("scan.workers must be non-negative, got %d", c.Scan.Workers)
	}
	if c.Scan.CacheSize < 0 {
		return invalid("scan.cache_size must be non-negative, got %d", c.Scan.CacheSize)
	}

	if c.Sync.Workers < 1 {
		return invalid("sync.workers must be at least 1, got %d", c.Sync.Workers)
	}
	if _, err := parseDuration(c.Sync.Interval); err != nil {
		return invalid("sync.interval: %v", err)
	}
	if _, err := parseDuration(c.Sync.Debounce); err != nil {
		return invalid("sync.debounce: %v", err)
	}

	switch c.Gateway.Backend {
	case BackendBleve, BackendVector, BackendHybrid:
	default:
		return invalid("gateway.backend must be 'bleve', 'vector', or 'hybrid', got %s", c.Gateway.Backend)
	}
	if c.Gateway.MaxRetries < 0 {
		return invalid("gateway.max_retries must be non-negative, got %d", c.Gateway.MaxRetries)
	}
	if _, err := parseDuration(c.Gateway.RetryDelay); err != nil {
		return invalid("gateway.retry_delay: %v", err)
	}
	if c.Gateway.Dimensions < 8 {
		return invalid("gateway.dimensions must be at least 8, got %d", c.Gateway.Dimensions)
	}

	if c.Chunking.ChunkSize <= 0 {
		return invalid("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return invalid("chunking.chunk_overlap must be in [0, chunk_size), got %d", c.Chunking.ChunkOverlap)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB <= 0 || c.Logging.MaxFiles <= 0 {
		return invalid("logging.max_size_mb and logging.max_files must be positive")
	}

	if c.History.Retention <= 0 {
		return invalid("history.retention must be positive, got %d", c.History.Retention)
	}
	return nil
}

// ManifestPath returns the manifest file location.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.StorageDir, c.Paths.ManifestFile)
}

// HistoryPath returns the pass history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StorageDir, "history.db")
}

// SyncInterval returns the watch interval, 0 when disabled.
func (c *Config) SyncInterval() time.Duration {
	d, _ := parseDuration(c.Sync.Interval)
	return d
}

// DebounceDuration returns the watch debounce window.
func (c *Config) DebounceDuration() time.Duration {
	d, _ := parseDuration(c.Sync.Debounce)
	return d
}

// RetryDelay returns the initial gateway retry delay.
func (c *Config) RetryDelay() time.Duration {
	d, _ := parseDuration(c.Gateway.RetryDelay)
	return d
}

// parseDuration accepts Go durations; "" and "0" mean zero.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", s)
	}
	return d, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
