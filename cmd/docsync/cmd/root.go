// Package cmd provides the CLI commands for docsync.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsync/internal/config"
	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/logging"
	"github.com/Aman-CERP/docsync/internal/profiling"
	"github.com/Aman-CERP/docsync/pkg/version"
)

// stdioAnnotation marks commands that speak a protocol on stdout. Their
// logs go to the log file only.
const stdioAnnotation = "stdio"

// rootOptions holds the persistent flags and what PersistentPreRunE
// derived from them.
type rootOptions struct {
	configFile string
	dataDir    string
	storageDir string
	logLevel   string
	noColor    bool
	debug      bool
	profile    profiling.Options

	cfg      *config.Config
	cfgErr   error
	cleanup  func()
	profiler *profiling.Session
}

// NewRootCmd creates the root command for the docsync CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "docsync",
		Short: "Keep a search index in sync with a directory of documents",
		Long: `docsync compares a directory of documents against a manifest of what
was last indexed and applies only the differences: new documents are
added, modified ones re-indexed, and deleted ones removed.

Run 'docsync sync' once, 'docsync watch' to follow changes, or
'docsync serve' to expose syncing to MCP clients.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.preRun,
		PersistentPostRunE: opts.postRun,
	}

	cmd.SetVersionTemplate("docsync version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (default: user config + .docsync.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Document directory to sync")
	cmd.PersistentFlags().StringVar(&opts.storageDir, "storage-dir", "", "Directory holding the index and manifest")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Debug logging, also written to stderr")
	cmd.PersistentFlags().StringVar(&opts.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newSyncCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newLogsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, docerrors.FormatForCLI(err))
	}
	return err
}

// preRun loads configuration and sets up logging. A configuration error is
// kept for the commands that need it, so that 'config init' can still
// repair a broken file.
func (o *rootOptions) preRun(cmd *cobra.Command, _ []string) error {
	o.cfg, o.cfgErr = o.loadConfig()

	logCfg := logging.DefaultConfig()
	if o.cfg != nil {
		logCfg.Level = o.cfg.Logging.Level
		logCfg.FilePath = logging.LogPath(o.cfg.Logging.Dir)
		logCfg.MaxSizeMB = o.cfg.Logging.MaxSizeMB
		logCfg.MaxFiles = o.cfg.Logging.MaxFiles
	}
	if o.logLevel != "" {
		logCfg.Level = o.logLevel
	}

	var (
		cleanup func()
		err     error
	)
	if _, ok := cmd.Annotations[stdioAnnotation]; ok {
		cleanup, err = logging.SetupStdioSafe(logCfg)
	} else {
		if o.debug {
			logCfg.Level = "debug"
			logCfg.WriteToStderr = true
		}
		cleanup, err = logging.SetupDefault(logCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.cleanup = cleanup

	if o.profile.Enabled() {
		if o.profiler, err = profiling.Start(o.profile); err != nil {
			o.stopLogging()
			return err
		}
	}

	slog.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Short()))
	return nil
}

// postRun flushes profiles and closes the log file.
func (o *rootOptions) postRun(_ *cobra.Command, _ []string) error {
	var err error
	if o.profiler != nil {
		err = o.profiler.Stop()
		o.profiler = nil
	}
	o.stopLogging()
	return err
}

func (o *rootOptions) stopLogging() {
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
}

// loadConfig layers flags over the config file sources.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, docerrors.ConfigError("cannot determine working directory", err)
	}

	var cfg *config.Config
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile, filepath.Dir(absPath(o.configFile)))
	} else {
		cfg, err = config.Load(wd)
	}
	if err != nil {
		return nil, err
	}

	if o.dataDir != "" {
		cfg.Paths.DataDir = absPath(o.dataDir)
	}
	if o.storageDir != "" {
		cfg.Paths.StorageDir = absPath(o.storageDir)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// config returns the configuration loaded by preRun.
func (o *rootOptions) config() (*config.Config, error) {
	if o.cfg == nil && o.cfgErr == nil {
		o.cfg, o.cfgErr = o.loadConfig()
	}
	return o.cfg, o.cfgErr
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
