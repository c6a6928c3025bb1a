package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFileName is the log file inside the log directory.
const LogFileName = "docsync.log"

// DefaultLogDir returns ~/.docsync/logs, or a temp directory fallback.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docsync", "logs")
	}
	return filepath.Join(home, ".docsync", "logs")
}

// DefaultLogPath returns the log file in DefaultLogDir.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}

// LogPath returns the log file inside dir, or the default when dir is empty.
func LogPath(dir string) string {
	if dir == "" {
		return DefaultLogPath()
	}
	return filepath.Join(dir, LogFileName)
}

// FindLogFile returns explicit if it exists, otherwise the log file in dir.
func FindLogFile(explicit, dir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := LogPath(dir)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no log file found. Run 'docsync sync' first.\nExpected at: %s", path)
}
