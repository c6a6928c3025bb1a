package scanner

import (
	"path"
	"strings"
)

// Directories that never hold documents.
var defaultExcludeDirs = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/.ssh/**",
	"**/.aws/**",
}

// Sensitive file patterns that are never indexed.
var sensitiveFilePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*credentials*",
	"*secrets*",
	"*password*",
	".netrc",
	"id_rsa",
	"id_ed25519",
}

// matchDirPattern checks if a slash-separated directory path matches a pattern.
func matchDirPattern(relPath, pattern string) bool {
	// **/name/** matches the name at any depth
	if strings.HasPrefix(pattern, "**/") {
		name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		for _, part := range strings.Split(relPath, "/") {
			if part == name {
				return true
			}
		}
		return false
	}

	// dir/** matches the directory itself and everything below it
	prefix := strings.TrimSuffix(pattern, "/**")
	return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
}

// matchFilePattern checks if a file matches a pattern.
// Patterns with a slash are matched against the relative path, others
// against the base name.
func matchFilePattern(baseName, relPath, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "**/"):
		suffix := strings.TrimPrefix(pattern, "**/")
		if strings.HasPrefix(suffix, "*.") {
			return strings.HasSuffix(baseName, strings.TrimPrefix(suffix, "*"))
		}
		dir := strings.TrimSuffix(suffix, "/**")
		for _, part := range strings.Split(path.Dir(relPath), "/") {
			if part == dir {
				return true
			}
		}
		return baseName == suffix

	case strings.HasSuffix(pattern, "/**"):
		return strings.HasPrefix(relPath, strings.TrimSuffix(pattern, "/**")+"/")

	case strings.Contains(pattern, "/"):
		matched, err := path.Match(pattern, relPath)
		return err == nil && matched

	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 1:
		middle := strings.Trim(pattern, "*")
		return strings.Contains(strings.ToLower(baseName), strings.ToLower(middle))
	}

	matched, err := path.Match(pattern, baseName)
	return err == nil && matched
}

// excludedDir reports whether a directory is skipped.
func excludedDir(relPath string, patterns []string) bool {
	for _, p := range defaultExcludeDirs {
		if matchDirPattern(relPath, p) {
			return true
		}
	}
	for _, p := range patterns {
		if matchDirPattern(relPath, p) {
			return true
		}
	}
	return false
}

// excludedFile reports whether a file is skipped by sensitive or custom patterns.
func excludedFile(relPath string, patterns []string) bool {
	base := path.Base(relPath)
	for _, p := range sensitiveFilePatterns {
		if matchFilePattern(base, relPath, p) {
			return true
		}
	}
	for _, p := range patterns {
		if matchFilePattern(base, relPath, p) {
			return true
		}
	}
	return false
}
