// Package version reports the docsync build.
//
// Release builds set the variables with ldflags:
//
//	-X github.com/Aman-CERP/docsync/pkg/version.Version=$(VERSION)
//	-X github.com/Aman-CERP/docsync/pkg/version.Commit=$(COMMIT)
//	-X github.com/Aman-CERP/docsync/pkg/version.Date=$(DATE)
//
// Builds made with go install fall back to the module and VCS data the Go
// toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is the JSON form printed by `docsync version --json`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

var (
	infoOnce sync.Once
	info     BuildInfo
)

// GetInfo returns the build information, filling ldflags gaps from the
// embedded build info.
func GetInfo() BuildInfo {
	infoOnce.Do(func() {
		info = resolve(Version, Commit, Date, readBuildInfo)
	})
	return info
}

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

func resolve(v, commit, date string, read func() (*debug.BuildInfo, bool)) BuildInfo {
	bi := BuildInfo{
		Version:   v,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	embedded, ok := read()
	if !ok || embedded == nil {
		return bi
	}
	if bi.Version == "dev" && embedded.Main.Version != "" && embedded.Main.Version != "(devel)" {
		bi.Version = embedded.Main.Version
	}
	for _, s := range embedded.Settings {
		switch s.Key {
		case "vcs.revision":
			if bi.Commit == "unknown" {
				bi.Commit = shortCommit(s.Value)
			}
		case "vcs.time":
			if bi.Date == "unknown" {
				bi.Date = s.Value
			}
		case "vcs.modified":
			bi.Modified = s.Value == "true"
		}
	}
	return bi
}

func shortCommit(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns the one-line version banner.
func String() string {
	bi := GetInfo()
	commit := bi.Commit
	if bi.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("docsync %s (commit: %s, built: %s, go: %s)",
		bi.Version, commit, bi.Date, bi.GoVersion)
}

// Short returns just the version.
func Short() string {
	return GetInfo().Version
}
