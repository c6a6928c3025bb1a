//go:build linux

package scanner

import (
	"io/fs"
	"syscall"
)

// changeStamp returns the inode and status-change time of info, or zeros
// when the platform data is unavailable.
func changeStamp(info fs.FileInfo) (ino uint64, ctime int64) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0
	}
	return uint64(st.Ino), int64(st.Ctim.Sec)*1e9 + int64(st.Ctim.Nsec)
}
