package preflight

import (
	"fmt"
	"syscall"

	"github.com/Aman-CERP/docsync/internal/ui"
)

// MinStorageFreeBytes is the free space the storage dir needs for a manifest
// snapshot, its temp copy and the index segments a pass writes.
const MinStorageFreeBytes = 100 * 1024 * 1024

// CheckDiskSpace reports free space on the filesystem that holds the
// storage dir. A storage dir that does not exist yet is measured at its
// nearest existing parent, where it will be created.
func (c *Checker) CheckDiskSpace(storageDir string) CheckResult {
	result := CheckResult{Name: "storage_disk_space", Required: true}

	measured := existingDir(storageDir)
	if measured != storageDir {
		result.Details = "measured at " + measured
	}

	var fsStat syscall.Statfs_t
	if err := syscall.Statfs(measured, &fsStat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot stat filesystem of %s: %v", measured, err)
		return result
	}

	free := int64(fsStat.Bavail) * int64(fsStat.Bsize)
	result.Message = fmt.Sprintf("%s free for %s (need %s)",
		ui.FormatBytes(free), storageDir, ui.FormatBytes(MinStorageFreeBytes))
	result.Status = StatusPass
	if free < MinStorageFreeBytes {
		result.Status = StatusFail
	}
	return result
}
