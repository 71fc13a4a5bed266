//go:build linux

package indexer

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

func statEntry(path string) (EntryInfo, error) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME|unix.STATX_MTIME|unix.STATX_SIZE, &stx)
	if err != nil {
		// Kernels before 4.11 do not implement statx.
		if errors.Is(err, unix.ENOSYS) {
			return statModTime(path)
		}
		return EntryInfo{}, err
	}

	created := time.Unix(stx.Mtime.Sec, int64(stx.Mtime.Nsec))
	if stx.Mask&unix.STATX_BTIME != 0 {
		created = time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	}
	return EntryInfo{Size: stx.Size, Created: created}, nil
}
