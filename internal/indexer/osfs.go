package indexer

import (
	"io/fs"
	"os"
)

// OSFileSystem reads the host filesystem.
type OSFileSystem struct{}

// ReadDir lists dir. The root must be a directory.
func (OSFileSystem) ReadDir(dir string) ([]fs.DirEntry, error) {
	return os.ReadDir(dir)
}

// Stat follows symlinks and reports birth time where the platform exposes it,
// modification time otherwise.
func (OSFileSystem) Stat(path string) (EntryInfo, error) {
	return statEntry(path)
}

// statModTime is the portable fallback: size plus modification time.
func statModTime(path string) (EntryInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return EntryInfo{}, err
	}
	size := info.Size()
	if size < 0 {
		size = 0
	}
	return EntryInfo{Size: uint64(size), Created: info.ModTime()}, nil
}
