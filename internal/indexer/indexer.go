// Package indexer turns the immediate children of one root directory into catalog
// records. Scanning is not recursive.
package indexer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/harrison/everything/internal/models"
)

// EntryInfo holds the attributes the catalog keeps for an entry.
type EntryInfo struct {
	Size    uint64
	Created time.Time
}

// FileSystem is the filesystem collaborator used by the Indexer.
type FileSystem interface {
	// ReadDir lists the immediate children of dir.
	ReadDir(dir string) ([]fs.DirEntry, error)
	// Stat reads the size and creation time of path, following symlinks.
	Stat(path string) (EntryInfo, error)
}

// ScanError reports that the root directory could not be listed.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// EntryError records one entry that was left out of a scan.
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("skip %s: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// ScanResult is the outcome of a scan. Records has no guaranteed order.
type ScanResult struct {
	Root    string
	Records []models.FileRecord
	Skipped []*EntryError
}

// Indexer produces FileRecord values from live filesystem metadata.
type Indexer struct {
	fs FileSystem
}

// New returns an Indexer over fsys; nil means the host filesystem.
func New(fsys FileSystem) *Indexer {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	return &Indexer{fs: fsys}
}

// Scan lists the immediate children of root and reads their attributes. An entry that
// cannot be read is skipped and reported in ScanResult.Skipped. If root itself cannot
// be listed, Scan returns an empty result and a *ScanError.
func (ix *Indexer) Scan(root string) (*ScanResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return &ScanResult{Root: root}, &ScanError{Root: root, Err: err}
	}
	result := &ScanResult{Root: absRoot, Records: make([]models.FileRecord, 0)}

	entries, err := ix.fs.ReadDir(absRoot)
	if err != nil {
		return result, &ScanError{Root: absRoot, Err: err}
	}

	for _, entry := range entries {
		path := filepath.Join(absRoot, entry.Name())
		info, err := ix.fs.Stat(path)
		if err != nil {
			result.Skipped = append(result.Skipped, &EntryError{Path: path, Err: err})
			continue
		}
		result.Records = append(result.Records, models.NewFileRecord(entry.Name(), absRoot, info.Size, info.Created))
	}

	return result, nil
}

// Stat builds the record for a single path.
func (ix *Indexer) Stat(path string) (models.FileRecord, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return models.FileRecord{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := ix.fs.Stat(absPath)
	if err != nil {
		return models.FileRecord{}, &EntryError{Path: absPath, Err: err}
	}
	return models.NewFileRecord(filepath.Base(absPath), filepath.Dir(absPath), info.Size, info.Created), nil
}
