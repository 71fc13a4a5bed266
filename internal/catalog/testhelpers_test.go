package catalog

import (
	"io/fs"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"
	"time"

	"github.com/harrison/everything/internal/indexer"
	"github.com/harrison/everything/internal/models"
	"github.com/harrison/everything/internal/store"
	"github.com/stretchr/testify/require"
)

const testRoot = "/home/user"

// fakeFile describes one child of testRoot.
type fakeFile struct {
	name    string
	size    uint64
	created time.Time
	err     error
}

// fakeFS serves a single directory with fixed attributes.
type fakeFS struct {
	dirs  fstest.MapFS
	attrs map[string]fakeFile
}

func newFakeFS(files ...fakeFile) *fakeFS {
	f := &fakeFS{dirs: fstest.MapFS{}, attrs: map[string]fakeFile{}}
	for _, file := range files {
		f.dirs[filepath.ToSlash(testRoot)[1:]+"/"+file.name] = &fstest.MapFile{}
		f.attrs[filepath.Join(testRoot, file.name)] = file
	}
	if len(files) == 0 {
		f.dirs[filepath.ToSlash(testRoot)[1:]] = &fstest.MapFile{Mode: fs.ModeDir}
	}
	return f
}

func (f *fakeFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	return fs.ReadDir(f.dirs, filepath.ToSlash(dir)[1:])
}

func (f *fakeFS) Stat(path string) (indexer.EntryInfo, error) {
	file, ok := f.attrs[path]
	if !ok {
		return indexer.EntryInfo{}, fs.ErrNotExist
	}
	if file.err != nil {
		return indexer.EntryInfo{}, file.err
	}
	return indexer.EntryInfo{Size: file.size, Created: file.created}, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// scenarioFS is the two-file directory used across the search tests.
func scenarioFS() *fakeFS {
	return newFakeFS(
		fakeFile{name: "a.txt", size: 10, created: day(2023, 1, 1)},
		fakeFile{name: "B.TXT", size: 20, created: day(2023, 1, 2)},
	)
}

// newMemoryStore opens a private in-memory SQLite store.
func newMemoryStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestService returns a Service over an in-memory store and fsys, plus the store.
func newTestService(t *testing.T, fsys indexer.FileSystem, mutate ...func(*Options)) (*Service, *store.SQLite) {
	t.Helper()
	st := newMemoryStore(t)
	opts := Options{
		Root:       testRoot,
		Open:       func() (Store, error) { return st, nil },
		FileSystem: fsys,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewService(opts), st
}

func recordNames(records []models.FileRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func sortedRecords(records []models.FileRecord) []models.FileRecord {
	out := append([]models.FileRecord(nil), records...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// recordingLogger keeps warnings for assertions.
type recordingLogger struct {
	warnings []string
	infos    []string
}

func (l *recordingLogger) LogDebug(string)    {}
func (l *recordingLogger) LogInfo(msg string) { l.infos = append(l.infos, msg) }
func (l *recordingLogger) LogWarn(msg string) { l.warnings = append(l.warnings, msg) }
