package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/everything/internal/indexer"
	"github.com/harrison/everything/internal/models"
)

// stagingTable receives the scan when reindexing in shadow mode.
const stagingTable = TableName + "_staging"

// Metadata keys written after each successful reindex.
const (
	MetaLastReindex = "last_reindex"
	MetaLastRunID   = "last_reindex_run"
	MetaLastRoot    = "last_reindex_root"
	MetaLastCount   = "last_reindex_count"
)

// Locker serializes reindex against readers. *filelock.FileLock satisfies it.
type Locker interface {
	TryLock() (bool, error)
	TryRLock() (bool, error)
	LockContext(ctx context.Context) error
	RLockContext(ctx context.Context) error
	Unlock() error
}

// errClosed is the open error of a Service closed before first use.
var errClosed = errors.New("catalog closed")

// Options configures a Service.
type Options struct {
	// Root is the directory whose immediate children are indexed.
	Root string
	// Open creates the store handle. It is called at most once, on first use.
	Open func() (Store, error)
	// FileSystem overrides the host filesystem for scanning.
	FileSystem indexer.FileSystem
	// Logger receives progress and skip reports. Nil discards them.
	Logger Logger
	// Literal escapes pattern metacharacters in search text.
	Literal bool
	// Shadow builds the new catalog in a staging table and swaps it in atomically.
	Shadow bool
	// Lock, when set, is held exclusively during Reindex and shared during Search.
	// Waiting for it ends when the operation's context is done.
	Lock Locker
}

// ReindexResult summarizes one reindex run.
type ReindexResult struct {
	RunID    string
	Root     string
	Indexed  int
	Skipped  []*indexer.EntryError
	Started  time.Time
	Duration time.Duration
}

// Status describes the catalog as currently stored.
type Status struct {
	Initialized bool
	Records     int64
	LastReindex string
	LastRunID   string
	LastRoot    string
	LastCount   string
}

// Service is the single entry point for reindex, insert and search. It owns the
// store handle, which is opened lazily and exactly once.
type Service struct {
	opts    Options
	log     Logger
	indexer *indexer.Indexer

	once    sync.Once
	store   Store
	openErr error

	schema *Schema
	engine *SearchEngine
}

// NewService returns a Service; nothing is opened until the first operation.
func NewService(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Service{
		opts:    opts,
		log:     log,
		indexer: indexer.New(opts.FileSystem),
	}
}

// handle returns the store, opening it on first use.
func (s *Service) handle() (Store, error) {
	s.once.Do(func() {
		if s.opts.Open == nil {
			s.openErr = &StoreError{Op: "open", Err: errors.New("no store configured")}
			return
		}
		st, err := s.opts.Open()
		if err != nil {
			s.openErr = &StoreError{Op: "open", Err: err}
			return
		}
		s.store = st
		s.schema = NewSchema(st)
		s.engine = NewSearchEngine(st, s.log)
		s.engine.Literal = s.opts.Literal
	})
	return s.store, s.openErr
}

// Close releases the store handle if it was opened. A Service closed before first
// use never opens the store; later operations fail.
func (s *Service) Close() error {
	s.once.Do(func() {
		s.openErr = &StoreError{Op: "open", Err: errClosed}
	})
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// acquire takes the lock without blocking when it is free, and otherwise logs and
// waits until it is released or ctx is done.
func (s *Service) acquire(ctx context.Context, exclusive bool) error {
	try, wait := s.opts.Lock.TryRLock, s.opts.Lock.RLockContext
	if exclusive {
		try, wait = s.opts.Lock.TryLock, s.opts.Lock.LockContext
	}

	acquired, err := try()
	if err != nil {
		return err
	}
	if acquired {
		return nil
	}
	s.log.LogInfo("Catalog is locked by another process, waiting")
	return wait(ctx)
}

// Reindex rebuilds the catalog from the root directory: drop, create, scan, insert.
//
// The steps are not transactional unless Shadow is set. An interruption between the
// drop and the last insert leaves the catalog empty or partially populated.
func (s *Service) Reindex(ctx context.Context) (*ReindexResult, error) {
	if _, err := s.handle(); err != nil {
		return nil, err
	}
	if s.opts.Lock != nil {
		if err := s.acquire(ctx, true); err != nil {
			return nil, err
		}
		defer s.opts.Lock.Unlock()
	}

	result := &ReindexResult{
		RunID:   uuid.New().String(),
		Root:    s.opts.Root,
		Started: time.Now(),
	}
	s.log.LogInfo(fmt.Sprintf("Reindex %s started for %s", result.RunID, s.opts.Root))

	target := s.schema
	if s.opts.Shadow {
		target = s.schema.WithTable(stagingTable)
	}

	if err := s.recreate(ctx, target); err != nil {
		return nil, err
	}

	scan, err := s.indexer.Scan(s.opts.Root)
	if err != nil {
		return nil, err
	}
	result.Root = scan.Root
	result.Skipped = scan.Skipped
	for _, skipped := range scan.Skipped {
		s.log.LogDebug(skipped.Error())
	}

	if err := s.insertAll(ctx, target.Table(), scan.Records); err != nil {
		return nil, err
	}
	result.Indexed = len(scan.Records)

	if s.opts.Shadow {
		if err := s.store.ReplaceTable(ctx, stagingTable, TableName); err != nil {
			return nil, &SchemaError{Op: "swap", Table: TableName, Err: err}
		}
	}

	result.Duration = time.Since(result.Started)
	if err := s.recordRun(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// recreate drops the table when it exists and creates it empty.
func (s *Service) recreate(ctx context.Context, sc *Schema) error {
	exists, err := sc.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := sc.Drop(ctx); err != nil {
			return err
		}
	}
	return sc.Create(ctx)
}

func (s *Service) recordRun(ctx context.Context, r *ReindexResult) error {
	meta := []struct{ key, value string }{
		{MetaLastReindex, r.Started.Format(models.DateLayout)},
		{MetaLastRunID, r.RunID},
		{MetaLastRoot, r.Root},
		{MetaLastCount, strconv.Itoa(r.Indexed)},
	}
	for _, m := range meta {
		if err := s.store.SetMeta(ctx, m.key, m.value); err != nil {
			return &StoreError{Op: "metadata", Key: m.key, Err: err}
		}
	}
	return nil
}

// Insert appends one record. A record whose (Path, Name) is already stored fails
// with a *StoreError wrapping store.ErrDuplicateKey.
func (s *Service) Insert(ctx context.Context, rec models.FileRecord) error {
	if _, err := s.handle(); err != nil {
		return err
	}
	return s.insert(ctx, TableName, rec)
}

// InsertAll inserts records one at a time; the first failure stops the rest.
func (s *Service) InsertAll(ctx context.Context, records []models.FileRecord) error {
	if _, err := s.handle(); err != nil {
		return err
	}
	return s.insertAll(ctx, TableName, records)
}

func (s *Service) insertAll(ctx context.Context, table string, records []models.FileRecord) error {
	for _, rec := range records {
		if err := s.insert(ctx, table, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) insert(ctx context.Context, table string, rec models.FileRecord) error {
	if err := s.store.Insert(ctx, table, models.Columns, rec.Values()); err != nil {
		return &StoreError{Op: "insert", Key: rec.Path + "/" + rec.Name, Err: err}
	}
	return nil
}

// Search returns records whose name contains text; see SearchEngine.BuildPredicate.
func (s *Service) Search(ctx context.Context, text, sortColumn string, matchCase bool) ([]models.FileRecord, error) {
	if _, err := s.handle(); err != nil {
		return nil, err
	}
	if s.opts.Lock != nil {
		if err := s.acquire(ctx, false); err != nil {
			return nil, err
		}
		defer s.opts.Lock.Unlock()
	}
	return s.engine.Search(ctx, text, sortColumn, matchCase)
}

// Stat builds the record for one path without storing it.
func (s *Service) Stat(path string) (models.FileRecord, error) {
	return s.indexer.Stat(path)
}

// Status reports the record count and the last reindex run.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st, err := s.handle()
	if err != nil {
		return nil, err
	}
	exists, err := s.schema.Exists(ctx)
	if err != nil {
		return nil, err
	}
	status := &Status{Initialized: exists}
	if exists {
		if status.Records, err = st.Count(ctx, TableName); err != nil {
			return nil, &StoreError{Op: "count", Err: err}
		}
	}

	fields := []struct {
		key string
		dst *string
	}{
		{MetaLastReindex, &status.LastReindex},
		{MetaLastRunID, &status.LastRunID},
		{MetaLastRoot, &status.LastRoot},
		{MetaLastCount, &status.LastCount},
	}
	for _, f := range fields {
		v, _, err := st.Meta(ctx, f.key)
		if err != nil {
			return nil, &StoreError{Op: "metadata", Key: f.key, Err: err}
		}
		*f.dst = v
	}
	return status, nil
}
