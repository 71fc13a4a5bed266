package filelock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestNewFileLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "catalog.db.lock")

	lock := NewFileLock(lockPath)
	if lock == nil {
		t.Fatal("NewFileLock should not return nil")
	}
	if lock.path != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.path)
	}
}

func TestLockContextUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	if err := lock.LockContext(context.Background()); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestConcurrentLocking(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	const goroutines = 5
	const iterations = 10

	counterPath := filepath.Join(tmpDir, "counter.txt")
	os.WriteFile(counterPath, []byte("0"), 0644)

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()

			for j := 0; j < iterations; j++ {
				lock := NewFileLock(lockPath)
				if err := lock.LockContext(context.Background()); err != nil {
					t.Errorf("Failed to acquire lock: %v", err)
					return
				}

				data, err := os.ReadFile(counterPath)
				if err != nil {
					t.Errorf("Failed to read counter: %v", err)
					lock.Unlock()
					return
				}

				var counter int
				fmt.Sscanf(string(data), "%d", &counter)
				time.Sleep(1 * time.Millisecond)
				counter++

				if err := os.WriteFile(counterPath, []byte(fmt.Sprintf("%d", counter)), 0644); err != nil {
					t.Errorf("Failed to write counter: %v", err)
					lock.Unlock()
					return
				}

				if err := lock.Unlock(); err != nil {
					t.Errorf("Failed to release lock: %v", err)
					return
				}
			}
		}()
	}

	wg.Wait()

	data, err := os.ReadFile(counterPath)
	if err != nil {
		t.Fatalf("Failed to read final counter: %v", err)
	}

	var finalCounter int
	fmt.Sscanf(string(data), "%d", &finalCounter)

	if expected := goroutines * iterations; finalCounter != expected {
		t.Errorf("Expected counter %d, got %d (race condition detected)", expected, finalCounter)
	}
}

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1 := NewFileLock(lockPath)
	lock2 := NewFileLock(lockPath)

	acquired, err := lock1.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("First TryLock should succeed")
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if acquired {
		t.Error("Second TryLock should fail when lock is held")
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("TryLock should succeed after unlock")
	}
	lock2.Unlock()
}

func TestSharedLocksCoexist(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	reader1 := NewFileLock(lockPath)
	reader2 := NewFileLock(lockPath)
	writer := NewFileLock(lockPath)

	if err := reader1.RLockContext(context.Background()); err != nil {
		t.Fatalf("RLockContext failed: %v", err)
	}
	acquired, err := reader2.TryRLock()
	if err != nil {
		t.Fatalf("TryRLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("Second shared lock should succeed while only readers hold the lock")
	}

	acquired, err = writer.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if acquired {
		t.Error("Exclusive lock should fail while readers hold the lock")
	}

	reader1.Unlock()
	reader2.Unlock()

	acquired, err = writer.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("Exclusive lock should succeed once readers release")
	}
	writer.Unlock()
}

func TestSharedLockBlockedByWriter(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	writer := NewFileLock(lockPath)
	reader := NewFileLock(lockPath)

	if err := writer.LockContext(context.Background()); err != nil {
		t.Fatalf("LockContext failed: %v", err)
	}
	defer writer.Unlock()

	acquired, err := reader.TryRLock()
	if err != nil {
		t.Fatalf("TryRLock failed: %v", err)
	}
	if acquired {
		t.Error("Shared lock should fail while a writer holds the lock")
	}
}

func TestLockContextWaitsForRelease(t *testing.T) {
	tests := []struct {
		name string
		wait func(*FileLock, context.Context) error
	}{
		{name: "exclusive", wait: (*FileLock).LockContext},
		{name: "shared", wait: (*FileLock).RLockContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lockPath := filepath.Join(t.TempDir(), "test.lock")
			holder := NewFileLock(lockPath)
			waiter := NewFileLock(lockPath)

			if err := holder.LockContext(context.Background()); err != nil {
				t.Fatalf("LockContext failed: %v", err)
			}
			go func() {
				time.Sleep(100 * time.Millisecond)
				holder.Unlock()
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := tt.wait(waiter, ctx); err != nil {
				t.Fatalf("Wait should succeed once the holder releases: %v", err)
			}
			waiter.Unlock()
		})
	}
}

func TestLockContextTimeout(t *testing.T) {
	tests := []struct {
		name string
		wait func(*FileLock, context.Context) error
	}{
		{name: "exclusive", wait: (*FileLock).LockContext},
		{name: "shared", wait: (*FileLock).RLockContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lockPath := filepath.Join(t.TempDir(), "test.lock")
			holder := NewFileLock(lockPath)
			waiter := NewFileLock(lockPath)

			if err := holder.LockContext(context.Background()); err != nil {
				t.Fatalf("LockContext failed: %v", err)
			}
			defer holder.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
			defer cancel()

			err := tt.wait(waiter, ctx)
			if err == nil {
				waiter.Unlock()
				t.Fatal("Wait should fail while the lock is held")
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Expected context.DeadlineExceeded, got %v", err)
			}
		})
	}
}

func TestAtomicWriteFunc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	content := `[{"name":"a.txt"}]`

	if err := AtomicWriteFunc(path, writeString(content)); err != nil {
		t.Fatalf("AtomicWriteFunc failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != content {
		t.Errorf("Expected content %q, got %q", content, data)
	}
}

func TestAtomicWriteFuncOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")

	if err := AtomicWriteFunc(path, writeString("old")); err != nil {
		t.Fatalf("AtomicWriteFunc failed: %v", err)
	}
	if err := AtomicWriteFunc(path, writeString("new")); err != nil {
		t.Fatalf("AtomicWriteFunc failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("Expected %q, got %q", "new", data)
	}
}

func TestAtomicWriteFuncPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")

	if err := AtomicWriteFunc(path, writeString("x")); err != nil {
		t.Fatalf("AtomicWriteFunc failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0644 {
		t.Errorf("Expected permissions 0644, got %o", perm)
	}
}

func TestAtomicWriteFuncCreateDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "export.json")

	if err := AtomicWriteFunc(path, writeString("x")); err != nil {
		t.Fatalf("AtomicWriteFunc failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file to exist: %v", err)
	}
}

func TestAtomicWriteFuncFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.json")

	if err := AtomicWriteFunc(path, writeString("original")); err != nil {
		t.Fatalf("AtomicWriteFunc failed: %v", err)
	}

	boom := errors.New("encoder failed")
	err := AtomicWriteFunc(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped write error, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("Original file should be unchanged, got %q", data)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.Name() != "export.json" {
			t.Errorf("Unexpected leftover file %s", e.Name())
		}
	}
}
