package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrison/everything/internal/config"
	"github.com/harrison/everything/internal/models"
	"github.com/stretchr/testify/require"
)

// cliEnv is an isolated everything home plus a root directory holding a.txt (10 bytes)
// and B.TXT (20 bytes).
type cliEnv struct {
	home   string
	root   string
	dbPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), make([]byte, 10), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "B.TXT"), make([]byte, 20), 0644))

	return &cliEnv{
		home:   home,
		root:   root,
		dbPath: filepath.Join(home, "catalog.db"),
	}
}

// run executes the CLI with the env's database and returns stdout and stderr.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--db-path", e.dbPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := e.run(t, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return stdout
}

func (e *cliEnv) reindex(t *testing.T) string {
	t.Helper()
	return e.mustRun(t, "reindex", "--root", e.root)
}

func (e *cliEnv) searchJSON(t *testing.T, args ...string) []models.FileRecord {
	t.Helper()
	out := e.mustRun(t, append([]string{"search", "--format", "json"}, args...)...)

	var records []models.FileRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records), out)
	return records
}

func names(records []models.FileRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}
