// Testing Strategy Design Decision:
//
// The cmd/ package contains CLI integration tests that exercise the full stack:
// command parsing -> config -> driver -> SQLite, by building the binary once
// and running it in a temporary directory with HOME pointed at another one,
// so neither the audit log nor global config touches the real home.

package cmd

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	binaryPath string
	buildOnce  sync.Once
	buildErr   error
)

// buildBinary compiles the sqlitepdo binary once for all tests.
func buildBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "sqlitepdo-test-bin-*")
		if err != nil {
			buildErr = err
			return
		}

		binaryName := "sqlitepdo"
		if os.PathSeparator == '\\' {
			binaryName = "sqlitepdo.exe"
		}
		binaryPath = filepath.Join(tmpDir, binaryName)

		// Find project root (parent of cmd/)
		wd, err := os.Getwd()
		if err != nil {
			buildErr = err
			return
		}
		cmd := exec.Command("go", "build", "-o", binaryPath, ".")
		cmd.Dir = filepath.Dir(wd)
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = &buildError{err: err, output: string(out)}
			return
		}
	})

	if buildErr != nil {
		t.Fatalf("failed to build binary: %v", buildErr)
	}
	return binaryPath
}

type buildError struct {
	err    error
	output string
}

func (e *buildError) Error() string {
	return e.err.Error() + "\n" + e.output
}

// testEnv holds test environment state.
type testEnv struct {
	t      *testing.T
	dir    string
	home   string
	binary string
}

// newTestEnv creates a working directory and home directory for one test.
// Commands run against test.db in the working directory unless the
// arguments give another --db.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{t: t, dir: t.TempDir(), home: t.TempDir(), binary: buildBinary(t)}
}

// dbPath returns the absolute path of the default test database.
func (e *testEnv) dbPath() string {
	return filepath.Join(e.dir, "test.db")
}

// run executes sqlitepdo with the given args and returns stdout.
func (e *testEnv) run(args ...string) string {
	e.t.Helper()
	out, err := e.runErr(args...)
	if err != nil {
		e.t.Fatalf("sqlitepdo %v failed: %v\noutput: %s", args, err, out)
	}
	return out
}

// runErr executes sqlitepdo and returns stdout and any error.
func (e *testEnv) runErr(args ...string) (string, error) {
	e.t.Helper()
	return e.runEnv("", e.withDB(args)...)
}

// runEnv executes sqlitepdo exactly as given, with SQLITEPDO_DB set to db.
func (e *testEnv) runEnv(db string, args ...string) (string, error) {
	e.t.Helper()

	cmd := exec.Command(e.binary, args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), "HOME="+e.home, "SQLITEPDO_DB="+db)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return stdout.String() + stderr.String(), err
	}
	return stdout.String(), nil
}

// withDB adds --db test.db when args do not name a database.
func (e *testEnv) withDB(args []string) []string {
	for _, a := range args {
		if a == "--db" || strings.HasPrefix(a, "--db=") {
			return args
		}
	}
	return append(args, "--db", "test.db")
}

// contains checks if output contains expected string.
func (e *testEnv) contains(output, expected string) {
	e.t.Helper()
	assert.Contains(e.t, output, expected)
}

// equals checks if output equals expected string (trimmed).
func (e *testEnv) equals(output, expected string) {
	e.t.Helper()
	assert.Equal(e.t, strings.TrimSpace(expected), strings.TrimSpace(output))
}
