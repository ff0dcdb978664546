package components_test

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/relloyd/eltpipe/components"
	"github.com/relloyd/eltpipe/logger"
)

const fakeDbtScript = `#!/bin/sh
if [ -n "$FAKE_DBT_SLEEP" ]; then
  exec sleep "$FAKE_DBT_SLEEP"
fi
echo "args: $*"
echo "pwd: $(pwd)"
echo "user: $DBT_USER"
echo "warning from dbt" 1>&2
exit ${FAKE_DBT_EXIT:-0}
`

// newFakeDbt writes a shell script that mimics dbt into a temp dir and returns the dir.
func newFakeDbt(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake dbt requires a POSIX shell")
	}
	binDir := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(binDir, "fake-dbt"), []byte(fakeDbtScript), 0755); err != nil {
		t.Fatal(err)
	}
	return binDir
}

func TestRunDbt(t *testing.T) {
	log := logger.NewLogger("eltpipe", "debug", false)
	binDir := newFakeDbt(t)
	projectDir := t.TempDir()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cfg := &components.DbtConfig{
		Log:        log,
		Name:       "dbt-run",
		Bin:        "fake-dbt",
		ProjectDir: projectDir,
		ExtraPath:  binDir, // the binary is only found via the extra path.
		Env:        map[string]string{"DBT_USER": "bob"},
		Stdout:     stdout,
		Stderr:     stderr,
	}
	if err := components.RunDbt(context.Background(), cfg, "run"); err != nil {
		t.Fatal(err)
	}
	out := stdout.String()
	expected := "args: run --project-dir " + projectDir + " --profiles-dir " + projectDir
	if !strings.Contains(out, expected) {
		t.Fatalf("expected output to contain %q; got %q", expected, out)
	}
	if !strings.Contains(out, "user: bob") {
		t.Fatalf("expected DBT_USER to be exported; got %q", out)
	}
	// The working directory may be reported via a symlink so just check the base name.
	if !strings.Contains(out, filepath.Base(projectDir)) {
		t.Fatalf("expected dbt to run in the project dir; got %q", out)
	}
	if !strings.Contains(stderr.String(), "warning from dbt") {
		t.Fatalf("expected stderr to be captured; got %q", stderr.String())
	}
}

func TestRunDbtFailures(t *testing.T) {
	log := logger.NewLogger("eltpipe", "info", false)
	binDir := newFakeDbt(t)
	cfg := &components.DbtConfig{
		Log:        log,
		Name:       "dbt-test",
		Bin:        filepath.Join(binDir, "fake-dbt"),
		ProjectDir: t.TempDir(),
		Env:        map[string]string{"FAKE_DBT_EXIT": "3"},
	}
	// Test 1, non-zero exit code.
	err := components.RunDbt(context.Background(), cfg, "test")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "exit code 3") || !strings.Contains(err.Error(), "test") {
		t.Fatalf("expected exit code and subcommand in error; got %v", err)
	}
	// Test 2, unsupported subcommand.
	err = components.RunDbt(context.Background(), cfg, "seed")
	if !errors.Is(err, components.ErrUnsupportedDbtSubcommand) {
		t.Fatalf("expected ErrUnsupportedDbtSubcommand; got %v", err)
	}
	// Test 3, missing binary.
	cfg.Bin = "no-such-dbt-binary"
	if err = components.RunDbt(context.Background(), cfg, "test"); err == nil {
		t.Fatal("expected error for missing binary")
	}
	// Test 4, missing project dir.
	cfg.Bin = filepath.Join(binDir, "fake-dbt")
	cfg.ProjectDir = ""
	if err = components.RunDbt(context.Background(), cfg, "test"); err == nil {
		t.Fatal("expected error for missing project dir")
	}
}

func TestRunDbtCancelled(t *testing.T) {
	log := logger.NewLogger("eltpipe", "info", false)
	binDir := newFakeDbt(t)
	cfg := &components.DbtConfig{
		Log:        log,
		Name:       "dbt-snapshot",
		Bin:        filepath.Join(binDir, "fake-dbt"),
		ProjectDir: t.TempDir(),
		Env:        map[string]string{"FAKE_DBT_SLEEP": "10"},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := components.RunDbt(ctx, cfg, "snapshot")
	if err == nil {
		t.Fatal("expected error when context times out")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded; got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("expected dbt to be killed promptly")
	}
}
