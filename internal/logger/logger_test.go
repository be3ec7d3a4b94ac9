package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultLogDirName {
		t.Fatalf("unexpected log dir: %s", filepath.Dir(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestResolveLogFilePathConfiguredDir(t *testing.T) {
	tmpDir := t.TempDir()
	got, err := resolveLogFilePath(Options{Dir: tmpDir, Filename: "redeem.log"})
	if err != nil {
		t.Fatalf("resolve configured log path failed: %v", err)
	}
	if got != filepath.Join(tmpDir, "redeem.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("expected log file to be created: %v", err)
	}
}

func TestNormalizePositiveInt(t *testing.T) {
	if got := normalizePositiveInt(0, 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if got := normalizePositiveInt(3, 7); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
