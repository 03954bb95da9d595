package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lockbox/internal/config"
	"lockbox/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOutputDirectory_Creatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "www", "audio")
	result := CheckOutputDirectory("out", path)
	if !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected creatable directory to pass, got %+v", result)
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "narration.mp3")
	if err := os.WriteFile(f, []byte("id3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckFileReadable("audio", f); !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}
	if result := CheckFileReadable("audio", dir); result.Passed {
		t.Fatal("expected directory to fail")
	}
	if result := CheckFileReadable("audio", filepath.Join(dir, "missing.mp3")); result.Passed {
		t.Fatal("expected missing file to fail")
	}
}

func TestRunAllAndErr(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteText(t, cfg.Paths.Transcript, "")

	results := RunAll(cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	err := Err(results)
	if err == nil || !strings.Contains(err.Error(), "Narration audio") {
		t.Fatalf("expected narration failure, got %v", err)
	}
	if strings.Contains(err.Error(), "Transcript") {
		t.Fatalf("transcript should pass, got %v", err)
	}

	testsupport.WriteFile(t, cfg.Paths.SourceAudio, 3)
	if err := Err(RunAll(cfg)); err != nil {
		t.Fatalf("expected all checks to pass, got %v", err)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.Default()
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if s.Available {
			t.Fatalf("expected %s to be missing with empty PATH", s.Name)
		}
	}
	if !statuses[2].Optional {
		t.Fatal("expected uvx to be optional")
	}
}
