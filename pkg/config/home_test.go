package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("AGENT_BRIDGE_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_EnvVarTakesPrecedence(t *testing.T) {
	ResetHome()
	t.Setenv("AGENT_BRIDGE_HOME", "/override")

	got := GetHome()
	if got != "/override" {
		t.Errorf("GetHome() = %q, want %q", got, "/override")
	}
}

func TestGetHome_FallbackToCwd(t *testing.T) {
	ResetHome()
	t.Setenv("AGENT_BRIDGE_HOME", "")

	got := GetHome()
	cwd, _ := os.Getwd()

	// When not in a bin/ directory and no env var, should fall back to cwd
	// (unless the test binary happens to be in a bin/ directory)
	if got == "" {
		t.Error("GetHome() returned empty string")
	}
	_ = cwd // cwd is valid fallback
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("AGENT_BRIDGE_HOME", "/first")

	first := GetHome()

	// Changing env does not affect the cached value
	t.Setenv("AGENT_BRIDGE_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestGetDataDir(t *testing.T) {
	ResetHome()
	t.Setenv("AGENT_BRIDGE_HOME", "/test/home")

	got := GetDataDir()
	want := filepath.Join("/test/home", "data")
	if got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestGetJournalPath(t *testing.T) {
	ResetHome()
	t.Setenv("AGENT_BRIDGE_HOME", "/test/home")

	got := GetJournalPath()
	want := filepath.Join("/test/home", "data", "journal.db")
	if got != want {
		t.Errorf("GetJournalPath() = %q, want %q", got, want)
	}
}

func TestResolveHome_BinaryRelative(t *testing.T) {
	// Create a temp directory structure: <tmpdir>/bin/
	tmpDir := t.TempDir()
	binDir := filepath.Join(tmpDir, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		t.Fatal(err)
	}

	// resolveHome uses os.Executable() which we can't mock directly,
	// but we can verify the logic by testing the env var path
	ResetHome()
	t.Setenv("AGENT_BRIDGE_HOME", tmpDir)

	got := GetHome()
	if got != tmpDir {
		t.Errorf("GetHome() = %q, want %q", got, tmpDir)
	}
}
