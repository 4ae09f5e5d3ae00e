package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoadBuildCache(t *testing.T) {
	b := &Builder{workspaceDir: t.TempDir()}

	now := time.Now().Truncate(time.Second)
	cache := &buildCache{}
	cache.set("1.0", "x86_64-Release-gcc-Linux", &buildEntry{
		Metadata:    "ISPProject/1.0",
		BuildTime:   now,
		Fingerprint: "0123456789abcdef",
	})

	if err := b.saveCache("ISPProject", cache); err != nil {
		t.Fatalf("saveCache failed: %v", err)
	}
	loaded, err := b.loadCache("ISPProject")
	if err != nil {
		t.Fatalf("loadCache failed: %v", err)
	}

	entry, ok := loaded.get("1.0", "x86_64-Release-gcc-Linux")
	if !ok {
		t.Fatal("entry missing after reload")
	}
	if entry.Metadata != "ISPProject/1.0" || entry.Fingerprint != "0123456789abcdef" {
		t.Errorf("entry mismatch: %+v", entry)
	}
	if !entry.BuildTime.Truncate(time.Second).Equal(now) {
		t.Errorf("BuildTime mismatch: got %v, want %v", entry.BuildTime, now)
	}
	if _, ok := loaded.get("1.0", "armv8-Debug-clang-Macos"); ok {
		t.Error("unexpected entry for another matrix")
	}
}

func TestLoadBuildCache_NotExist(t *testing.T) {
	b := &Builder{workspaceDir: t.TempDir()}
	if _, err := b.loadCache("ISPProject"); err == nil {
		t.Fatal("expected error for non-existent cache, got nil")
	}
}

func TestLoadBuildCache_InvalidJSON(t *testing.T) {
	b := &Builder{workspaceDir: t.TempDir()}
	dir := filepath.Join(b.workspaceDir, "ISPProject")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, cacheFile), []byte("invalid json"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := b.loadCache("ISPProject"); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}
