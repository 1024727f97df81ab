package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewWithExplicitPath(t *testing.T) {
	d, err := New("/tmp/novelarc-test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Path() != "/tmp/novelarc-test" {
		t.Errorf("Path() = %s", d.Path())
	}
	if d.UploadsPath() != "/tmp/novelarc-test/uploads" {
		t.Errorf("UploadsPath() = %s", d.UploadsPath())
	}
	if d.ConfigPath() != "/tmp/novelarc-test/config.yaml" {
		t.Errorf("ConfigPath() = %s", d.ConfigPath())
	}
}

func TestNewDefaultsToUserHome(t *testing.T) {
	d, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	home, _ := os.UserHomeDir()
	if d.Path() != filepath.Join(home, DefaultDirName) {
		t.Errorf("Path() = %s", d.Path())
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "novelarc")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if d.Exists() {
		t.Fatal("directory should not exist yet")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	if !d.Exists() {
		t.Error("directory should exist")
	}
	if _, err := os.Stat(d.UploadsPath()); err != nil {
		t.Errorf("uploads directory missing: %v", err)
	}
	if d.ConfigExists() {
		t.Error("config file should not exist")
	}
}

func TestNovelUploadPath(t *testing.T) {
	d, _ := New("/srv/novelarc")
	got := d.NovelUploadPath("abc123", "novel.pdf")
	if got != "/srv/novelarc/uploads/abc123/novel.pdf" {
		t.Errorf("NovelUploadPath() = %s", got)
	}
}
