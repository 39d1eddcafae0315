package vault

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"relvault/internal/release"
)

func TestMemoryVaultStoreAndStat(t *testing.T) {
	v := NewMemoryVault()
	src := filepath.Join(t.TempDir(), "app.bin")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	ref, err := v.StoreFile(src, 4, 5, release.KindBinary)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}
	if ref.RelativePath != "4/5/binary_app.bin" {
		t.Errorf("RelativePath = %q, want 4/5/binary_app.bin", ref.RelativePath)
	}
	if ref.MD5 == "" {
		t.Error("binary MD5 should be set")
	}

	got, err := v.Stat(ref.RelativePath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if got.FileName != "app.bin" || got.FileSize != 7 {
		t.Errorf("Stat() = %+v, want app.bin / 7 bytes", got)
	}
}

func TestMemoryVaultOpened(t *testing.T) {
	v := NewMemoryVault()
	src := filepath.Join(t.TempDir(), "app.bin")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	ref, err := v.StoreFile(src, 1, 2, release.KindBinary)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	if err := v.Open(ref.RelativePath); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := v.OpenFolder(ref.RelativePath); err != nil {
		t.Fatalf("OpenFolder() error = %v", err)
	}

	opened := v.Opened()
	if len(opened) != 2 || opened[0] != "1/2/binary_app.bin" || opened[1] != "1/2" {
		t.Errorf("Opened() = %v, want [1/2/binary_app.bin 1/2]", opened)
	}

	if err := v.Open("1/2/binary_absent"); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("Open() of missing file error = %v, want ErrNotFound", err)
	}
}

func TestMemoryVaultDeletes(t *testing.T) {
	v := NewMemoryVault()
	src := filepath.Join(t.TempDir(), "app.bin")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	if _, err := v.StoreFile(src, 1, 2, release.KindBinary); err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}
	if _, err := v.StoreFile(src, 1, 3, release.KindConfig); err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	if err := v.DeleteVersionFiles(1, 2); err != nil {
		t.Fatalf("DeleteVersionFiles() error = %v", err)
	}
	if _, err := v.Stat("1/2/binary_app.bin"); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("version files should be gone, Stat error = %v", err)
	}
	if _, err := v.Stat("1/3/config_app.bin"); err != nil {
		t.Errorf("sibling version should survive, Stat error = %v", err)
	}

	if err := v.DeleteProjectFiles(1); err != nil {
		t.Fatalf("DeleteProjectFiles() error = %v", err)
	}
	if _, err := v.Stat("1/3/config_app.bin"); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("project files should be gone, Stat error = %v", err)
	}
}
