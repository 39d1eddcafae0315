package vault

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"relvault/internal/release"
)

func newTestVault(t *testing.T) *FileSystemVault {
	t.Helper()
	v, err := NewFileSystemVault(filepath.Join(t.TempDir(), "files"))
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	return v
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("writing source file: %v", err)
	}
	return p
}

func TestStoreFile(t *testing.T) {
	v := newTestVault(t)
	content := "binary payload"
	src := writeSource(t, "app.bin", content)

	ref, err := v.StoreFile(src, 7, 9, release.KindBinary)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	if ref.FileName != "app.bin" {
		t.Errorf("FileName = %q, want app.bin", ref.FileName)
	}
	if ref.FileSize != int64(len(content)) {
		t.Errorf("FileSize = %d, want %d", ref.FileSize, len(content))
	}
	if ref.RelativePath != "7/9/binary_app.bin" {
		t.Errorf("RelativePath = %q, want 7/9/binary_app.bin", ref.RelativePath)
	}
	sum := md5.Sum([]byte(content))
	if ref.MD5 != hex.EncodeToString(sum[:]) {
		t.Errorf("MD5 = %q, want %q", ref.MD5, hex.EncodeToString(sum[:]))
	}

	// The copy exists on disk with the expected layout.
	stored, err := os.ReadFile(filepath.Join(v.Root(), "7", "9", "binary_app.bin"))
	if err != nil {
		t.Fatalf("reading stored copy: %v", err)
	}
	if string(stored) != content {
		t.Errorf("stored content = %q, want %q", stored, content)
	}

	// The source is untouched.
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source file should survive storing: %v", err)
	}
}

func TestStoreFileConfigHasNoChecksum(t *testing.T) {
	v := newTestVault(t)
	src := writeSource(t, "settings.ini", "key=value")

	ref, err := v.StoreFile(src, 7, 9, release.KindConfig)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}
	if ref.MD5 != "" {
		t.Errorf("config MD5 = %q, want empty", ref.MD5)
	}
	if ref.RelativePath != "7/9/config_settings.ini" {
		t.Errorf("RelativePath = %q, want 7/9/config_settings.ini", ref.RelativePath)
	}
}

func TestStoreFileOverwrites(t *testing.T) {
	v := newTestVault(t)

	first := writeSource(t, "app.bin", "first")
	if _, err := v.StoreFile(first, 1, 2, release.KindBinary); err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}
	second := writeSource(t, "app.bin", "second, longer content")
	ref, err := v.StoreFile(second, 1, 2, release.KindBinary)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	stored, err := os.ReadFile(filepath.Join(v.Root(), "1", "2", "binary_app.bin"))
	if err != nil {
		t.Fatalf("reading stored copy: %v", err)
	}
	if string(stored) != "second, longer content" {
		t.Errorf("stored content = %q, want the second write", stored)
	}
	if ref.FileSize != int64(len("second, longer content")) {
		t.Errorf("FileSize = %d, want the second write's size", ref.FileSize)
	}
}

func TestStoreFileErrors(t *testing.T) {
	v := newTestVault(t)

	t.Run("missing source", func(t *testing.T) {
		_, err := v.StoreFile(filepath.Join(t.TempDir(), "absent.bin"), 1, 2, release.KindBinary)
		if !errors.Is(err, release.ErrNotFound) {
			t.Errorf("StoreFile() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		src := writeSource(t, "app.bin", "x")
		if _, err := v.StoreFile(src, 1, 2, release.FileKind("archive")); err == nil {
			t.Error("StoreFile() with unknown kind should error")
		}
	})

	t.Run("directory source", func(t *testing.T) {
		if _, err := v.StoreFile(t.TempDir(), 1, 2, release.KindBinary); err == nil {
			t.Error("StoreFile() with a directory source should error")
		}
	})
}

func TestFingerprint(t *testing.T) {
	v := newTestVault(t)
	src := writeSource(t, "app.bin", "fingerprint me")

	got, err := v.Fingerprint(src)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	sum := md5.Sum([]byte("fingerprint me"))
	if got != hex.EncodeToString(sum[:]) {
		t.Errorf("Fingerprint() = %q, want %q", got, hex.EncodeToString(sum[:]))
	}

	// Same content elsewhere yields the same digest.
	other := writeSource(t, "copy.bin", "fingerprint me")
	got2, err := v.Fingerprint(other)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if got2 != got {
		t.Errorf("identical content produced different digests: %q vs %q", got, got2)
	}

	// One differing byte changes the digest.
	changed := writeSource(t, "changed.bin", "fingerprint mE")
	got3, err := v.Fingerprint(changed)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	if got3 == got {
		t.Error("differing content produced the same digest")
	}

	if _, err := v.Fingerprint(filepath.Join(t.TempDir(), "absent")); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("Fingerprint() of missing file error = %v, want ErrNotFound", err)
	}
}

func TestStat(t *testing.T) {
	v := newTestVault(t)
	src := writeSource(t, "app.bin", "12345")
	ref, err := v.StoreFile(src, 1, 2, release.KindBinary)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	got, err := v.Stat(ref.RelativePath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	// The kind prefix is stripped back off the stored name.
	if got.FileName != "app.bin" {
		t.Errorf("FileName = %q, want app.bin", got.FileName)
	}
	if got.FileSize != 5 {
		t.Errorf("FileSize = %d, want 5", got.FileSize)
	}

	if _, err := v.Stat("1/2/binary_absent.bin"); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("Stat() of missing file error = %v, want ErrNotFound", err)
	}
	if _, err := v.Stat("1/2"); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("Stat() of a directory error = %v, want ErrNotFound", err)
	}
}

func TestResolveRejectsEscapingPaths(t *testing.T) {
	v := newTestVault(t)

	tests := []struct {
		name string
		path string
	}{
		{"parent directory", "../outside.txt"},
		{"bare dotdot", ".."},
		{"nested escape", "1/../../outside.txt"},
		{"absolute path", "/etc/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Stat(tt.path)
			if err == nil {
				t.Fatal("Stat() should reject a path escaping the vault root")
			}
			if errors.Is(err, release.ErrNotFound) {
				t.Errorf("escape should be rejected before any stat, got ErrNotFound")
			}
		})
	}
}

func TestOpenUsesHostOpener(t *testing.T) {
	v := newTestVault(t)
	src := writeSource(t, "app.bin", "x")
	ref, err := v.StoreFile(src, 1, 2, release.KindBinary)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	var opened []string
	v.SetOpener(func(absPath string) error {
		opened = append(opened, absPath)
		return nil
	})

	if err := v.Open(ref.RelativePath); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := v.OpenFolder(ref.RelativePath); err != nil {
		t.Fatalf("OpenFolder() error = %v", err)
	}

	wantFile := filepath.Join(v.Root(), "1", "2", "binary_app.bin")
	wantDir := filepath.Join(v.Root(), "1", "2")
	if len(opened) != 2 || opened[0] != wantFile || opened[1] != wantDir {
		t.Errorf("opener received %v, want [%s %s]", opened, wantFile, wantDir)
	}

	if err := v.Open("1/2/binary_absent.bin"); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("Open() of missing file error = %v, want ErrNotFound", err)
	}
}

func TestDeleteVersionFiles(t *testing.T) {
	v := newTestVault(t)
	src := writeSource(t, "app.bin", "x")
	ref, err := v.StoreFile(src, 1, 2, release.KindBinary)
	if err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	if err := v.DeleteVersionFiles(1, 2); err != nil {
		t.Fatalf("DeleteVersionFiles() error = %v", err)
	}
	if _, err := v.Stat(ref.RelativePath); !errors.Is(err, release.ErrNotFound) {
		t.Errorf("Stat() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is still a success.
	if err := v.DeleteVersionFiles(1, 2); err != nil {
		t.Errorf("DeleteVersionFiles() twice error = %v", err)
	}
}

func TestDeleteProjectFiles(t *testing.T) {
	v := newTestVault(t)
	src := writeSource(t, "app.bin", "x")
	if _, err := v.StoreFile(src, 1, 2, release.KindBinary); err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}
	if _, err := v.StoreFile(src, 1, 3, release.KindBinary); err != nil {
		t.Fatalf("StoreFile() error = %v", err)
	}

	if err := v.DeleteProjectFiles(1); err != nil {
		t.Fatalf("DeleteProjectFiles() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(v.Root(), "1")); !os.IsNotExist(err) {
		t.Errorf("project subtree should be gone, stat error = %v", err)
	}
	if err := v.DeleteProjectFiles(1); err != nil {
		t.Errorf("DeleteProjectFiles() twice error = %v", err)
	}
}

func TestValidateSetup(t *testing.T) {
	v := newTestVault(t)
	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	if err := os.RemoveAll(v.Root()); err != nil {
		t.Fatalf("removing vault root: %v", err)
	}
	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() with missing root should error")
	}
}
