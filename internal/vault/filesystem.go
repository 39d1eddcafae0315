package vault

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"relvault/internal/model"
	"relvault/internal/release"
)

// OpenFunc hands an absolute path to the host environment's default
// file/folder opener. Replaceable for tests.
type OpenFunc func(absPath string) error

// FileSystemVault stores uploaded file copies under one root
// directory, organized as:
//
//	<root>/
//	  <projectID>/
//	    <versionID>/
//	      binary_<originalFileName>
//	      config_<originalFileName>
//
// Relative paths handed back to callers are re-validated against the
// root on every operation, so a corrupted or hand-edited document can
// never reach outside the vault.
type FileSystemVault struct {
	root string
	open OpenFunc
}

// NewFileSystemVault creates a vault rooted at the given directory,
// creating it if needed.
func NewFileSystemVault(root string) (*FileSystemVault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}
	return &FileSystemVault{root: abs, open: hostOpen}, nil
}

// SetOpener replaces the host opener. Tests use this to capture the
// paths that would be handed to the desktop environment.
func (v *FileSystemVault) SetOpener(fn OpenFunc) { v.open = fn }

// Root returns the absolute vault root directory.
func (v *FileSystemVault) Root() string { return v.root }

// StoreFile copies the source file into the version's directory and
// returns its FileRef. The destination name is <kind>_<basename>; an
// existing file of the same name is overwritten (last write wins).
// For binary files the MD5 fingerprint is computed during the copy.
func (v *FileSystemVault) StoreFile(sourcePath string, projectID, versionID int64, kind release.FileKind) (*model.FileRef, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown file kind: %s", kind)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", release.ErrNotFound, sourcePath)
		}
		return nil, fmt.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source is a directory: %s", sourcePath)
	}

	fileName := filepath.Base(sourcePath)
	relPath := filepath.ToSlash(filepath.Join(
		strconv.FormatInt(projectID, 10),
		strconv.FormatInt(versionID, 10),
		string(kind)+"_"+fileName,
	))

	destPath, err := v.resolve(relPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return nil, fmt.Errorf("creating version directory: %w", err)
	}

	hash := md5.New()
	written, err := copyFileAtomic(destPath, io.TeeReader(src, hash))
	if err != nil {
		return nil, err
	}

	ref := &model.FileRef{
		FileName:     fileName,
		FileSize:     written,
		RelativePath: relPath,
	}
	if kind == release.KindBinary {
		ref.MD5 = hex.EncodeToString(hash.Sum(nil))
	}
	return ref, nil
}

// Fingerprint computes the hex MD5 digest of the file's full content.
// The digest is an integrity label, not a security boundary.
func (v *FileSystemVault) Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", release.ErrNotFound, path)
		}
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Stat returns the stored file's name and size.
func (v *FileSystemVault) Stat(relativePath string) (*model.FileRef, error) {
	absPath, err := v.resolve(relativePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", release.ErrNotFound, relativePath)
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", release.ErrNotFound, relativePath)
	}

	return &model.FileRef{
		FileName:     originalName(info.Name()),
		FileSize:     info.Size(),
		RelativePath: relativePath,
	}, nil
}

// Open hands the stored file to the host's default opener.
func (v *FileSystemVault) Open(relativePath string) error {
	absPath, err := v.statPath(relativePath)
	if err != nil {
		return err
	}
	return v.open(absPath)
}

// OpenFolder opens the directory containing the stored file.
func (v *FileSystemVault) OpenFolder(relativePath string) error {
	absPath, err := v.statPath(relativePath)
	if err != nil {
		return err
	}
	return v.open(filepath.Dir(absPath))
}

// DeleteVersionFiles recursively removes the version's directory.
// Deleting an absent directory is a success.
func (v *FileSystemVault) DeleteVersionFiles(projectID, versionID int64) error {
	dir := filepath.Join(v.root, strconv.FormatInt(projectID, 10), strconv.FormatInt(versionID, 10))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting version files: %w", err)
	}
	return nil
}

// DeleteProjectFiles recursively removes the project's entire subtree.
func (v *FileSystemVault) DeleteProjectFiles(projectID int64) error {
	dir := filepath.Join(v.root, strconv.FormatInt(projectID, 10))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting project files: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the vault root is an accessible directory.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}
	return nil
}

// resolve turns a stored relative path into an absolute one, rejecting
// anything that escapes the vault root.
func (v *FileSystemVault) resolve(relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes vault root: %s", relativePath)
	}
	return filepath.Join(v.root, cleaned), nil
}

// statPath resolves a relative path and verifies the file exists.
func (v *FileSystemVault) statPath(relativePath string) (string, error) {
	absPath, err := v.resolve(relativePath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", release.ErrNotFound, relativePath)
		}
		return "", fmt.Errorf("stat file: %w", err)
	}
	return absPath, nil
}

// originalName strips the kind prefix from a stored file name.
func originalName(stored string) string {
	for _, kind := range []release.FileKind{release.KindBinary, release.KindConfig} {
		if rest, ok := strings.CutPrefix(stored, string(kind)+"_"); ok {
			return rest
		}
	}
	return stored
}

// copyFileAtomic streams r into destPath via a temp file in the same
// directory and an atomic rename. Returns the number of bytes written.
func copyFileAtomic(destPath string, r io.Reader) (int64, error) {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return 0, fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return 0, fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return written, nil
}

// hostOpen launches the platform's default opener for a file or
// directory path.
func hostOpen(absPath string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("explorer", absPath)
	default:
		cmd = exec.Command("xdg-open", absPath)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching opener: %w", err)
	}
	return nil
}

// Compile-time check that FileSystemVault implements release.Vault.
var _ release.Vault = (*FileSystemVault)(nil)
