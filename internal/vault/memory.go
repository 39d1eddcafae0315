package vault

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"relvault/internal/model"
	"relvault/internal/release"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// Source files are still read from disk, but stored copies live in a
// map, making it useful for testing. Safe for concurrent use.
type MemoryVault struct {
	mu     sync.RWMutex
	files  map[string][]byte // relative path -> content
	opened []string          // paths handed to the "opener"
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{files: make(map[string][]byte)}
}

// Opened returns the paths that Open/OpenFolder would have handed to
// the host opener, in call order.
func (m *MemoryVault) Opened() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.opened...)
}

func (m *MemoryVault) StoreFile(sourcePath string, projectID, versionID int64, kind release.FileKind) (*model.FileRef, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown file kind: %s", kind)
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", release.ErrNotFound, sourcePath)
		}
		return nil, fmt.Errorf("reading source file: %w", err)
	}

	fileName := filepath.Base(sourcePath)
	relPath := path.Join(
		strconv.FormatInt(projectID, 10),
		strconv.FormatInt(versionID, 10),
		string(kind)+"_"+fileName,
	)

	m.mu.Lock()
	m.files[relPath] = data
	m.mu.Unlock()

	ref := &model.FileRef{
		FileName:     fileName,
		FileSize:     int64(len(data)),
		RelativePath: relPath,
	}
	if kind == release.KindBinary {
		sum := md5.Sum(data)
		ref.MD5 = hex.EncodeToString(sum[:])
	}
	return ref, nil
}

func (m *MemoryVault) Fingerprint(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", release.ErrNotFound, p)
		}
		return "", fmt.Errorf("reading file: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

func (m *MemoryVault) Stat(relativePath string) (*model.FileRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[relativePath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", release.ErrNotFound, relativePath)
	}
	return &model.FileRef{
		FileName:     originalName(path.Base(relativePath)),
		FileSize:     int64(len(data)),
		RelativePath: relativePath,
	}, nil
}

func (m *MemoryVault) Open(relativePath string) error {
	return m.recordOpen(relativePath, false)
}

func (m *MemoryVault) OpenFolder(relativePath string) error {
	return m.recordOpen(relativePath, true)
}

func (m *MemoryVault) recordOpen(relativePath string, folder bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[relativePath]; !ok {
		return fmt.Errorf("%w: %s", release.ErrNotFound, relativePath)
	}
	p := relativePath
	if folder {
		p = path.Dir(relativePath)
	}
	m.opened = append(m.opened, p)
	return nil
}

func (m *MemoryVault) DeleteVersionFiles(projectID, versionID int64) error {
	prefix := path.Join(strconv.FormatInt(projectID, 10), strconv.FormatInt(versionID, 10)) + "/"
	return m.deletePrefix(prefix)
}

func (m *MemoryVault) DeleteProjectFiles(projectID int64) error {
	return m.deletePrefix(strconv.FormatInt(projectID, 10) + "/")
}

func (m *MemoryVault) deletePrefix(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *MemoryVault) ValidateSetup() error { return nil }

// Compile-time check that MemoryVault implements release.Vault.
var _ release.Vault = (*MemoryVault)(nil)
