package release

import "relvault/internal/model"

// FileKind distinguishes the two attachment slots of a version.
// The kind prefixes the stored file name inside the vault.
type FileKind string

const (
	KindBinary FileKind = "binary"
	KindConfig FileKind = "config"
)

// Valid reports whether k is a known file kind.
func (k FileKind) Valid() bool {
	return k == KindBinary || k == KindConfig
}

// Vault stores copies of uploaded files in a directory tree keyed by
// project id and version id:
//
//	<root>/<projectID>/<versionID>/<kind>_<originalFileName>
//
// Every relative path handed to a Vault method is validated to stay
// within the vault root before any file operation.
type Vault interface {
	// StoreFile copies the source file into the version's directory,
	// creating intermediate directories as needed. The source is
	// neither moved nor deleted. Storing the same destination twice
	// overwrites (last write wins). The returned FileRef carries the
	// original file name, size, relative path, and — for binary
	// files — the content fingerprint.
	StoreFile(sourcePath string, projectID, versionID int64, kind FileKind) (*model.FileRef, error)

	// Fingerprint computes the hex content checksum of an arbitrary
	// file on disk. Identical content yields identical digests.
	Fingerprint(path string) (string, error)

	// Stat returns the file name and size for a stored file.
	// Returns ErrNotFound if the path does not resolve to a file.
	Stat(relativePath string) (*model.FileRef, error)

	// Open hands the resolved absolute path to the host's default
	// file opener. Returns ErrNotFound if the file is absent.
	Open(relativePath string) error

	// OpenFolder opens the directory containing the stored file.
	OpenFolder(relativePath string) error

	// DeleteVersionFiles recursively removes the version's directory.
	// Deleting an already-absent directory is a success.
	DeleteVersionFiles(projectID, versionID int64) error

	// DeleteProjectFiles recursively removes the project's entire
	// subtree. Idempotent like DeleteVersionFiles.
	DeleteProjectFiles(projectID int64) error

	// ValidateSetup verifies the vault root is accessible.
	ValidateSetup() error
}
