package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"

	"relvault/internal/model"
)

// ageHeader is the first line of an age-encrypted file.
const ageHeader = "age-encryption.org/v1"

// ExportJSON writes the document as pretty-printed JSON to destPath.
// With a non-empty passphrase the output is age-encrypted using
// scrypt-based passphrase encryption.
func ExportJSON(doc *model.Document, destPath string, passphrase string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	if passphrase != "" {
		data, err = encrypt(data, passphrase)
		if err != nil {
			return err
		}
	}

	if err := writeFileAtomic(destPath, data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// ExportCSV writes caller-prepared CSV text to destPath.
func ExportCSV(csvText string, destPath string) error {
	if err := writeFileAtomic(destPath, []byte(csvText)); err != nil {
		return fmt.Errorf("writing csv export: %w", err)
	}
	return nil
}

// IsEncrypted reports whether the file at path carries an age header.
func IsEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading snapshot header: %w", err)
	}
	return strings.TrimRight(line, "\n") == ageHeader, nil
}

// ImportJSON reads a snapshot file and parses it as a document. An
// age-encrypted snapshot is decrypted with the passphrase first. The
// document is not validated beyond JSON decoding — a malformed import
// replaces the store wholesale, as documented.
func ImportJSON(path string, passphrase string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	if bytes.HasPrefix(data, []byte(ageHeader)) {
		data, err = decrypt(data, passphrase)
		if err != nil {
			return nil, err
		}
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if doc.Users == nil {
		doc.Users = map[string]model.User{}
	}
	return &doc, nil
}

func encrypt(data []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

func decrypt(data []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}

	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted snapshot: %w", err)
	}
	return plain, nil
}
