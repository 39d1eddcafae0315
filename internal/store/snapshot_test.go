package store

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"relvault/internal/model"
)

func snapshotDoc() *model.Document {
	return &model.Document{
		Projects: []model.Project{
			{ID: 1, Name: "web-app", Versions: []model.Version{{ID: 2, Version: "v1.0.0"}}},
		},
		Users: map[string]model.User{
			"admin": {Username: "admin", PasswordHash: "$2a$10$fake", Role: model.RoleAdmin},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	doc := snapshotDoc()

	if err := ExportJSON(doc, path, ""); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	encrypted, err := IsEncrypted(path)
	if err != nil {
		t.Fatalf("IsEncrypted() error = %v", err)
	}
	if encrypted {
		t.Error("IsEncrypted() = true for a plain snapshot")
	}

	loaded, err := ImportJSON(path, "")
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, doc) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, doc)
	}
}

func TestSnapshotEncryptedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	doc := snapshotDoc()

	if err := ExportJSON(doc, path, "correct horse"); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if !strings.HasPrefix(string(data), "age-encryption.org/v1") {
		t.Fatal("encrypted snapshot missing age header")
	}
	if strings.Contains(string(data), "web-app") {
		t.Error("encrypted snapshot leaks plaintext")
	}

	encrypted, err := IsEncrypted(path)
	if err != nil {
		t.Fatalf("IsEncrypted() error = %v", err)
	}
	if !encrypted {
		t.Error("IsEncrypted() = false for an encrypted snapshot")
	}

	loaded, err := ImportJSON(path, "correct horse")
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, doc) {
		t.Errorf("encrypted round trip mismatch:\ngot  %+v\nwant %+v", loaded, doc)
	}
}

func TestImportJSONWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := ExportJSON(snapshotDoc(), path, "right"); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	if _, err := ImportJSON(path, "wrong"); err == nil {
		t.Error("ImportJSON() with wrong passphrase should error")
	}
}

func TestImportJSONMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := ImportJSON(path, ""); err == nil {
		t.Error("ImportJSON() of malformed JSON should error")
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "absent.json"), ""); err == nil {
		t.Error("ImportJSON() of missing file should error")
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "versions.csv")
	text := "\"Version\",\"Build Time\"\n\"v1.0.0\",\"2024-03-01\"\n"

	if err := ExportCSV(text, path); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if string(data) != text {
		t.Errorf("exported CSV = %q, want %q", data, text)
	}
}
