package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "valid date", in: `"2024-01-15"`, want: "2024-01-15"},
		{name: "empty string", in: `""`, want: ""},
		{name: "null", in: `null`, want: ""},
		{name: "garbage", in: `"not-a-date"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.in), &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if d.String() != tt.want {
				t.Errorf("String() = %q, want %q", d.String(), tt.want)
			}
		})
	}

	t.Run("round trip", func(t *testing.T) {
		d := NewDate(2024, time.February, 1)
		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `"2024-02-01"` {
			t.Errorf("Marshal() = %s, want %q", data, `"2024-02-01"`)
		}

		var back Date
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if back != d {
			t.Errorf("round trip = %v, want %v", back, d)
		}
	})
}

func TestDocumentJSON(t *testing.T) {
	raw := `{
	  "projects": [
	    {
	      "id": 1,
	      "name": "P",
	      "description": "demo",
	      "createdAt": "2024-01-15T10:30:00Z",
	      "versions": [
	        {
	          "id": 2,
	          "version": "v1.0.0",
	          "buildTime": "2024-01-01",
	          "changelog": "first",
	          "binaryFile": {
	            "fileName": "app.bin",
	            "fileSize": 42,
	            "relativePath": "1/2/binary_app.bin",
	            "md5": "abc"
	          }
	        }
	      ],
	      "testRecords": [
	        {"id": 3, "testDate": "2024-01-02", "tester": "qa", "result": "通过"}
	      ]
	    }
	  ],
	  "users": {
	    "admin": {"username": "admin", "passwordHash": "admin123", "role": "admin"}
	  },
	  "settings": {"currentUser": null}
	}`

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(doc.Projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(doc.Projects))
	}
	p := doc.Projects[0]
	if p.ID != 1 || p.Name != "P" {
		t.Errorf("project = {%d %q}, want {1 P}", p.ID, p.Name)
	}
	if len(p.Versions) != 1 || p.Versions[0].BinaryFile == nil {
		t.Fatalf("version with binary file not decoded: %+v", p.Versions)
	}
	if p.Versions[0].BinaryFile.MD5 != "abc" {
		t.Errorf("md5 = %q, want %q", p.Versions[0].BinaryFile.MD5, "abc")
	}
	if p.TestRecords[0].Result != ResultPass {
		t.Errorf("result = %q, want %q", p.TestRecords[0].Result, ResultPass)
	}
	// null currentUser means logged out.
	if doc.Settings.CurrentUser != "" {
		t.Errorf("currentUser = %q, want empty", doc.Settings.CurrentUser)
	}
	if doc.Users["admin"].Role != RoleAdmin {
		t.Errorf("role = %q, want admin", doc.Users["admin"].Role)
	}
}

func TestDocumentLookups(t *testing.T) {
	doc := &Document{
		Projects: []Project{
			{
				ID:          1,
				Name:        "P",
				Versions:    []Version{{ID: 5, Version: "v1"}},
				TestRecords: []TestRecord{{ID: 9, Tester: "qa"}},
			},
		},
	}

	if doc.FindProject(1) == nil {
		t.Error("FindProject(1) = nil, want project")
	}
	if doc.FindProject(2) != nil {
		t.Error("FindProject(2) != nil, want nil")
	}

	p := doc.FindProject(1)
	if p.FindVersion(5) == nil || p.FindVersion(6) != nil {
		t.Error("FindVersion lookup wrong")
	}
	if p.FindTestRecord(9) == nil || p.FindTestRecord(1) != nil {
		t.Error("FindTestRecord lookup wrong")
	}

	if got := doc.MaxID(); got != 9 {
		t.Errorf("MaxID() = %d, want 9", got)
	}
}

func TestDocumentClone(t *testing.T) {
	ref := &FileRef{FileName: "a", RelativePath: "1/2/binary_a"}
	doc := &Document{
		Projects: []Project{
			{
				ID:          1,
				Versions:    []Version{{ID: 2, BinaryFile: ref}},
				TestRecords: []TestRecord{{ID: 3}},
			},
		},
		Users:    map[string]User{"admin": {Username: "admin"}},
		Settings: Settings{CurrentUser: "admin"},
	}

	clone := doc.Clone()

	// Mutations on the clone must not leak back.
	clone.Projects[0].Name = "changed"
	clone.Projects[0].Versions[0].BinaryFile.FileName = "changed"
	clone.Users["admin"] = User{Username: "other"}
	clone.Settings.CurrentUser = ""

	if doc.Projects[0].Name == "changed" {
		t.Error("clone shares project slice with original")
	}
	if doc.Projects[0].Versions[0].BinaryFile.FileName == "changed" {
		t.Error("clone shares FileRef pointer with original")
	}
	if doc.Users["admin"].Username != "admin" {
		t.Error("clone shares user map with original")
	}
	if doc.Settings.CurrentUser != "admin" {
		t.Error("clone shares settings with original")
	}
}
