package model

import "time"

// Role identifies a user's permission level. Only admin is used today.
type Role string

const RoleAdmin Role = "admin"

// TestResult is the outcome of a test record. The wire values are the
// Chinese labels the document format has always used.
type TestResult string

const (
	ResultPass TestResult = "通过"
	ResultFail TestResult = "失败"
)

// Valid reports whether r is one of the known results.
func (r TestResult) Valid() bool {
	return r == ResultPass || r == ResultFail
}

// Document is the root aggregate: the entire persisted state of one
// installation. It is the unit of persistence — the store reads and
// writes it whole.
type Document struct {
	Projects []Project       `json:"projects"`
	Users    map[string]User `json:"users"`
	Settings Settings        `json:"settings"`
}

// Settings holds installation-wide mutable state.
// CurrentUser is empty when nobody is logged in. Documents written by
// older versions may hold JSON null, which decodes to the same thing.
type Settings struct {
	CurrentUser string `json:"currentUser"`
}

// User is an account in the document's user map, keyed by username.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Role         Role   `json:"role"`
}

// Project is a tracked software project. Versions and TestRecords are
// owned exclusively by their project and keep insertion order.
type Project struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
	Versions    []Version    `json:"versions"`
	TestRecords []TestRecord `json:"testRecords"`
}

// Version is a release of a project, optionally carrying stored copies
// of its binary and config files.
type Version struct {
	ID         int64    `json:"id"`
	Version    string   `json:"version"`
	BuildTime  Date     `json:"buildTime"`
	Changelog  string   `json:"changelog,omitempty"`
	BinaryFile *FileRef `json:"binaryFile,omitempty"`
	ConfigFile *FileRef `json:"configFile,omitempty"`
}

// FileRef records the identity of a file stored in the vault.
// RelativePath is rooted at the vault directory. MD5 is only populated
// for binary files; it is an integrity label, not a security boundary.
type FileRef struct {
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	RelativePath string `json:"relativePath"`
	MD5          string `json:"md5,omitempty"`
}

// TestRecord is a dated QA record. Records are created and deleted,
// never updated in place.
type TestRecord struct {
	ID       int64      `json:"id"`
	TestDate Date       `json:"testDate"`
	Tester   string     `json:"tester"`
	Result   TestResult `json:"result"`
	Notes    string     `json:"notes,omitempty"`
}

// FindProject returns the project with the given id, or nil.
func (d *Document) FindProject(id int64) *Project {
	for i := range d.Projects {
		if d.Projects[i].ID == id {
			return &d.Projects[i]
		}
	}
	return nil
}

// FindVersion returns the version with the given id, or nil.
func (p *Project) FindVersion(id int64) *Version {
	for i := range p.Versions {
		if p.Versions[i].ID == id {
			return &p.Versions[i]
		}
	}
	return nil
}

// FindTestRecord returns the test record with the given id, or nil.
func (p *Project) FindTestRecord(id int64) *TestRecord {
	for i := range p.TestRecords {
		if p.TestRecords[i].ID == id {
			return &p.TestRecords[i]
		}
	}
	return nil
}

// MaxID returns the largest id used by any project, version, or test
// record in the document. Used to seed the id generator so new ids
// never collide with existing entries.
func (d *Document) MaxID() int64 {
	var max int64
	for i := range d.Projects {
		p := &d.Projects[i]
		if p.ID > max {
			max = p.ID
		}
		for _, v := range p.Versions {
			if v.ID > max {
				max = v.ID
			}
		}
		for _, r := range p.TestRecords {
			if r.ID > max {
				max = r.ID
			}
		}
	}
	return max
}

// Clone returns a deep copy of the document. Mutating the copy never
// affects the original.
func (d *Document) Clone() *Document {
	out := &Document{
		Settings: d.Settings,
	}
	if d.Users != nil {
		out.Users = make(map[string]User, len(d.Users))
		for k, v := range d.Users {
			out.Users[k] = v
		}
	}
	if d.Projects != nil {
		out.Projects = make([]Project, len(d.Projects))
		for i := range d.Projects {
			out.Projects[i] = d.Projects[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	if p.Versions != nil {
		out.Versions = make([]Version, len(p.Versions))
		for i, v := range p.Versions {
			out.Versions[i] = v.clone()
		}
	}
	if p.TestRecords != nil {
		out.TestRecords = append([]TestRecord(nil), p.TestRecords...)
	}
	return out
}

func (v Version) clone() Version {
	out := v
	if v.BinaryFile != nil {
		ref := *v.BinaryFile
		out.BinaryFile = &ref
	}
	if v.ConfigFile != nil {
		ref := *v.ConfigFile
		out.ConfigFile = &ref
	}
	return out
}
