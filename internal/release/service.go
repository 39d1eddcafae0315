package release

import (
	"crypto/subtle"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"relvault/internal/model"
)

// Service is the orchestration layer for all document mutations. It
// owns the in-memory document and serializes every load-modify-save
// cycle behind one mutex, so each logical operation is atomic even
// when commands arrive in quick succession.
//
// Mutations follow a strict pattern: clone the current document, apply
// the change to the clone, persist the clone, and only then swap it
// in. A failed save leaves the in-memory document untouched.
type Service struct {
	store  Store
	vault  Vault
	logger Logger
	clock  Clock
	idgen  IDGenerator

	mu  sync.Mutex
	doc *model.Document
}

// NewService loads the document from the store and wires up a Service.
// If idgen implements Seeder, its floor is raised above the largest id
// already present in the document.
func NewService(store Store, vault Vault, logger Logger, clock Clock, idgen IDGenerator) (*Service, error) {
	doc, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if s, ok := idgen.(Seeder); ok {
		s.Seed(doc.MaxID())
	}
	return &Service{
		store:  store,
		vault:  vault,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
		doc:    doc,
	}, nil
}

// ProjectPatch carries optional field updates for a project.
// Nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
}

// VersionFields are the creation-time fields of a version.
type VersionFields struct {
	Version   string
	BuildTime model.Date
	Changelog string
}

// VersionPatch carries optional field updates for a version.
type VersionPatch struct {
	Version   *string
	BuildTime *model.Date
	Changelog *string
}

// VersionFiles names source files to copy into the vault. Empty paths
// mean "no file for this slot".
type VersionFiles struct {
	BinaryPath string
	ConfigPath string
}

// TestRecordFields are the creation-time fields of a test record.
type TestRecordFields struct {
	TestDate model.Date
	Tester   string
	Result   model.TestResult
	Notes    string
}

// Document returns a deep copy of the current document for rendering.
func (s *Service) Document() *model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// CurrentUser returns the logged-in username, or "" when logged out.
func (s *Service) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings.CurrentUser
}

// FindProject returns a deep copy of the project with the given id.
func (s *Service) FindProject(id int64) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.doc.FindProject(id)
	if p == nil {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
	}
	copied := p.Clone()
	return &copied, nil
}

// Login verifies the password against the stored hash and records the
// session in the document. Unknown users and wrong passwords both
// return ErrAuthFailed; the document is not touched on failure.
func (s *Service) Login(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.doc.Users[username]
	if !ok || !verifyPassword(user.PasswordHash, password) {
		s.logger.Warn("login failed", "username", username)
		return ErrAuthFailed
	}

	next := s.doc.Clone()
	next.Settings.CurrentUser = username
	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Info("login", "username", username)
	return nil
}

// Logout clears the session. Logging out while logged out is a no-op
// that still persists.
func (s *Service) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	next.Settings.CurrentUser = ""
	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Info("logout")
	return nil
}

// AddProject appends a new project with empty versions and records.
func (s *Service) AddProject(name, description string) (*model.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	project := model.Project{
		ID:          s.idgen.Next(),
		Name:        name,
		Description: description,
		CreatedAt:   s.clock.Now(),
		Versions:    []model.Version{},
		TestRecords: []model.TestRecord{},
	}

	next := s.doc.Clone()
	next.Projects = append(next.Projects, project)
	if err := s.save(next); err != nil {
		return nil, err
	}
	s.logger.Info("project added", "id", project.ID, "name", name)
	return &project, nil
}

// UpdateProject merges the patch into the matched project.
// Id and creation time are immutable.
func (s *Service) UpdateProject(id int64, patch ProjectPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	p := next.FindProject(id)
	if p == nil {
		return fmt.Errorf("%w: project %d", ErrNotFound, id)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Info("project updated", "id", id)
	return nil
}

// DeleteProject removes the project and cascades: its versions and
// test records vanish with it, and its entire vault subtree is
// removed. Requires a logged-in session.
func (s *Service) DeleteProject(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !authenticated(s.doc) {
		return ErrNotAuthenticated
	}
	if s.doc.FindProject(id) == nil {
		return fmt.Errorf("%w: project %d", ErrNotFound, id)
	}

	if err := s.vault.DeleteProjectFiles(id); err != nil {
		return fmt.Errorf("deleting project files: %w", err)
	}

	next := s.doc.Clone()
	projects := next.Projects[:0]
	for _, p := range next.Projects {
		if p.ID != id {
			projects = append(projects, p)
		}
	}
	next.Projects = projects
	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Info("project deleted", "id", id)
	return nil
}

// AddVersion appends a version to the project. Any named files are
// fully written to the vault before the document referencing them is
// saved.
func (s *Service) AddVersion(projectID int64, fields VersionFields, files VersionFiles) (*model.Version, error) {
	if strings.TrimSpace(fields.Version) == "" {
		return nil, fmt.Errorf("%w: version label is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.FindProject(projectID) == nil {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}

	version := model.Version{
		ID:        s.idgen.Next(),
		Version:   fields.Version,
		BuildTime: fields.BuildTime,
		Changelog: fields.Changelog,
	}

	if err := s.storeFiles(&version, projectID, files); err != nil {
		return nil, err
	}

	next := s.doc.Clone()
	p := next.FindProject(projectID)
	p.Versions = append(p.Versions, version)
	if err := s.save(next); err != nil {
		return nil, err
	}
	s.logger.Info("version added", "project", projectID, "id", version.ID, "label", fields.Version)
	return &version, nil
}

// UpdateVersion merges the patch into the matched version. New files,
// if any, are stored first and replace only the corresponding FileRef
// fields.
func (s *Service) UpdateVersion(projectID, versionID int64, patch VersionPatch, files VersionFiles) error {
	if patch.Version != nil && strings.TrimSpace(*patch.Version) == "" {
		return fmt.Errorf("%w: version label is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.doc.FindProject(projectID)
	if p == nil {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	if p.FindVersion(versionID) == nil {
		return fmt.Errorf("%w: version %d", ErrNotFound, versionID)
	}

	// New files land under the existing version's directory.
	updated := model.Version{ID: versionID}
	if err := s.storeFiles(&updated, projectID, files); err != nil {
		return err
	}

	next := s.doc.Clone()
	v := next.FindProject(projectID).FindVersion(versionID)
	if patch.Version != nil {
		v.Version = *patch.Version
	}
	if patch.BuildTime != nil {
		v.BuildTime = *patch.BuildTime
	}
	if patch.Changelog != nil {
		v.Changelog = *patch.Changelog
	}
	if updated.BinaryFile != nil {
		v.BinaryFile = updated.BinaryFile
	}
	if updated.ConfigFile != nil {
		v.ConfigFile = updated.ConfigFile
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Info("version updated", "project", projectID, "id", versionID)
	return nil
}

// DeleteVersion removes the version's vault subtree, then its document
// entry. Requires a logged-in session.
func (s *Service) DeleteVersion(projectID, versionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !authenticated(s.doc) {
		return ErrNotAuthenticated
	}
	p := s.doc.FindProject(projectID)
	if p == nil {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	if p.FindVersion(versionID) == nil {
		return fmt.Errorf("%w: version %d", ErrNotFound, versionID)
	}

	if err := s.vault.DeleteVersionFiles(projectID, versionID); err != nil {
		return fmt.Errorf("deleting version files: %w", err)
	}

	next := s.doc.Clone()
	np := next.FindProject(projectID)
	versions := np.Versions[:0]
	for _, v := range np.Versions {
		if v.ID != versionID {
			versions = append(versions, v)
		}
	}
	np.Versions = versions
	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Info("version deleted", "project", projectID, "id", versionID)
	return nil
}

// AddTestRecord appends a dated QA record to the project.
func (s *Service) AddTestRecord(projectID int64, fields TestRecordFields) (*model.TestRecord, error) {
	if strings.TrimSpace(fields.Tester) == "" {
		return nil, fmt.Errorf("%w: tester is required", ErrValidation)
	}
	if !fields.Result.Valid() {
		return nil, fmt.Errorf("%w: result must be %s or %s", ErrValidation, model.ResultPass, model.ResultFail)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.FindProject(projectID) == nil {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}

	record := model.TestRecord{
		ID:       s.idgen.Next(),
		TestDate: fields.TestDate,
		Tester:   fields.Tester,
		Result:   fields.Result,
		Notes:    fields.Notes,
	}
	if record.TestDate.IsZero() {
		record.TestDate = model.DateOf(s.clock.Now())
	}

	next := s.doc.Clone()
	p := next.FindProject(projectID)
	p.TestRecords = append(p.TestRecords, record)
	if err := s.save(next); err != nil {
		return nil, err
	}
	s.logger.Info("test record added", "project", projectID, "id", record.ID, "result", record.Result)
	return &record, nil
}

// DeleteTestRecord removes the record. Requires a logged-in session.
func (s *Service) DeleteTestRecord(projectID, recordID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !authenticated(s.doc) {
		return ErrNotAuthenticated
	}
	p := s.doc.FindProject(projectID)
	if p == nil {
		return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	if p.FindTestRecord(recordID) == nil {
		return fmt.Errorf("%w: test record %d", ErrNotFound, recordID)
	}

	next := s.doc.Clone()
	np := next.FindProject(projectID)
	records := np.TestRecords[:0]
	for _, r := range np.TestRecords {
		if r.ID != recordID {
			records = append(records, r)
		}
	}
	np.TestRecords = records
	if err := s.save(next); err != nil {
		return err
	}
	s.logger.Info("test record deleted", "project", projectID, "id", recordID)
	return nil
}

// TestRecordsByMonth returns the project's test records falling in the
// given calendar month, ordered by date then id. This backs the
// calendar view of the presentation layer.
func (s *Service) TestRecordsByMonth(projectID int64, year int, month time.Month) ([]model.TestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.doc.FindProject(projectID)
	if p == nil {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}

	var out []model.TestRecord
	for _, r := range p.TestRecords {
		if r.TestDate.Year() == year && r.TestDate.Month() == month {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TestDate.Time().Equal(out[j].TestDate.Time()) {
			return out[i].TestDate.Time().Before(out[j].TestDate.Time())
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ExportProjectCSV renders the project's versions as CSV text.
func (s *Service) ExportProjectCSV(projectID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.doc.FindProject(projectID)
	if p == nil {
		return "", fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	return VersionsCSV(p), nil
}

// ImportSnapshot replaces the whole document with the imported one and
// persists it. No schema validation happens beyond JSON decoding — a
// malformed import replaces the store, as documented.
func (s *Service) ImportSnapshot(doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := doc.Clone()
	if next.Users == nil {
		next.Users = map[string]model.User{}
	}
	if err := s.save(next); err != nil {
		return err
	}
	if sd, ok := s.idgen.(Seeder); ok {
		sd.Seed(next.MaxID())
	}
	s.logger.Info("snapshot imported", "projects", len(next.Projects))
	return nil
}

// storeFiles copies the named source files into the vault and fills
// the version's FileRef slots.
func (s *Service) storeFiles(v *model.Version, projectID int64, files VersionFiles) error {
	if files.BinaryPath != "" {
		ref, err := s.vault.StoreFile(files.BinaryPath, projectID, v.ID, KindBinary)
		if err != nil {
			return fmt.Errorf("storing binary file: %w", err)
		}
		v.BinaryFile = ref
	}
	if files.ConfigPath != "" {
		ref, err := s.vault.StoreFile(files.ConfigPath, projectID, v.ID, KindConfig)
		if err != nil {
			return fmt.Errorf("storing config file: %w", err)
		}
		v.ConfigFile = ref
	}
	return nil
}

// save persists next and swaps it in. Callers hold s.mu.
func (s *Service) save(next *model.Document) error {
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	s.doc = next
	return nil
}

// authenticated reports whether the document's current user names an
// existing account. The check lives here, below the presentation, so
// no caller can bypass it.
func authenticated(doc *model.Document) bool {
	u := doc.Settings.CurrentUser
	if u == "" {
		return false
	}
	_, ok := doc.Users[u]
	return ok
}

// verifyPassword checks password against the stored value. Seeded
// users carry bcrypt hashes; documents imported from the original
// system hold plaintext, which is compared in constant time.
func verifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// HashPassword returns a bcrypt hash for storing in a user record.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}
