package release

import "relvault/internal/model"

// Store persists the whole document. The document is the unit of
// persistence: there is no partial update primitive below this line.
type Store interface {
	// Load reads the persisted document. A missing or unreadable
	// store is the expected first-run state, not an error: Load
	// returns a freshly seeded document instead.
	Load() (*model.Document, error)

	// Save serializes the full document and overwrites the backing
	// store. The write must be atomic from the caller's perspective:
	// no reader may ever observe a partial document.
	Save(doc *model.Document) error
}
