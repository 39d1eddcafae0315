package app

// Operation tracks a CLI command that may mutate the document.
// Operations are created in memory with ID=0. Only mutating commands
// persist them (giving them an auto-increment id from the history
// database).
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewOperation creates a new in-memory operation record.
func NewOperation(operation, parameters string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the history log.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}
