package history

import (
	"database/sql"
	"fmt"
	"time"

	"relvault/internal/history/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Operation is one recorded mutating command.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string // "success" or "error"
}

// Log records mutating commands and lists them newest-first.
type Log interface {
	// Begin inserts a new operation record and returns its id.
	Begin(operation, parameters string) (int64, error)

	// Finish stamps the operation's end time and final status.
	Finish(id int64, status string) error

	// List returns the most recent operations, newest first.
	List(limit int) ([]*Operation, error)

	Close() error
}

// SQLiteLog implements Log using SQLite. The schema is managed by
// embedded golang-migrate migrations, applied on open.
type SQLiteLog struct {
	db   *sql.DB
	path string
}

// NewSQLiteLog opens (creating if needed) the history database at the
// given path and brings its schema up to date.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	return &SQLiteLog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with
// appropriate PRAGMAs. Exported for tests that need a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

func (l *SQLiteLog) Begin(operation, parameters string) (int64, error) {
	res, err := l.db.Exec(
		`INSERT INTO operations (operation, parameters, started_at, status) VALUES (?, ?, ?, 'success')`,
		operation, parameters, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading operation id: %w", err)
	}
	return id, nil
}

func (l *SQLiteLog) Finish(id int64, status string) error {
	_, err := l.db.Exec(
		`UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now().UTC(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (l *SQLiteLog) List(limit int) ([]*Operation, error) {
	rows, err := l.db.Query(
		`SELECT id, operation, parameters, started_at, finished_at, status
		 FROM operations ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op := &Operation{}
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &op.FinishedAt, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return ops, nil
}

func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// Compile-time check that SQLiteLog implements Log.
var _ Log = (*SQLiteLog)(nil)
