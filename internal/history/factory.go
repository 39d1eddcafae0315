package history

import (
	"fmt"
	"path/filepath"

	"relvault/internal/config"
	"relvault/internal/history/migrations"
)

// NewLogFromConfig creates a Log implementation based on the history config type.
func NewLogFromConfig(cfg config.HistoryConfig) (Log, error) {
	path, err := databasePath(cfg)
	if err != nil {
		return nil, err
	}
	return NewSQLiteLog(path)
}

// CheckSchema opens the configured history database and verifies its
// schema is at the latest version, without migrating.
func CheckSchema(cfg config.HistoryConfig) error {
	path, err := databasePath(cfg)
	if err != nil {
		return err
	}

	db, err := OpenConnection(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrations.CheckStatus(db)
}

func databasePath(cfg config.HistoryConfig) (string, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return "", fmt.Errorf("data_dir required for sqlite history")
		}
		return filepath.Join(cfg.DataDir, "history.db"), nil
	case "memory":
		return ":memory:", nil
	default:
		return "", fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}
