package app

import (
	"fmt"
	"os"
	"time"

	"relvault/internal/config"
	"relvault/internal/history"
	"relvault/internal/release"
	"relvault/internal/store"
	"relvault/internal/vault"
)

// App is the application layer between the CLI and the release
// Service. It constructs all dependencies from config, records
// mutating commands in the history log, and manages resource lifecycle
// on Close.
type App struct {
	cfg     *config.Config
	store   release.Store
	vault   release.Vault
	history history.Log
	service *release.Service
	op      *Operation
	logFile *os.File
}

// New creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "AddProject",
// "DeleteVersion"). The caller must call Close when done.
func New(cfg *config.Config, operation string) (*App, error) {
	st, err := store.NewStoreFromConfig(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	v, err := vault.NewVaultFromConfig(cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if err := v.ValidateSetup(); err != nil {
		return nil, fmt.Errorf("validating vault: %w", err)
	}

	h, err := history.NewLogFromConfig(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("opening history log: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc, err := release.NewService(st, v, &slogAdapter{l: logger}, release.RealClock{}, release.NewSeqIDGenerator(0))
	if err != nil {
		h.Close()
		logFile.Close()
		return nil, fmt.Errorf("initializing service: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   st,
		vault:   v,
		history: h,
		service: svc,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}, nil
}

// Service exposes the domain service to the CLI.
func (a *App) Service() *release.Service { return a.service }

// Vault exposes the file vault for file info/open commands.
func (a *App) Vault() release.Vault { return a.vault }

// Config returns the active configuration.
func (a *App) Config() *config.Config { return a.cfg }

// RecordMutation persists the operation record in the history log,
// giving it an auto-increment id. Call this before running a mutating
// command. A history failure is logged but never blocks the command.
func (a *App) RecordMutation(parameters string) {
	if a.op.Persisted() {
		return // already recorded
	}
	a.op.Parameters = parameters
	id, err := a.history.Begin(a.op.Operation, parameters)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording operation history: %v\n", err)
		return
	}
	a.op.ID = id
}

// Fail marks the operation as failed for the history record.
func (a *App) Fail() { a.op.Status = "error" }

// History returns the most recent operations, newest first.
func (a *App) History(limit int) ([]*history.Operation, error) {
	return a.history.List(limit)
}

// Close finalizes the operation record and releases all resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.history.Finish(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation record: %w", err)
		}
	}

	if err := a.history.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing history log: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
