// Package app wires the configured components into a running deskos
// instance and exposes the lifecycle the CLI needs.
package app

import (
	"fmt"
	"os"
	"time"

	"deskos/internal/blobstore"
	"deskos/internal/config"
	"deskos/internal/encryption"
	"deskos/internal/explorer"
	"deskos/internal/notes"
	"deskos/internal/vfs"
)

// PassphraseFunc supplies the passphrase that unlocks the age private key.
// It is only invoked when the config enables age encryption.
type PassphraseFunc func() (string, error)

// DeskApp is the application layer between the CLI and the repositories.
// It constructs all dependencies from config and owns their lifecycle;
// the caller must call Close when done.
type DeskApp struct {
	cfg      *config.Config
	store    vfs.BlobStore
	repo     *vfs.Repository
	explorer *explorer.Explorer
	notes    *notes.Repository
	logFile  *os.File
}

// NewDeskApp creates a fully wired DeskApp from the given config.
// operation identifies the CLI command being run (e.g. "CreateItem", "List").
func NewDeskApp(cfg *config.Config, operation string, passphrase PassphraseFunc) (*DeskApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, operation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	store, err := blobstore.NewStoreFromConfig(cfg.Store)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	if cfg.Encryption.Enabled() {
		var pass string
		if cfg.Encryption.Type == "age" {
			if passphrase == nil {
				store.Close()
				logFile.Close()
				return nil, fmt.Errorf("age encryption enabled but no passphrase source provided")
			}
			pass, err = passphrase()
			if err != nil {
				store.Close()
				logFile.Close()
				return nil, fmt.Errorf("reading passphrase: %w", err)
			}
		}
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption, pass)
		if err != nil {
			store.Close()
			logFile.Close()
			return nil, fmt.Errorf("creating encryptor: %w", err)
		}
		store = blobstore.NewEncryptedStore(store, enc)
	}

	log := &slogAdapter{l: logger}
	repo, err := vfs.NewRepository(store, log, vfs.RealClock{}, vfs.UUIDGenerator{})
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("loading filesystem: %w", err)
	}

	notesRepo, err := notes.NewRepository(store, log, vfs.RealClock{}, vfs.UUIDGenerator{})
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("loading notes: %w", err)
	}

	return &DeskApp{
		cfg:      cfg,
		store:    store,
		repo:     repo,
		explorer: explorer.New(repo),
		notes:    notesRepo,
		logFile:  logFile,
	}, nil
}

// Repo returns the file system repository.
func (a *DeskApp) Repo() *vfs.Repository { return a.repo }

// Explorer returns the view-state binding.
func (a *DeskApp) Explorer() *explorer.Explorer { return a.explorer }

// Notes returns the notes repository.
func (a *DeskApp) Notes() *notes.Repository { return a.notes }

// LoadWarning returns a human-readable message when the initial snapshot
// load had to reset state, or "" when there is nothing to report.
func (a *DeskApp) LoadWarning() string {
	switch a.repo.LoadOutcome() {
	case vfs.LoadResetVersion:
		return "warning: persisted filesystem had an unsupported schema version and was reset"
	case vfs.LoadResetCorrupt:
		return "warning: persisted filesystem was corrupt and was reset"
	default:
		return ""
	}
}

// Close releases all resources.
func (a *DeskApp) Close() error {
	var firstErr error

	a.explorer.Close()

	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing blob store: %w", err)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}
