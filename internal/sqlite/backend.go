package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// dbFileName is the SQLite file created inside DataDir. It is rebuilt from
// the JSONL files on every Attach.
const dbFileName = "tally.db"

// Backend implements types.Archive using SQLite as the query engine and JSONL
// files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	logger   *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger for archive events.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite database and
// loads the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from a fresh schema.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps writes serialized inside SQLite.
	db.SetMaxOpenConns(1)

	for _, ddl := range slices.Concat(schemaDDL, indexDDL) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}

	loaded, err := loadAllJSONL(db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.attached = true

	b.logger.Debug("archive attached",
		"data_dir", dataDir,
		"parties", loaded["parties"],
		"polls", loaded["polls"],
	)
	return nil
}

// Detach releases all resources held by the backend. Detach is idempotent.
// After Detach, all operations return ErrArchiveDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.logger.Debug("archive detached", "data_dir", b.dataDir)
	return nil
}

var _ types.Archive = (*Backend)(nil)
