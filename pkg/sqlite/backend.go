// Package sqlite provides the public constructor for the SQLite poll archive.
// The implementation lives in internal/sqlite.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/tally/internal/sqlite"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// NewArchive creates a SQLite-backed archive that logs to logger. A nil
// logger discards output. The archive is not attached; call Attach with a
// Config to initialize.
//
// Example:
//
//	archive := sqlite.NewArchive(nil)
//	err := archive.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "polls",
//	})
//	defer archive.Detach()
func NewArchive(logger *slog.Logger) types.Archive {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
