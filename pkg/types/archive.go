package types

import "errors"

// Archive stores party sets and polls lists between runs.
// Callers attach to a backend, read and write, and detach when done.
type Archive interface {
	// Attach connects the Archive to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrArchiveDetached.
	Detach() error

	// SaveParty stores p under the given context, replacing any party with
	// the same key. Coalition members are stored by key and must be saved
	// in the same context to be restored by PartySet.
	SaveParty(context string, p *Party) error

	// PartySet loads every party stored under context, coalitions included.
	PartySet(context string, opts ...PartySetOption) (*PartySet, error)

	// Contexts lists the stored party-set contexts, sorted.
	Contexts() ([]string, error)

	// SavePolls appends every poll of list to the named series. Polls whose
	// ID is already stored are replaced in place, or appended when they move
	// from another series.
	SavePolls(series string, list *PollsList) error

	// PollsList loads the named series in ingestion order. An empty name
	// loads every series.
	PollsList(series string) (*PollsList, error)
}

// Archive lifecycle errors.
var (
	ErrArchiveDetached = errors.New("archive is detached")
	ErrAlreadyAttached = errors.New("archive is already attached")
)
