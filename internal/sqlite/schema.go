// Package sqlite implements the SQLite archive backend for tally.
// JSONL files in the data directory are the source of truth; SQLite is the
// query engine rebuilt from them on every Attach.
package sqlite

// Schema DDL for all tables.
const (
	createParties = `CREATE TABLE parties (
    context TEXT NOT NULL,
    party_key TEXT NOT NULL,
    name TEXT NOT NULL,
    full_name TEXT NOT NULL,
    short_name TEXT NOT NULL,
    aliases TEXT NOT NULL DEFAULT '[]',
    members TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (context, party_key)
);`

	createPolls = `CREATE TABLE polls (
    poll_id TEXT PRIMARY KEY,
    series TEXT NOT NULL,
    seq INTEGER NOT NULL,
    date TEXT NOT NULL,
    pollster TEXT,
    margin_of_error REAL,
    entries TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxPartiesContext = `CREATE INDEX idx_parties_context ON parties(context);`
	idxPollsSeries    = `CREATE INDEX idx_polls_series ON polls(series, seq);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createParties,
	createPolls,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxPartiesContext,
	idxPollsSeries,
}
