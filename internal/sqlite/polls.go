package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// SavePolls appends the polls of list to series, keeping their order. A poll
// whose ID is already stored is updated in place and keeps its position.
func (b *Backend) SavePolls(series string, list *types.PollsList) error {
	if list == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrArchiveDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM polls WHERE series = ?", series).Scan(&seq); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range list.Polls() {
		entries := make([]entryJSON, 0)
		for _, e := range p.Entries() {
			entries = append(entries, entryJSON{Label: e.Label, Value: e.Value})
		}
		entriesJSON, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshaling entries of %s: %w", p.ID, err)
		}
		var pollster sql.NullString
		if p.Pollster != "" {
			pollster = sql.NullString{String: p.Pollster, Valid: true}
		}
		var moe sql.NullFloat64
		if p.MarginOfError != nil {
			moe = sql.NullFloat64{Float64: *p.MarginOfError, Valid: true}
		}

		seq++
		_, err = tx.Exec(`
			INSERT INTO polls (poll_id, series, seq, date, pollster, margin_of_error, entries, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(poll_id) DO UPDATE SET
				seq = CASE WHEN polls.series = excluded.series THEN polls.seq ELSE excluded.seq END,
				series = excluded.series,
				date = excluded.date,
				pollster = excluded.pollster,
				margin_of_error = excluded.margin_of_error,
				entries = excluded.entries`,
			p.ID, series, seq, p.Date.UTC().Format(time.RFC3339), pollster, moe, string(entriesJSON), now)
		if err != nil {
			return fmt.Errorf("upserting poll %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing polls: %w", err)
	}
	return b.persistPollsJSONL()
}

// PollsList returns the polls stored under series in the order they were
// saved. An empty series returns every stored poll, grouped by series.
func (b *Backend) PollsList(series string) (*types.PollsList, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrArchiveDetached
	}

	query := `SELECT poll_id, date, pollster, margin_of_error, entries FROM polls`
	var args []any
	if series != "" {
		query += " WHERE series = ?"
		args = append(args, series)
	}
	query += " ORDER BY series, seq"

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying polls: %w", err)
	}
	defer rows.Close()

	list := types.NewPollsList(series)
	for rows.Next() {
		var (
			id, date, entriesJSON string
			pollster              sql.NullString
			moe                   sql.NullFloat64
		)
		if err := rows.Scan(&id, &date, &pollster, &moe, &entriesJSON); err != nil {
			return nil, fmt.Errorf("scanning poll: %w", err)
		}
		p, err := hydratePoll(id, date, pollster, moe, entriesJSON)
		if err != nil {
			return nil, err
		}
		list.Add(p)
	}
	return list, rows.Err()
}

func hydratePoll(id, date string, pollster sql.NullString, moe sql.NullFloat64, entriesJSON string) (*types.Poll, error) {
	when, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return nil, fmt.Errorf("parsing date of poll %s: %w", id, err)
	}
	var stored []entryJSON
	if err := json.Unmarshal([]byte(entriesJSON), &stored); err != nil {
		return nil, fmt.Errorf("parsing entries of poll %s: %w", id, err)
	}
	entries := make([]types.Entry, len(stored))
	for i, e := range stored {
		entries[i] = types.Entry{Label: e.Label, Value: e.Value}
	}

	opts := []types.PollOption{types.WithPollID(id)}
	if pollster.Valid {
		opts = append(opts, types.WithPollster(pollster.String))
	}
	if moe.Valid {
		opts = append(opts, types.WithMarginOfError(moe.Float64))
	}
	return types.NewPollFromEntries(when, entries, opts...)
}

// persistPollsJSONL rewrites polls.jsonl from the polls table.
// The caller must hold b.mu.
func (b *Backend) persistPollsJSONL() error {
	rows, err := b.db.Query(`
		SELECT poll_id, series, seq, date, pollster, margin_of_error, entries, created_at
		FROM polls ORDER BY series, seq`)
	if err != nil {
		return fmt.Errorf("reading polls for JSONL: %w", err)
	}
	defer rows.Close()

	var records []pollJSON
	for rows.Next() {
		var (
			rec         pollJSON
			pollster    sql.NullString
			moe         sql.NullFloat64
			entriesJSON string
		)
		if err := rows.Scan(&rec.PollID, &rec.Series, &rec.Seq, &rec.Date,
			&pollster, &moe, &entriesJSON, &rec.CreatedAt); err != nil {
			return fmt.Errorf("scanning poll for JSONL: %w", err)
		}
		if pollster.Valid {
			rec.Pollster = &pollster.String
		}
		if moe.Valid {
			rec.MarginOfError = &moe.Float64
		}
		if err := json.Unmarshal([]byte(entriesJSON), &rec.Entries); err != nil {
			return fmt.Errorf("parsing entries for JSONL: %w", err)
		}
		rec.Entries = nonNil(rec.Entries)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir, pollsJSONL), records)
}
