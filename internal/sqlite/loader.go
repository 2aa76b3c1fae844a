package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL files to their SQLite tables and columns.
// Columns named in arrays hold JSON arrays; a missing or null value loads as
// an empty array.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
	arrays  map[string]bool
}{
	{
		file:    partiesJSONL,
		table:   "parties",
		columns: []string{"context", "party_key", "name", "full_name", "short_name", "aliases", "members", "created_at", "updated_at"},
		arrays:  map[string]bool{"aliases": true, "members": true},
	},
	{
		file:    pollsJSONL,
		table:   "polls",
		columns: []string{"poll_id", "series", "seq", "date", "pollster", "margin_of_error", "entries", "created_at"},
		arrays:  map[string]bool{"entries": true},
	},
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its records
// into the matching table. Loading is transactional: either every file loads
// or the database stays empty. Malformed lines and records that violate a
// constraint are skipped; unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) (map[string]int, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	loaded := make(map[string]int, len(jsonlTableMapping))
	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		n, err := insertRecords(tx, mapping.table, mapping.columns, mapping.arrays, records)
		if err != nil {
			return nil, fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
		loaded[mapping.table] = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// insertRecords inserts parsed JSONL records into table and returns how many
// were accepted. Only the listed columns are read from each record.
func insertRecords(tx *sql.Tx, table string, columns []string, arrays map[string]bool, records []json.RawMessage) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val := obj[col]
			switch v := val.(type) {
			case nil:
				if arrays[col] {
					args[i] = "[]"
				}
			case map[string]any, []any:
				// Nested JSON is stored as text.
				b, err := json.Marshal(v)
				if err != nil {
					continue
				}
				args[i] = string(b)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
		inserted++
	}
	return inserted, nil
}
