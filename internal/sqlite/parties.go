package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// SaveParty stores p under context, replacing any party with the same key.
// Coalition members are recorded by key.
func (b *Backend) SaveParty(context string, p *types.Party) error {
	if p == nil || p.Name == "" {
		return types.ErrInvalidName
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrArchiveDetached
	}

	aliases, err := json.Marshal(nonNil(p.Aliases))
	if err != nil {
		return fmt.Errorf("marshaling aliases: %w", err)
	}
	memberKeys := []string{}
	for _, m := range p.Members() {
		memberKeys = append(memberKeys, m.Key())
	}
	members, err := json.Marshal(memberKeys)
	if err != nil {
		return fmt.Errorf("marshaling members: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = b.db.Exec(`
		INSERT INTO parties (context, party_key, name, full_name, short_name, aliases, members, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(context, party_key) DO UPDATE SET
			name = excluded.name,
			full_name = excluded.full_name,
			short_name = excluded.short_name,
			aliases = excluded.aliases,
			members = excluded.members,
			updated_at = excluded.updated_at`,
		context, p.Key(), p.Name, p.FullName, p.ShortName,
		string(aliases), string(members), now, now)
	if err != nil {
		return fmt.Errorf("upserting party: %w", err)
	}
	return b.persistPartiesJSONL()
}

// PartySet loads every party stored under context. Coalitions are rebuilt
// from member keys; a member key with no stored party is skipped with a
// warning.
func (b *Backend) PartySet(context string, opts ...types.PartySetOption) (*types.PartySet, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrArchiveDetached
	}

	rows, err := b.db.Query(`
		SELECT party_key, name, full_name, short_name, aliases, members
		FROM parties WHERE context = ? ORDER BY party_key`, context)
	if err != nil {
		return nil, fmt.Errorf("querying parties: %w", err)
	}
	defer rows.Close()

	type stored struct {
		party   *types.Party
		members []string
	}
	var all []stored
	byKey := make(map[string]*types.Party)
	for rows.Next() {
		var key, name, fullName, shortName, aliasesJSON, membersJSON string
		if err := rows.Scan(&key, &name, &fullName, &shortName, &aliasesJSON, &membersJSON); err != nil {
			return nil, fmt.Errorf("scanning party: %w", err)
		}
		var aliases, members []string
		if err := json.Unmarshal([]byte(aliasesJSON), &aliases); err != nil {
			return nil, fmt.Errorf("parsing aliases of %s: %w", key, err)
		}
		if err := json.Unmarshal([]byte(membersJSON), &members); err != nil {
			return nil, fmt.Errorf("parsing members of %s: %w", key, err)
		}
		p, err := types.NewParty(name,
			types.WithFullName(fullName),
			types.WithShortName(shortName),
			types.WithAliases(aliases...),
		)
		if err != nil {
			return nil, fmt.Errorf("restoring party %s: %w", key, err)
		}
		all = append(all, stored{party: p, members: members})
		byKey[key] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	set := types.NewPartySet(context, opts...)
	for _, s := range all {
		for _, mk := range s.members {
			m, ok := byKey[mk]
			if !ok {
				b.logger.Warn("coalition member not stored",
					"context", context, "coalition", s.party.Key(), "member", mk)
				continue
			}
			s.party.AddToCoalition(m)
		}
		set.Add(s.party)
	}
	return set, nil
}

// Contexts lists the stored party-set contexts, sorted.
func (b *Backend) Contexts() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrArchiveDetached
	}

	rows, err := b.db.Query("SELECT DISTINCT context FROM parties ORDER BY context")
	if err != nil {
		return nil, fmt.Errorf("querying contexts: %w", err)
	}
	defer rows.Close()

	var contexts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning context: %w", err)
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

// persistPartiesJSONL rewrites parties.jsonl from the parties table.
// The caller must hold b.mu.
func (b *Backend) persistPartiesJSONL() error {
	rows, err := b.db.Query(`
		SELECT context, party_key, name, full_name, short_name, aliases, members, created_at, updated_at
		FROM parties ORDER BY context, party_key`)
	if err != nil {
		return fmt.Errorf("reading parties for JSONL: %w", err)
	}
	defer rows.Close()

	var records []partyJSON
	for rows.Next() {
		var rec partyJSON
		var aliasesJSON, membersJSON string
		if err := rows.Scan(&rec.Context, &rec.PartyKey, &rec.Name, &rec.FullName, &rec.ShortName,
			&aliasesJSON, &membersJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning party for JSONL: %w", err)
		}
		if err := json.Unmarshal([]byte(aliasesJSON), &rec.Aliases); err != nil {
			return fmt.Errorf("parsing aliases for JSONL: %w", err)
		}
		if err := json.Unmarshal([]byte(membersJSON), &rec.Members); err != nil {
			return fmt.Errorf("parsing members for JSONL: %w", err)
		}
		rec.Aliases = nonNil(rec.Aliases)
		rec.Members = nonNil(rec.Members)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir, partiesJSONL), records)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
