package types

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// DefaultMinRatio is the similarity ratio a label must exceed to resolve to a
// party when no other threshold is given.
const DefaultMinRatio = 0.8

// ResolveOutcome classifies how a key was resolved by PartySet.Get.
type ResolveOutcome string

// Resolve outcomes reported to a ResolveObserver.
const (
	OutcomeExact ResolveOutcome = "exact"
	OutcomeFuzzy ResolveOutcome = "fuzzy"
	OutcomeMiss  ResolveOutcome = "miss"
)

// ResolveObserver is notified of every keyed lookup a PartySet performs.
type ResolveObserver interface {
	ObserveResolve(outcome ResolveOutcome)
}

// Match is a resolved party together with how it was found.
type Match struct {
	Key   string
	Party *Party
	Ratio float64
	Fuzzy bool
}

// PartySet is a keyed collection of parties with name matching.
//
// Keys are short names upper-cased by normalizeKey, applied the same way on
// insert and on lookup. Adding a party whose key already exists replaces the
// previous entry. A PartySet is not safe for concurrent mutation; read-only
// lookups may run in parallel once populated.
type PartySet struct {
	Context string

	parties  map[string]*Party
	logger   *slog.Logger
	observer ResolveObserver
}

// PartySetOption configures a PartySet.
type PartySetOption func(*PartySet)

// WithLogger sets the logger used for ambiguous-match warnings.
func WithLogger(logger *slog.Logger) PartySetOption {
	return func(s *PartySet) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the observer notified of lookup outcomes.
func WithObserver(o ResolveObserver) PartySetOption {
	return func(s *PartySet) {
		s.observer = o
	}
}

// NewPartySet creates an empty set labelled with context
// (e.g. "2016 Spanish general election").
func NewPartySet(context string, opts ...PartySetOption) *PartySet {
	s := &PartySet{
		Context: context,
		parties: make(map[string]*Party),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// normalizeKey is the single key normalization used by PartySet.
func normalizeKey(key string) string {
	return strings.ToUpper(key)
}

// Add inserts p under its upper-cased short name, replacing any party already
// stored under that key.
func (s *PartySet) Add(p *Party) {
	s.parties[p.Key()] = p
}

// Len returns the number of parties in the set.
func (s *PartySet) Len() int {
	return len(s.parties)
}

// Keys returns a sorted snapshot of the keys.
func (s *PartySet) Keys() []string {
	return slices.Sorted(maps.Keys(s.parties))
}

// All iterates over a snapshot of the set in key order. Parties added during
// iteration are not visited.
func (s *PartySet) All() iter.Seq2[string, *Party] {
	keys := s.Keys()
	snapshot := maps.Clone(s.parties)
	return func(yield func(string, *Party) bool) {
		for _, k := range keys {
			if !yield(k, snapshot[k]) {
				return
			}
		}
	}
}

// Lookup returns the party stored under key, ignoring case.
// Returns ErrNotFound if there is none.
func (s *PartySet) Lookup(key string) (*Party, error) {
	p, ok := s.parties[normalizeKey(key)]
	if !ok {
		return nil, notFound(key)
	}
	return p, nil
}

// accepts reports whether ratio clears the threshold. A perfect match is
// always accepted so that a threshold of 1.0 still admits identical names.
func accepts(ratio, minRatio float64) bool {
	return ratio > minRatio || ratio >= 1
}

// Resolve returns the party whose names best match label. The best ratio must
// be strictly greater than minRatio. Ties go to the party with the smallest
// key.
func (s *PartySet) Resolve(label string, minRatio float64) (Match, bool) {
	var best Match
	found := false
	for _, key := range s.Keys() {
		p := s.parties[key]
		ratio := p.Match(label)
		if !found || ratio > best.Ratio {
			best = Match{Key: key, Party: p, Ratio: ratio, Fuzzy: true}
			found = true
		}
	}
	if !found || !accepts(best.Ratio, minRatio) {
		return Match{}, false
	}
	return best, true
}

// Get returns the party stored under key, falling back to Resolve with
// DefaultMinRatio. A fallback hit is logged as a warning.
// Returns ErrNotFound if neither finds a party.
func (s *PartySet) Get(key string) (*Party, error) {
	m, err := s.GetMatch(key)
	if err != nil {
		return nil, err
	}
	return m.Party, nil
}

// GetMatch is Get returning how the party was found.
func (s *PartySet) GetMatch(key string) (Match, error) {
	nk := normalizeKey(key)
	if p, ok := s.parties[nk]; ok {
		s.observe(OutcomeExact)
		return Match{Key: nk, Party: p, Ratio: 1}, nil
	}
	m, ok := s.Resolve(key, DefaultMinRatio)
	if !ok {
		s.observe(OutcomeMiss)
		return Match{}, notFound(key)
	}
	s.observe(OutcomeFuzzy)
	s.logger.Warn(ErrAmbiguousMatch.Error(),
		"label", key,
		"party", m.Party.Name,
		"key", m.Key,
		"ratio", m.Ratio,
		"context", s.Context,
	)
	return m, nil
}

// Extract returns a new set holding the parties matched by labels, keeping
// this set's context, logger, and observer. Every label must resolve; the
// first that does not aborts the extraction with ErrUnresolvedEntity. Each
// label is reported to the observer: exact for a perfect match, fuzzy
// otherwise.
func (s *PartySet) Extract(labels ...string) (*PartySet, error) {
	subset := NewPartySet(s.Context, WithLogger(s.logger), WithObserver(s.observer))
	for _, label := range labels {
		m, ok := s.Resolve(label, DefaultMinRatio)
		if !ok {
			s.observe(OutcomeMiss)
			return nil, unresolved(label)
		}
		if m.Ratio >= 1 {
			s.observe(OutcomeExact)
		} else {
			s.observe(OutcomeFuzzy)
		}
		subset.Add(m.Party)
	}
	return subset, nil
}

func (s *PartySet) observe(outcome ResolveOutcome) {
	if s.observer != nil {
		s.observer.ObserveResolve(outcome)
	}
}
