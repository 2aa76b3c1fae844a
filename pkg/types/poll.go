package types

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one raw label/value pair as harvested from a poll table. Label is
// free text and is only resolved against parties at query time.
type Entry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ValueOptions controls how Poll.Value resolves a party.
type ValueOptions struct {
	// MinRatio is the similarity ratio a label must exceed.
	MinRatio float64 `json:"min_ratio" yaml:"min_ratio"`

	// JoinCoalitions sums member values when a coalition is not listed.
	JoinCoalitions bool `json:"join_coalitions" yaml:"join_coalitions"`

	// ReturnPartial returns a coalition sum even when some members are
	// missing from the poll.
	ReturnPartial bool `json:"return_partial" yaml:"return_partial"`
}

// DefaultValueOptions returns the options used when none are given.
func DefaultValueOptions() ValueOptions {
	return ValueOptions{
		MinRatio:       DefaultMinRatio,
		JoinCoalitions: true,
	}
}

// Validate checks that MinRatio is within [0, 1].
func (o ValueOptions) Validate() error {
	if o.MinRatio < 0 || o.MinRatio > 1 || math.IsNaN(o.MinRatio) {
		return ErrInvalidMinRatio
	}
	return nil
}

// Poll is a single dated survey: raw labels mapped to vote shares.
type Poll struct {
	ID            string
	Date          time.Time
	Pollster      string
	MarginOfError *float64

	entries []Entry
	index   map[string]int
}

// PollOption configures the administrative fields of a Poll.
type PollOption func(*Poll)

// WithPollID sets the poll ID instead of generating one.
func WithPollID(id string) PollOption {
	return func(p *Poll) {
		p.ID = id
	}
}

// WithPollster sets the name of the polling company.
func WithPollster(name string) PollOption {
	return func(p *Poll) {
		p.Pollster = name
	}
}

// WithMarginOfError sets the margin of error, in percentage points.
func WithMarginOfError(moe float64) PollOption {
	return func(p *Poll) {
		p.MarginOfError = &moe
	}
}

// NewPoll creates a poll from a label/value map. Entries are ordered by label
// so that resolution is deterministic.
func NewPoll(date time.Time, values map[string]float64, opts ...PollOption) (*Poll, error) {
	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	entries := make([]Entry, len(labels))
	for i, label := range labels {
		entries[i] = Entry{Label: label, Value: values[label]}
	}
	return NewPollFromEntries(date, entries, opts...)
}

// NewPollFromEntries creates a poll keeping the entries in the given order,
// which is the order labels are tried during similarity matching. A repeated
// label keeps its first position and takes the last value.
// Returns ErrInvalidValue for NaN or infinite values.
func NewPollFromEntries(date time.Time, entries []Entry, opts ...PollOption) (*Poll, error) {
	p := &Poll{
		Date:    date,
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidValue, e.Label)
		}
		if i, ok := p.index[e.Label]; ok {
			p.entries[i].Value = e.Value
			continue
		}
		p.index[e.Label] = len(p.entries)
		p.entries = append(p.entries, e)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	return p, nil
}

// Entries returns a copy of the raw entries in order.
func (p *Poll) Entries() []Entry {
	return slices.Clone(p.entries)
}

// Raw returns the value stored under the exact label.
func (p *Poll) Raw(label string) (float64, bool) {
	i, ok := p.index[label]
	if !ok {
		return 0, false
	}
	return p.entries[i].Value, true
}

// Polls returns the poll itself so a Poll can be added to a PollsList.
func (p *Poll) Polls() []*Poll {
	return []*Poll{p}
}

// Value returns the share of party in this poll.
//
// An entry labelled exactly with the party's name wins. Otherwise the first
// entry whose label matches the party above opts.MinRatio is used. Failing
// both, a coalition (when opts.JoinCoalitions is set) is the sum of its
// members resolved the same way. A member missing from the poll makes the
// whole coalition missing unless opts.ReturnPartial is set, in which case the
// missing members are skipped. The second result is false when the poll has
// no value for the party.
func (p *Poll) Value(party *Party, opts ValueOptions) (float64, bool) {
	if v, ok := p.lookup(party, opts.MinRatio); ok {
		return v, true
	}
	if !opts.JoinCoalitions || !party.IsCoalition() {
		return 0, false
	}

	sum := 0.0
	resolved := 0
	for _, member := range party.members {
		v, ok := p.lookup(member, opts.MinRatio)
		if !ok {
			if !opts.ReturnPartial {
				return 0, false
			}
			continue
		}
		sum += v
		resolved++
	}
	if resolved == 0 {
		return 0, false
	}
	return sum, true
}

// lookup resolves a single party by exact name, then by similarity.
func (p *Poll) lookup(party *Party, minRatio float64) (float64, bool) {
	if v, ok := p.Raw(party.Name); ok {
		return v, true
	}
	for _, e := range p.entries {
		if accepts(party.Match(e.Label), minRatio) {
			return e.Value, true
		}
	}
	return 0, false
}

func (p *Poll) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pollster: %s\n", p.Pollster)
	fmt.Fprintf(&b, "Date: %s\n", p.Date.Format(time.DateOnly))
	if p.MarginOfError != nil {
		fmt.Fprintf(&b, "Error: %g%% \n", *p.MarginOfError)
	}
	b.WriteString(strings.Repeat("-", 20) + "\n")
	for _, e := range p.entries {
		fmt.Fprintf(&b, "%s: %.2f%%\n", e.Label, e.Value)
	}
	return b.String()
}
