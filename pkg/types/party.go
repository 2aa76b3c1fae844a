package types

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxShortNameLength bounds Party.ShortName, in runes.
const MaxShortNameLength = 7

// PartyKind tells a standalone party apart from a coalition.
type PartyKind int

// Party kinds. A party starts Standalone and becomes a Coalition when its
// first member is added; there is no way back.
const (
	Standalone PartyKind = iota
	Coalition
)

func (k PartyKind) String() string {
	if k == Coalition {
		return "coalition"
	}
	return "standalone"
}

// Party is a political party or a coalition of parties.
//
// Name is the canonical identity and never changes after NewParty. FullName
// and ShortName are always set; Aliases hold any extra names used for
// matching (translations, spellings found in poll tables).
type Party struct {
	Name      string
	FullName  string
	ShortName string
	Aliases   []string

	kind    PartyKind
	members []*Party
}

// PartyOption configures optional Party fields in NewParty.
type PartyOption func(*Party)

// WithAliases adds extra names used when matching poll labels.
func WithAliases(aliases ...string) PartyOption {
	return func(p *Party) {
		p.Aliases = append(p.Aliases, aliases...)
	}
}

// WithShortName sets the abbreviation. Longer values are truncated to
// MaxShortNameLength runes.
func WithShortName(short string) PartyOption {
	return func(p *Party) {
		p.ShortName = short
	}
}

// WithFullName sets the official name.
func WithFullName(full string) PartyOption {
	return func(p *Party) {
		p.FullName = full
	}
}

// NewParty creates a standalone party. Returns ErrInvalidName if name is blank.
func NewParty(name string, opts ...PartyOption) (*Party, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	p := &Party{Name: name}
	for _, opt := range opts {
		opt(p)
	}
	if p.FullName == "" {
		p.FullName = name
	}
	if p.ShortName == "" {
		p.ShortName = abbreviate(name, MaxShortNameLength)
	}
	p.ShortName = truncate(p.ShortName, MaxShortNameLength)
	return p, nil
}

// abbreviate derives a short name. Names that already fit are kept as-is.
// Longer names become the initials of their words; when that leaves two
// letters or fewer, the first three characters of the name are used instead.
func abbreviate(name string, limit int) string {
	if utf8.RuneCountInString(name) <= limit {
		return name
	}
	var initials strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		initials.WriteRune(r)
	}
	abbr := initials.String()
	if utf8.RuneCountInString(abbr) <= 2 {
		abbr = truncate(name, 3)
	}
	return fold(abbr)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// Key returns the registry key of the party: its short name, upper-cased.
func (p *Party) Key() string {
	return normalizeKey(p.ShortName)
}

// Kind reports whether the party is a coalition.
func (p *Party) Kind() PartyKind {
	return p.kind
}

// IsCoalition reports whether at least one member has been added.
func (p *Party) IsCoalition() bool {
	return p.kind == Coalition
}

// AddToCoalition appends member to this party's coalition, turning the party
// into a coalition on the first call. Members are kept in insertion order and
// cannot be removed.
func (p *Party) AddToCoalition(member *Party) {
	if member == nil {
		return
	}
	p.kind = Coalition
	p.members = append(p.members, member)
}

// Members returns the coalition members in insertion order. The slice is a
// copy; the parties are shared.
func (p *Party) Members() []*Party {
	return slices.Clone(p.members)
}

// AllNames returns every distinct name of the party, sorted.
func (p *Party) AllNames() []string {
	names := make([]string, 0, len(p.Aliases)+3)
	names = append(names, p.Aliases...)
	names = append(names, p.Name, p.FullName, p.ShortName)
	slices.Sort(names)
	return slices.Compact(names)
}

// Match returns the best similarity ratio between label and any of the
// party's names.
func (p *Party) Match(label string) float64 {
	best := 0.0
	for _, name := range p.AllNames() {
		best = max(best, Distance(name, label).Ratio)
	}
	return best
}

func (p *Party) String() string {
	var b strings.Builder
	b.WriteString("Name: " + p.Name + "\n")
	b.WriteString("Full name: " + p.FullName + "\n")
	b.WriteString("Short name: " + p.ShortName + "\n")
	if p.IsCoalition() {
		names := make([]string, len(p.members))
		for i, m := range p.members {
			names[i] = m.ShortName
		}
		b.WriteString("In this coalition: " + strings.Join(names, ","))
		b.WriteString("\n")
	}
	return b.String()
}
