// Tests for the SQLite archive backend.
package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func attachTemp(t *testing.T) (*Backend, types.Config) {
	t.Helper()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	b := NewBackend()
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b, config
}

func mustParty(t *testing.T, name string, opts ...types.PartyOption) *types.Party {
	t.Helper()
	p, err := types.NewParty(name, opts...)
	if err != nil {
		t.Fatalf("NewParty(%q) failed: %v", name, err)
	}
	return p
}

func TestBackend_Attach(t *testing.T) {
	b, config := attachTemp(t)

	dbPath := filepath.Join(config.DataDir, dbFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", dbFileName)
	}
	for _, name := range jsonlFiles {
		if _, err := os.Stat(filepath.Join(config.DataDir, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	if err := b.Attach(config); err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	if !errors.Is(err, types.ErrBackendUnknown) {
		t.Errorf("expected ErrBackendUnknown, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	b, _ := attachTemp(t)

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	if _, err := b.PartySet("any"); err != types.ErrArchiveDetached {
		t.Errorf("PartySet: expected ErrArchiveDetached, got %v", err)
	}
	if _, err := b.PollsList(""); err != types.ErrArchiveDetached {
		t.Errorf("PollsList: expected ErrArchiveDetached, got %v", err)
	}
	if err := b.SaveParty("any", mustParty(t, "PSOE")); err != types.ErrArchiveDetached {
		t.Errorf("SaveParty: expected ErrArchiveDetached, got %v", err)
	}
}

func TestBackend_PartiesRoundTrip(t *testing.T) {
	b, config := attachTemp(t)
	const election = "2016 Spanish general election"

	podemos := mustParty(t, "Podemos")
	iu := mustParty(t, "Izquierda Unida", types.WithShortName("IU"))
	up := mustParty(t, "Unidos Podemos", types.WithShortName("UP"), types.WithAliases("UPodemos", "Unidas Podemos"))
	up.AddToCoalition(podemos)
	up.AddToCoalition(iu)

	for _, p := range []*types.Party{podemos, iu, up} {
		if err := b.SaveParty(election, p); err != nil {
			t.Fatalf("SaveParty(%s) failed: %v", p.Name, err)
		}
	}
	if err := b.SaveParty("other", mustParty(t, "PSOE")); err != nil {
		t.Fatalf("SaveParty failed: %v", err)
	}

	contexts, err := b.Contexts()
	if err != nil {
		t.Fatalf("Contexts failed: %v", err)
	}
	if len(contexts) != 2 || contexts[0] != election || contexts[1] != "other" {
		t.Errorf("unexpected contexts %v", contexts)
	}

	set, err := b.PartySet(election)
	if err != nil {
		t.Fatalf("PartySet failed: %v", err)
	}
	if set.Context != election {
		t.Errorf("expected context %q, got %q", election, set.Context)
	}
	if set.Len() != 3 {
		t.Fatalf("expected 3 parties, got %d", set.Len())
	}

	got, err := set.Lookup("UP")
	if err != nil {
		t.Fatalf("Lookup UP failed: %v", err)
	}
	if got.Name != "Unidos Podemos" || got.FullName != "Unidos Podemos" {
		t.Errorf("unexpected party %+v", got)
	}
	if len(got.Aliases) != 2 || got.Aliases[1] != "Unidas Podemos" {
		t.Errorf("unexpected aliases %v", got.Aliases)
	}
	members := got.Members()
	if !got.IsCoalition() || len(members) != 2 {
		t.Fatalf("expected coalition of 2, got %d members", len(members))
	}
	if members[0].Name != "Podemos" || members[1].Name != "Izquierda Unida" {
		t.Errorf("members out of order: %s, %s", members[0].Name, members[1].Name)
	}
	stored, _ := set.Lookup("IU")
	if members[1] != stored {
		t.Error("coalition member is not the stored party")
	}

	// Re-attach rebuilds the database from JSONL.
	b.Detach()
	b2 := NewBackend()
	if err := b2.Attach(config); err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	defer b2.Detach()
	set, err = b2.PartySet(election)
	if err != nil {
		t.Fatalf("PartySet after reload failed: %v", err)
	}
	if set.Len() != 3 {
		t.Errorf("expected 3 parties after reload, got %d", set.Len())
	}
	if got, err := set.Lookup("UP"); err != nil || len(got.Members()) != 2 {
		t.Errorf("coalition not restored after reload: %v", err)
	}
}

func TestBackend_SavePartyOverwrites(t *testing.T) {
	b, _ := attachTemp(t)

	b.SaveParty("c", mustParty(t, "Partido Popular", types.WithShortName("PP")))
	b.SaveParty("c", mustParty(t, "Partido Pirata", types.WithShortName("pp")))

	set, err := b.PartySet("c")
	if err != nil {
		t.Fatalf("PartySet failed: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 party, got %d", set.Len())
	}
	got, _ := set.Lookup("PP")
	if got.Name != "Partido Pirata" {
		t.Errorf("expected overwrite, got %s", got.Name)
	}
}

func TestBackend_PollsRoundTrip(t *testing.T) {
	b, config := attachTemp(t)

	day := func(d int) time.Time { return time.Date(2016, time.June, d, 0, 0, 0, 0, time.UTC) }
	p1, _ := types.NewPollFromEntries(day(20), []types.Entry{{Label: "PP", Value: 29}, {Label: "PSOE", Value: 21.5}},
		types.WithPollster("CIS"), types.WithMarginOfError(1.5))
	p2, _ := types.NewPoll(day(5), map[string]float64{"Podemos": 12})

	list := types.NewPollsList("2016")
	list.Add(p1, p2)
	if err := b.SavePolls("2016", list); err != nil {
		t.Fatalf("SavePolls failed: %v", err)
	}
	p3, _ := types.NewPoll(day(1), map[string]float64{"PSC": 30})
	catalan := types.NewPollsList("catalonia")
	catalan.Add(p3)
	if err := b.SavePolls("catalonia", catalan); err != nil {
		t.Fatalf("SavePolls failed: %v", err)
	}

	got, err := b.PollsList("2016")
	if err != nil {
		t.Fatalf("PollsList failed: %v", err)
	}
	polls := got.Polls()
	if len(polls) != 2 {
		t.Fatalf("expected 2 polls, got %d", len(polls))
	}
	if polls[0].ID != p1.ID || polls[1].ID != p2.ID {
		t.Error("polls not returned in save order")
	}
	if polls[0].Pollster != "CIS" || polls[0].MarginOfError == nil || *polls[0].MarginOfError != 1.5 {
		t.Errorf("administrative fields lost: %+v", polls[0])
	}
	if polls[1].MarginOfError != nil || polls[1].Pollster != "" {
		t.Errorf("expected empty administrative fields, got %+v", polls[1])
	}
	if !polls[0].Date.Equal(day(20)) {
		t.Errorf("expected date %v, got %v", day(20), polls[0].Date)
	}
	entries := polls[0].Entries()
	if len(entries) != 2 || entries[0].Label != "PP" || entries[1].Value != 21.5 {
		t.Errorf("unexpected entries %v", entries)
	}

	all, err := b.PollsList("")
	if err != nil {
		t.Fatalf("PollsList(all) failed: %v", err)
	}
	if all.Len() != 3 {
		t.Errorf("expected 3 polls across series, got %d", all.Len())
	}

	// Saving an existing poll again keeps its position.
	again := types.NewPollsList("2016")
	again.Add(p1)
	if err := b.SavePolls("2016", again); err != nil {
		t.Fatalf("SavePolls (update) failed: %v", err)
	}
	got, _ = b.PollsList("2016")
	if got.Len() != 2 || got.Polls()[0].ID != p1.ID {
		t.Error("re-saved poll moved or duplicated")
	}

	b.Detach()
	b2 := NewBackend()
	if err := b2.Attach(config); err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	defer b2.Detach()
	got, err = b2.PollsList("2016")
	if err != nil {
		t.Fatalf("PollsList after reload failed: %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("expected 2 polls after reload, got %d", got.Len())
	}
	if v, ok := got.Polls()[0].Raw("PSOE"); !ok || v != 21.5 {
		t.Errorf("expected PSOE 21.5 after reload, got %v %v", v, ok)
	}
}

func TestBackend_SavePollsMovesBetweenSeries(t *testing.T) {
	b, config := attachTemp(t)

	day := func(d int) time.Time { return time.Date(2016, time.June, d, 0, 0, 0, 0, time.UTC) }
	save := func(series string, polls ...*types.Poll) {
		t.Helper()
		list := types.NewPollsList(series)
		for _, p := range polls {
			list.Add(p)
		}
		if err := b.SavePolls(series, list); err != nil {
			t.Fatalf("SavePolls(%q) failed: %v", series, err)
		}
	}
	poll := func(d int) *types.Poll {
		t.Helper()
		p, err := types.NewPoll(day(d), map[string]float64{"PP": float64(d)})
		if err != nil {
			t.Fatalf("NewPoll failed: %v", err)
		}
		return p
	}

	a1, a2, a3 := poll(1), poll(2), poll(3)
	b1, b2, b3, b4 := poll(11), poll(12), poll(13), poll(14)
	save("A", a1, a2, a3)
	save("B", b1, b2, b3, b4)

	// Moving a poll appends it to the target series.
	save("B", a3)

	check := func(backend *Backend) {
		t.Helper()
		got, err := backend.PollsList("B")
		if err != nil {
			t.Fatalf("PollsList(B) failed: %v", err)
		}
		want := []*types.Poll{b1, b2, b3, b4, a3}
		polls := got.Polls()
		if len(polls) != len(want) {
			t.Fatalf("expected %d polls in B, got %d", len(want), len(polls))
		}
		for i, p := range polls {
			if p.ID != want[i].ID {
				t.Errorf("position %d: expected poll dated %v, got %v", i, want[i].Date, p.Date)
			}
		}
		rest, err := backend.PollsList("A")
		if err != nil {
			t.Fatalf("PollsList(A) failed: %v", err)
		}
		if rest.Len() != 2 {
			t.Errorf("expected 2 polls left in A, got %d", rest.Len())
		}
	}
	check(b)

	b.Detach()
	reopened := NewBackend()
	if err := reopened.Attach(config); err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	defer reopened.Detach()
	check(reopened)
}
