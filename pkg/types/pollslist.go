package types

import (
	"context"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// PollSource is anything that can be added to a PollsList: a single *Poll or
// a whole *PollsList.
type PollSource interface {
	Polls() []*Poll
}

// Point is one dated value of a party's time series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is the time series of one party.
type Series struct {
	Party  *Party
	Points []Point
}

// PollsList is an ordered collection of polls. Order is ingestion order, not
// necessarily date order.
type PollsList struct {
	Name  string
	polls []*Poll
}

// NewPollsList creates an empty list.
func NewPollsList(name string) *PollsList {
	return &PollsList{Name: name}
}

// Add appends polls and the contents of other lists, flattening them.
func (l *PollsList) Add(items ...PollSource) {
	for _, item := range items {
		if item == nil {
			continue
		}
		l.polls = append(l.polls, item.Polls()...)
	}
}

// Polls returns a copy of the polls in order.
func (l *PollsList) Polls() []*Poll {
	return slices.Clone(l.polls)
}

// Len returns the number of polls.
func (l *PollsList) Len() int {
	return len(l.polls)
}

// SortByDate orders the polls by date, keeping ingestion order for polls on
// the same date.
func (l *PollsList) SortByDate() {
	slices.SortStableFunc(l.polls, func(a, b *Poll) int {
		return a.Date.Compare(b.Date)
	})
}

// Series returns the (date, value) pairs of party across the list, skipping
// polls that have no value for it.
func (l *PollsList) Series(party *Party, opts ValueOptions) []Point {
	var points []Point
	for _, poll := range l.polls {
		v, ok := poll.Value(party, opts)
		if !ok {
			continue
		}
		points = append(points, Point{Date: poll.Date, Value: v})
	}
	return points
}

// SeriesMany computes Series for every party concurrently. The result follows
// the order of parties. Neither the list nor the parties may be mutated while
// SeriesMany runs.
func (l *PollsList) SeriesMany(ctx context.Context, parties []*Party, opts ValueOptions) ([]Series, error) {
	out := make([]Series, len(parties))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, party := range parties {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Series{Party: party, Points: l.Series(party, opts)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
