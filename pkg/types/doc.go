// Package types defines the party registry, poll, and polls-list model used by
// tally, together with the similarity ratio that drives name resolution and the
// standard error types returned by lookups.
//
// A PartySet resolves free-text labels to a Party either by exact key or by
// similarity ratio. A Poll holds raw label/value pairs and resolves them
// against a Party at query time, summing coalition members when the coalition
// itself is not listed. A PollsList projects a sparse, ordered time series for
// a single party.
package types
