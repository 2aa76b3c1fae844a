// Package tally holds build information shared by the tally binaries.
package tally

// Version is the semantic version of the tally module.
const Version = "0.3.0"
