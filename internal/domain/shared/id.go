// Package shared contains common domain types, errors, events, and contracts
// that are used across all domain packages.
package shared

// IDGenerator produces unique identifiers for new domain records.
//
// All entity identifiers flow through this contract so that production code
// gets collision-free UUIDs while tests substitute deterministic sequences.
// Components must never assemble identifiers out of timestamps or random
// suffixes on their own.
type IDGenerator interface {
	// NewID returns a new unique identifier.
	NewID() string
}
