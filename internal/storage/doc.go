// Package storage defines the persistence interfaces for the encounter
// engine.
//
// Wave aggregates are saved with optimistic concurrency: every load
// returns a version, and every save is conditional on that version being
// unchanged. Implementations (memory, bbolt, sqlite) live in subpackages.
//
// # Error Types
//
//   - ErrNotFound: a requested record is missing.
//   - ErrVersionConflict: a conditional save lost to a concurrent writer.
package storage
