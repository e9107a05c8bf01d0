// Package domain holds the wave encounter aggregate and its supporting
// value types: monsters, participants, difficulty profiles, and the
// resource model that decides whether damage lands on individual actors
// or on a party-wide shared pool.
//
// All mutation goes through methods that preserve the wave invariants:
// the current monster index stays within [0, len(monsters)], hearts stay
// within [0, max], terminal statuses are permanent, and the turn index is
// always a valid participant index while the roster is non-empty.
package domain
