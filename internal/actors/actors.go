// Package actors defines the external actor-record collaborator the
// lifecycle manager reads combat stats from and applies damage through.
package actors

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested actor record is missing.
var ErrNotFound = errors.New("actor not found")

// Record is a point-in-time view of an actor's combat-relevant state.
// Attack and Defense are equipment-derived and may change between turns,
// which is why the lifecycle manager re-fetches records instead of
// caching them.
type Record struct {
	ID         string
	UserID     string
	Name       string
	RegionKey  string
	Hearts     int
	MaxHearts  int
	Attack     int
	Defense    int
	Privileged bool

	// Debuffed marks a terminal debuff state that disqualifies the actor
	// from joining combat.
	Debuffed bool
}

// Incapacitated reports whether the record is out of hearts.
func (r Record) Incapacitated() bool {
	return r.Hearts <= 0
}

// Store is the external actor collaborator. ApplyDamage must be atomic
// and floor hearts at zero.
type Store interface {
	Get(ctx context.Context, actorID string) (Record, error)
	ApplyDamage(ctx context.Context, actorID string, amount int) error
	IsIncapacitated(ctx context.Context, actorID string) (bool, error)
}
