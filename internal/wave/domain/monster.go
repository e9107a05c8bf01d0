package domain

import (
	"errors"
	"strings"
)

// Rank distinguishes a faction's rank-and-file units from its elites.
type Rank string

const (
	// RankBasic marks an ordinary unit.
	RankBasic Rank = "basic"
	// RankElite marks a unit reserved for elite-only encounters.
	RankElite Rank = "elite"
)

var (
	// ErrEmptyMonsterName indicates a template without a display name.
	ErrEmptyMonsterName = errors.New("monster name is required")
	// ErrEmptySpeciesKey indicates a template without a species key.
	ErrEmptySpeciesKey = errors.New("monster species key is required")
	// ErrInvalidTier indicates a non-positive monster tier.
	ErrInvalidTier = errors.New("monster tier must be positive")
	// ErrInvalidBaseHearts indicates a non-positive base heart value.
	ErrInvalidBaseHearts = errors.New("monster base hearts must be positive")
)

// MonsterTemplate is read-only reference data supplied by the catalog.
type MonsterTemplate struct {
	Name       string
	SpeciesKey string
	Tier       int
	BaseHearts int
	Faction    string
	Rank       Rank
}

// Validate checks template fields for catalog integrity.
func (t MonsterTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyMonsterName
	}
	if strings.TrimSpace(t.SpeciesKey) == "" {
		return ErrEmptySpeciesKey
	}
	if t.Tier <= 0 {
		return ErrInvalidTier
	}
	if t.BaseHearts <= 0 {
		return ErrInvalidBaseHearts
	}
	return nil
}

// Instantiate materializes a combatant at full hearts from the template.
func (t MonsterTemplate) Instantiate() MonsterInstance {
	return MonsterInstance{
		Name:          t.Name,
		SpeciesKey:    t.SpeciesKey,
		Tier:          t.Tier,
		CurrentHearts: t.BaseHearts,
		MaxHearts:     t.BaseHearts,
	}
}

// MonsterInstance is a materialized combatant owned by a single wave.
// Hearts only ever decrease and are floored at zero.
type MonsterInstance struct {
	Name          string
	SpeciesKey    string
	Tier          int
	CurrentHearts int
	MaxHearts     int
}

// ApplyDamage subtracts hearts, flooring at zero, and returns the amount
// actually applied. Non-positive damage is a no-op.
func (m *MonsterInstance) ApplyDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	applied := amount
	if applied > m.CurrentHearts {
		applied = m.CurrentHearts
	}
	m.CurrentHearts -= applied
	return applied
}

// Defeated reports whether the monster is out of hearts.
func (m MonsterInstance) Defeated() bool {
	return m.CurrentHearts <= 0
}
