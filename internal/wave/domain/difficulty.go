package domain

import (
	"errors"
	"math"
	"sort"
	"strings"
)

var (
	// ErrEmptyProfileKey indicates a profile without a key.
	ErrEmptyProfileKey = errors.New("difficulty profile key is required")
	// ErrNoTierWeights indicates a standard profile without a tier table.
	ErrNoTierWeights = errors.New("difficulty profile requires tier weights")
	// ErrWeightSum indicates tier weights that do not sum to 1.0.
	ErrWeightSum = errors.New("tier weights must sum to 1.0")
	// ErrInvalidWeight indicates a tier weight outside (0, 1].
	ErrInvalidWeight = errors.New("tier weights must be within (0, 1]")
	// ErrInvalidBossTier indicates a boss profile without a valid boss tier.
	ErrInvalidBossTier = errors.New("boss profile requires a positive boss tier")
	// ErrEmptyFaction indicates an elite-only profile without a faction.
	ErrEmptyFaction = errors.New("elite-only profile requires a faction")
	// ErrProfileFlagConflict indicates a profile marked both boss and elite-only.
	ErrProfileFlagConflict = errors.New("profile cannot be both boss and elite-only")
)

// weightSumTolerance absorbs float accumulation error in configured tables.
const weightSumTolerance = 1e-6

// DifficultyProfile is a named tier-weight table governing monster
// generation, plus the flags selecting boss-wave or elite-only
// composition. Profiles are immutable configuration-time data.
type DifficultyProfile struct {
	Key string

	// Weights maps monster tier to draw probability; the table must sum
	// to 1.0 for standard profiles. Boss and elite-only profiles ignore it.
	Weights map[int]float64

	// BossWave selects one BossTier monster plus low-tier support.
	BossWave bool
	BossTier int

	// EliteOnly selects exactly one elite unit of Faction among basics.
	EliteOnly bool
	Faction   string
}

// Validate checks the profile for configuration errors.
func (p DifficultyProfile) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return ErrEmptyProfileKey
	}
	if p.BossWave && p.EliteOnly {
		return ErrProfileFlagConflict
	}
	if p.BossWave {
		if p.BossTier <= 0 {
			return ErrInvalidBossTier
		}
		return nil
	}
	if p.EliteOnly {
		if strings.TrimSpace(p.Faction) == "" {
			return ErrEmptyFaction
		}
		return nil
	}

	if len(p.Weights) == 0 {
		return ErrNoTierWeights
	}
	sum := 0.0
	for tier, weight := range p.Weights {
		if tier <= 0 {
			return ErrInvalidTier
		}
		if weight <= 0 || weight > 1 {
			return ErrInvalidWeight
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return ErrWeightSum
	}
	return nil
}

// SortedTiers returns the profile's tiers in ascending order, the order
// in which the weighted draw walks the cumulative distribution.
func (p DifficultyProfile) SortedTiers() []int {
	tiers := make([]int, 0, len(p.Weights))
	for tier := range p.Weights {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)
	return tiers
}
