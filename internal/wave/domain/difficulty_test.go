package domain

import (
	"errors"
	"testing"
)

func TestDifficultyProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile DifficultyProfile
		err     error
	}{
		{
			name:    "valid standard",
			profile: DifficultyProfile{Key: "easy", Weights: map[int]float64{1: 0.3, 2: 0.35, 3: 0.25, 4: 0.1}},
		},
		{
			name:    "valid boss",
			profile: DifficultyProfile{Key: "boss", BossWave: true, BossTier: 8},
		},
		{
			name:    "valid elite only",
			profile: DifficultyProfile{Key: "elite-yiga", EliteOnly: true, Faction: "yiga"},
		},
		{
			name:    "empty key",
			profile: DifficultyProfile{Weights: map[int]float64{1: 1}},
			err:     ErrEmptyProfileKey,
		},
		{
			name:    "both flags",
			profile: DifficultyProfile{Key: "broken", BossWave: true, BossTier: 8, EliteOnly: true, Faction: "yiga"},
			err:     ErrProfileFlagConflict,
		},
		{
			name:    "boss without tier",
			profile: DifficultyProfile{Key: "boss", BossWave: true},
			err:     ErrInvalidBossTier,
		},
		{
			name:    "elite without faction",
			profile: DifficultyProfile{Key: "elite", EliteOnly: true},
			err:     ErrEmptyFaction,
		},
		{
			name:    "standard without weights",
			profile: DifficultyProfile{Key: "bare"},
			err:     ErrNoTierWeights,
		},
		{
			name:    "weights not summing to one",
			profile: DifficultyProfile{Key: "lopsided", Weights: map[int]float64{1: 0.5, 2: 0.2}},
			err:     ErrWeightSum,
		},
		{
			name:    "non-positive weight",
			profile: DifficultyProfile{Key: "zero", Weights: map[int]float64{1: 0, 2: 1.0}},
			err:     ErrInvalidWeight,
		},
		{
			name:    "non-positive tier",
			profile: DifficultyProfile{Key: "tier0", Weights: map[int]float64{0: 1.0}},
			err:     ErrInvalidTier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.err == nil {
				if err != nil {
					t.Fatalf("expected valid profile, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestSortedTiersAscending(t *testing.T) {
	profile := DifficultyProfile{Key: "mixed", Weights: map[int]float64{4: 0.1, 1: 0.3, 3: 0.25, 2: 0.35}}
	tiers := profile.SortedTiers()
	want := []int{1, 2, 3, 4}
	if len(tiers) != len(want) {
		t.Fatalf("expected %d tiers, got %d", len(want), len(tiers))
	}
	for i := range want {
		if tiers[i] != want[i] {
			t.Fatalf("expected tier %d at position %d, got %d", want[i], i, tiers[i])
		}
	}
}
