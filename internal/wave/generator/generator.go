// Package generator composes the ordered monster sequence for a new wave.
//
// Composition is driven by a difficulty profile: standard profiles draw
// monsters by tier weight with species grouping, boss profiles place a
// single boss among low-tier support, and elite-only profiles seed one
// elite unit into a squad of the faction's basic troops. All draws come
// from a caller-seeded PRNG so a generated wave is reproducible.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/hollowshade/wavecore/internal/catalog"
	"github.com/hollowshade/wavecore/internal/wave/domain"
)

var (
	// ErrUnknownDifficulty indicates a request with an unconfigured profile key.
	ErrUnknownDifficulty = errors.New("unknown difficulty profile")
	// ErrNoCandidates indicates the region's catalog cannot satisfy the profile.
	ErrNoCandidates = errors.New("no candidate monsters for profile in region")
	// ErrInvalidCount indicates a non-positive monster count.
	ErrInvalidCount = errors.New("monster count must be positive")
)

// Species-grouping tuning. Runs of the same species are kept between two
// and three monsters long, continuing past the minimum with fixed odds.
const (
	minGroupSize          = 2
	maxGroupSize          = 3
	groupContinuationOdds = 0.6
)

// supportWeights is the fixed low-tier distribution backing a boss wave's
// escort monsters.
var supportWeights = map[int]float64{1: 0.4, 2: 0.3, 3: 0.2, 4: 0.1}

// Request describes one generation call. Generation is deterministic
// given Seed.
type Request struct {
	RegionKey     string
	Count         int
	DifficultyKey string
	Seed          int64
}

// Generator draws monster sequences from a region catalog according to
// configured difficulty profiles.
type Generator struct {
	catalog  catalog.Provider
	profiles map[string]domain.DifficultyProfile
}

// New creates a generator over the given catalog and profile set. Every
// profile is validated up front so generation never sees a bad table.
func New(provider catalog.Provider, profiles map[string]domain.DifficultyProfile) (*Generator, error) {
	if provider == nil {
		return nil, errors.New("catalog provider is required")
	}
	if len(profiles) == 0 {
		return nil, errors.New("at least one difficulty profile is required")
	}
	for key, profile := range profiles {
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", key, err)
		}
	}
	return &Generator{catalog: provider, profiles: profiles}, nil
}

// DefaultProfiles returns the stock difficulty table used by the server
// and the skirmish CLI.
func DefaultProfiles() map[string]domain.DifficultyProfile {
	return map[string]domain.DifficultyProfile{
		"easy": {
			Key:     "easy",
			Weights: map[int]float64{2: 0.4, 3: 0.3, 4: 0.2, 5: 0.1},
		},
		"normal": {
			Key:     "normal",
			Weights: map[int]float64{2: 0.2, 3: 0.3, 4: 0.3, 5: 0.2},
		},
		"hard": {
			Key:     "hard",
			Weights: map[int]float64{3: 0.2, 4: 0.3, 5: 0.5},
		},
		"boss": {
			Key:      "boss",
			BossWave: true,
			BossTier: 8,
		},
		"elite-yiga": {
			Key:       "elite-yiga",
			EliteOnly: true,
			Faction:   "yiga",
		},
	}
}

// Generate returns Count monsters for the region in encounter order:
// the element at index 0 is fought first.
func (g *Generator) Generate(ctx context.Context, req Request) ([]domain.MonsterInstance, error) {
	if req.Count <= 0 {
		return nil, ErrInvalidCount
	}
	profile, ok := g.profiles[req.DifficultyKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, req.DifficultyKey)
	}

	templates, err := g.catalog.ListByRegion(ctx, req.RegionKey)
	if err != nil {
		return nil, fmt.Errorf("list region %q: %w", req.RegionKey, err)
	}

	rng := rand.New(rand.NewSource(req.Seed))
	switch {
	case profile.BossWave:
		return generateBossWave(rng, templates, profile, req.Count)
	case profile.EliteOnly:
		return generateEliteWave(rng, templates, profile, req.Count)
	default:
		return generateStandardWave(rng, templates, profile, req.Count)
	}
}

// generateStandardWave fills count slots by tier-weighted draws with
// species grouping: monsters arrive in short same-species runs instead
// of a fully shuffled sequence.
func generateStandardWave(rng *rand.Rand, templates []domain.MonsterTemplate, profile domain.DifficultyProfile, count int) ([]domain.MonsterInstance, error) {
	candidates := filterStandardCandidates(templates, profile)
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	tiers := profile.SortedTiers()

	species := speciesKeys(candidates)
	monsters := make([]domain.MonsterInstance, 0, count)

	currentSpecies := ""
	runLength := 0
	for len(monsters) < count {
		if currentSpecies == "" {
			first := tierWeightedDraw(rng, candidates, profile.Weights, tiers)
			monsters = append(monsters, first.Instantiate())
			currentSpecies = first.SpeciesKey
			runLength = 1
			continue
		}

		continueRun := runLength < minGroupSize ||
			(runLength < maxGroupSize && rng.Float64() < groupContinuationOdds)
		if continueRun {
			pool := filterSpecies(candidates, currentSpecies)
			next := tierWeightedDraw(rng, pool, profile.Weights, tiers)
			monsters = append(monsters, next.Instantiate())
			runLength++
			continue
		}

		nextSpecies := pickNewSpecies(rng, species, currentSpecies)
		pool := filterSpecies(candidates, nextSpecies)
		next := tierWeightedDraw(rng, pool, profile.Weights, tiers)
		monsters = append(monsters, next.Instantiate())
		currentSpecies = nextSpecies
		runLength = 1
	}
	return monsters, nil
}

// generateBossWave selects one boss at the profile's boss tier (or the
// nearest populated tier above it) and escorts it with count-1 low-tier
// support monsters, inserting the boss at a random position.
func generateBossWave(rng *rand.Rand, templates []domain.MonsterTemplate, profile domain.DifficultyProfile, count int) ([]domain.MonsterInstance, error) {
	bosses := bossCandidates(templates, profile.BossTier)
	if len(bosses) == 0 {
		return nil, ErrNoCandidates
	}
	boss := bosses[rng.Intn(len(bosses))]

	support := make([]domain.MonsterTemplate, 0, len(templates))
	for _, t := range templates {
		if t.Rank != domain.RankElite && t.Tier >= 1 && t.Tier <= 4 {
			support = append(support, t)
		}
	}
	if count > 1 && len(support) == 0 {
		return nil, ErrNoCandidates
	}

	supportTiers := []int{1, 2, 3, 4}
	monsters := make([]domain.MonsterInstance, 0, count)
	for i := 0; i < count-1; i++ {
		drawn := tierWeightedDraw(rng, support, supportWeights, supportTiers)
		monsters = append(monsters, drawn.Instantiate())
	}

	at := rng.Intn(count)
	monsters = append(monsters, domain.MonsterInstance{})
	copy(monsters[at+1:], monsters[at:])
	monsters[at] = boss.Instantiate()
	return monsters, nil
}

// generateEliteWave fills the sequence with the faction's basic unit and,
// when the wave has room and the faction fields an elite, replaces one
// slot near the end with the elite.
func generateEliteWave(rng *rand.Rand, templates []domain.MonsterTemplate, profile domain.DifficultyProfile, count int) ([]domain.MonsterInstance, error) {
	var basics, elites []domain.MonsterTemplate
	for _, t := range templates {
		if t.Faction != profile.Faction {
			continue
		}
		switch t.Rank {
		case domain.RankElite:
			elites = append(elites, t)
		default:
			basics = append(basics, t)
		}
	}
	if len(basics) == 0 {
		return nil, ErrNoCandidates
	}

	monsters := make([]domain.MonsterInstance, count)
	for i := range monsters {
		monsters[i] = basics[rng.Intn(len(basics))].Instantiate()
	}
	if count > 1 && len(elites) > 0 {
		at := endBiasedIndex(rng, count)
		monsters[at] = elites[rng.Intn(len(elites))].Instantiate()
	}
	return monsters, nil
}

// tierWeightedDraw rolls a uniform [0,1) value, walks tiers in ascending
// order accumulating probability mass, and picks uniformly among the
// candidates of the first tier whose cumulative mass covers the roll.
// An unpopulated tier falls back to a uniform pick over all candidates.
func tierWeightedDraw(rng *rand.Rand, candidates []domain.MonsterTemplate, weights map[int]float64, tiers []int) domain.MonsterTemplate {
	roll := rng.Float64()
	chosen := tiers[len(tiers)-1]
	cumulative := 0.0
	for _, tier := range tiers {
		cumulative += weights[tier]
		if cumulative >= roll {
			chosen = tier
			break
		}
	}

	var pool []domain.MonsterTemplate
	for _, t := range candidates {
		if t.Tier == chosen {
			pool = append(pool, t)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}
	return pool[rng.Intn(len(pool))]
}

// endBiasedIndex returns a random index in [0, count) biased toward the
// end of the range: the max of two uniform draws.
func endBiasedIndex(rng *rand.Rand, count int) int {
	return max(rng.Intn(count), rng.Intn(count))
}

func filterStandardCandidates(templates []domain.MonsterTemplate, profile domain.DifficultyProfile) []domain.MonsterTemplate {
	var out []domain.MonsterTemplate
	for _, t := range templates {
		if t.Rank == domain.RankElite {
			continue
		}
		if _, ok := profile.Weights[t.Tier]; !ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func filterSpecies(candidates []domain.MonsterTemplate, species string) []domain.MonsterTemplate {
	var out []domain.MonsterTemplate
	for _, t := range candidates {
		if t.SpeciesKey == species {
			out = append(out, t)
		}
	}
	return out
}

// speciesKeys returns the distinct species present, in first-seen order
// so draws stay deterministic for a fixed seed.
func speciesKeys(candidates []domain.MonsterTemplate) []string {
	seen := make(map[string]bool, len(candidates))
	var keys []string
	for _, t := range candidates {
		if !seen[t.SpeciesKey] {
			seen[t.SpeciesKey] = true
			keys = append(keys, t.SpeciesKey)
		}
	}
	return keys
}

// pickNewSpecies draws a species distinct from current when any other
// exists; a single-species catalog keeps the run going.
func pickNewSpecies(rng *rand.Rand, species []string, current string) string {
	if len(species) == 1 {
		return species[0]
	}
	for {
		next := species[rng.Intn(len(species))]
		if next != current {
			return next
		}
	}
}

// bossCandidates returns non-elite templates at exactly bossTier, or at
// the nearest populated tier above it when the exact tier is empty.
func bossCandidates(templates []domain.MonsterTemplate, bossTier int) []domain.MonsterTemplate {
	best := -1
	var out []domain.MonsterTemplate
	for _, t := range templates {
		if t.Rank == domain.RankElite || t.Tier < bossTier {
			continue
		}
		if best == -1 || t.Tier < best {
			best = t.Tier
			out = out[:0]
		}
		if t.Tier == best {
			out = append(out, t)
		}
	}
	return out
}
