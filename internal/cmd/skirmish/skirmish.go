// Package skirmish runs a self-contained encounter simulation against
// in-memory stores, useful for eyeballing generator output and pacing.
package skirmish

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"

	"github.com/hollowshade/wavecore/internal/actors"
	actorsmem "github.com/hollowshade/wavecore/internal/actors/memory"
	"github.com/hollowshade/wavecore/internal/catalog"
	"github.com/hollowshade/wavecore/internal/combat"
	entrypoint "github.com/hollowshade/wavecore/internal/platform/cmd"
	"github.com/hollowshade/wavecore/internal/random"
	"github.com/hollowshade/wavecore/internal/storage"
	memorystore "github.com/hollowshade/wavecore/internal/storage/memory"
	"github.com/hollowshade/wavecore/internal/telemetry"
	"github.com/hollowshade/wavecore/internal/wave/domain"
	"github.com/hollowshade/wavecore/internal/wave/generator"
	"github.com/hollowshade/wavecore/internal/wave/service"
)

// Config holds skirmish command configuration.
type Config struct {
	Region     string `env:"WAVECORE_SKIRMISH_REGION" envDefault:"eldin"`
	Count      int    `env:"WAVECORE_SKIRMISH_COUNT" envDefault:"5"`
	Difficulty string `env:"WAVECORE_SKIRMISH_DIFFICULTY" envDefault:"normal"`
	Party      int    `env:"WAVECORE_SKIRMISH_PARTY" envDefault:"2"`
	Seed       int64  `env:"WAVECORE_SKIRMISH_SEED"`
	Pool       bool   `env:"WAVECORE_SKIRMISH_POOL"`
	PoolHearts int    `env:"WAVECORE_SKIRMISH_POOL_HEARTS" envDefault:"30"`
	MaxTurns   int    `env:"WAVECORE_SKIRMISH_MAX_TURNS" envDefault:"500"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Region, "region", cfg.Region, "Region whose monster catalog to draw from")
	fs.IntVar(&cfg.Count, "count", cfg.Count, "Number of monsters in the wave")
	fs.StringVar(&cfg.Difficulty, "difficulty", cfg.Difficulty, "Difficulty profile key")
	fs.IntVar(&cfg.Party, "party", cfg.Party, "Number of simulated party members")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 = random)")
	fs.BoolVar(&cfg.Pool, "pool", cfg.Pool, "Use a shared hit-point pool instead of individual hearts")
	fs.IntVar(&cfg.PoolHearts, "pool-hearts", cfg.PoolHearts, "Shared pool size when -pool is set")
	fs.IntVar(&cfg.MaxTurns, "max-turns", cfg.MaxTurns, "Abort the simulation after this many turns")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run simulates a full encounter and writes a per-turn log to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.Party <= 0 {
		return fmt.Errorf("party size must be positive, got %d", cfg.Party)
	}
	if cfg.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", cfg.MaxTurns)
	}

	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return fmt.Errorf("draw simulation seed: %w", err)
		}
	}
	rng := rand.New(rand.NewSource(seed))

	static, err := catalog.NewStatic()
	if err != nil {
		return fmt.Errorf("load monster catalog: %w", err)
	}
	gen, err := generator.New(static, generator.DefaultProfiles())
	if err != nil {
		return fmt.Errorf("build generator: %w", err)
	}

	store := memorystore.NewStore()
	actorStore := actorsmem.NewStore()
	party := make([]actors.Record, 0, cfg.Party)
	for i := 1; i <= cfg.Party; i++ {
		record := actors.Record{
			ID:        fmt.Sprintf("sim-actor-%d", i),
			UserID:    fmt.Sprintf("sim-user-%d", i),
			Name:      fmt.Sprintf("Sim Hero %d", i),
			RegionKey: cfg.Region,
			Hearts:    20,
			MaxHearts: 20,
			Attack:    5 + rng.Intn(6),
			Defense:   5 + rng.Intn(6),
		}
		if err := actorStore.Put(record); err != nil {
			return fmt.Errorf("seed party member %s: %w", record.ID, err)
		}
		party = append(party, record)
	}

	manager, err := service.NewManager(service.Config{
		Waves:     store,
		Pools:     store,
		Actors:    actorStore,
		Generator: gen,
		Resolver:  combat.NewDefaultResolver(),
		Telemetry: telemetry.NewEmitter(store),
		NewSeed:   func() (int64, error) { return seed, nil },
		RollDie:   func() int { return rng.Intn(100) + 1 },
	})
	if err != nil {
		return fmt.Errorf("build lifecycle manager: %w", err)
	}

	resource := domain.IndividualResource()
	if cfg.Pool {
		resource = domain.SharedPoolResource("sim-pool")
		pool := storage.Pool{ID: "sim-pool", Current: cfg.PoolHearts, Max: cfg.PoolHearts}
		if err := store.PutPool(ctx, pool); err != nil {
			return fmt.Errorf("seed shared pool: %w", err)
		}
	}

	wave, err := manager.Create(ctx, service.CreateInput{
		RegionKey:     cfg.Region,
		Count:         cfg.Count,
		DifficultyKey: cfg.Difficulty,
		Resource:      resource,
		Seed:          &seed,
	})
	if err != nil {
		return fmt.Errorf("create wave: %w", err)
	}

	fmt.Fprintf(out, "wave %s region=%s difficulty=%s seed=%d\n", wave.ID, cfg.Region, cfg.Difficulty, seed)
	for i, monster := range wave.Monsters {
		fmt.Fprintf(out, "  slot %d: %s (tier %d, %d hearts)\n", i, monster.Name, monster.Tier, monster.MaxHearts)
	}

	for _, member := range party {
		if wave, err = manager.Join(ctx, wave.ID, member.ID); err != nil {
			return fmt.Errorf("join %s: %w", member.ID, err)
		}
		fmt.Fprintf(out, "joined %s attack=%d defense=%d\n", member.Name, member.Attack, member.Defense)
	}

	turns := 0
	for wave.Status == domain.StatusActive {
		if turns >= cfg.MaxTurns {
			return fmt.Errorf("simulation did not terminate within %d turns", cfg.MaxTurns)
		}
		turns++

		holder := wave.Participants[wave.CurrentTurnIndex]
		result, err := manager.TakeTurn(ctx, wave.ID, holder.UserID)
		if err != nil {
			return fmt.Errorf("turn %d (%s): %w", turns, holder.UserID, err)
		}
		wave = result.Wave

		verdict := "miss"
		if result.Outcome.AttackSuccess {
			verdict = "hit"
		}
		if result.MonsterDefeated {
			verdict = "defeat"
		}
		fmt.Fprintf(out, "turn %3d %-12s roll=%3d %-6s dealt=%d taken=%d remaining=%d\n",
			turns, holder.Name, result.Outcome.Roll, verdict,
			result.Outcome.DamageToMonster, result.Outcome.DamageToActor,
			len(wave.Monsters)-len(wave.Defeated))
	}

	fmt.Fprintf(out, "wave %s: %s after %d turns, %d/%d monsters defeated, total damage %d\n",
		wave.ID, wave.Status, turns, len(wave.Defeated), len(wave.Monsters), wave.Analytics.TotalDamage)
	return nil
}
