// Package service orchestrates the wave lifecycle: creation through the
// generator, participant enrollment, turn resolution, and terminal
// transitions, persisted with optimistic concurrency.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hollowshade/wavecore/internal/actors"
	"github.com/hollowshade/wavecore/internal/combat"
	"github.com/hollowshade/wavecore/internal/id"
	"github.com/hollowshade/wavecore/internal/random"
	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/telemetry"
	"github.com/hollowshade/wavecore/internal/wave/domain"
	"github.com/hollowshade/wavecore/internal/wave/event"
	"github.com/hollowshade/wavecore/internal/wave/generator"
)

var (
	// ErrWaveNotFound indicates the requested wave does not exist.
	ErrWaveNotFound = errors.New("wave not found")
	// ErrActorNotFound indicates the acting actor's record is missing.
	ErrActorNotFound = errors.New("actor not found")
	// ErrLocationMismatch indicates the actor is in a different region.
	ErrLocationMismatch = errors.New("actor is not in the wave's region")
	// ErrDisqualified indicates the actor carries a debuff barring combat.
	ErrDisqualified = errors.New("actor is disqualified from combat")
	// ErrNoEligibleParticipants indicates every roster member is down.
	ErrNoEligibleParticipants = errors.New("no participant is able to act")
	// ErrTransient indicates retries were exhausted; the caller may retry.
	ErrTransient = errors.New("transient failure, retry")
	// ErrPoolStoreNotConfigured indicates a pool wave without pool wiring.
	ErrPoolStoreNotConfigured = errors.New("pool store is not configured")
)

// maxSaveAttempts bounds the load-compute-save retry loop. Conflicts
// beyond this surface as ErrTransient.
const maxSaveAttempts = 3

// Manager drives wave aggregates through their lifecycle. All mutations
// follow the same discipline: load the current version, recompute against
// it, and save conditionally; a version conflict reloads and recomputes
// rather than retrying the stale write.
type Manager struct {
	waves     storage.WaveStore
	pools     storage.PoolStore
	actors    actors.Store
	generator *generator.Generator
	resolver  combat.Resolver
	publisher event.Publisher
	telemetry *telemetry.Emitter
	tracer    trace.Tracer
	clock     func() time.Time
	newID     func() (string, error)
	newSeed   func() (int64, error)
	rollDie   func() int
}

// Config wires a Manager's collaborators. Waves, Actors, Generator and
// Resolver are required; everything else has a working default.
type Config struct {
	Waves     storage.WaveStore
	Pools     storage.PoolStore
	Actors    actors.Store
	Generator *generator.Generator
	Resolver  combat.Resolver
	Publisher event.Publisher
	Telemetry *telemetry.Emitter
	Clock     func() time.Time
	NewID     func() (string, error)
	NewSeed   func() (int64, error)

	// RollDie produces the base turn roll in [1,100]. Tests inject a
	// scripted sequence here.
	RollDie func() int
}

// NewManager validates the wiring and constructs a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Waves == nil {
		return nil, errors.New("wave store is required")
	}
	if cfg.Actors == nil {
		return nil, errors.New("actor store is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("combat resolver is required")
	}
	if cfg.Publisher == nil {
		cfg.Publisher = event.NopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = id.NewID
	}
	if cfg.NewSeed == nil {
		cfg.NewSeed = random.NewSeed
	}
	if cfg.RollDie == nil {
		cfg.RollDie = func() int { return rand.Intn(100) + 1 }
	}
	return &Manager{
		waves:     cfg.Waves,
		pools:     cfg.Pools,
		actors:    cfg.Actors,
		generator: cfg.Generator,
		resolver:  cfg.Resolver,
		publisher: cfg.Publisher,
		telemetry: cfg.Telemetry,
		tracer:    otel.Tracer("wavecore.wave.service"),
		clock:     cfg.Clock,
		newID:     cfg.NewID,
		newSeed:   cfg.NewSeed,
		rollDie:   cfg.RollDie,
	}, nil
}

// CreateInput describes a new wave request. A nil Seed draws a fresh
// high-entropy seed; skirmish tooling passes one for reproducible runs.
type CreateInput struct {
	RegionKey     string
	Count         int
	DifficultyKey string
	Resource      domain.ResourceModel
	Seed          *int64
}

// Create generates the monster sequence and persists a new active wave.
func (m *Manager) Create(ctx context.Context, input CreateInput) (domain.Wave, error) {
	ctx, span := m.tracer.Start(ctx, "wave.create")
	defer span.End()

	resource := input.Resource
	if resource.Kind == domain.ResourceUnspecified {
		resource = domain.IndividualResource()
	}
	if resource.Pooled() {
		if m.pools == nil {
			return domain.Wave{}, ErrPoolStoreNotConfigured
		}
		if _, err := m.pools.GetPool(ctx, resource.PoolID); err != nil {
			return domain.Wave{}, fmt.Errorf("shared pool %q: %w", resource.PoolID, err)
		}
	}

	var seed int64
	if input.Seed != nil {
		seed = *input.Seed
	} else {
		var err error
		if seed, err = m.newSeed(); err != nil {
			return domain.Wave{}, fmt.Errorf("draw wave seed: %w", err)
		}
	}
	monsters, err := m.generator.Generate(ctx, generator.Request{
		RegionKey:     input.RegionKey,
		Count:         input.Count,
		DifficultyKey: input.DifficultyKey,
		Seed:          seed,
	})
	if err != nil {
		return domain.Wave{}, err
	}

	wave, err := domain.NewWave(domain.NewWaveInput{
		RegionKey:     input.RegionKey,
		DifficultyKey: input.DifficultyKey,
		Monsters:      monsters,
		Resource:      resource,
	}, m.clock, m.newID)
	if err != nil {
		return domain.Wave{}, err
	}
	if err := m.waves.CreateWave(ctx, wave); err != nil {
		return domain.Wave{}, fmt.Errorf("create wave: %w", err)
	}

	m.publish(ctx, event.TypeWaveCreated, wave.ID, event.WaveCreated{
		RegionKey:     wave.RegionKey,
		DifficultyKey: wave.DifficultyKey,
		MonsterCount:  len(wave.Monsters),
	})
	log.Printf("wave created wave_id=%s region=%s difficulty=%s monsters=%d",
		wave.ID, wave.RegionKey, wave.DifficultyKey, len(wave.Monsters))
	return wave, nil
}

// Get loads a wave by id.
func (m *Manager) Get(ctx context.Context, waveID string) (domain.Wave, error) {
	wave, _, err := m.loadWave(ctx, waveID)
	return wave, err
}

// Join enrolls the actor in the wave. The actor must share the wave's
// region, carry no disqualifying debuff, and not already be enrolled.
func (m *Manager) Join(ctx context.Context, waveID, actorID string) (domain.Wave, error) {
	ctx, span := m.tracer.Start(ctx, "wave.join")
	defer span.End()

	actor, err := m.actors.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, actors.ErrNotFound) {
			return domain.Wave{}, fmt.Errorf("%w: %s", ErrActorNotFound, actorID)
		}
		return domain.Wave{}, fmt.Errorf("get actor %q: %w", actorID, err)
	}
	if actor.Debuffed {
		return domain.Wave{}, ErrDisqualified
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		wave, version, err := m.loadWave(ctx, waveID)
		if err != nil {
			return domain.Wave{}, err
		}
		if actor.RegionKey != wave.RegionKey {
			return domain.Wave{}, ErrLocationMismatch
		}

		participant, err := domain.NewParticipant(domain.NewParticipantInput{
			UserID:     actor.UserID,
			ActorID:    actor.ID,
			Name:       actor.Name,
			Privileged: actor.Privileged,
			Snapshot: domain.CombatSnapshot{
				Attack:    actor.Attack,
				Defense:   actor.Defense,
				Hearts:    actor.Hearts,
				MaxHearts: actor.MaxHearts,
			},
		})
		if err != nil {
			return domain.Wave{}, err
		}
		if err := wave.Join(participant); err != nil {
			return domain.Wave{}, err
		}
		wave.Touch(m.clock)

		if err := m.waves.SaveWave(ctx, wave, version); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				continue
			}
			return domain.Wave{}, fmt.Errorf("save wave: %w", err)
		}

		m.publish(ctx, event.TypeParticipantJoined, wave.ID, event.ParticipantJoined{
			UserID:        participant.UserID,
			Name:          participant.Name,
			JoinedAtStart: len(wave.Defeated) == 0 && wave.CurrentMonsterIndex == 0,
		})
		return wave, nil
	}
	return domain.Wave{}, ErrTransient
}

// TurnResult reports the outcome of one resolved turn.
type TurnResult struct {
	Wave            domain.Wave
	Outcome         combat.Outcome
	MonsterDefeated bool
	WaveCompleted   bool
	WaveFailed      bool
}

// TakeTurn resolves one combat turn for the given user. The whole turn
// recomputes from a fresh load on every optimistic-concurrency conflict,
// so a stale turn naturally fails the turn-holder check on retry.
func (m *Manager) TakeTurn(ctx context.Context, waveID, userID string) (TurnResult, error) {
	ctx, span := m.tracer.Start(ctx, "wave.take_turn")
	defer span.End()

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		result, retry, err := m.takeTurnOnce(ctx, waveID, userID)
		if retry {
			continue
		}
		return result, err
	}
	return TurnResult{}, ErrTransient
}

// takeTurnOnce runs one load-compute-save cycle. retry is true when the
// conditional save lost to a concurrent writer.
func (m *Manager) takeTurnOnce(ctx context.Context, waveID, userID string) (result TurnResult, retry bool, err error) {
	wave, version, err := m.loadWave(ctx, waveID)
	if err != nil {
		return TurnResult{}, false, err
	}
	if wave.Status != domain.StatusActive {
		return TurnResult{}, false, domain.ErrWaveNotActive
	}

	monster, err := wave.CurrentMonster()
	if err != nil {
		// A malformed current monster means the wave cannot safely
		// continue; fail it before surfacing the integrity error.
		retry, failErr := m.failInPlace(ctx, &wave, version, "invalid monster state")
		if failErr != nil {
			return TurnResult{}, retry, failErr
		}
		return TurnResult{}, retry, err
	}

	if len(wave.Participants) == 0 {
		retry, failErr := m.failInPlace(ctx, &wave, version, "no participants")
		if failErr != nil {
			return TurnResult{}, retry, failErr
		}
		return TurnResult{}, retry, domain.ErrNoParticipants
	}

	sink := m.sinkFor(&wave)
	depleted, err := sink.Depleted(ctx)
	if err != nil {
		return TurnResult{}, false, err
	}
	if depleted {
		if err := sink.Drain(ctx); err != nil {
			return TurnResult{}, false, err
		}
		retry, failErr := m.failInPlace(ctx, &wave, version, "party incapacitated")
		if failErr != nil {
			return TurnResult{}, retry, failErr
		}
		return TurnResult{}, retry, ErrNoEligibleParticipants
	}

	index, participant, ok := wave.ParticipantByUser(userID)
	if !ok {
		return TurnResult{}, false, domain.ErrNotParticipant
	}
	if !participant.Privileged && !wave.TurnHolder(index) {
		return TurnResult{}, false, domain.ErrNotParticipantsTurn
	}

	// Combat stats are equipment-derived and may change between turns;
	// always resolve against the live actor record.
	actor, err := m.actors.Get(ctx, participant.ActorID)
	if err != nil {
		if errors.Is(err, actors.ErrNotFound) {
			return m.removeStaleParticipant(ctx, &wave, version, userID)
		}
		return TurnResult{}, false, fmt.Errorf("get actor %q: %w", participant.ActorID, err)
	}

	roll := combat.PenalizeRoll(m.rollDie(), len(wave.Participants), monster.Tier)
	outcome, err := m.resolver.Resolve(ctx,
		combat.ActorStats{Attack: actor.Attack, Defense: actor.Defense},
		combat.MonsterStats{Tier: monster.Tier, Hearts: monster.CurrentHearts},
		roll)
	if err != nil {
		return TurnResult{}, false, fmt.Errorf("resolve turn: %w", err)
	}

	applied, err := wave.DamageCurrentMonster(outcome.DamageToMonster)
	if err != nil {
		return TurnResult{}, false, err
	}
	participant.AccumulatedDamage += applied
	if outcome.DamageToActor > 0 {
		if err := sink.Damage(ctx, participant.ActorID, outcome.DamageToActor); err != nil {
			return TurnResult{}, false, err
		}
	}

	result = TurnResult{Outcome: outcome}
	acting := *participant
	if monster.Defeated() {
		result.MonsterDefeated = true
		completed, err := wave.RecordDefeat(acting, m.clock)
		if err != nil {
			return TurnResult{}, false, err
		}
		result.WaveCompleted = completed
	}
	if wave.Status == domain.StatusActive {
		wave.AdvanceTurn()
	}

	// Re-check party liveness against post-damage state. A wipe fails
	// the wave regardless of how the monster fared.
	if wave.Status == domain.StatusActive {
		depleted, err := sink.Depleted(ctx)
		if err != nil {
			return TurnResult{}, false, err
		}
		if depleted {
			if err := sink.Drain(ctx); err != nil {
				return TurnResult{}, false, err
			}
			wave.Fail(m.clock)
			result.WaveFailed = true
		}
	}

	wave.Touch(m.clock)
	if err := m.waves.SaveWave(ctx, wave, version); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			return TurnResult{}, true, nil
		}
		return TurnResult{}, false, fmt.Errorf("save wave: %w", err)
	}
	result.Wave = wave

	m.publish(ctx, event.TypeTurnTaken, wave.ID, event.TurnTaken{
		UserID:          acting.UserID,
		Roll:            outcome.Roll,
		DamageToMonster: outcome.DamageToMonster,
		DamageToActor:   outcome.DamageToActor,
		MonsterName:     monster.Name,
		MonsterHearts:   monster.CurrentHearts,
	})
	if result.MonsterDefeated {
		m.publish(ctx, event.TypeMonsterDefeated, wave.ID, event.MonsterDefeated{
			MonsterName: monster.Name,
			DefeatedBy:  acting.Name,
			Remaining:   len(wave.Monsters) - wave.CurrentMonsterIndex,
		})
	}
	if result.WaveCompleted {
		m.recordCompleted(ctx, wave)
	}
	if result.WaveFailed {
		m.recordFailed(ctx, wave, "party incapacitated")
	}
	return result, false, nil
}

// Complete finalizes a wave as completed. Calling it on a terminal wave
// is a no-op, not an error.
func (m *Manager) Complete(ctx context.Context, waveID string) (domain.Wave, error) {
	ctx, span := m.tracer.Start(ctx, "wave.complete")
	defer span.End()

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		wave, version, err := m.loadWave(ctx, waveID)
		if err != nil {
			return domain.Wave{}, err
		}
		if !wave.ForceComplete(m.clock) {
			return wave, nil
		}
		if err := m.waves.SaveWave(ctx, wave, version); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				continue
			}
			return domain.Wave{}, fmt.Errorf("save wave: %w", err)
		}
		m.recordCompleted(ctx, wave)
		return wave, nil
	}
	return domain.Wave{}, ErrTransient
}

// Fail finalizes a wave as failed. Calling it on a terminal wave is a
// no-op, not an error. Pool waves have their pool forced to zero.
func (m *Manager) Fail(ctx context.Context, waveID, reason string) (domain.Wave, error) {
	ctx, span := m.tracer.Start(ctx, "wave.fail")
	defer span.End()

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		wave, version, err := m.loadWave(ctx, waveID)
		if err != nil {
			return domain.Wave{}, err
		}
		if !wave.Fail(m.clock) {
			return wave, nil
		}
		if err := m.sinkFor(&wave).Drain(ctx); err != nil {
			return domain.Wave{}, err
		}
		if err := m.waves.SaveWave(ctx, wave, version); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				continue
			}
			return domain.Wave{}, fmt.Errorf("save wave: %w", err)
		}
		m.recordFailed(ctx, wave, reason)
		return wave, nil
	}
	return domain.Wave{}, ErrTransient
}

// removeStaleParticipant self-heals a roster entry whose actor record is
// gone, failing the wave when the removal empties the roster.
func (m *Manager) removeStaleParticipant(ctx context.Context, wave *domain.Wave, version int64, userID string) (TurnResult, bool, error) {
	wave.RemoveParticipant(userID)
	emptied := len(wave.Participants) == 0
	if emptied {
		wave.Fail(m.clock)
	}
	wave.Touch(m.clock)
	if err := m.waves.SaveWave(ctx, *wave, version); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			return TurnResult{}, true, nil
		}
		return TurnResult{}, false, fmt.Errorf("save wave: %w", err)
	}

	m.publish(ctx, event.TypeParticipantRemoved, wave.ID, event.ParticipantRemoved{
		UserID: userID,
		Reason: "actor record missing",
	})
	log.Printf("participant removed wave_id=%s user_id=%s reason=%s", wave.ID, userID, "actor record missing")
	if emptied {
		m.recordFailed(ctx, *wave, "last participant removed")
	}
	return TurnResult{}, false, fmt.Errorf("%w: participant %s removed", ErrActorNotFound, userID)
}

// failInPlace persists a fail-safe transition discovered mid-turn.
// retry is true when a concurrent writer got there first.
func (m *Manager) failInPlace(ctx context.Context, wave *domain.Wave, version int64, reason string) (bool, error) {
	if !wave.Fail(m.clock) {
		return false, nil
	}
	wave.Touch(m.clock)
	if err := m.waves.SaveWave(ctx, *wave, version); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			return true, nil
		}
		return false, fmt.Errorf("save wave: %w", err)
	}
	m.recordFailed(ctx, *wave, reason)
	return false, nil
}

func (m *Manager) loadWave(ctx context.Context, waveID string) (domain.Wave, int64, error) {
	wave, version, err := m.waves.LoadWave(ctx, waveID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Wave{}, 0, fmt.Errorf("%w: %s", ErrWaveNotFound, waveID)
		}
		return domain.Wave{}, 0, fmt.Errorf("load wave %q: %w", waveID, err)
	}
	return wave, version, nil
}

func (m *Manager) publish(ctx context.Context, eventType event.Type, waveID string, payload any) {
	m.publisher.Publish(ctx, event.Event{
		Type:       eventType,
		WaveID:     waveID,
		OccurredAt: m.clock().UTC(),
		Payload:    payload,
	})
}

func (m *Manager) recordCompleted(ctx context.Context, wave domain.Wave) {
	m.publish(ctx, event.TypeWaveCompleted, wave.ID, event.WaveCompleted{
		TotalDamage:      wave.Analytics.TotalDamage,
		ParticipantCount: wave.Analytics.ParticipantCount,
	})
	if err := m.telemetry.Emit(ctx, storage.TelemetryEvent{
		Name:     string(event.TypeWaveCompleted),
		WaveID:   wave.ID,
		Severity: string(telemetry.SeverityInfo),
	}); err != nil {
		log.Printf("telemetry emit failed wave_id=%s err=%v", wave.ID, err)
	}
	log.Printf("wave completed wave_id=%s total_damage=%d participants=%d",
		wave.ID, wave.Analytics.TotalDamage, wave.Analytics.ParticipantCount)
}

func (m *Manager) recordFailed(ctx context.Context, wave domain.Wave, reason string) {
	m.publish(ctx, event.TypeWaveFailed, wave.ID, event.WaveFailed{Reason: reason})
	if err := m.telemetry.Emit(ctx, storage.TelemetryEvent{
		Name:     string(event.TypeWaveFailed),
		WaveID:   wave.ID,
		Severity: string(telemetry.SeverityWarn),
		Fields:   map[string]string{"reason": reason},
	}); err != nil {
		log.Printf("telemetry emit failed wave_id=%s err=%v", wave.ID, err)
	}
	log.Printf("wave failed wave_id=%s reason=%s", wave.ID, reason)
}
