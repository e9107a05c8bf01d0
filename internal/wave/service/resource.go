package service

import (
	"context"
	"fmt"

	"github.com/hollowshade/wavecore/internal/actors"
	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/wave/domain"
)

// resourceSink abstracts where party damage lands so turn resolution
// never branches on the encounter kind. Individual waves route damage to
// the acting actor's record; pool waves route it to the shared pool.
type resourceSink interface {
	// Damage applies counterstrike damage on behalf of actorID.
	Damage(ctx context.Context, actorID string, amount int) error
	// Depleted reports whether the party has no hit points left to fight with.
	Depleted(ctx context.Context) (bool, error)
	// Drain zeroes the party's resource on a failed wave. A no-op for
	// individual waves.
	Drain(ctx context.Context) error
}

func (m *Manager) sinkFor(wave *domain.Wave) resourceSink {
	if wave.Resource.Pooled() {
		return &poolSink{pools: m.pools, poolID: wave.Resource.PoolID}
	}
	return &individualSink{actors: m.actors, wave: wave}
}

// individualSink applies damage to personal actor records. The party is
// depleted when every enrolled actor is incapacitated.
type individualSink struct {
	actors actors.Store
	wave   *domain.Wave
}

func (s *individualSink) Damage(ctx context.Context, actorID string, amount int) error {
	if err := s.actors.ApplyDamage(ctx, actorID, amount); err != nil {
		return fmt.Errorf("apply damage to actor %q: %w", actorID, err)
	}
	return nil
}

func (s *individualSink) Depleted(ctx context.Context) (bool, error) {
	if len(s.wave.Participants) == 0 {
		return true, nil
	}
	for _, p := range s.wave.Participants {
		down, err := s.actors.IsIncapacitated(ctx, p.ActorID)
		if err != nil {
			return false, fmt.Errorf("check actor %q: %w", p.ActorID, err)
		}
		if !down {
			return false, nil
		}
	}
	return true, nil
}

func (s *individualSink) Drain(ctx context.Context) error {
	return nil
}

// poolSink applies damage to the expedition's shared hit-point pool,
// which is authoritative over individual hearts for pool waves.
type poolSink struct {
	pools  storage.PoolStore
	poolID string
}

func (s *poolSink) Damage(ctx context.Context, actorID string, amount int) error {
	if s.pools == nil {
		return ErrPoolStoreNotConfigured
	}
	if _, err := s.pools.ApplyPoolDamage(ctx, s.poolID, amount); err != nil {
		return fmt.Errorf("apply damage to pool %q: %w", s.poolID, err)
	}
	return nil
}

func (s *poolSink) Depleted(ctx context.Context) (bool, error) {
	if s.pools == nil {
		return false, ErrPoolStoreNotConfigured
	}
	pool, err := s.pools.GetPool(ctx, s.poolID)
	if err != nil {
		return false, fmt.Errorf("get pool %q: %w", s.poolID, err)
	}
	return pool.Depleted(), nil
}

func (s *poolSink) Drain(ctx context.Context) error {
	if s.pools == nil {
		return ErrPoolStoreNotConfigured
	}
	if err := s.pools.SetPoolCurrent(ctx, s.poolID, 0); err != nil {
		return fmt.Errorf("zero pool %q: %w", s.poolID, err)
	}
	return nil
}
