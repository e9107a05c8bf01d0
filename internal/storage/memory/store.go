// Package memory provides mutex-guarded in-memory stores implementing
// the same optimistic-concurrency contract as the durable backends.
// It backs tests and the skirmish CLI.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/wave/domain"
)

type waveRecord struct {
	wave    domain.Wave
	version int64
}

// Store holds waves, pools, and telemetry events in memory.
type Store struct {
	mu        sync.Mutex
	waves     map[string]waveRecord
	pools     map[string]storage.Pool
	telemetry []storage.TelemetryEvent
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		waves: make(map[string]waveRecord),
		pools: make(map[string]storage.Pool),
	}
}

// CreateWave stores a new wave at version 1.
func (s *Store) CreateWave(ctx context.Context, wave domain.Wave) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(wave.ID) == "" {
		return fmt.Errorf("wave id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.waves[wave.ID]; exists {
		return fmt.Errorf("wave %s already exists", wave.ID)
	}
	s.waves[wave.ID] = waveRecord{wave: wave.Clone(), version: 1}
	return nil
}

// LoadWave returns a copy of the wave and its current version.
func (s *Store) LoadWave(ctx context.Context, waveID string) (domain.Wave, int64, error) {
	if err := ctx.Err(); err != nil {
		return domain.Wave{}, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.waves[waveID]
	if !ok {
		return domain.Wave{}, 0, storage.ErrNotFound
	}
	return record.wave.Clone(), record.version, nil
}

// SaveWave writes the wave conditionally on the expected version.
func (s *Store) SaveWave(ctx context.Context, wave domain.Wave, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.waves[wave.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if record.version != expectedVersion {
		return storage.ErrVersionConflict
	}
	s.waves[wave.ID] = waveRecord{wave: wave.Clone(), version: expectedVersion + 1}
	return nil
}

// PutPool upserts a shared pool.
func (s *Store) PutPool(ctx context.Context, pool storage.Pool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(pool.ID) == "" {
		return fmt.Errorf("pool id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.ID] = pool
	return nil
}

// GetPool fetches a shared pool by ID.
func (s *Store) GetPool(ctx context.Context, poolID string) (storage.Pool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Pool{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.pools[poolID]
	if !ok {
		return storage.Pool{}, storage.ErrNotFound
	}
	return pool, nil
}

// SetPoolCurrent overwrites a pool's current value.
func (s *Store) SetPoolCurrent(ctx context.Context, poolID string, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.pools[poolID]
	if !ok {
		return storage.ErrNotFound
	}
	pool.Current = value
	s.pools[poolID] = pool
	return nil
}

// ApplyPoolDamage atomically subtracts from the pool, flooring at zero.
func (s *Store) ApplyPoolDamage(ctx context.Context, poolID string, amount int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pool, ok := s.pools[poolID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if amount > 0 {
		pool.Current -= amount
		if pool.Current < 0 {
			pool.Current = 0
		}
		s.pools[poolID] = pool
	}
	return pool.Current, nil
}

// AppendTelemetryEvent records a telemetry event in memory.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = append(s.telemetry, event)
	return nil
}

// TelemetryEvents returns a copy of recorded telemetry events.
func (s *Store) TelemetryEvents() []storage.TelemetryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.TelemetryEvent, len(s.telemetry))
	copy(out, s.telemetry)
	return out
}
