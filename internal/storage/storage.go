package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hollowshade/wavecore/internal/wave/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict indicates a conditional save lost to a concurrent writer.
var ErrVersionConflict = errors.New("version conflict")

// WaveStore persists wave aggregates with optimistic concurrency.
//
// CreateWave stores a new aggregate at version 1. LoadWave returns the
// aggregate together with its current version. SaveWave writes the
// aggregate conditionally on expectedVersion matching the stored
// version, returning ErrVersionConflict otherwise.
type WaveStore interface {
	CreateWave(ctx context.Context, wave domain.Wave) error
	LoadWave(ctx context.Context, waveID string) (domain.Wave, int64, error)
	SaveWave(ctx context.Context, wave domain.Wave, expectedVersion int64) error
}

// Pool is a party-level hit-point budget shared across an expedition.
type Pool struct {
	ID      string
	Current int
	Max     int
}

// Depleted reports whether the pool is exhausted.
func (p Pool) Depleted() bool {
	return p.Current <= 0
}

// PoolStore persists shared pools. ApplyPoolDamage must be atomic and
// floor the pool at zero, returning the remaining value.
type PoolStore interface {
	PutPool(ctx context.Context, pool Pool) error
	GetPool(ctx context.Context, poolID string) (Pool, error)
	SetPoolCurrent(ctx context.Context, poolID string, value int) error
	ApplyPoolDamage(ctx context.Context, poolID string, amount int) (int, error)
}

// TelemetryEvent records an operational audit event, such as a terminal
// wave transition and its triggering reason.
type TelemetryEvent struct {
	Timestamp time.Time
	Name      string
	WaveID    string
	Severity  string
	Fields    map[string]string
}

// TelemetryStore appends operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}
