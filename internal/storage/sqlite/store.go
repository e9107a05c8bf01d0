// Package sqlite provides a SQLite-backed wave store. The aggregate is
// stored as a JSON payload alongside a version column; saves run a
// conditional UPDATE keyed on the expected version so concurrent writers
// surface as version conflicts instead of lost updates.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/hollowshade/wavecore/internal/platform/storage/sqlitemigrate"
	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/storage/sqlite/migrations"
	"github.com/hollowshade/wavecore/internal/wave/domain"
)

// Store persists wave state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite wave store and applies embedded migrations. The
// path ":memory:" opens a throwaway in-memory database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateWave inserts a new wave at version 1.
func (s *Store) CreateWave(ctx context.Context, wave domain.Wave) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(wave.ID) == "" {
		return fmt.Errorf("wave id is required")
	}

	payload, err := json.Marshal(wave)
	if err != nil {
		return fmt.Errorf("marshal wave: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO waves (id, version, payload_json, region_key, status, created_at, updated_at)
		 VALUES (?, 1, ?, ?, ?, ?, ?)`,
		wave.ID,
		string(payload),
		wave.RegionKey,
		wave.Status.String(),
		toMillis(wave.CreatedAt),
		toMillis(wave.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert wave: %w", err)
	}
	return nil
}

// LoadWave fetches a wave and its current version by id.
func (s *Store) LoadWave(ctx context.Context, waveID string) (domain.Wave, int64, error) {
	if err := ctx.Err(); err != nil {
		return domain.Wave{}, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Wave{}, 0, fmt.Errorf("storage is not configured")
	}

	var (
		version int64
		payload string
	)
	row := s.sqlDB.QueryRowContext(ctx, `SELECT version, payload_json FROM waves WHERE id = ?`, waveID)
	if err := row.Scan(&version, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Wave{}, 0, storage.ErrNotFound
		}
		return domain.Wave{}, 0, fmt.Errorf("select wave: %w", err)
	}

	var wave domain.Wave
	if err := json.Unmarshal([]byte(payload), &wave); err != nil {
		return domain.Wave{}, 0, fmt.Errorf("unmarshal wave: %w", err)
	}
	return wave, version, nil
}

// SaveWave updates the wave conditionally on the stored version matching
// expectedVersion.
func (s *Store) SaveWave(ctx context.Context, wave domain.Wave, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	payload, err := json.Marshal(wave)
	if err != nil {
		return fmt.Errorf("marshal wave: %w", err)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE waves
		 SET version = version + 1, payload_json = ?, status = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(payload),
		wave.Status.String(),
		toMillis(wave.UpdatedAt),
		wave.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update wave: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing wave.
		var exists int
		row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(1) FROM waves WHERE id = ?`, wave.ID)
		if err := row.Scan(&exists); err != nil {
			return fmt.Errorf("check wave existence: %w", err)
		}
		if exists == 0 {
			return storage.ErrNotFound
		}
		return storage.ErrVersionConflict
	}
	return nil
}

// PutPool inserts or replaces a shared pool record.
func (s *Store) PutPool(ctx context.Context, pool storage.Pool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(pool.ID) == "" {
		return fmt.Errorf("pool id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO pools (id, current_value, max_value) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET current_value = excluded.current_value, max_value = excluded.max_value`,
		pool.ID, pool.Current, pool.Max,
	)
	if err != nil {
		return fmt.Errorf("upsert pool: %w", err)
	}
	return nil
}

// GetPool fetches a shared pool by id.
func (s *Store) GetPool(ctx context.Context, poolID string) (storage.Pool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Pool{}, err
	}

	pool := storage.Pool{ID: poolID}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT current_value, max_value FROM pools WHERE id = ?`, poolID)
	if err := row.Scan(&pool.Current, &pool.Max); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Pool{}, storage.ErrNotFound
		}
		return storage.Pool{}, fmt.Errorf("select pool: %w", err)
	}
	return pool, nil
}

// SetPoolCurrent overwrites the pool's current value.
func (s *Store) SetPoolCurrent(ctx context.Context, poolID string, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE pools SET current_value = ? WHERE id = ?`, value, poolID)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ApplyPoolDamage subtracts damage in one statement, floors the pool at
// zero, and returns the remaining value.
func (s *Store) ApplyPoolDamage(ctx context.Context, poolID string, amount int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE pools SET current_value = MAX(0, current_value - ?) WHERE id = ?`,
		amount, poolID,
	)
	if err != nil {
		return 0, fmt.Errorf("update pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return 0, storage.ErrNotFound
	}

	var remaining int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT current_value FROM pools WHERE id = ?`, poolID)
	if err := row.Scan(&remaining); err != nil {
		return 0, fmt.Errorf("select pool: %w", err)
	}
	return remaining, nil
}

// AppendTelemetryEvent inserts one telemetry event row.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields := "{}"
	if len(event.Fields) > 0 {
		encoded, err := json.Marshal(event.Fields)
		if err != nil {
			return fmt.Errorf("marshal telemetry fields: %w", err)
		}
		fields = string(encoded)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (timestamp, name, wave_id, severity, fields_json)
		 VALUES (?, ?, ?, ?, ?)`,
		toMillis(event.Timestamp),
		event.Name,
		event.WaveID,
		event.Severity,
		fields,
	)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}
