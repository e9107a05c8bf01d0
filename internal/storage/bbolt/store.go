// Package bbolt provides a BoltDB-backed wave store. Aggregates are
// stored as JSON values keyed by wave id, with the optimistic-concurrency
// version carried on the record and checked inside the update transaction.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/wave/domain"
)

const (
	waveBucket      = "wave"
	poolBucket      = "pool"
	telemetryBucket = "telemetry"
)

// waveRecord is the stored form of a wave plus its version.
type waveRecord struct {
	Version int64       `json:"version"`
	Wave    domain.Wave `json:"wave"`
}

// Store provides a BoltDB-backed implementation of the wave, pool and
// telemetry stores.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateWave persists a new wave at version 1.
func (s *Store) CreateWave(ctx context.Context, wave domain.Wave) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(wave.ID) == "" {
		return fmt.Errorf("wave id is required")
	}

	payload, err := json.Marshal(waveRecord{Version: 1, Wave: wave})
	if err != nil {
		return fmt.Errorf("marshal wave: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(waveBucket))
		if bucket == nil {
			return fmt.Errorf("wave bucket is missing")
		}
		if bucket.Get([]byte(wave.ID)) != nil {
			return fmt.Errorf("wave %q already exists", wave.ID)
		}
		return bucket.Put([]byte(wave.ID), payload)
	})
}

// LoadWave fetches a wave and its current version by id.
func (s *Store) LoadWave(ctx context.Context, waveID string) (domain.Wave, int64, error) {
	if err := ctx.Err(); err != nil {
		return domain.Wave{}, 0, err
	}
	if s == nil || s.db == nil {
		return domain.Wave{}, 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(waveID) == "" {
		return domain.Wave{}, 0, fmt.Errorf("wave id is required")
	}

	var record waveRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(waveBucket))
		if bucket == nil {
			return fmt.Errorf("wave bucket is missing")
		}
		payload := bucket.Get([]byte(waveID))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &record); err != nil {
			return fmt.Errorf("unmarshal wave: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Wave{}, 0, err
	}
	return record.Wave, record.Version, nil
}

// SaveWave writes the wave conditionally on expectedVersion matching the
// stored version. The check and the write share one update transaction.
func (s *Store) SaveWave(ctx context.Context, wave domain.Wave, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(wave.ID) == "" {
		return fmt.Errorf("wave id is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(waveBucket))
		if bucket == nil {
			return fmt.Errorf("wave bucket is missing")
		}
		payload := bucket.Get([]byte(wave.ID))
		if payload == nil {
			return storage.ErrNotFound
		}
		var current waveRecord
		if err := json.Unmarshal(payload, &current); err != nil {
			return fmt.Errorf("unmarshal wave: %w", err)
		}
		if current.Version != expectedVersion {
			return storage.ErrVersionConflict
		}

		next, err := json.Marshal(waveRecord{Version: expectedVersion + 1, Wave: wave})
		if err != nil {
			return fmt.Errorf("marshal wave: %w", err)
		}
		return bucket.Put([]byte(wave.ID), next)
	})
}

// PutPool persists a shared pool record.
func (s *Store) PutPool(ctx context.Context, pool storage.Pool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(pool.ID) == "" {
		return fmt.Errorf("pool id is required")
	}

	payload, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(poolBucket))
		if bucket == nil {
			return fmt.Errorf("pool bucket is missing")
		}
		return bucket.Put([]byte(pool.ID), payload)
	})
}

// GetPool fetches a shared pool by id.
func (s *Store) GetPool(ctx context.Context, poolID string) (storage.Pool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Pool{}, err
	}

	var pool storage.Pool
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(poolBucket))
		if bucket == nil {
			return fmt.Errorf("pool bucket is missing")
		}
		payload := bucket.Get([]byte(poolID))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &pool); err != nil {
			return fmt.Errorf("unmarshal pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return storage.Pool{}, err
	}
	return pool, nil
}

// SetPoolCurrent overwrites the pool's current value.
func (s *Store) SetPoolCurrent(ctx context.Context, poolID string, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(poolBucket))
		if bucket == nil {
			return fmt.Errorf("pool bucket is missing")
		}
		pool, err := readPool(bucket, poolID)
		if err != nil {
			return err
		}
		pool.Current = value
		return writePool(bucket, pool)
	})
}

// ApplyPoolDamage subtracts damage from the pool inside one update
// transaction, floors it at zero, and returns the remaining value.
func (s *Store) ApplyPoolDamage(ctx context.Context, poolID string, amount int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	remaining := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(poolBucket))
		if bucket == nil {
			return fmt.Errorf("pool bucket is missing")
		}
		pool, err := readPool(bucket, poolID)
		if err != nil {
			return err
		}
		pool.Current -= amount
		if pool.Current < 0 {
			pool.Current = 0
		}
		remaining = pool.Current
		return writePool(bucket, pool)
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// AppendTelemetryEvent stores a telemetry event under a monotonic key.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal telemetry event: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(telemetryBucket))
		if bucket == nil {
			return fmt.Errorf("telemetry bucket is missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next telemetry sequence: %w", err)
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, payload)
	})
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{waveBucket, poolBucket, telemetryBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func readPool(bucket *bbolt.Bucket, poolID string) (storage.Pool, error) {
	payload := bucket.Get([]byte(poolID))
	if payload == nil {
		return storage.Pool{}, storage.ErrNotFound
	}
	var pool storage.Pool
	if err := json.Unmarshal(payload, &pool); err != nil {
		return storage.Pool{}, fmt.Errorf("unmarshal pool: %w", err)
	}
	return pool, nil
}

func writePool(bucket *bbolt.Bucket, pool storage.Pool) error {
	payload, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}
	return bucket.Put([]byte(pool.ID), payload)
}
