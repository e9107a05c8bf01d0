// Package memory provides an in-memory actor store for tests and the
// skirmish CLI.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hollowshade/wavecore/internal/actors"
)

// Store is a mutex-guarded in-memory actor store.
type Store struct {
	mu      sync.Mutex
	records map[string]actors.Record
}

// NewStore creates an empty in-memory actor store.
func NewStore() *Store {
	return &Store{records: make(map[string]actors.Record)}
}

// Put upserts an actor record.
func (s *Store) Put(record actors.Record) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("actor id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

// Get fetches an actor record by ID.
func (s *Store) Get(ctx context.Context, actorID string) (actors.Record, error) {
	if err := ctx.Err(); err != nil {
		return actors.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[actorID]
	if !ok {
		return actors.Record{}, actors.ErrNotFound
	}
	return record, nil
}

// ApplyDamage atomically subtracts hearts, flooring at zero.
func (s *Store) ApplyDamage(ctx context.Context, actorID string, amount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[actorID]
	if !ok {
		return actors.ErrNotFound
	}
	record.Hearts -= amount
	if record.Hearts < 0 {
		record.Hearts = 0
	}
	s.records[actorID] = record
	return nil
}

// IsIncapacitated reports whether the actor is out of hearts.
func (s *Store) IsIncapacitated(ctx context.Context, actorID string) (bool, error) {
	record, err := s.Get(ctx, actorID)
	if err != nil {
		return false, err
	}
	return record.Incapacitated(), nil
}

// Delete removes an actor record; used to simulate actor deletion.
func (s *Store) Delete(actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, actorID)
}
