package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/wave/domain"
)

func testWave(t *testing.T) domain.Wave {
	t.Helper()
	wave, err := domain.NewWave(domain.NewWaveInput{
		RegionKey:     "eldin",
		DifficultyKey: "easy",
		Monsters: []domain.MonsterInstance{
			{Name: "Red Bokoblin", SpeciesKey: "bokoblin", Tier: 1, CurrentHearts: 3, MaxHearts: 3},
		},
		Resource: domain.IndividualResource(),
	}, nil, nil)
	if err != nil {
		t.Fatalf("new wave: %v", err)
	}
	return wave
}

func TestCreateLoadRoundTrip(t *testing.T) {
	store := NewStore()
	wave := testWave(t)

	if err := store.CreateWave(context.Background(), wave); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, version, err := store.LoadWave(context.Background(), wave.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}
	if loaded.ID != wave.ID || loaded.RegionKey != "eldin" {
		t.Fatalf("unexpected wave: %+v", loaded)
	}

	if err := store.CreateWave(context.Background(), wave); err == nil {
		t.Fatal("expected error creating duplicate wave")
	}
	if _, _, err := store.LoadWave(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveWaveChecksVersion(t *testing.T) {
	store := NewStore()
	wave := testWave(t)
	if err := store.CreateWave(context.Background(), wave); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.SaveWave(context.Background(), wave, 1); err != nil {
		t.Fatalf("save at version 1: %v", err)
	}
	if err := store.SaveWave(context.Background(), wave, 1); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	_, version, err := store.LoadWave(context.Background(), wave.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2 after one save, got %d", version)
	}
}

func TestLoadWaveReturnsIsolatedCopy(t *testing.T) {
	store := NewStore()
	wave := testWave(t)
	if err := store.CreateWave(context.Background(), wave); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, _, err := store.LoadWave(context.Background(), wave.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded.Monsters[0].CurrentHearts = 0

	reloaded, _, err := store.LoadWave(context.Background(), wave.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Monsters[0].CurrentHearts != 3 {
		t.Fatalf("expected stored wave untouched, got %d hearts", reloaded.Monsters[0].CurrentHearts)
	}
}

func TestConcurrentConditionalSavesLoseAtMostOne(t *testing.T) {
	store := NewStore()
	wave := testWave(t)
	if err := store.CreateWave(context.Background(), wave); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	conflicts := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conflicts <- store.SaveWave(context.Background(), wave, 1)
		}()
	}
	wg.Wait()
	close(conflicts)

	var okCount, conflictCount int
	for err := range conflicts {
		switch {
		case err == nil:
			okCount++
		case errors.Is(err, storage.ErrVersionConflict):
			conflictCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 || conflictCount != 1 {
		t.Fatalf("expected exactly one winner and one conflict, got ok=%d conflicts=%d", okCount, conflictCount)
	}
}

func TestPoolDamageFloorsAtZero(t *testing.T) {
	store := NewStore()
	if err := store.PutPool(context.Background(), storage.Pool{ID: "pool-1", Current: 5, Max: 20}); err != nil {
		t.Fatalf("put pool: %v", err)
	}

	remaining, err := store.ApplyPoolDamage(context.Background(), "pool-1", 3)
	if err != nil {
		t.Fatalf("apply damage: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 remaining, got %d", remaining)
	}

	remaining, err = store.ApplyPoolDamage(context.Background(), "pool-1", 99)
	if err != nil {
		t.Fatalf("apply overkill damage: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected pool floored at 0, got %d", remaining)
	}

	pool, err := store.GetPool(context.Background(), "pool-1")
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if !pool.Depleted() {
		t.Fatal("expected depleted pool")
	}
}

func TestTelemetryAppend(t *testing.T) {
	store := NewStore()
	event := storage.TelemetryEvent{
		Timestamp: time.Now().UTC(),
		Name:      "wave.failed",
		WaveID:    "wave-1",
		Severity:  "WARN",
		Fields:    map[string]string{"reason": "party wiped"},
	}
	if err := store.AppendTelemetryEvent(context.Background(), event); err != nil {
		t.Fatalf("append telemetry: %v", err)
	}

	events := store.TelemetryEvents()
	if len(events) != 1 || events[0].Name != "wave.failed" {
		t.Fatalf("unexpected telemetry: %+v", events)
	}
}
