package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/wave/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "waves.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func testWave(t *testing.T) domain.Wave {
	t.Helper()
	wave, err := domain.NewWave(domain.NewWaveInput{
		RegionKey:     "lanayru",
		DifficultyKey: "normal",
		Monsters: []domain.MonsterInstance{
			{Name: "Electric Keese", SpeciesKey: "keese", Tier: 1, CurrentHearts: 1, MaxHearts: 1},
			{Name: "Electric Lizalfos", SpeciesKey: "lizalfos", Tier: 3, CurrentHearts: 8, MaxHearts: 8},
		},
		Resource: domain.IndividualResource(),
	}, nil, nil)
	if err != nil {
		t.Fatalf("new wave: %v", err)
	}
	return wave
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWaveRoundTrip(t *testing.T) {
	store := openTestStore(t)
	wave := testWave(t)

	if err := store.CreateWave(context.Background(), wave); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateWave(context.Background(), wave); err == nil {
		t.Fatal("expected duplicate create to fail")
	}

	loaded, version, err := store.LoadWave(context.Background(), wave.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}
	if loaded.ID != wave.ID || loaded.RegionKey != wave.RegionKey || len(loaded.Monsters) != 2 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.Monsters[1].MaxHearts != 8 {
		t.Fatalf("monster state lost: %+v", loaded.Monsters[1])
	}

	if _, _, err := store.LoadWave(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveWaveVersionCheck(t *testing.T) {
	store := openTestStore(t)
	wave := testWave(t)
	if err := store.CreateWave(context.Background(), wave); err != nil {
		t.Fatalf("create: %v", err)
	}

	wave.Monsters[0].CurrentHearts = 0
	if err := store.SaveWave(context.Background(), wave, 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveWave(context.Background(), wave, 1); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	loaded, version, err := store.LoadWave(context.Background(), wave.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}
	if loaded.Monsters[0].CurrentHearts != 0 {
		t.Fatalf("saved mutation lost: %+v", loaded.Monsters[0])
	}

	if err := store.SaveWave(context.Background(), testWave(t), 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for unknown wave, got %v", err)
	}
}

func TestPoolLifecycle(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.GetPool(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.PutPool(context.Background(), storage.Pool{ID: "expedition-1", Current: 12, Max: 20}); err != nil {
		t.Fatalf("put pool: %v", err)
	}

	remaining, err := store.ApplyPoolDamage(context.Background(), "expedition-1", 5)
	if err != nil {
		t.Fatalf("apply damage: %v", err)
	}
	if remaining != 7 {
		t.Fatalf("expected 7 remaining, got %d", remaining)
	}

	remaining, err = store.ApplyPoolDamage(context.Background(), "expedition-1", 100)
	if err != nil {
		t.Fatalf("apply overkill: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected floor at 0, got %d", remaining)
	}

	if err := store.SetPoolCurrent(context.Background(), "expedition-1", 20); err != nil {
		t.Fatalf("set current: %v", err)
	}
	pool, err := store.GetPool(context.Background(), "expedition-1")
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if pool.Current != 20 || pool.Max != 20 {
		t.Fatalf("unexpected pool: %+v", pool)
	}
}

func TestAppendTelemetryEvent(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		err := store.AppendTelemetryEvent(context.Background(), storage.TelemetryEvent{
			Timestamp: time.Now().UTC(),
			Name:      "wave.failed",
			WaveID:    "wave-1",
			Severity:  "WARN",
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.CreateWave(ctx, testWave(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if _, _, err := store.LoadWave(ctx, "any"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
