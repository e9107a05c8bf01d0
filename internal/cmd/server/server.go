// Package server parses server command flags and starts the encounter gateway.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/hollowshade/wavecore/internal/actors"
	actorsmem "github.com/hollowshade/wavecore/internal/actors/memory"
	"github.com/hollowshade/wavecore/internal/catalog"
	"github.com/hollowshade/wavecore/internal/combat"
	"github.com/hollowshade/wavecore/internal/gateway"
	entrypoint "github.com/hollowshade/wavecore/internal/platform/cmd"
	"github.com/hollowshade/wavecore/internal/platform/timeouts"
	"github.com/hollowshade/wavecore/internal/storage"
	bboltstore "github.com/hollowshade/wavecore/internal/storage/bbolt"
	memorystore "github.com/hollowshade/wavecore/internal/storage/memory"
	sqlitestore "github.com/hollowshade/wavecore/internal/storage/sqlite"
	"github.com/hollowshade/wavecore/internal/telemetry"
	"github.com/hollowshade/wavecore/internal/wave/generator"
	"github.com/hollowshade/wavecore/internal/wave/service"
)

// Config holds server command configuration.
type Config struct {
	Addr string `env:"WAVECORE_ADDR" envDefault:":8080"`

	// Store selects the persistence backend: memory, bbolt or sqlite.
	Store     string `env:"WAVECORE_STORE" envDefault:"memory"`
	StorePath string `env:"WAVECORE_STORE_PATH" envDefault:"wavecore.db"`

	// DemoActors seeds that many ready-to-join actors per catalog region,
	// so a fresh server can run encounters without an external roster.
	DemoActors int `env:"WAVECORE_DEMO_ACTORS"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The gateway listen address")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Persistence backend: memory, bbolt or sqlite")
	fs.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "Database file path for bbolt and sqlite backends")
	fs.IntVar(&cfg.DemoActors, "demo-actors", cfg.DemoActors, "Seed this many demo actors per region")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// encounterStore is what every persistence backend must provide.
type encounterStore interface {
	storage.WaveStore
	storage.PoolStore
	storage.TelemetryStore
}

func openStore(cfg Config) (encounterStore, io.Closer, error) {
	switch cfg.Store {
	case "memory":
		return memorystore.NewStore(), nil, nil
	case "bbolt":
		store, err := bboltstore.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bbolt store: %w", err)
		}
		return store, store, nil
	case "sqlite":
		store, err := sqlitestore.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

func seedDemoActors(store *actorsmem.Store, static *catalog.Static, perRegion int) error {
	for _, region := range static.Regions() {
		for i := 1; i <= perRegion; i++ {
			record := actors.Record{
				ID:        fmt.Sprintf("demo-%s-%d", region, i),
				UserID:    fmt.Sprintf("demo-user-%s-%d", region, i),
				Name:      fmt.Sprintf("Demo Hero %d", i),
				RegionKey: region,
				Hearts:    20,
				MaxHearts: 20,
				Attack:    8,
				Defense:   8,
			}
			if err := store.Put(record); err != nil {
				return fmt.Errorf("seed demo actor %s: %w", record.ID, err)
			}
		}
	}
	return nil
}

// Run starts the encounter gateway.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		store, closer, err := openStore(cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer func() {
				if err := closer.Close(); err != nil {
					log.Printf("close store: %v", err)
				}
			}()
		}

		static, err := catalog.NewStatic()
		if err != nil {
			return fmt.Errorf("load monster catalog: %w", err)
		}
		gen, err := generator.New(static, generator.DefaultProfiles())
		if err != nil {
			return fmt.Errorf("build generator: %w", err)
		}

		actorStore := actorsmem.NewStore()
		if cfg.DemoActors > 0 {
			if err := seedDemoActors(actorStore, static, cfg.DemoActors); err != nil {
				return err
			}
		}

		hub := gateway.NewHub()
		manager, err := service.NewManager(service.Config{
			Waves:     store,
			Pools:     store,
			Actors:    actorStore,
			Generator: gen,
			Resolver:  combat.NewDefaultResolver(),
			Publisher: hub,
			Telemetry: telemetry.NewEmitter(store),
		})
		if err != nil {
			return fmt.Errorf("build lifecycle manager: %w", err)
		}

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           gateway.NewServer(manager, hub),
			ReadHeaderTimeout: timeouts.ReadHeader,
		}

		serveErr := make(chan error, 1)
		log.Printf("encounter gateway listening on %s store=%s", cfg.Addr, cfg.Store)
		go func() {
			serveErr <- httpServer.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
			err := httpServer.Shutdown(shutdownCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve http: %w", err)
		}
	})
}
