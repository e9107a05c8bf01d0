package server

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.Store != "memory" {
		t.Fatalf("expected memory backend, got %q", cfg.Store)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("WAVECORE_ADDR", "127.0.0.1:9000")
	t.Setenv("WAVECORE_STORE", "sqlite")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-store-path", "/tmp/waves.db", "-demo-actors", "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.Store != "sqlite" {
		t.Fatalf("expected env store backend, got %q", cfg.Store)
	}
	if cfg.StorePath != "/tmp/waves.db" {
		t.Fatalf("expected flag store path, got %q", cfg.StorePath)
	}
	if cfg.DemoActors != 3 {
		t.Fatalf("expected 3 demo actors, got %d", cfg.DemoActors)
	}
}

func TestOpenStoreRejectsUnknownBackend(t *testing.T) {
	if _, _, err := openStore(Config{Store: "redis"}); err == nil {
		t.Fatal("expected unknown backend error")
	}
}
