package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	skirmishcmd "github.com/hollowshade/wavecore/internal/cmd/skirmish"
)

func main() {
	cfg, err := skirmishcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := skirmishcmd.Run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("skirmish failed: %v", err)
	}
}
