package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/noah-isme/sis-portal/internal/seed"
	"github.com/noah-isme/sis-portal/internal/store"
	"github.com/noah-isme/sis-portal/pkg/config"
	"github.com/noah-isme/sis-portal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	deps, closeDeps, err := store.Dial(cfg, false)
	if err != nil {
		logr.Sugar().Fatalw("connect store dependencies", "error", err)
	}
	backend, closeBackend, err := store.OpenBackend(ctx, cfg.Store, deps)
	if err != nil {
		_ = closeDeps()
		logr.Sugar().Fatalw("open record store", "error", err)
	}

	records := store.New(backend, store.Options{
		Prefix: cfg.Store.KeyPrefix,
		Logger: logr,
		Seed:   seed.Func(time.Now, rand.New(rand.NewSource(time.Now().UnixNano()))),
	})

	cli := commandLine{records: records, out: os.Stdout}
	runErr := cli.run(ctx, os.Args)

	_ = closeBackend()
	_ = closeDeps()

	if runErr != nil {
		if !errors.Is(runErr, errHelp) {
			logr.Sugar().Errorw("command failed", "error", runErr)
		}
		os.Exit(1)
	}
}
