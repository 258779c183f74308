// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package main is the entry point for the Infodemic server.
//
// Infodemic simulates misinformation crises against a synthetic social
// population and runs a threat detection pipeline over the generated
// content. The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML file, env)
//  2. Store: embedded BadgerDB for content, users, crises, and threats
//  3. Event bus: in-process Watermill pub/sub for domain events
//  4. Simulation: content generator, behavior model, crisis orchestrator
//  5. Scanner: threat scoring pipeline on a supervised scan schedule
//  6. HTTP server: the admin API and Prometheus metrics
//
// Everything long-running sits under a suture supervision tree; a crash in
// one layer restarts that layer without taking the process down.
//
// # Configuration
//
// Configuration is loaded with layered sources (highest priority wins):
//   - INFODEMIC_* environment variables
//   - Config file (config.yaml, or INFODEMIC_CONFIG)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains, the
// scan scheduler finishes its in-flight job, and the store closes cleanly.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crisislab/infodemic/internal/api"
	"github.com/crisislab/infodemic/internal/behavior"
	"github.com/crisislab/infodemic/internal/config"
	"github.com/crisislab/infodemic/internal/events"
	"github.com/crisislab/infodemic/internal/logging"
	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/scanner"
	"github.com/crisislab/infodemic/internal/simulation"
	"github.com/crisislab/infodemic/internal/store"
	"github.com/crisislab/infodemic/internal/supervisor"
	"github.com/crisislab/infodemic/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger := logging.Logger()

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int64("seed", seed).
		Float64("acceleration", cfg.Simulation.Acceleration).
		Msg("configuration loaded")

	st, err := openStore(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()

	bus := events.NewBus(logger)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event bus")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	created, err := simulation.SeedPopulation(ctx, st, simulation.PopulationSpec{
		Organic:     cfg.Simulation.Population.Organic,
		Amplifiers:  cfg.Simulation.Population.Amplifiers,
		Influencers: cfg.Simulation.Population.Influencers,
	}, seed)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to seed population")
	}
	if created > 0 {
		logging.Info().Int("users", created).Msg("synthetic population seeded")
	}

	gen := simulation.NewResilientGenerator(nil, simulation.NewTemplateGenerator(seed), logger)
	engine := simulation.NewEngine(st, bus, gen, behavior.NewModel(seed), seed, logger)
	orch := simulation.NewOrchestrator(st, engine, bus, logger)
	if err := orch.SetAcceleration(ctx, cfg.Simulation.Acceleration); err != nil {
		logging.Fatal().Err(err).Msg("invalid acceleration factor")
	}
	orch.SetAutoAdvance(ctx, cfg.Simulation.AutoAdvance)

	pipeline := scanner.NewPipeline(st, bus, scanner.PipelineConfig{
		EngagementFloor: cfg.Scanner.EngagementFloor,
		Staleness:       cfg.Scanner.Staleness,
	}, logger)
	worker := scanner.NewWorker(pipeline, scanner.WorkerConfig{
		Interval:  cfg.Scanner.Interval,
		Backoff:   cfg.Scanner.Backoff,
		QueueSize: cfg.Scanner.QueueSize,
	}, logger)

	handler := api.NewHandler(orch, engine, worker, st, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.Router(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewMaintenanceService(st, cfg.Database.GCInterval, logger))
	tree.AddDetectionService(services.NewScanService(worker))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("starting infodemic")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree stopped")
	}

	// An active crisis is ended cleanly so its resolution time is recorded.
	if stopErr := orch.Stop(context.Background()); stopErr != nil && !errors.Is(stopErr, models.ErrNotFound) {
		logging.Error().Err(stopErr).Msg("error ending active crisis")
	}

	logging.Info().Msg("shutdown complete")
}

// openStore selects persistent or in-memory storage. An empty path means
// ephemeral, which is intended for local experimentation.
func openStore(path string) (*store.BadgerStore, error) {
	if path == "" {
		return store.OpenInMemory()
	}
	return store.Open(path)
}
