package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/glp-resilience/internal/config"
	"github.com/aristath/glp-resilience/internal/database"
	"github.com/aristath/glp-resilience/internal/domain"
	"github.com/aristath/glp-resilience/internal/events"
	"github.com/aristath/glp-resilience/internal/executor"
	"github.com/aristath/glp-resilience/internal/persistence"
	"github.com/aristath/glp-resilience/internal/scheduler"
	"github.com/aristath/glp-resilience/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario JSON document")
	numReplicas := flag.Int("replicas", 0, "number of replicas to run (0 uses NUM_REPLICAS from config)")
	maxWorkers := flag.Int("workers", 0, "worker pool size (0 uses MAX_WORKERS from config)")
	cronSchedule := flag.String("cron", "", "if set, run the scenario repeatedly on this cron schedule instead of once")
	flag.Parse()

	runID := uuid.New().String()
	log := logger.New(logger.Config{Level: "info", Pretty: true}).With().Str("run_id", runID).Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *maxWorkers > 0 {
		cfg.MaxWorkers = *maxWorkers
	}
	if *numReplicas > 0 {
		cfg.NumReplicas = *numReplicas
	}

	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *scenarioPath).Msg("failed to load scenario")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	sink := persistence.NewSink(db.Conn(), log)
	if err := sink.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to apply persistence schema")
	}

	eventManager := events.NewManager(log)

	baseSeed := cfg.BaseSeed
	if scenario.Seed != nil {
		baseSeed = *scenario.Seed
	}

	opts := executor.Options{
		MaxWorkers: cfg.MaxWorkers,
		SampleSize: cfg.SampleSize,
		BaseSeed:   baseSeed,
		Events:     eventManager,
		OnProgress: func(completed, total int) {
			if completed%100 == 0 || completed == total {
				log.Info().Int("completed", completed).Int("total", total).Msg("campaign progress")
			}
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *cronSchedule == "" {
		// A one-shot invocation resumes a prior crashed/canceled run of the
		// same scenario by skipping replica indices already persisted.
		// Scheduled campaigns below deliberately do not do this: each cron
		// firing is an independent fresh sample of the scenario, not a
		// resumption of the last one.
		completedIdx, err := sink.CompletedIndices(context.Background(), scenario.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to query already-persisted replicas")
		}
		if len(completedIdx) > 0 {
			log.Info().Int("skipped", len(completedIdx)).Str("scenario_id", scenario.ID).Msg("resuming: skipping already-persisted replicas")
		}
		opts.SkipIndices = completedIdx
		runOnce(ctx, log, eventManager, scenario, cfg.NumReplicas, sink, opts, runID)
		return
	}

	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	job := scheduler.NewCampaignJob(scenario.ID, scenario, cfg.NumReplicas, sink, opts, eventManager, log, 0)
	if err := sched.AddJob(*cronSchedule, job); err != nil {
		log.Fatal().Err(err).Msg("failed to register campaign job")
	}

	log.Info().Str("schedule", *cronSchedule).Str("scenario_id", scenario.ID).Msg("campaign scheduled")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

func runOnce(ctx context.Context, log zerolog.Logger, eventManager *events.Manager, scenario domain.Scenario, numReplicas int, sink executor.ResultSink, opts executor.Options, runID string) {
	eventManager.Emit(events.ScenarioStarted, "cmd/simulate", map[string]interface{}{
		"run_id":       runID,
		"scenario_id":  scenario.ID,
		"num_replicas": numReplicas,
	})

	start := time.Now()
	result, err := executor.RunScenario(ctx, scenario, numReplicas, sink, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("scenario run failed")
	}

	eventType := events.ScenarioCompleted
	if result.Partial {
		eventType = events.ScenarioCanceled
	}
	eventManager.Emit(eventType, "cmd/simulate", map[string]interface{}{
		"run_id":      runID,
		"scenario_id": result.ScenarioID,
		"n_completed": result.NCompleted,
		"n_failed":    result.NFailed,
		"n_requested": result.NRequested,
	})

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("n_completed", result.NCompleted).
		Int("n_failed", result.NFailed).
		Bool("partial", result.Partial).
		Msg("scenario run finished")
}

func loadScenario(path string) (domain.Scenario, error) {
	if path == "" {
		return domain.Scenario{}, fmt.Errorf("-scenario is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("failed to open scenario file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var s domain.Scenario
	if err := dec.Decode(&s); err != nil {
		return domain.Scenario{}, fmt.Errorf("failed to decode scenario document: %w", err)
	}
	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return domain.Scenario{}, err
	}
	return s, nil
}
