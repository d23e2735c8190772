package scheduler

import (
	"context"
	"time"

	"github.com/aristath/glp-resilience/internal/domain"
	"github.com/aristath/glp-resilience/internal/events"
	"github.com/aristath/glp-resilience/internal/executor"
	"github.com/rs/zerolog"
)

// CampaignJob re-runs a fixed scenario's replica ensemble on the cron
// schedule it's registered under, streaming through the same ResultSink
// an ad hoc run would use. It implements the scheduler.Job interface.
type CampaignJob struct {
	name        string
	scenario    domain.Scenario
	numReplicas int
	sink        executor.ResultSink
	opts        executor.Options
	events      *events.Manager
	log         zerolog.Logger
	timeout     time.Duration
}

// NewCampaignJob builds a named, repeatable resilience campaign. timeout
// of zero disables the per-run deadline.
func NewCampaignJob(name string, scenario domain.Scenario, numReplicas int, sink executor.ResultSink, opts executor.Options, eventManager *events.Manager, log zerolog.Logger, timeout time.Duration) *CampaignJob {
	return &CampaignJob{
		name:        name,
		scenario:    scenario,
		numReplicas: numReplicas,
		sink:        sink,
		opts:        opts,
		events:      eventManager,
		log:         log.With().Str("component", "scheduler.CampaignJob").Str("campaign", name).Logger(),
		timeout:     timeout,
	}
}

// Name implements Job.
func (j *CampaignJob) Name() string {
	return j.name
}

// Run implements Job: executes the campaign's scenario over its
// configured replica count and reports the outcome through the event
// manager.
func (j *CampaignJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	j.events.Emit(events.CampaignStarted, j.name, map[string]interface{}{
		"scenario_id":  j.scenario.ID,
		"num_replicas": j.numReplicas,
	})

	opts := j.opts
	opts.Events = j.events
	result, err := executor.RunScenario(ctx, j.scenario, j.numReplicas, j.sink, opts)
	if err != nil {
		j.events.EmitError(j.name, err, map[string]interface{}{"scenario_id": j.scenario.ID})
		return err
	}

	eventType := events.CampaignCompleted
	if result.Partial {
		eventType = events.ScenarioCanceled
	}
	j.events.Emit(eventType, j.name, map[string]interface{}{
		"scenario_id": result.ScenarioID,
		"n_completed": result.NCompleted,
		"n_failed":    result.NFailed,
		"n_requested": result.NRequested,
	})

	j.log.Info().
		Int("n_completed", result.NCompleted).
		Int("n_failed", result.NFailed).
		Bool("partial", result.Partial).
		Msg("campaign run finished")

	return nil
}
