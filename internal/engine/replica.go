package engine

import "github.com/aristath/glp-resilience/internal/domain"

// RunReplica executes one full replica of scenario for the given
// derived replica seed and returns its (timeseries, kpis) pair, per
// spec.md §6's run_replica. It is a pure function of its inputs: given
// the same (scenario, seed), it reproduces byte-identical output.
//
// When keepDailyRecords is false, ReplicaOutput.DailyRecords is left
// nil — the caller (normally the executor) only retains full daily
// series for its bounded sample of replicas.
func RunReplica(s domain.Scenario, seed int64, keepDailyRecords bool) (domain.ReplicaOutput, error) {
	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return domain.ReplicaOutput{}, err
	}

	streams := NewReplicaStreams(seed)
	hub := domain.NewHubState(s.CapacityTM, s.InitialInventoryPct)
	route := domain.NewRouteState()
	book := NewOrderBook()
	disruptions := NewDisruptionGenerator(s, streams.Route)
	monitor := NewMonitor(s.HorizonDays)

	clock := NewClock(s, hub, route, book, disruptions, monitor, streams)

	for day := 1; day <= s.HorizonDays; day++ {
		if err := clock.Step(day); err != nil {
			return domain.ReplicaOutput{}, err
		}
	}

	output := domain.ReplicaOutput{
		ScenarioID: s.ID,
		KPIs:       monitor.Reduce(s.DemandBaseDailyTM),
	}
	if keepDailyRecords {
		output.DailyRecords = monitor.Records()
	}
	return output, nil
}
