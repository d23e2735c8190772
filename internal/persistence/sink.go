// Package persistence implements the append-only sqlite-backed result
// sink replica runs stream into, per spec.md §3/§6 and SPEC_FULL.md §3's
// fixed schema.
package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/glp-resilience/internal/database/repositories"
	"github.com/aristath/glp-resilience/internal/domain"
	"github.com/rs/zerolog"
)

// Sink is the sqlite-backed implementation of executor.ResultSink. Every
// completed replica's KPI row is appended to replica_kpis; replicas that
// carry a full DailyRecord sequence (the executor's bounded sample) also
// get one row per day in replica_daily_records.
type Sink struct {
	*repositories.BaseRepository
	log zerolog.Logger
}

// NewSink wraps an already-open database connection. It does not create
// the tables; call Migrate before the first write.
func NewSink(db *sql.DB, log zerolog.Logger) *Sink {
	logger := log.With().Str("component", "persistence.Sink").Logger()
	return &Sink{BaseRepository: repositories.NewBase(db, logger), log: logger}
}

// Migrate creates the replica_kpis and replica_daily_records tables if
// they do not already exist. Safe to call on every startup.
func (s *Sink) Migrate(ctx context.Context) error {
	_, err := s.DB().ExecContext(ctx, schema)
	if err != nil {
		return domain.NewPersistenceError("failed to apply persistence schema", err)
	}
	return nil
}

// WriteReplica appends one replica's KPI row, and if it carries daily
// records, its full per-day sequence. Both writes happen in a single
// transaction so a crash never leaves a KPI row without its matching
// daily records (or vice versa) for a sampled replica.
func (s *Sink) WriteReplica(ctx context.Context, out domain.ReplicaOutput) error {
	tx, err := s.DB().BeginTx(ctx, nil)
	if err != nil {
		return domain.NewPersistenceError("failed to begin persistence transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := writeKPIRow(ctx, tx, out); err != nil {
		return err
	}
	if len(out.DailyRecords) > 0 {
		if err := writeDailyRecords(ctx, tx, out); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewPersistenceError("failed to commit replica write", err)
	}
	s.log.Debug().Str("scenario_id", out.ScenarioID).Int("replica_index", out.ReplicaIndex).Msg("replica persisted")
	return nil
}

func writeKPIRow(ctx context.Context, tx *sql.Tx, out domain.ReplicaOutput) error {
	k := out.KPIs
	_, err := tx.ExecContext(ctx, insertKPISQL,
		out.ScenarioID, out.ReplicaIndex,
		k.ServiceLevelPct, k.StockoutDays, k.StockoutProbabilityPct,
		k.AvgInventoryTM, k.MinInventoryTM, k.MaxInventoryTM, k.StdInventoryTM,
		k.AvgAutonomyDays, k.MinAutonomyDays,
		k.TotalDemandTM, k.SatisfiedDemandTM, k.UnsatisfiedDemandTM,
		k.AvgDailyDemandTM, k.MaxDailyDemandTM, k.MinDailyDemandTM,
		k.TotalReceivedTM, k.TotalDispatchedTM,
		k.DisruptionCount, k.BlockedDaysTotal, k.BlockedTimePct,
		k.SimulatedDays,
	)
	if err != nil {
		return domain.NewPersistenceError(fmt.Sprintf("failed to insert KPI row for replica %d", out.ReplicaIndex), err)
	}
	return nil
}

func writeDailyRecords(ctx context.Context, tx *sql.Tx, out domain.ReplicaOutput) error {
	stmt, err := tx.PrepareContext(ctx, insertDailyRecordSQL)
	if err != nil {
		return domain.NewPersistenceError("failed to prepare daily record insert", err)
	}
	defer stmt.Close()

	for _, r := range out.DailyRecords {
		_, err := stmt.ExecContext(ctx,
			out.ScenarioID, out.ReplicaIndex, r.Day,
			r.Inventory, r.Demand, r.DemandSatisfied, r.SupplyReceived,
			boolToInt(r.Stockout), boolToInt(r.RouteBlocked), r.PendingOrders, r.AutonomyDays,
		)
		if err != nil {
			return domain.NewPersistenceError(fmt.Sprintf("failed to insert daily record for replica %d day %d", out.ReplicaIndex, r.Day), err)
		}
	}
	return nil
}

// CompletedIndices returns the replica indices already persisted for a
// scenario, so a restarted run can skip them instead of re-simulating —
// the concrete mechanism behind the executor's resume-safety.
func (s *Sink) CompletedIndices(ctx context.Context, scenarioID string) (map[int]bool, error) {
	rows, err := s.DB().QueryContext(ctx, `SELECT replica_index FROM replica_kpis WHERE scenario_id = ?`, scenarioID)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to query completed replica indices", err)
	}
	defer rows.Close()

	completed := map[int]bool{}
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, domain.NewPersistenceError("failed to scan replica index", err)
		}
		completed[idx] = true
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewPersistenceError("failed while iterating completed replica indices", err)
	}
	return completed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
