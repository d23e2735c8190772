package engine

import (
	"math"

	"github.com/aristath/glp-resilience/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Monitor records one DailyRecord per simulated day and reduces them
// into the fixed KPIVector at the end of a replica run. It is owned
// exclusively by one replica.
type Monitor struct {
	records         []domain.DailyRecord
	disruptionCount int
}

// NewMonitor preallocates storage for a known horizon.
func NewMonitor(horizonDays int) *Monitor {
	return &Monitor{records: make([]domain.DailyRecord, 0, horizonDays)}
}

// Append adds an immutable daily record. Called once per day, last in
// the phase order (spec.md §4.2 step 5).
func (m *Monitor) Append(r domain.DailyRecord) {
	m.records = append(m.records, r)
}

// NoteDisruption increments the distinct-disruption counter. Called once
// per disruption arrival, independent of how many days it blocks.
func (m *Monitor) NoteDisruption() {
	m.disruptionCount++
}

// Records returns the recorded daily sequence.
func (m *Monitor) Records() []domain.DailyRecord {
	return m.records
}

// Reduce produces the fixed KPI vector from the recorded days, per
// spec.md §4.8.
func (m *Monitor) Reduce(demandBaseDailyTM float64) domain.KPIVector {
	n := len(m.records)
	kpi := domain.KPIVector{SimulatedDays: n}
	if n == 0 {
		return kpi
	}

	inventories := make([]float64, n)
	autonomies := make([]float64, n)
	demands := make([]float64, n)

	var totalDemand, totalSatisfied, totalReceived float64
	var stockoutDays, blockedDays int
	minInv, maxInv := math.Inf(1), math.Inf(-1)
	minAuto := math.Inf(1)
	minDemand, maxDemand := math.Inf(1), math.Inf(-1)

	for i, r := range m.records {
		inventories[i] = r.Inventory
		autonomies[i] = r.AutonomyDays
		demands[i] = r.Demand

		totalDemand += r.Demand
		totalSatisfied += r.DemandSatisfied
		totalReceived += r.SupplyReceived

		if r.Stockout {
			stockoutDays++
		}
		if r.RouteBlocked {
			blockedDays++
		}
		minInv = math.Min(minInv, r.Inventory)
		maxInv = math.Max(maxInv, r.Inventory)
		minAuto = math.Min(minAuto, r.AutonomyDays)
		minDemand = math.Min(minDemand, r.Demand)
		maxDemand = math.Max(maxDemand, r.Demand)
	}

	kpi.ServiceLevelPct = 0
	if totalDemand > 0 {
		kpi.ServiceLevelPct = 100 * totalSatisfied / totalDemand
	}
	kpi.StockoutDays = stockoutDays
	kpi.StockoutProbabilityPct = 100 * float64(stockoutDays) / float64(n)

	kpi.AvgInventoryTM = stat.Mean(inventories, nil)
	kpi.MinInventoryTM = minInv
	kpi.MaxInventoryTM = maxInv
	kpi.StdInventoryTM = stat.StdDev(inventories, nil)

	kpi.AvgAutonomyDays = stat.Mean(autonomies, nil)
	kpi.MinAutonomyDays = minAuto

	kpi.TotalDemandTM = totalDemand
	kpi.SatisfiedDemandTM = totalSatisfied
	kpi.UnsatisfiedDemandTM = totalDemand - totalSatisfied
	kpi.AvgDailyDemandTM = stat.Mean(demands, nil)
	kpi.MaxDailyDemandTM = maxDemand
	kpi.MinDailyDemandTM = minDemand

	kpi.TotalReceivedTM = totalReceived
	kpi.TotalDispatchedTM = totalSatisfied

	kpi.DisruptionCount = m.disruptionCount
	kpi.BlockedDaysTotal = blockedDays
	kpi.BlockedTimePct = 100 * float64(blockedDays) / float64(n)

	return kpi
}
