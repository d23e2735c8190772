package engine

import (
	"math"

	"github.com/aristath/glp-resilience/internal/domain"
)

// inventoryTolerance bounds the floating-point slack allowed when
// checking the 0 <= inventory <= capacity invariant after each day.
const inventoryTolerance = 1e-6

// Clock drives one replica's day-by-day simulation. It owns no mutable
// state of its own (the day index is passed to Step by the caller); all
// mutable state belongs to the hub, route, order book and monitor it is
// handed.
type Clock struct {
	scenario    domain.Scenario
	hub         *domain.HubState
	route       *domain.RouteState
	book        *OrderBook
	disruptions *DisruptionGenerator
	monitor     *Monitor
	streams     ReplicaStreams
}

// NewClock assembles a clock for one replica from its component state.
func NewClock(s domain.Scenario, hub *domain.HubState, route *domain.RouteState, book *OrderBook, disruptions *DisruptionGenerator, monitor *Monitor, streams ReplicaStreams) *Clock {
	return &Clock{
		scenario:    s,
		hub:         hub,
		route:       route,
		book:        book,
		disruptions: disruptions,
		monitor:     monitor,
		streams:     streams,
	}
}

// Step advances the simulation by exactly one day, running the five
// phases in the fixed order mandated by spec.md §4.2: arrivals,
// disruption update, demand, reorder evaluation, monitoring. Returns a
// RuntimeInvariantViolation if the inventory invariant is broken.
func (c *Clock) Step(day int) error {
	// Phase 1: Arrivals.
	var supplyReceived float64
	for _, o := range c.book.PopArrivals(day) {
		supplyReceived += c.hub.Deposit(o.QuantityTM)
	}

	// Phase 2: Disruption update.
	if !c.route.Operational && day > c.route.UnblockDay {
		c.route.Operational = true
	}
	for c.disruptions.ArrivesOn(day) {
		duration := SampleDurationDays(c.scenario, c.streams.Route)
		ApplyDisruption(c.route, c.book, day, duration)
		c.monitor.NoteDisruption()
	}

	// Phase 3: Demand.
	demand := SampleDemand(c.scenario, day, c.streams.Demand)
	satisfied := c.hub.Withdraw(demand)
	stockout := satisfied < demand

	// Phase 4: Reorder evaluation (uses post-demand inventory).
	EvaluateReorder(c.scenario, c.hub, c.route, c.book, day)

	// Phase 5: Monitoring.
	autonomy := c.hub.Level() / c.scenario.DemandBaseDailyTM
	c.monitor.Append(domain.DailyRecord{
		Day:             day,
		Inventory:       c.hub.Level(),
		Demand:          demand,
		DemandSatisfied: satisfied,
		SupplyReceived:  supplyReceived,
		Stockout:        stockout,
		RouteBlocked:    !c.route.Operational,
		PendingOrders:   c.book.Len(),
		AutonomyDays:    autonomy,
	})

	if c.hub.Level() < -inventoryTolerance*c.hub.CapacityTM || c.hub.Level() > c.hub.CapacityTM+inventoryTolerance*c.hub.CapacityTM {
		return domain.NewRuntimeInvariantViolation("inventory left [0, capacity] bounds", nil)
	}
	if math.IsNaN(c.hub.Level()) {
		return domain.NewRuntimeInvariantViolation("inventory became NaN", nil)
	}
	return nil
}
