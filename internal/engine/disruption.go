package engine

import (
	"math"
	"math/rand"

	"github.com/aristath/glp-resilience/internal/domain"
)

// DisruptionGenerator pre-samples every disruption arrival day for a
// replica's horizon using inter-arrival draws from Exp(lambda), per
// spec.md §4.4: this is insensitive to discretization and preserves the
// exact Poisson distribution of event counts, unlike a per-day Bernoulli
// approximation.
type DisruptionGenerator struct {
	arrivalDays []int
	cursor      int
	s           domain.Scenario
}

// NewDisruptionGenerator pre-samples arrival days over [1, horizonDays]
// from the route stream.
func NewDisruptionGenerator(s domain.Scenario, stream *rand.Rand) *DisruptionGenerator {
	lambda := s.DisruptionRatePerYear / 365.0
	g := &DisruptionGenerator{s: s}
	if lambda <= 0 {
		return g
	}

	t := 0.0
	for {
		// ExpFloat64 draws Exp(1); scale by 1/lambda for Exp(lambda).
		t += stream.ExpFloat64() / lambda
		if t > float64(s.HorizonDays) {
			break
		}
		g.arrivalDays = append(g.arrivalDays, int(math.Ceil(t)))
	}
	return g
}

// ArrivesOn reports whether a disruption arrives on day t, consuming it
// from the queue if so. Multiple disruptions can arrive on the same day;
// each is returned on successive calls.
func (g *DisruptionGenerator) ArrivesOn(day int) bool {
	if g.cursor >= len(g.arrivalDays) {
		return false
	}
	if g.arrivalDays[g.cursor] == day {
		g.cursor++
		return true
	}
	return false
}

// SampleDurationDays draws a Triangular(min, mode, max) duration and
// rounds it up to whole days, per the spec's mandated rounding rule.
func SampleDurationDays(s domain.Scenario, stream *rand.Rand) int {
	d := sampleTriangular(s.DisruptionDurationMinD, s.DisruptionDurationModeD, s.DisruptionDurationMaxD, stream)
	return int(math.Ceil(d))
}

// sampleTriangular draws from Triangular(min, mode, max) via inverse
// transform sampling.
func sampleTriangular(min, mode, max float64, stream *rand.Rand) float64 {
	if max <= min {
		return min
	}
	u := stream.Float64()
	fc := (mode - min) / (max - min)
	if u < fc {
		return min + math.Sqrt(u*(max-min)*(mode-min))
	}
	return max - math.Sqrt((1-u)*(max-min)*(max-mode))
}

// ApplyDisruption activates a disruption starting on day t against the
// route and order book, per spec.md §4.4: new disruptions extend an
// already-blocked route's unblock day (union semantics), and any change
// to unblock_day re-walks the entire open order book.
func ApplyDisruption(route *domain.RouteState, book *OrderBook, day int, durationDays int) {
	newUnblock := day + durationDays - 1

	route.Operational = false
	route.UnblockDay = max(route.UnblockDay, newUnblock)

	book.BumpBefore(route.UnblockDay)
}
