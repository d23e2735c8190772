package engine

import "github.com/aristath/glp-resilience/internal/domain"

// EvaluateReorder applies the (Q, R) policy described in spec.md §4.6:
// if post-demand inventory is at or below the reorder point, the route
// is operational, and the open-order cap hasn't been hit, place exactly
// one order of the configured quantity. Reorder never fires while the
// route is blocked — the deficit is absorbed by waiting.
func EvaluateReorder(s domain.Scenario, hub *domain.HubState, route *domain.RouteState, book *OrderBook, day int) {
	if hub.Level() > s.ReorderPointTM {
		return
	}
	if !route.Operational {
		return
	}
	if book.Len() >= s.MaxConcurrentOrders {
		return
	}
	book.Place(s.OrderQuantityTM, day, day+s.NominalLeadTimeD)
}
