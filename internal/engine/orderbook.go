package engine

import "github.com/aristath/glp-resilience/internal/domain"

// OrderBook tracks in-transit replenishment orders for one replica. It
// is never shared across replicas or goroutines.
type OrderBook struct {
	orders []*domain.Order
	nextID int64
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// Len returns the number of currently open (in-transit) orders.
func (b *OrderBook) Len() int {
	return len(b.orders)
}

// Place creates a new order and adds it to the book. The caller is
// responsible for enforcing the max-concurrent-orders cap before calling.
func (b *OrderBook) Place(quantity float64, placedDay, scheduledArrivalDay int) *domain.Order {
	b.nextID++
	o := &domain.Order{
		ID:                  b.nextID,
		QuantityTM:          quantity,
		PlacedDay:           placedDay,
		ScheduledArrivalDay: scheduledArrivalDay,
	}
	b.orders = append(b.orders, o)
	return o
}

// PopArrivals removes and returns every order scheduled to arrive on
// day, in order of placement. Removal happens before the caller deposits
// their quantity into inventory, so Len() reflects post-arrival state.
func (b *OrderBook) PopArrivals(day int) []*domain.Order {
	var arrived []*domain.Order
	remaining := b.orders[:0]
	for _, o := range b.orders {
		if o.ScheduledArrivalDay == day {
			arrived = append(arrived, o)
		} else {
			remaining = append(remaining, o)
		}
	}
	b.orders = remaining
	return arrived
}

// BumpBefore walks every open order and extends (never shortens) the
// arrival day of any order scheduled to arrive on or before unblockDay,
// to unblockDay+1. This implements the spec's mandate that a change to
// unblock_day re-checks the entire open order book, not just orders
// placed after the disruption began.
func (b *OrderBook) BumpBefore(unblockDay int) {
	for _, o := range b.orders {
		if o.ScheduledArrivalDay <= unblockDay {
			o.ScheduledArrivalDay = unblockDay + 1
		}
	}
}
