package book

import (
	"time"

	"github.com/gridauction/cda/internal/types"
)

// PriceLevel holds all resting orders at one price, in FIFO submission
// order: incompatible orders are skipped in place (never re-queued at the
// tail), and full fills are removed without disturbing the order of the
// rest.
type PriceLevel struct {
	Price     types.PriceKey
	Orders    []*types.CDAOrder
	Timestamp time.Time // last time this level's composition changed
}

func newPriceLevel(price types.PriceKey) *PriceLevel {
	return &PriceLevel{Price: price, Timestamp: time.Now()}
}

// append adds an order to the tail of the FIFO queue (residual insertion,
// spec §4.3).
func (l *PriceLevel) append(o *types.CDAOrder) {
	l.Orders = append(l.Orders, o)
	l.Timestamp = time.Now()
}

// removeAt deletes the order at index i, preserving the relative order of
// the remaining orders (used by cancel and full-fill removal).
func (l *PriceLevel) removeAt(i int) {
	l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
	l.Timestamp = time.Now()
}

// empty reports whether the level has no resting orders left.
func (l *PriceLevel) empty() bool {
	return len(l.Orders) == 0
}

// TotalQuantity sums remaining quantity across the level, for depth
// aggregation.
func (l *PriceLevel) TotalQuantity() float64 {
	var total float64
	for _, o := range l.Orders {
		total += o.RemainingQuantity
	}
	return total
}
