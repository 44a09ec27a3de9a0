// Package ordermanager owns order-lifetime metadata: the all-live-orders
// index by id, and an expiry index holding each DAY/GTT order's deadline
// (keyed by order id, not by deadline). It is the manager half of
// spec §9's "cyclic ownership" resolution — books and manager both
// reference the same live order by id, and every mutation goes through the
// caller's single critical section so the two indices cannot diverge.
package ordermanager

import (
	"time"

	"github.com/gridauction/cda/internal/types"
)

// Manager indexes live orders by id and, for orders with a deadline
// (DAY, GTT), records that deadline per order id; Expired scans every
// recorded deadline. It holds no lock of its own — callers
// (matching.Engine) serialize access under their own per-location mutex,
// per spec §5's single consistency domain.
type Manager struct {
	orders      map[string]*types.CDAOrder
	expiryIndex map[string]time.Time // order id -> deadline, only for DAY/GTT
}

func New() *Manager {
	return &Manager{
		orders:      make(map[string]*types.CDAOrder),
		expiryIndex: make(map[string]time.Time),
	}
}

// deadline computes the expiry instant for an order's time-in-force, if
// it has one. DAY uses the simplified "24h from submission" rule spec §4.7
// and §9 note 2 flag as a simplification left to the host to refine.
func deadline(o *types.CDAOrder) (time.Time, bool) {
	switch o.TimeInForce {
	case types.GTT:
		return o.GoodTilTime, true
	case types.DAY:
		return o.PriorityTimestamp.Add(24 * time.Hour), true
	default:
		return time.Time{}, false
	}
}

// Register adds a live resting order to the index. GTC/DAY/GTT orders are
// registered; IOC/FOK never rest so are never registered (spec §4.7).
func (m *Manager) Register(o *types.CDAOrder) {
	m.orders[o.ID] = o
	if d, ok := deadline(o); ok {
		m.expiryIndex[o.ID] = d
	}
}

// Get returns the live order by id, if present.
func (m *Manager) Get(id string) (*types.CDAOrder, bool) {
	o, ok := m.orders[id]
	return o, ok
}

// Remove drops an order from both indices. Safe to call on an id that was
// never registered.
func (m *Manager) Remove(id string) {
	delete(m.orders, id)
	delete(m.expiryIndex, id)
}

// Len reports how many live orders are currently tracked.
func (m *Manager) Len() int {
	return len(m.orders)
}

// Expired returns the ids of all orders whose deadline has passed as of
// now. Callers remove each returned id from the books and then from this
// manager via Remove, through the same locked path submits use (spec §4.7).
func (m *Manager) Expired(now time.Time) []string {
	var ids []string
	for id, d := range m.expiryIndex {
		if !now.Before(d) {
			ids = append(ids, id)
		}
	}
	return ids
}
