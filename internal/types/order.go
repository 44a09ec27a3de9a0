// Package types holds the data model shared across the matching engine:
// orders, trades, fees, locations and the totally-ordered price key the
// books are indexed by.
package types

import "time"

// Side is which way an order crosses the book.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// EnergySource is a closed set of generation categories. Mixed acts as a
// wildcard for compatibility matching (see marketdata.Compatible).
type EnergySource int

const (
	EnergySourceUnspecified EnergySource = iota
	Solar
	Wind
	Hydro
	Nuclear
	Gas
	Coal
	Mixed
)

func (s EnergySource) String() string {
	switch s {
	case Solar:
		return "solar"
	case Wind:
		return "wind"
	case Hydro:
		return "hydro"
	case Nuclear:
		return "nuclear"
	case Gas:
		return "gas"
	case Coal:
		return "coal"
	case Mixed:
		return "mixed"
	default:
		return "unspecified"
	}
}

// TimeInForce governs how long an unfilled order rests.
type TimeInForce int

const (
	GTC TimeInForce = iota // Good-Til-Cancelled
	IOC                    // Immediate-Or-Cancel
	FOK                    // Fill-Or-Kill
	DAY                    // expires 24h from priority timestamp
	GTT                    // Good-Til-Time, see CDAOrder.GoodTilTime
)

// Location is the opaque compound key partitioning the market into
// independent books. Every field participates in equality — locations are
// compared by value, so Location is safe as a map key.
type Location struct {
	Province  string
	District  string
	Region    string
	Substation string
	GridCode  string
	MeterID   string
	Latitude  float64
	Longitude float64
}

// CDAOrder is a single resting or incoming buy/sell instruction.
type CDAOrder struct {
	ID                string
	Owner             string
	Side              Side
	OriginalQuantity  float64
	FilledQuantity    float64
	RemainingQuantity float64
	Price             float64
	Location          Location
	EnergySource      EnergySource
	PriorityTimestamp time.Time
	Sequence          uint64 // tie-break for equal PriorityTimestamp
	TimeInForce       TimeInForce
	GoodTilTime       time.Time // only meaningful when TimeInForce == GTT
	PostOnly          bool      // reserved, never consulted (spec §9 note 5)

	// IcebergQuantity is reserved hidden-liquidity bookkeeping. It is never
	// consulted by matching — dormant per spec §9 note 5.
	IcebergQuantity float64
}

// Terminal reports whether the order has no remaining quantity and must
// leave the books and the order manager.
func (o *CDAOrder) Terminal() bool {
	return o.RemainingQuantity <= 0
}

// Fill decrements the remaining quantity by qty and increments filled,
// preserving the OriginalQuantity = FilledQuantity + RemainingQuantity
// invariant (spec §3 Conservation).
func (o *CDAOrder) Fill(qty float64) {
	o.RemainingQuantity -= qty
	o.FilledQuantity += qty
}

// Snapshot returns a value copy safe to hand to event subscribers without
// sharing the live order's backing memory.
func (o *CDAOrder) Snapshot() CDAOrder {
	return *o
}
