// Package fee computes the per-execution fee breakdown (spec §4.5). It is
// a pure function of (price, quantity, is_taker) and a Rates configuration
// that can be hot-swapped without altering past executions.
package fee

import (
	"sync"

	"github.com/gridauction/cda/internal/types"
)

// Rates holds the configurable fee percentages. Defaults match spec §4.5.
type Rates struct {
	TakerRate      float64
	MakerRate      float64
	GridRate       float64
	RegulatoryRate float64
}

// DefaultRates returns the default fee schedule.
func DefaultRates() Rates {
	return Rates{
		TakerRate:      0.002,
		MakerRate:      0.001,
		GridRate:       0.005,
		RegulatoryRate: 0.0005,
	}
}

// Calculator applies a Rates schedule. It is shared across every
// location's matching.Engine (fee rates are market-wide, not
// per-location), so it guards rates with its own mutex rather than
// relying on a caller's lock. Swapping rates never alters a
// TradeExecution already stamped with its own TradeFees.
type Calculator struct {
	mu    sync.RWMutex
	rates Rates
}

func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Rates returns the calculator's current schedule.
func (c *Calculator) Rates() Rates {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rates
}

// SetRates hot-swaps the fee schedule for all future Compute calls.
func (c *Calculator) SetRates(rates Rates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates = rates
}

// Compute returns the fee breakdown for one side of a trade. isTaker
// distinguishes the aggressor (pays TakerFee) from the resting maker
// (pays MakerFee); grid and regulatory fees always apply.
func (c *Calculator) Compute(price, quantity float64, isTaker bool) types.TradeFees {
	c.mu.RLock()
	rates := c.rates
	c.mu.RUnlock()

	tradeValue := price * quantity

	var taker, maker float64
	if isTaker {
		taker = tradeValue * rates.TakerRate
	} else {
		maker = tradeValue * rates.MakerRate
	}
	grid := tradeValue * rates.GridRate
	regulatory := tradeValue * rates.RegulatoryRate

	return types.TradeFees{
		MakerFee:      maker,
		TakerFee:      taker,
		GridFee:       grid,
		RegulatoryFee: regulatory,
		TotalFee:      maker + taker + grid + regulatory,
	}
}
