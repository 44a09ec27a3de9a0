package cda

import (
	"sync"
	"time"

	"github.com/gridauction/cda/internal/eventbus"
	"github.com/gridauction/cda/internal/fee"
	"github.com/gridauction/cda/internal/marketdata"
	"github.com/gridauction/cda/internal/matching"
	"github.com/gridauction/cda/internal/tradering"
	"github.com/gridauction/cda/internal/types"
	"github.com/rs/zerolog/log"
)

// Market is the public façade over every location's matching engine. It
// owns the registry of per-location engines plus the resources those
// engines share market-wide: the event bus, the trade ring and the fee
// calculator. The registry is a mutex-guarded map, locked only to
// add/remove/iterate entries, never held across blocking work.
type Market struct {
	cfg Config

	bus    *eventbus.Bus
	trades *tradering.Ring
	fees   *fee.Calculator

	mu       sync.Mutex
	engines  map[types.Location]*matching.Engine
	sweeper  *sweeper
}

// New builds a Market from cfg. Call Close when done to stop the
// background sweeper.
func New(cfg Config) *Market {
	m := &Market{
		cfg:     cfg,
		bus:     eventbus.New(cfg.EventBufferSize),
		trades:  tradering.New(cfg.MaxTradesInMemory),
		fees:    fee.NewCalculator(cfg.FeeRates),
		engines: make(map[types.Location]*matching.Engine),
	}
	m.sweeper = startSweeper(m, cfg.SweepInterval)
	return m
}

// engineFor returns the engine for loc, creating one on first use
// (spec §5: locations are independent consistency domains, created
// lazily rather than pre-registered).
func (m *Market) engineFor(loc types.Location) *matching.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.engines[loc]
	if !ok {
		e = matching.New(loc, m.fees, m.bus, m.trades)
		m.engines[loc] = e
		log.Info().Str("grid_code", loc.GridCode).Msg("location engine created")
	}
	return e
}

// lookupEngine returns the engine for loc if one already exists, without
// creating one — used by the read-only query paths so probing an unknown
// location doesn't permanently grow the registry (spec §4.8: "if a
// location has no engine, return an empty depth").
func (m *Market) lookupEngine(loc types.Location) (*matching.Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engines[loc]
	return e, ok
}

// locations returns a snapshot of every location with an engine.
func (m *Market) locations() []types.Location {
	m.mu.Lock()
	defer m.mu.Unlock()

	locs := make([]types.Location, 0, len(m.engines))
	for loc := range m.engines {
		locs = append(locs, loc)
	}
	return locs
}

// Submit routes o to its location's engine (spec §4.3, §6).
func (m *Market) Submit(o *types.CDAOrder) ([]types.TradeExecution, error) {
	return m.engineFor(o.Location).Submit(o)
}

// Cancel removes a resting order from loc's book. Returns false if the id
// is not live at loc, including when it is unknown or already terminal
// (spec §4.6).
func (m *Market) Cancel(loc types.Location, id string) bool {
	return m.engineFor(loc).Cancel(id)
}

// Order looks up a live resting order by id at loc, returning a NotFound
// error if it isn't currently resting there (spec §7).
func (m *Market) Order(loc types.Location, id string) (types.CDAOrder, error) {
	e, ok := m.lookupEngine(loc)
	if !ok {
		return types.CDAOrder{}, types.NotFound("order " + id)
	}
	return e.Order(id)
}

// Depth builds a market-depth snapshot for loc (spec §4.8). A location with
// no engine yet (no order has ever been submitted there) gets an empty
// snapshot rather than spinning up an engine just to read it.
func (m *Market) Depth(loc types.Location, levels int) types.MarketDepth {
	e, ok := m.lookupEngine(loc)
	if !ok {
		return marketdata.Empty(loc)
	}
	return e.Depth(levels)
}

// BestPrices peeks loc's best bid/ask without a full depth snapshot.
func (m *Market) BestPrices(loc types.Location) (bid, ask *float64) {
	e, ok := m.lookupEngine(loc)
	if !ok {
		return nil, nil
	}
	return e.BestPrices()
}

// Stats reports loc's current order-count/volume bookkeeping.
func (m *Market) Stats(loc types.Location) matching.Stats {
	e, ok := m.lookupEngine(loc)
	if !ok {
		return matching.Stats{}
	}
	return e.Stats()
}

// Subscribe registers a new subscriber on the shared event bus (spec §6).
// Events from every location interleave on one stream; callers that only
// care about one location filter on the event's order/trade/depth
// Location. OrderCancelled and OrderExpired events carry only the order
// id, not a Location.
func (m *Market) Subscribe() *eventbus.Subscription {
	return m.bus.Subscribe()
}

// RecentTrades returns up to limit of the most recent executions across
// every location, newest first (spec §6, §4.9).
func (m *Market) RecentTrades(limit int) []types.TradeExecution {
	return m.trades.Recent(limit)
}

// UpdateFeeRates hot-swaps the fee schedule shared by every location
// (spec §4.5). Past executions are unaffected.
func (m *Market) UpdateFeeRates(rates fee.Rates) {
	m.fees.SetRates(rates)
}

// SweepNow runs one expiry sweep over every location immediately, rather
// than waiting for the background ticker. Exposed for callers (and tests)
// that need a deterministic maintenance pass instead of racing the
// sweeper's interval.
func (m *Market) SweepNow(now time.Time) {
	for _, loc := range m.locations() {
		m.engineFor(loc).SweepExpired(now)
	}
}

// Close stops the background sweeper and closes the event bus, which
// closes every outstanding subscription's channel. Engines and their books
// are left as-is (persistence/durability are out of scope, spec.md §1).
func (m *Market) Close() {
	m.sweeper.stop()
	m.bus.Close()
}
