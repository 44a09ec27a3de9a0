// Package matching implements the per-location matching engine: the
// add/cancel/match primitives bound to one location's book and order
// manager, run under a single writer mutex per spec §5's consistency
// domain: a lockable, multi-location, multi-time-in-force engine.
package matching

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gridauction/cda/internal/book"
	"github.com/gridauction/cda/internal/eventbus"
	"github.com/gridauction/cda/internal/fee"
	"github.com/gridauction/cda/internal/marketdata"
	"github.com/gridauction/cda/internal/ordermanager"
	"github.com/gridauction/cda/internal/tradering"
	"github.com/gridauction/cda/internal/types"
	"github.com/rs/zerolog/log"
)

// depthEventLevels bounds the MarketDepthUpdate snapshot published after
// every book mutation — deep enough for a dashboard, shallow enough that
// publishing it on every trade isn't itself the bottleneck.
const depthEventLevels = 10

// Engine owns one location's books and order manager and serializes every
// mutation (submit, cancel, expiry sweep) behind a single mutex, so the
// two indices — book and manager — can never diverge (spec §9 "cyclic
// ownership"). The event bus and trade ring are shared across locations
// by the façade and injected here; Engine appends to them inside its
// critical section so the published order matches the commit order
// (spec §5).
type Engine struct {
	mu sync.Mutex

	location types.Location
	book     *book.Book
	manager  *ordermanager.Manager
	fees     *fee.Calculator
	bus      *eventbus.Bus
	trades   *tradering.Ring
	seq      uint64
}

func New(location types.Location, fees *fee.Calculator, bus *eventbus.Bus, trades *tradering.Ring) *Engine {
	return &Engine{
		location: location,
		book:     book.New(),
		manager:  ordermanager.New(),
		fees:     fees,
		bus:      bus,
		trades:   trades,
	}
}

// Submit validates, matches and (if any quantity remains and the
// time-in-force allows) rests the order, per spec §4.3. It returns the
// list of executions produced by this single incoming order, in the
// order they were matched.
func (e *Engine) Submit(o *types.CDAOrder) ([]types.TradeExecution, error) {
	if err := validate(o); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.Location = e.location
	o.OriginalQuantity = o.RemainingQuantity
	o.PriorityTimestamp = time.Now()
	o.Sequence = e.seq
	e.seq++

	compatible := func(resting *types.CDAOrder) bool {
		return marketdata.Compatible(o, resting)
	}

	if o.TimeInForce == types.FOK && !e.book.Achievable(o, compatible) {
		// Reject without any partial execution (spec §4.3 FOK rule).
		e.bus.Publish(types.Event{Kind: types.EventOrderCancelled, OrderID: o.ID})
		log.Debug().Str("location", o.Location.GridCode).Str("order_id", o.ID).Msg("fok order rejected, liquidity unachievable")
		return nil, nil
	}

	var executions []types.TradeExecution

	onTrade := func(resting *types.CDAOrder, qty float64, level types.PriceKey) {
		trade := e.buildExecution(o, resting, qty, float64(level))
		executions = append(executions, trade)
		e.trades.Add(trade)
		e.bus.Publish(types.Event{Kind: types.EventOrderExecuted, Trade: &trade})
	}
	onRestingFilled := func(resting *types.CDAOrder) {
		e.manager.Remove(resting.ID)
	}

	e.book.Match(o, compatible, onTrade, onRestingFilled)

	if o.RemainingQuantity <= 0 {
		e.publishDepthLocked()
		return executions, nil
	}

	switch o.TimeInForce {
	case types.IOC, types.FOK:
		e.bus.Publish(types.Event{Kind: types.EventOrderCancelled, OrderID: o.ID})
	default:
		e.book.Insert(o)
		e.manager.Register(o)
		snapshot := o.Snapshot()
		e.bus.Publish(types.Event{Kind: types.EventOrderAdded, Order: &snapshot})
	}

	e.publishDepthLocked()
	return executions, nil
}

// publishDepthLocked emits a MarketDepthUpdate for the committed book state.
// Called at the end of every mutation (submit, cancel, expiry) while still
// holding e.mu, so the depth event is ordered with the state-transition
// event that triggered it (spec §5: "events ... are published inside the
// critical section").
func (e *Engine) publishDepthLocked() {
	depth := marketdata.Depth(e.location, e.book, depthEventLevels)
	e.bus.Publish(types.Event{Kind: types.EventMarketDepthUpdate, Depth: &depth})
}

// buildExecution constructs a TradeExecution at the resting order's price
// (spec §4.3 "resting-price rule") with fees attached for both sides.
// incoming is always the taker; resting is always the maker.
func (e *Engine) buildExecution(incoming, resting *types.CDAOrder, qty, execPrice float64) types.TradeExecution {
	var buy, sell *types.CDAOrder
	if incoming.Side == types.Buy {
		buy, sell = incoming, resting
	} else {
		buy, sell = resting, incoming
	}

	// Grid and regulatory fees apply once per trade (spec §4.5), so only
	// the taker-side Compute contributes them; the maker-side call is
	// consulted for its MakerFee alone.
	takerFees := e.fees.Compute(execPrice, qty, true)
	makerFees := e.fees.Compute(execPrice, qty, false)
	fees := types.TradeFees{
		TakerFee:      takerFees.TakerFee,
		MakerFee:      makerFees.MakerFee,
		GridFee:       takerFees.GridFee,
		RegulatoryFee: takerFees.RegulatoryFee,
	}
	fees.TotalFee = fees.TakerFee + fees.MakerFee + fees.GridFee + fees.RegulatoryFee

	return types.TradeExecution{
		ID:              uuid.New().String(),
		BuyOrderID:      buy.ID,
		SellOrderID:     sell.ID,
		Buyer:           buy.Owner,
		Seller:          sell.Owner,
		Price:           execPrice,
		Quantity:        qty,
		Location:        e.location,
		EnergySource:    resting.EnergySource,
		IsAggressiveBuy: incoming.Side == types.Buy,
		ExecutionTime:   time.Now(),
		Fees:            fees,
	}
}

// Order looks up a live resting order by id, returning types.NotFound if
// it isn't currently on the book (spec §7: "NotFound — surfaced for query
// APIs"; cancel itself returns bool rather than erroring, but a query path
// needs the structured error).
func (e *Engine) Order(id string) (types.CDAOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.manager.Get(id)
	if !ok {
		return types.CDAOrder{}, types.NotFound("order " + id)
	}
	return o.Snapshot(), nil
}

// Cancel removes a resting order from the book and manager, publishing
// OrderCancelled. Returns false, without error, if the id isn't live
// (spec §4.6, §8 property 10: two cancels yield (true, false)).
func (e *Engine) Cancel(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelLocked(id)
}

func (e *Engine) cancelLocked(id string) bool {
	o, ok := e.manager.Get(id)
	if !ok {
		return false
	}
	e.book.Cancel(o)
	e.manager.Remove(id)
	e.bus.Publish(types.Event{Kind: types.EventOrderCancelled, OrderID: id})
	e.publishDepthLocked()
	return true
}

// SweepExpired removes every order whose deadline has passed as of now,
// publishing OrderExpired for each, through the same locked cancellation
// path submits use (spec §4.7, §9 "periodic maintenance").
func (e *Engine) SweepExpired(now time.Time) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := e.manager.Expired(now)
	for _, id := range ids {
		o, ok := e.manager.Get(id)
		if !ok {
			continue
		}
		e.book.Cancel(o)
		e.manager.Remove(id)
		e.bus.Publish(types.Event{Kind: types.EventOrderExpired, OrderID: id})
	}
	if len(ids) > 0 {
		e.publishDepthLocked()
	}
	return ids
}

// Depth builds a point-in-time market depth snapshot (spec §4.8).
func (e *Engine) Depth(levels int) types.MarketDepth {
	e.mu.Lock()
	defer e.mu.Unlock()
	return marketdata.Depth(e.location, e.book, levels)
}

// BestPrices peeks the best bid/ask without building a full depth
// snapshot (spec §6, §11 supplement). Either return may be nil if that
// side is empty.
func (e *Engine) BestPrices() (bid, ask *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if level, ok := e.book.BestLevel(types.Buy); ok {
		v := float64(level.Price)
		bid = &v
	}
	if level, ok := e.book.BestLevel(types.Sell); ok {
		v := float64(level.Price)
		ask = &v
	}
	return bid, ask
}

// Stats is a lightweight order-count/volume summary.
type Stats struct {
	LiveOrders int
	BidVolume  float64
	AskVolume  float64
}

// Stats reports the engine's current bookkeeping totals.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var bidVol, askVol float64
	for _, level := range e.book.Levels(types.Buy, math.MaxInt32) {
		bidVol += level.TotalQuantity()
	}
	for _, level := range e.book.Levels(types.Sell, math.MaxInt32) {
		askVol += level.TotalQuantity()
	}
	return Stats{LiveOrders: e.manager.Len(), BidVolume: bidVol, AskVolume: askVol}
}

// UpdateFeeRates hot-swaps the fee schedule used for future executions
// (spec §4.5). Serialized under this engine's lock, so the change cannot
// land in the middle of one of this engine's trades. The calculator is
// shared, so the swap is not serialized with other engines' matching, and
// Market.UpdateFeeRates calls SetRates directly without taking this lock.
func (e *Engine) UpdateFeeRates(rates fee.Rates) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fees.SetRates(rates)
}
