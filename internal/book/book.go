// Package book implements the per-location bid/ask order books: two
// price-ordered structures of FIFO queues, sparse (only price levels
// with live volume exist). Price levels are kept in a
// github.com/tidwall/btree.BTreeG so best-of-book and ordered walks are
// O(log n) without hand-rolled tree balancing.
package book

import (
	"github.com/gridauction/cda/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
)

// Levels is the price-ordered structure backing one side of a book.
type Levels = btree.BTreeG[*PriceLevel]

// Book holds both sides for one location. It is a plain data structure —
// all concurrency control lives one layer up, in matching.Engine, per
// spec §5's single consistency domain.
type Book struct {
	Bids *Levels // highest price first
	Asks *Levels // lowest price first

	// index maps an order id straight to its resting price level, so
	// Cancel doesn't need to scan every level.
	index map[string]types.PriceKey
}

func New() *Book {
	return &Book{
		Bids: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return types.LessDescending(a.Price, b.Price)
		}),
		Asks: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return types.LessAscending(a.Price, b.Price)
		}),
		index: make(map[string]types.PriceKey),
	}
}

func (b *Book) sideTree(side types.Side) *Levels {
	if side == types.Buy {
		return b.Bids
	}
	return b.Asks
}

// BestLevel peeks the best (highest bid / lowest ask) resting level for a
// side without building a full depth snapshot (spec §9 supplemental
// BestPrices).
func (b *Book) BestLevel(side types.Side) (*PriceLevel, bool) {
	return b.sideTree(side).Min()
}

// Insert places an order at the tail of its price level's FIFO queue,
// creating the level if it doesn't exist yet, and records it in the
// cancel index (spec §4.3 residual handling).
func (b *Book) Insert(o *types.CDAOrder) {
	tree := b.sideTree(o.Side)
	key := types.PriceKey(o.Price)

	level, ok := tree.Get(&PriceLevel{Price: key})
	if !ok {
		level = newPriceLevel(key)
		tree.Set(level)
	}
	level.append(o)
	b.index[o.ID] = key
}

// Cancel removes an order from its resting price level by id. Returns
// false if the order isn't present in this book (spec §4.6).
func (b *Book) Cancel(o *types.CDAOrder) bool {
	tree := b.sideTree(o.Side)
	key, ok := b.index[o.ID]
	if !ok {
		return false
	}
	level, ok := tree.Get(&PriceLevel{Price: key})
	if !ok {
		delete(b.index, o.ID)
		return false
	}
	for i, resting := range level.Orders {
		if resting.ID == o.ID {
			level.removeAt(i)
			break
		}
	}
	if level.empty() {
		tree.Delete(level)
	}
	delete(b.index, o.ID)
	return true
}

func oppositeSide(side types.Side) types.Side {
	if side == types.Buy {
		return types.Sell
	}
	return types.Buy
}

// crosses reports whether an incoming order at incomingPrice may trade
// against a resting level at levelPrice (spec §4.3 cross condition): a
// buy crosses an ask iff buy price >= ask price; symmetrically for sell.
func crosses(side types.Side, incomingPrice float64, level types.PriceKey) bool {
	if side == types.Buy {
		return incomingPrice >= float64(level)
	}
	return incomingPrice <= float64(level)
}

// snapshotLevels returns the opposite-side levels in price-time priority
// walk order for an order of the given side: ascending asks for an
// incoming buy, descending bids for an incoming sell (spec §4.3). The
// snapshot is safe to iterate while the caller mutates level contents or
// deletes exhausted levels from the tree, because the caller holds the
// per-location lock for the whole operation — no new level can appear at
// a better price mid-walk.
func (b *Book) snapshotLevels(side types.Side) []*PriceLevel {
	tree := b.sideTree(oppositeSide(side))
	var out []*PriceLevel
	tree.Scan(func(level *PriceLevel) bool {
		out = append(out, level)
		return true
	})
	return out
}

// Match walks the opposite side in price-time priority and feeds every
// candidate resting order to compatible. For each compatible candidate it
// computes the crossing quantity, invokes onTrade (for fee computation
// and event publication) before mutating state, then decrements both
// sides' remaining quantity. A resting order that reaches zero remaining
// is spliced out of its FIFO queue and reported via onRestingFilled so
// the caller can drop it from the order manager too — a resting order
// skipped for incompatibility keeps its exact queue position (spec §4.3,
// §8 property 5). Match returns once incoming is fully filled or no
// further level crosses.
func (b *Book) Match(
	incoming *types.CDAOrder,
	compatible func(resting *types.CDAOrder) bool,
	onTrade func(resting *types.CDAOrder, qty float64, level types.PriceKey),
	onRestingFilled func(resting *types.CDAOrder),
) {
	tree := b.sideTree(oppositeSide(incoming.Side))
	for _, level := range b.snapshotLevels(incoming.Side) {
		if incoming.Terminal() {
			return
		}
		if !crosses(incoming.Side, incoming.Price, level.Price) {
			return
		}

		idx := 0
		for idx < len(level.Orders) && !incoming.Terminal() {
			resting := level.Orders[idx]
			if !compatible(resting) {
				idx++
				continue
			}

			qty := minFloat(incoming.RemainingQuantity, resting.RemainingQuantity)
			onTrade(resting, qty, level.Price)

			incoming.Fill(qty)
			resting.Fill(qty)
			if incoming.RemainingQuantity < 0 || resting.RemainingQuantity < 0 {
				// Unreachable given qty = min(incoming, resting) above;
				// a negative remainder means the conservation invariant
				// (spec §3, §8 property 1) broke upstream of this call.
				log.Error().
					Str("incoming_id", incoming.ID).
					Str("resting_id", resting.ID).
					Msg("invariant violation: remaining quantity went negative during match")
				panic(types.Internal("remaining quantity went negative during match"))
			}

			if resting.Terminal() {
				level.removeAt(idx)
				delete(b.index, resting.ID)
				onRestingFilled(resting)
			} else {
				idx++
			}
		}

		if level.empty() {
			tree.Delete(level)
		}
	}
}

// Achievable reports whether incoming's full remaining quantity could be
// filled against currently crossable, compatible liquidity, without
// mutating any state — the pre-trade check FOK orders require (spec
// §4.3: "before mutating any state, check that the full quantity is
// achievable").
func (b *Book) Achievable(incoming *types.CDAOrder, compatible func(resting *types.CDAOrder) bool) bool {
	need := incoming.RemainingQuantity
	for _, level := range b.snapshotLevels(incoming.Side) {
		if need <= 0 {
			return true
		}
		if !crosses(incoming.Side, incoming.Price, level.Price) {
			break
		}
		for _, resting := range level.Orders {
			if !compatible(resting) {
				continue
			}
			need -= resting.RemainingQuantity
			if need <= 0 {
				return true
			}
		}
	}
	return need <= 0
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Levels returns up to n price levels from one side, in best-first order,
// as an immutable snapshot for depth aggregation (spec §4.8).
func (b *Book) Levels(side types.Side, n int) []*PriceLevel {
	var out []*PriceLevel
	b.sideTree(side).Scan(func(level *PriceLevel) bool {
		if len(out) >= n {
			return false
		}
		out = append(out, level)
		return true
	})
	return out
}
