package marketdata

import (
	"time"

	"github.com/gridauction/cda/internal/book"
	"github.com/gridauction/cda/internal/types"
)

// Depth builds an immutable market depth snapshot from a location's book,
// taking at most levels distinct price levels per side (spec §4.8). The
// levels, spread, mid and volumes depend only on book state, so two calls
// with no intervening mutation agree on all of them; the snapshot's
// Timestamp is the time of the call and differs between calls.
func Depth(loc types.Location, b *book.Book, levels int) types.MarketDepth {
	now := time.Now()

	bidLevels := b.Levels(types.Buy, levels)
	askLevels := b.Levels(types.Sell, levels)

	depth := types.MarketDepth{
		Location:  loc,
		Bids:      toDepthLevels(bidLevels),
		Asks:      toDepthLevels(askLevels),
		Timestamp: now.UnixNano(),
	}

	for _, l := range depth.Bids {
		depth.BidVolume += l.Quantity
	}
	for _, l := range depth.Asks {
		depth.AskVolume += l.Quantity
	}

	if len(depth.Bids) > 0 && len(depth.Asks) > 0 {
		bestBid := depth.Bids[0].Price
		bestAsk := depth.Asks[0].Price
		depth.Spread = bestAsk - bestBid
		depth.Mid = (bestBid + bestAsk) / 2
	}

	return depth
}

// Empty returns a zero-valued depth snapshot for a location with no
// engine (spec §4.8: "return an empty depth with zero spread/mid and
// current timestamp").
func Empty(loc types.Location) types.MarketDepth {
	return types.MarketDepth{Location: loc, Timestamp: time.Now().UnixNano()}
}

func toDepthLevels(levels []*book.PriceLevel) []types.DepthLevel {
	out := make([]types.DepthLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, types.DepthLevel{
			Price:      float64(l.Price),
			Quantity:   l.TotalQuantity(),
			OrderCount: len(l.Orders),
			Timestamp:  l.Timestamp.UnixNano(),
		})
	}
	return out
}
