// Command gridsim is a small demo/load-generator for the cda façade. It
// drives the market in-process rather than over a wire protocol, since
// submission transport is left to an external collaborator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridauction/cda/cda"
	"github.com/gridauction/cda/internal/eventbus"
	"github.com/gridauction/cda/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	locationCount := flag.Int("locations", 2, "number of simulated grid locations")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	market := cda.New(cda.DefaultConfig())
	defer market.Close()

	sub := market.Subscribe()
	defer sub.Close()

	go watchEvents(ctx, sub)

	locations := simulatedLocations(*locationCount)
	for _, loc := range locations {
		seedOrderFeed(market, loc)
	}

	for _, loc := range locations {
		depth := market.Depth(loc, 5)
		log.Info().
			Str("grid_code", loc.GridCode).
			Float64("spread", depth.Spread).
			Float64("mid", depth.Mid).
			Int("bid_levels", len(depth.Bids)).
			Int("ask_levels", len(depth.Asks)).
			Msg("depth snapshot")
	}

	recent := market.RecentTrades(10)
	fmt.Printf("%d trade(s) executed across %d location(s)\n", len(recent), len(locations))
	for _, trade := range recent {
		fmt.Printf("  %s %s@%.2f x%.1f fee=%.4f\n", trade.Location.GridCode, trade.EnergySource, trade.Price, trade.Quantity, trade.Fees.TotalFee)
	}
}

func simulatedLocations(n int) []types.Location {
	if n <= 0 {
		n = 1
	}
	locs := make([]types.Location, 0, n)
	for i := 0; i < n; i++ {
		locs = append(locs, types.Location{
			Province: "Guangdong",
			GridCode: fmt.Sprintf("GD-%02d", i+1),
		})
	}
	return locs
}

// feedOrder is one step of a scripted order feed, standing in for
// whatever external decoder would turn an incoming wire message into an
// order — here there is no wire format, just a literal script.
type feedOrder struct {
	owner string
	side  types.Side
	price float64
	qty   float64
	tif   types.TimeInForce
}

func seedOrderFeed(market *cda.Market, loc types.Location) {
	script := []feedOrder{
		{"solar-farm-1", types.Sell, 48.50, 200, types.GTC},
		{"wind-farm-1", types.Sell, 49.00, 150, types.GTC},
		{"utility-buyer-1", types.Buy, 47.00, 100, types.GTC},
		{"trader-a", types.Buy, 49.25, 120, types.GTC},
		{"arb-desk", types.Buy, 60.00, 500, types.IOC},
		{"peaker-plant", types.Sell, 55.00, 50, types.FOK},
		{"daytrader", types.Buy, 50.00, 10, types.DAY},
	}

	for _, step := range script {
		order := &types.CDAOrder{
			Owner:             step.owner,
			Side:              step.side,
			Price:             step.price,
			RemainingQuantity: step.qty,
			EnergySource:      types.Mixed,
			Location:          loc,
			TimeInForce:       step.tif,
		}
		if step.tif == types.GTT {
			order.GoodTilTime = time.Now().Add(time.Minute)
		}

		trades, err := market.Submit(order)
		if err != nil {
			log.Warn().Err(err).Str("owner", step.owner).Msg("order rejected")
			continue
		}
		if len(trades) > 0 {
			log.Info().Str("owner", step.owner).Int("fills", len(trades)).Msg("order matched on submission")
		}
	}
}

// watchEvents logs every event on the shared bus until ctx is cancelled,
// demonstrating the non-blocking broadcast surface (spec §4.9) including
// the Lagged signal a slow subscriber would see.
func watchEvents(ctx context.Context, sub *eventbus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if msg.Lagged != nil {
				log.Warn().Uint64("missed", msg.Lagged.Missed).Msg("event subscriber lagged")
				continue
			}
			logEvent(msg.Event)
		}
	}
}

func logEvent(evt *types.Event) {
	entry := log.Debug()
	switch evt.Kind {
	case types.EventOrderAdded:
		entry.Str("kind", "order_added").Str("order_id", evt.Order.ID)
	case types.EventOrderCancelled:
		entry.Str("kind", "order_cancelled").Str("order_id", evt.OrderID)
	case types.EventOrderExecuted:
		entry.Str("kind", "order_executed").Str("trade_id", evt.Trade.ID)
	case types.EventOrderExpired:
		entry.Str("kind", "order_expired").Str("order_id", evt.OrderID)
	case types.EventMarketDepthUpdate:
		entry.Str("kind", "depth_update")
	}
	entry.Msg("event")
}
