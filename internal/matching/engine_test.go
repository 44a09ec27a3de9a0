package matching_test

import (
	"testing"
	"time"

	"github.com/gridauction/cda/internal/eventbus"
	"github.com/gridauction/cda/internal/fee"
	"github.com/gridauction/cda/internal/matching"
	"github.com/gridauction/cda/internal/tradering"
	"github.com/gridauction/cda/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *matching.Engine {
	bus := eventbus.New(1000)
	trades := tradering.New(10000)
	fees := fee.NewCalculator(fee.DefaultRates())
	return matching.New(types.Location{Province: "Guangdong"}, fees, bus, trades)
}

func limitOrder(owner string, side types.Side, price, qty float64, tif types.TimeInForce) *types.CDAOrder {
	return &types.CDAOrder{
		Owner:             owner,
		Side:              side,
		Price:             price,
		RemainingQuantity: qty,
		EnergySource:      types.Solar,
		TimeInForce:       tif,
	}
}

// S1 — No cross, both rest.
func TestS1_NoCrossBothRest(t *testing.T) {
	e := newTestEngine()

	trades, err := e.Submit(limitOrder("seller", types.Sell, 52, 100, types.GTC))
	require.NoError(t, err)
	assert.Empty(t, trades)

	trades, err = e.Submit(limitOrder("buyer", types.Buy, 49, 50, types.GTC))
	require.NoError(t, err)
	assert.Empty(t, trades)

	depth := e.Depth(10)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, 49.0, depth.Bids[0].Price)
	assert.Equal(t, 50.0, depth.Bids[0].Quantity)
	assert.Equal(t, 52.0, depth.Asks[0].Price)
	assert.Equal(t, 100.0, depth.Asks[0].Quantity)
	assert.InDelta(t, 3.0, depth.Spread, 1e-9)
	assert.InDelta(t, 50.5, depth.Mid, 1e-9)
}

// S2 — Full match, aggressor buyer, price improvement.
func TestS2_FullMatchPriceImprovement(t *testing.T) {
	e := newTestEngine()
	_, err := e.Submit(limitOrder("seller", types.Sell, 52, 100, types.GTC))
	require.NoError(t, err)
	_, err = e.Submit(limitOrder("buyer1", types.Buy, 49, 50, types.GTC))
	require.NoError(t, err)

	trades, err := e.Submit(limitOrder("buyer2", types.Buy, 53, 80, types.GTC))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, 52.0, trades[0].Price)
	assert.Equal(t, 80.0, trades[0].Quantity)
	assert.True(t, trades[0].IsAggressiveBuy)

	depth := e.Depth(10)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, 20.0, depth.Asks[0].Quantity)
	require.Len(t, depth.Bids, 1)
	assert.Equal(t, 50.0, depth.Bids[0].Quantity)
}

// S3 — Multi-level walk.
func TestS3_MultiLevelWalk(t *testing.T) {
	e := newTestEngine()
	_, err := e.Submit(limitOrder("a", types.Sell, 50, 30, types.GTC))
	require.NoError(t, err)
	_, err = e.Submit(limitOrder("b", types.Sell, 50, 20, types.GTC))
	require.NoError(t, err)
	_, err = e.Submit(limitOrder("c", types.Sell, 51, 40, types.GTC))
	require.NoError(t, err)

	trades, err := e.Submit(limitOrder("buyer", types.Buy, 51, 75, types.GTC))
	require.NoError(t, err)

	require.Len(t, trades, 3)
	assert.Equal(t, 50.0, trades[0].Price)
	assert.Equal(t, 30.0, trades[0].Quantity)
	assert.Equal(t, 50.0, trades[1].Price)
	assert.Equal(t, 20.0, trades[1].Quantity)
	assert.Equal(t, 51.0, trades[2].Price)
	assert.Equal(t, 25.0, trades[2].Quantity)

	depth := e.Depth(10)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, 51.0, depth.Asks[0].Price)
	assert.Equal(t, 15.0, depth.Asks[0].Quantity)
}

// S4 — IOC partial.
func TestS4_IOCPartial(t *testing.T) {
	e := newTestEngine()
	_, err := e.Submit(limitOrder("seller", types.Sell, 50, 40, types.GTC))
	require.NoError(t, err)

	trades, err := e.Submit(limitOrder("buyer", types.Buy, 50, 100, types.IOC))
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, 40.0, trades[0].Quantity)

	depth := e.Depth(10)
	assert.Empty(t, depth.Asks)
	assert.Empty(t, depth.Bids)
}

// S5 — FOK rejection.
func TestS5_FOKRejection(t *testing.T) {
	e := newTestEngine()
	_, err := e.Submit(limitOrder("seller", types.Sell, 50, 40, types.GTC))
	require.NoError(t, err)

	trades, err := e.Submit(limitOrder("buyer", types.Buy, 50, 100, types.FOK))
	require.NoError(t, err)
	assert.Empty(t, trades)

	depth := e.Depth(10)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, 40.0, depth.Asks[0].Quantity)
}

// S6 — GTT expiry.
func TestS6_GTTExpiry(t *testing.T) {
	e := newTestEngine()
	start := time.Now()

	o := limitOrder("seller", types.Sell, 60, 10, types.GTT)
	o.GoodTilTime = start.Add(5 * time.Second)
	_, err := e.Submit(o)
	require.NoError(t, err)

	expired := e.SweepExpired(start.Add(6 * time.Second))
	require.Len(t, expired, 1)

	depth := e.Depth(10)
	assert.Empty(t, depth.Asks)

	assert.False(t, e.Cancel(o.ID))
}

// Price-time priority: equal-price bids are consumed in arrival order.
func TestPriceTimePriority(t *testing.T) {
	e := newTestEngine()
	_, err := e.Submit(limitOrder("first", types.Buy, 50, 10, types.GTC))
	require.NoError(t, err)
	_, err = e.Submit(limitOrder("second", types.Buy, 50, 10, types.GTC))
	require.NoError(t, err)

	trades, err := e.Submit(limitOrder("seller", types.Sell, 50, 15, types.GTC))
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, "first", trades[0].Buyer)
	assert.Equal(t, 10.0, trades[0].Quantity)
	assert.Equal(t, "second", trades[1].Buyer)
	assert.Equal(t, 5.0, trades[1].Quantity)
}

// Incompatible top-of-book entries are skipped without losing queue
// position, and do not block matching against deeper compatible orders.
func TestIncompatibleEnergySourceSkipped(t *testing.T) {
	e := newTestEngine()

	wind := limitOrder("wind-seller", types.Sell, 50, 10, types.GTC)
	wind.EnergySource = types.Wind
	_, err := e.Submit(wind)
	require.NoError(t, err)

	solar := limitOrder("solar-seller", types.Sell, 50, 10, types.GTC)
	solar.EnergySource = types.Solar
	_, err = e.Submit(solar)
	require.NoError(t, err)

	buyer := limitOrder("buyer", types.Buy, 50, 10, types.GTC)
	buyer.EnergySource = types.Solar
	trades, err := e.Submit(buyer)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, "solar-seller", trades[0].Seller)

	depth := e.Depth(10)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, 10.0, depth.Asks[0].Quantity) // wind order still resting
}

func TestCancel_Idempotent(t *testing.T) {
	e := newTestEngine()
	_, err := e.Submit(limitOrder("seller", types.Sell, 50, 10, types.GTC))
	require.NoError(t, err)

	depth := e.Depth(10)
	require.Len(t, depth.Asks, 1)

	// We need the order id; fetch it by subscribing isn't necessary here —
	// cancel through a second submit+cancel round trip instead.
	o := limitOrder("seller2", types.Sell, 60, 5, types.GTC)
	_, err = e.Submit(o)
	require.NoError(t, err)

	assert.True(t, e.Cancel(o.ID))
	assert.False(t, e.Cancel(o.ID))
}

func TestInvalidOrder_Rejected(t *testing.T) {
	e := newTestEngine()

	_, err := e.Submit(limitOrder("", types.Buy, 50, 10, types.GTC))
	assert.Error(t, err)

	_, err = e.Submit(limitOrder("owner", types.Buy, 0, 10, types.GTC))
	assert.Error(t, err)

	_, err = e.Submit(limitOrder("owner", types.Buy, 50, 0, types.GTC))
	assert.Error(t, err)
}

func TestOrder_FoundAndNotFound(t *testing.T) {
	e := newTestEngine()
	o := limitOrder("seller", types.Sell, 50, 10, types.GTC)
	_, err := e.Submit(o)
	require.NoError(t, err)

	found, err := e.Order(o.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, found.RemainingQuantity)

	_, err = e.Order("does-not-exist")
	assert.Error(t, err)
	var engErr *types.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, types.KindNotFound, engErr.Kind)
}

func TestConservation_QuantityInvariant(t *testing.T) {
	e := newTestEngine()
	_, err := e.Submit(limitOrder("seller", types.Sell, 50, 40, types.GTC))
	require.NoError(t, err)

	buyer := limitOrder("buyer", types.Buy, 50, 25, types.GTC)
	_, err = e.Submit(buyer)
	require.NoError(t, err)

	assert.Equal(t, buyer.FilledQuantity+buyer.RemainingQuantity, buyer.OriginalQuantity)
}
