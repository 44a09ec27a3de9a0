package types

import "time"

// TradeFees is the per-execution fee breakdown computed by internal/fee.
type TradeFees struct {
	MakerFee      float64
	TakerFee      float64
	GridFee       float64
	RegulatoryFee float64
	TotalFee      float64
}

// TradeExecution is an immutable record of one match. Price is always the
// resting order's limit price (spec §4.3 resting-price rule).
type TradeExecution struct {
	ID              string
	BuyOrderID      string
	SellOrderID     string
	Buyer           string
	Seller          string
	Price           float64
	Quantity        float64
	Location        Location
	EnergySource    EnergySource
	IsAggressiveBuy bool
	ExecutionTime   time.Time
	Fees            TradeFees
}
