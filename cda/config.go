// Package cda is the façade: a registry of per-location matching engines
// sharing one event bus, one trade ring and one fee calculator, plus a
// supervised background sweeper for order expiry. This is the public
// surface collaborators (HTTP/CLI layers, settlement, persistence —
// all out of scope here per spec.md §1) are expected to embed.
package cda

import (
	"time"

	"github.com/gridauction/cda/internal/fee"
)

// Config holds the façade's tunables. There is no env/file parsing here:
// spec.md §6 states no environment variable is defined by the core, so
// a caller builds a Config by value and passes it to New.
type Config struct {
	// EventBufferSize bounds the per-subscriber event channel (spec §4.9).
	EventBufferSize int
	// MaxTradesInMemory bounds the shared trade-execution ring (spec §4.9).
	MaxTradesInMemory int
	// SweepInterval is how often the maintenance task scans every
	// location's order manager for expired GTT/DAY orders (spec §4.7).
	SweepInterval time.Duration
	// FeeRates is the initial fee schedule (spec §4.5); hot-swappable
	// afterwards via Market.UpdateFeeRates.
	FeeRates fee.Rates
}

// DefaultConfig matches the defaults called out across spec.md §4.5/§4.9.
func DefaultConfig() Config {
	return Config{
		EventBufferSize:   1000,
		MaxTradesInMemory: 10000,
		SweepInterval:     60 * time.Second,
		FeeRates:          fee.DefaultRates(),
	}
}
