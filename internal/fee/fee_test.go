package fee_test

import (
	"testing"

	"github.com/gridauction/cda/internal/fee"
	"github.com/stretchr/testify/assert"
)

func TestCompute_Taker(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	result := calc.Compute(10.0, 5.0, true)

	assert.InDelta(t, 0.1, result.TakerFee, 1e-9)
	assert.Zero(t, result.MakerFee)
	assert.InDelta(t, 0.25, result.GridFee, 1e-9)
	assert.InDelta(t, 0.025, result.RegulatoryFee, 1e-9)
	assert.InDelta(t, 0.375, result.TotalFee, 1e-9)
}

func TestCompute_Maker(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	result := calc.Compute(10.0, 5.0, false)

	assert.Zero(t, result.TakerFee)
	assert.InDelta(t, 0.05, result.MakerFee, 1e-9)
	assert.InDelta(t, 0.325, result.TotalFee, 1e-9)
}

func TestSetRates_DoesNotRetroactivelyAlterComputedFees(t *testing.T) {
	calc := fee.NewCalculator(fee.DefaultRates())

	before := calc.Compute(100.0, 1.0, true)

	calc.SetRates(fee.Rates{TakerRate: 0.01, MakerRate: 0.01, GridRate: 0.01, RegulatoryRate: 0.01})
	after := calc.Compute(100.0, 1.0, true)

	assert.NotEqual(t, before.TotalFee, after.TotalFee)
	assert.InDelta(t, 0.75, before.TotalFee, 1e-9)
	assert.InDelta(t, 3.0, after.TotalFee, 1e-9)
}
