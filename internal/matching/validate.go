package matching

import (
	"math"

	"github.com/gridauction/cda/internal/types"
)

// validate is the admission check spec §4.2 runs before an order ever
// reaches a location's book. A rejection leaves the engine untouched.
func validate(o *types.CDAOrder) error {
	if o.RemainingQuantity <= 0 {
		return types.InvalidOrder("quantity must be positive")
	}
	if o.Price <= 0 || math.IsInf(o.Price, 0) || math.IsNaN(o.Price) {
		return types.InvalidOrder("price must be positive")
	}
	if o.Owner == "" {
		return types.InvalidOrder("account id required")
	}
	return nil
}
