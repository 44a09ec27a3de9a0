// Package marketdata builds depth snapshots from book state and hosts the
// compatibility predicate matching uses to decide whether two resting
// orders may trade (spec §4.4, §4.8).
package marketdata

import "github.com/gridauction/cda/internal/types"

// Compatible is a pure, total, time-independent predicate (spec §4.4):
// two orders may trade only if they share the same location exactly, and
// their energy sources are equal, or either side is Mixed (wildcard), or
// either side left its source unspecified.
func Compatible(a, b *types.CDAOrder) bool {
	if a.Location != b.Location {
		return false
	}
	return sourceCompatible(a.EnergySource, b.EnergySource)
}

func sourceCompatible(a, b types.EnergySource) bool {
	if a == b {
		return true
	}
	if a == types.Mixed || b == types.Mixed {
		return true
	}
	if a == types.EnergySourceUnspecified || b == types.EnergySourceUnspecified {
		return true
	}
	return false
}
