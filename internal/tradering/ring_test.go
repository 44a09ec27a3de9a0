package tradering_test

import (
	"testing"

	"github.com/gridauction/cda/internal/tradering"
	"github.com/gridauction/cda/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestRecent_NewestFirst(t *testing.T) {
	r := tradering.New(10)
	r.Add(types.TradeExecution{ID: "t1"})
	r.Add(types.TradeExecution{ID: "t2"})
	r.Add(types.TradeExecution{ID: "t3"})

	recent := r.Recent(10)
	assert.Equal(t, []string{"t3", "t2", "t1"}, ids(recent))
}

func TestRecent_LimitCappedAtCapacity(t *testing.T) {
	r := tradering.New(2)
	r.Add(types.TradeExecution{ID: "t1"})
	r.Add(types.TradeExecution{ID: "t2"})
	r.Add(types.TradeExecution{ID: "t3"}) // evicts t1

	recent := r.Recent(100)
	assert.Equal(t, []string{"t3", "t2"}, ids(recent))
	assert.Equal(t, 2, r.Len())
}

func ids(trades []types.TradeExecution) []string {
	out := make([]string, len(trades))
	for i, tr := range trades {
		out[i] = tr.ID
	}
	return out
}
