package cda

import (
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// sweeper runs the periodic maintenance task that sweeps every
// location's expired GTT/DAY orders. Lifecycle is supervised with
// tomb.v2: a single ticker-driven goroutine with clean shutdown via
// t.Dying().
type sweeper struct {
	t *tomb.Tomb
}

func startSweeper(m *Market, interval time.Duration) *sweeper {
	if interval <= 0 {
		interval = 60 * time.Second
	}

	s := &sweeper{t: new(tomb.Tomb)}
	s.t.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.t.Dying():
				return nil
			case now := <-ticker.C:
				for _, loc := range m.locations() {
					expired := m.engineFor(loc).SweepExpired(now)
					if len(expired) > 0 {
						log.Debug().
							Str("grid_code", loc.GridCode).
							Int("count", len(expired)).
							Msg("swept expired orders")
					}
				}
			}
		}
	})
	return s
}

func (s *sweeper) stop() {
	s.t.Kill(nil)
	_ = s.t.Wait()
}
