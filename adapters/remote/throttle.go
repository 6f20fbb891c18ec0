package remote

import (
	"context"
	"sync"

	"github.com/artpar/attio/domain/ratelimit"
	"github.com/artpar/attio/ports"
)

// Pacer holds outgoing requests to a fixed window budget so a busy
// process stays below the API's published limits instead of collecting
// 429s.
type Pacer struct {
	mu    sync.Mutex
	cfg   ratelimit.Config
	state ratelimit.WindowState
	clock ports.Clock
}

// NewPacer returns a pacer admitting cfg.Limit requests per cfg.Window.
func NewPacer(cfg ratelimit.Config, clk ports.Clock) *Pacer {
	return &Pacer{cfg: cfg, clock: clk}
}

// Wait blocks until the next request fits the window or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		now := p.clock.Now()
		result, next := ratelimit.Check(p.state, p.cfg, now)
		p.state = next
		p.mu.Unlock()

		if result.Allowed {
			return nil
		}
		if err := p.clock.Sleep(ctx, ratelimit.CalculateDelay(result, now)); err != nil {
			return err
		}
	}
}
