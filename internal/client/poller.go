package client

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval matches the refresh cadence the desktop frontend
// uses.
const DefaultPollInterval = 5 * time.Second

// Poller periodically refreshes a cache. At most one polling loop is
// ever active: starting the poller for a new cache stops the previous
// loop first, so switching working directories never leaves a stale
// timer running against the old one.
type Poller struct {
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller with the given tick interval. A zero or
// negative interval falls back to DefaultPollInterval.
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval}
}

// Start begins refreshing the cache on every tick, stopping any loop
// started earlier. The first refresh happens after one interval, not
// immediately; call cache.Refresh directly for an eager first load.
func (p *Poller) Start(cache *Cache) {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cache.Refresh(ctx)
			}
		}
	}()
}

// Stop cancels the active polling loop, if any, and waits for it to
// exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
