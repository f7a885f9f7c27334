package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Poller refreshes the current snapshot on a fixed interval.
type Poller struct {
	fetcher  *Fetcher
	interval time.Duration

	mu      sync.RWMutex
	current *Snapshot
	group   singleflight.Group
}

func NewPoller(fetcher *Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{fetcher: fetcher, interval: interval}
}

// Start fetches once and then keeps refreshing until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	if _, err := p.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("initial rule snapshot fetch failed")
	}
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("rule snapshot refresh failed")
			}
		}
	}
}

// Refresh fetches a new snapshot and publishes it. Concurrent callers share
// one fetch, which is not canceled along with the caller that started it.
func (p *Poller) Refresh(ctx context.Context) (*Snapshot, error) {
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := p.group.Do("refresh", func() (any, error) {
		s, err := p.fetcher.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		changed := p.current == nil || p.current.Version != s.Version
		p.current = s
		p.mu.Unlock()
		log.Debug().
			Str("version", s.Version).
			Bool("changed", changed).
			Int("error_count", len(s.Errors)).
			Msg("rule snapshot refreshed")
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Current returns the latest snapshot, or an empty one before the first
// successful fetch.
func (p *Poller) Current() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		e := Empty()
		e.Sources = p.fetcher.Sources()
		return e
	}
	return p.current
}

