package exchangerate

import (
	"context"
	"time"

	"github.com/ilpgo/connector/internal/logging"
)

// Provider fetches a USD-denominated rate table from one upstream.
type Provider interface {
	Name() string
	FetchRates(ctx context.Context) (map[string]float64, error)
}

// Poller runs a set of Providers on a fixed interval, merging each
// successful response into Store. A provider error only drops that
// provider's update; it never blocks the others or stops the loop.
type Poller struct {
	Store     *Store
	Providers []Provider
	Interval  time.Duration

	logger interface {
		Errorw(msg string, keysAndValues ...interface{})
		Infow(msg string, keysAndValues ...interface{})
	}
}

// NewPoller returns a Poller over store using providers, polling every
// interval (defaulting to 60s if non-positive).
func NewPoller(store *Store, providers []Provider, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		Store:     store,
		Providers: providers,
		Interval:  interval,
		logger:    logging.For("exchangerate"),
	}
}

// Run polls immediately, then every Interval, until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	p.pollOnce(ctx)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	for _, provider := range p.Providers {
		rates, err := provider.FetchRates(ctx)
		if err != nil {
			p.logger.Errorw("rate provider poll failed", "provider", provider.Name(), "error", err)
			continue
		}
		p.Store.Merge(rates)
		p.logger.Infow("rate provider polled", "provider", provider.Name(), "count", len(rates))
	}
}
