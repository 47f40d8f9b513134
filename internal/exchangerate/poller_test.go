package exchangerate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	name  string
	rates map[string]float64
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchRates(ctx context.Context) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

func TestPoller_PollOnceMergesAllProviders(t *testing.T) {
	store := NewStore()
	a := &fakeProvider{name: "a", rates: map[string]float64{"BTC": 60000}}
	b := &fakeProvider{name: "b", rates: map[string]float64{"ETH": 3000}}
	poller := NewPoller(store, []Provider{a, b}, time.Second)

	poller.pollOnce(context.Background())

	btc, ok := store.Rate("BTC")
	assert.True(t, ok)
	assert.Equal(t, 60000.0, btc)
	eth, ok := store.Rate("ETH")
	assert.True(t, ok)
	assert.Equal(t, 3000.0, eth)
}

func TestPoller_OneProviderFailureDoesNotBlockOthers(t *testing.T) {
	store := NewStore()
	failing := &fakeProvider{name: "failing", err: assert.AnError}
	ok := &fakeProvider{name: "ok", rates: map[string]float64{"EUR": 0.9}}
	poller := NewPoller(store, []Provider{failing, ok}, time.Second)

	poller.pollOnce(context.Background())

	rate, found := store.Rate("EUR")
	assert.True(t, found)
	assert.Equal(t, 0.9, rate)
}

func TestPoller_RunStopsOnContextCancel(t *testing.T) {
	store := NewStore()
	provider := &fakeProvider{name: "a", rates: map[string]float64{"BTC": 1}}
	poller := NewPoller(store, []Provider{provider}, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	assert.GreaterOrEqual(t, provider.calls, 1)
}
