package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daszybak/polymarket_cli/internal/cache"
	"github.com/daszybak/polymarket_cli/internal/history"
	"github.com/daszybak/polymarket_cli/internal/model"
)

// countingSource records how many fetches are in flight at once.
type countingSource struct {
	series map[string]model.PriceSeries
	fail   map[string]error
	delay  time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	mu       sync.Mutex
	peak     int32
}

func (s *countingSource) PriceHistory(_ context.Context, tokenID, _ string, _ int) (model.PriceSeries, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	if n > s.peak {
		s.peak = n
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := s.fail[tokenID]; err != nil {
		return nil, err
	}
	return s.series[tokenID], nil
}

func (s *countingSource) Peak() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

func newCoordinator(src history.Source, concurrency int) *Coordinator {
	f := history.NewFetcher(src, cache.NewMemory(time.Minute), history.Config{}, zap.NewNop())
	return NewCoordinator(f, concurrency, zap.NewNop())
}

func TestDeltas_Values(t *testing.T) {
	src := &countingSource{series: map[string]model.PriceSeries{
		"moving": {{Timestamp: 0, Price: 0.50}, {Timestamp: 1, Price: 0.60}, {Timestamp: 2, Price: 0.55}},
		"flat":   {{Timestamp: 0, Price: 0.5}, {Timestamp: 1, Price: 0.5}},
		"single": {{Timestamp: 0, Price: 0.5}},
		"empty":  {},
	}}
	c := newCoordinator(src, 4)

	res := c.Deltas(context.Background(), []string{"moving", "flat", "single", "empty"})

	require.Len(t, res.Deltas, 4)
	d, ok := res.Delta("moving")
	require.True(t, ok)
	assert.InDelta(t, 0.05, d, 1e-9)

	d, ok = res.Delta("flat")
	require.True(t, ok, "flat series must yield a zero delta, not an absent one")
	assert.Zero(t, d)

	_, ok = res.Delta("single")
	assert.False(t, ok)
	_, ok = res.Delta("empty")
	assert.False(t, ok)
	assert.Empty(t, res.Failures)
}

func TestDeltas_ConcurrencyBound(t *testing.T) {
	src := &countingSource{series: map[string]model.PriceSeries{}, delay: 20 * time.Millisecond}
	tokens := make([]string, 10)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
		src.series[tokens[i]] = model.PriceSeries{{Timestamp: 0, Price: 0.1}, {Timestamp: 1, Price: 0.2}}
	}
	c := newCoordinator(src, 2)

	res := c.Deltas(context.Background(), tokens)

	assert.Len(t, res.Deltas, 10)
	assert.Equal(t, int32(10), src.calls.Load())
	assert.LessOrEqual(t, src.Peak(), int32(2))
	assert.Zero(t, src.inFlight.Load(), "all tasks must finish before Deltas returns")
}

func TestDeltas_FailureIsIsolated(t *testing.T) {
	src := &countingSource{
		series: map[string]model.PriceSeries{},
		fail:   map[string]error{"tok-3": errors.New("503")},
	}
	tokens := make([]string, 10)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
		src.series[tokens[i]] = model.PriceSeries{{Timestamp: 0, Price: 0.4}, {Timestamp: 1, Price: 0.45}}
	}
	c := newCoordinator(src, 3)

	res := c.Deltas(context.Background(), tokens)

	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures, "tok-3")
	_, ok := res.Delta("tok-3")
	assert.False(t, ok)

	for _, tok := range tokens {
		if tok == "tok-3" {
			continue
		}
		d, ok := res.Delta(tok)
		require.True(t, ok, tok)
		assert.InDelta(t, 0.05, d, 1e-9)
	}
}

func TestDeltas_SecondCallWithinTTLHitsCache(t *testing.T) {
	src := &countingSource{series: map[string]model.PriceSeries{
		"a": {{Timestamp: 0, Price: 0.2}, {Timestamp: 1, Price: 0.3}},
		"b": {{Timestamp: 0, Price: 0.7}, {Timestamp: 1, Price: 0.6}},
	}}
	c := newCoordinator(src, 2)
	ctx := context.Background()

	first := c.Deltas(ctx, []string{"a", "b"})
	callsAfterFirst := src.calls.Load()
	second := c.Deltas(ctx, []string{"a", "b"})

	assert.Equal(t, int32(2), callsAfterFirst)
	assert.Equal(t, callsAfterFirst, src.calls.Load(), "no extra fetches within the ttl")
	assert.Equal(t, first.Deltas, second.Deltas)
}

func TestDeltas_SkipsEmptyAndDuplicateTokens(t *testing.T) {
	src := &countingSource{series: map[string]model.PriceSeries{
		"a": {{Timestamp: 0, Price: 0.2}, {Timestamp: 1, Price: 0.3}},
	}}
	c := newCoordinator(src, 2)

	res := c.Deltas(context.Background(), []string{"a", "", "a"})

	assert.Len(t, res.Deltas, 1)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestDeltas_NoTokens(t *testing.T) {
	c := newCoordinator(&countingSource{}, 2)
	res := c.Deltas(context.Background(), nil)
	assert.Empty(t, res.Deltas)
	assert.Empty(t, res.Failures)
}

func TestNewCoordinator_DefaultConcurrency(t *testing.T) {
	c := NewCoordinator(nil, 0, nil)
	assert.Equal(t, DefaultConcurrency, c.concurrency)
}
