// Package enrich computes 24h price deltas for many tokens with a bounded
// number of concurrent history fetches.
package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/daszybak/polymarket_cli/internal/model"
	"github.com/daszybak/polymarket_cli/pkg/hashset"
)

// DefaultConcurrency bounds in-flight history fetches.
const DefaultConcurrency = 20

// SeriesFetcher returns the price series of one token.
type SeriesFetcher interface {
	Series(ctx context.Context, tokenID string) (model.PriceSeries, error)
}

// Result maps every requested token to its delta. A nil delta means no delta
// is available, either because the series was too short or the fetch failed.
type Result struct {
	Deltas   map[string]*float64
	Failures map[string]error
}

// Delta returns the delta for tokenID, if any.
func (r Result) Delta(tokenID string) (float64, bool) {
	d := r.Deltas[tokenID]
	if d == nil {
		return 0, false
	}
	return *d, true
}

type Coordinator struct {
	fetcher     SeriesFetcher
	concurrency int
	logger      *zap.Logger
}

func NewCoordinator(fetcher SeriesFetcher, concurrency int, logger *zap.Logger) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      logger.With(zap.String("component", "delta_coordinator")),
	}
}

// Deltas fetches history for every distinct non-empty token and waits for all
// of them. A failed fetch only affects its own token.
func (c *Coordinator) Deltas(ctx context.Context, tokenIDs []string) Result {
	res := Result{
		Deltas:   make(map[string]*float64, len(tokenIDs)),
		Failures: make(map[string]error),
	}

	seen := hashset.NewSet[string]()
	pending := make([]string, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		if tokenID == "" || seen.Has(tokenID) {
			continue
		}
		seen.Set(tokenID)
		pending = append(pending, tokenID)
		res.Deltas[tokenID] = nil
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, tokenID := range pending {
		// Go blocks until one of the concurrency slots is free.
		g.Go(func() error {
			series, err := c.fetcher.Series(ctx, tokenID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures[tokenID] = err
				return nil
			}
			if d, ok := series.Delta(); ok {
				res.Deltas[tokenID] = &d
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(res.Failures) > 0 {
		c.logger.Warn("some price histories failed",
			zap.Int("failed", len(res.Failures)),
			zap.Int("tokens", len(res.Deltas)),
		)
	}
	c.logger.Debug("computed deltas", zap.Int("tokens", len(res.Deltas)))

	return res
}
