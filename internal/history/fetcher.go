// Package history fetches per-token price series through a cache.
package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/daszybak/polymarket_cli/internal/cache"
	"github.com/daszybak/polymarket_cli/internal/model"
)

const (
	DefaultInterval = "1d"
	DefaultFidelity = 60
)

var ErrEmptyToken = errors.New("empty token id")

// Source serves raw price history. The CLOB client implements it.
type Source interface {
	PriceHistory(ctx context.Context, tokenID, interval string, fidelity int) (model.PriceSeries, error)
}

type Config struct {
	Interval string
	Fidelity int
}

// Fetcher returns price series for tokens, consulting the cache before the source.
type Fetcher struct {
	source   Source
	cache    cache.Cache
	interval string
	fidelity int
	logger   *zap.Logger

	group singleflight.Group
}

func NewFetcher(source Source, c cache.Cache, cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Interval == "" {
		cfg.Interval = DefaultInterval
	}
	if cfg.Fidelity <= 0 {
		cfg.Fidelity = DefaultFidelity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source:   source,
		cache:    c,
		interval: cfg.Interval,
		fidelity: cfg.Fidelity,
		logger:   logger.With(zap.String("component", "history_fetcher")),
	}
}

// Series returns the price series of tokenID. An empty series is a valid
// result meaning no history in the window. Errors are never cached.
func (f *Fetcher) Series(ctx context.Context, tokenID string) (model.PriceSeries, error) {
	if tokenID == "" {
		return nil, ErrEmptyToken
	}

	key := cache.Key(tokenID, f.interval, f.fidelity)
	if series, ok := f.cache.Get(ctx, key); ok {
		f.logger.Debug("cache hit", zap.String("token", tokenID))
		return series, nil
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		// A flight for the same key may have finished since the first lookup.
		if series, ok := f.cache.Get(ctx, key); ok {
			return series, nil
		}
		series, err := f.source.PriceHistory(ctx, tokenID, f.interval, f.fidelity)
		if err != nil {
			return nil, err
		}
		f.cache.Set(ctx, key, series)
		return series, nil
	})
	if err != nil {
		return nil, fmt.Errorf("price history %s: %w", tokenID, err)
	}

	f.logger.Debug("fetched history", zap.String("token", tokenID), zap.Int("points", len(v.(model.PriceSeries))))
	return v.(model.PriceSeries), nil
}
