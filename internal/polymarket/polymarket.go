// Package polymarket adapts Polymarket's catalog (Gamma) and price history
// (CLOB) APIs to the Platform interface.
package polymarket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/daszybak/polymarket_cli/internal/aggregate"
	"github.com/daszybak/polymarket_cli/internal/cache"
	"github.com/daszybak/polymarket_cli/internal/catalog"
	"github.com/daszybak/polymarket_cli/internal/enrich"
	"github.com/daszybak/polymarket_cli/internal/history"
	"github.com/daszybak/polymarket_cli/internal/model"
	"github.com/daszybak/polymarket_cli/internal/platform"
	"github.com/daszybak/polymarket_cli/internal/polymarket/clob"
	"github.com/daszybak/polymarket_cli/internal/polymarket/gamma"
	"github.com/daszybak/polymarket_cli/internal/recommend"
	"github.com/daszybak/polymarket_cli/pkg/httpclient"
)

const platformName = "polymarket"

const (
	// SearchPool is how many events by total volume a search looks through.
	SearchPool = 500
	// DefaultRecommendPool is how many events by 24h volume Recommend scores.
	DefaultRecommendPool = 30
)

type Config struct {
	GammaURL string
	ClobURL  string
	Timeout  time.Duration
	Retry    httpclient.Retry

	History          history.Config
	Concurrency      int
	OutcomesPerEvent int
	ExpandBinary     bool
	MinTimeToClose   time.Duration
}

type Polymarket struct {
	gamma      *gamma.Client
	normalizer *catalog.Normalizer
	aggregator *aggregate.Aggregator
	scorer     *recommend.Scorer
	config     Config
	log        *zap.Logger
}

var _ platform.Platform = (*Polymarket)(nil)

// New wires the catalog and history clients, the history cache and the
// ranking pipeline. A nil cache falls back to an in-memory one.
func New(cfg Config, c cache.Cache, log *zap.Logger) *Polymarket {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("platform", platformName))
	if c == nil {
		c = cache.NewMemory(cache.DefaultTTL)
	}

	requester := &httpclient.Requester{
		Client: &http.Client{Timeout: cfg.Timeout},
		Retry:  cfg.Retry,
	}

	fetcher := history.NewFetcher(clob.New(cfg.ClobURL, requester), c, cfg.History, log)
	coordinator := enrich.NewCoordinator(fetcher, cfg.Concurrency, log)

	normalizer := catalog.NewNormalizer(log)
	normalizer.ExpandBinary = cfg.ExpandBinary

	scorer := recommend.NewScorer()
	if cfg.MinTimeToClose > 0 {
		scorer.MinTimeToClose = cfg.MinTimeToClose
	}

	return &Polymarket{
		gamma:      gamma.New(cfg.GammaURL, requester),
		normalizer: normalizer,
		aggregator: aggregate.New(coordinator, log),
		scorer:     scorer,
		config:     cfg,
		log:        log,
	}
}

func (p *Polymarket) TopEvents(ctx context.Context, q platform.Query) ([]model.Event, error) {
	events, err := p.listEvents(ctx, q.Sort, q.Limit)
	if err != nil {
		return nil, err
	}
	return p.aggregator.Aggregate(ctx, events, aggregate.Options{
		Sort:             q.Sort,
		Limit:            q.Limit,
		Enrich:           q.Enrich,
		OutcomesPerEvent: p.config.OutcomesPerEvent,
	}), nil
}

func (p *Polymarket) Event(ctx context.Context, slug string, enrich bool) (model.Event, error) {
	payload, err := p.gamma.EventBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gamma.ErrNotFound) {
			return model.Event{}, fmt.Errorf("event %s: %w", slug, platform.ErrNotFound)
		}
		return model.Event{}, err
	}

	ev, err := p.normalizer.Event(payload)
	if err != nil {
		if errors.Is(err, catalog.ErrNoEvent) {
			return model.Event{}, fmt.Errorf("event %s: %w", slug, platform.ErrNotFound)
		}
		return model.Event{}, fmt.Errorf("event %s: %w", slug, err)
	}

	out := p.aggregator.Aggregate(ctx, []model.Event{ev}, aggregate.Options{
		Enrich:           enrich,
		OutcomesPerEvent: -1,
	})
	return out[0], nil
}

func (p *Polymarket) Search(ctx context.Context, query string, limit int) ([]model.Event, error) {
	events, err := p.listEvents(ctx, aggregate.SortVolume, SearchPool)
	if err != nil {
		return nil, err
	}
	return p.aggregator.Aggregate(ctx, events, aggregate.Options{
		Sort:   aggregate.SortVolume,
		Filter: aggregate.TitleContainsAll(query),
		Limit:  limit,
	}), nil
}

func (p *Polymarket) Recommend(ctx context.Context, pool int) (recommend.Pick, bool, error) {
	if pool <= 0 {
		pool = DefaultRecommendPool
	}
	events, err := p.TopEvents(ctx, platform.Query{
		Limit:  pool,
		Sort:   aggregate.SortVolume24h,
		Enrich: true,
	})
	if err != nil {
		return recommend.Pick{}, false, err
	}

	pick, ok := p.scorer.Pick(events)
	if ok {
		p.log.Debug("picked outcome",
			zap.String("slug", pick.Event.Slug),
			zap.String("outcome", pick.Outcome.Name),
			zap.Float64("score", pick.Score),
		)
	}
	return pick, ok, nil
}

func (p *Polymarket) listEvents(ctx context.Context, sort aggregate.SortKey, limit int) ([]model.Event, error) {
	payload, err := p.gamma.Events(ctx, gamma.EventsParams{
		Active:    gamma.Bool(true),
		Closed:    gamma.Bool(false),
		Order:     gammaOrder(sort),
		Ascending: gamma.Bool(sort == aggregate.SortEndDate),
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	events, err := p.normalizer.Events(payload)
	if err != nil {
		return nil, err
	}
	p.log.Debug("listed events", zap.String("sort", string(sort)), zap.Int("count", len(events)))
	return events, nil
}

func gammaOrder(sort aggregate.SortKey) string {
	switch sort {
	case aggregate.SortVolume:
		return gamma.OrderVolume
	case aggregate.SortLiquidity:
		return gamma.OrderLiquidity
	case aggregate.SortEndDate:
		return gamma.OrderEndDate
	default:
		return gamma.OrderVolume24h
	}
}
