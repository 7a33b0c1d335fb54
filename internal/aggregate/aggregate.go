// Package aggregate filters, ranks, truncates and optionally enriches a list
// of normalized events.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/daszybak/polymarket_cli/internal/enrich"
	"github.com/daszybak/polymarket_cli/internal/model"
)

// DefaultOutcomesPerEvent is how many leading outcomes per event get a delta.
const DefaultOutcomesPerEvent = 5

type SortKey string

const (
	SortVolume24h SortKey = "volume_24hr"
	SortVolume    SortKey = "volume"
	SortLiquidity SortKey = "liquidity"
	SortEndDate   SortKey = "end_date"
)

var sortKeys = map[string]SortKey{
	"volume_24hr": SortVolume24h,
	"volume24hr":  SortVolume24h,
	"volume":      SortVolume,
	"liquidity":   SortLiquidity,
	"end_date":    SortEndDate,
	"enddate":     SortEndDate,
}

// ParseSortKey accepts the snake_case keys and the catalog's camelCase names.
func ParseSortKey(s string) (SortKey, error) {
	key, ok := sortKeys[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown sort key %q (want volume_24hr, volume, liquidity or end_date)", s)
	}
	return key, nil
}

// Filter reports whether an event should be kept.
type Filter func(model.Event) bool

// TitleContainsAll keeps events whose title contains every whitespace
// separated term of query, ignoring case. An empty query keeps everything.
func TitleContainsAll(query string) Filter {
	terms := strings.Fields(strings.ToLower(query))
	return func(ev model.Event) bool {
		title := strings.ToLower(ev.Title)
		for _, term := range terms {
			if !strings.Contains(title, term) {
				return false
			}
		}
		return true
	}
}

type Options struct {
	Sort   SortKey
	Filter Filter
	// Limit caps the output, <= 0 means no cap.
	Limit  int
	Enrich bool
	// OutcomesPerEvent defaults to DefaultOutcomesPerEvent, < 0 means all.
	OutcomesPerEvent int
}

// DeltaSource computes deltas for a batch of tokens in one call.
type DeltaSource interface {
	Deltas(ctx context.Context, tokenIDs []string) enrich.Result
}

type Aggregator struct {
	deltas DeltaSource
	logger *zap.Logger
}

func New(deltas DeltaSource, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{deltas: deltas, logger: logger.With(zap.String("component", "aggregator"))}
}

// Aggregate returns at most opts.Limit events. The input slice and its events
// are left untouched.
func (a *Aggregator) Aggregate(ctx context.Context, events []model.Event, opts Options) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if opts.Filter != nil && !opts.Filter(ev) {
			continue
		}
		out = append(out, clone(ev))
	}

	Sort(out, opts.Sort)

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	if opts.Enrich && a.deltas != nil && len(out) > 0 {
		a.enrich(ctx, out, opts.OutcomesPerEvent)
	}
	return out
}

func (a *Aggregator) enrich(ctx context.Context, events []model.Event, perEvent int) {
	if perEvent == 0 {
		perEvent = DefaultOutcomesPerEvent
	}

	var tokens []string
	for i := range events {
		for _, o := range head(events[i].Outcomes, perEvent) {
			if o.TokenID != "" {
				tokens = append(tokens, o.TokenID)
			}
		}
	}
	if len(tokens) == 0 {
		return
	}

	res := a.deltas.Deltas(ctx, tokens)
	for i := range events {
		for j := range head(events[i].Outcomes, perEvent) {
			o := &events[i].Outcomes[j]
			if d, ok := res.Delta(o.TokenID); ok {
				o.PriceDelta = model.Float(d)
			}
		}
	}
	a.logger.Debug("enriched events",
		zap.Int("events", len(events)),
		zap.Int("tokens", len(tokens)),
		zap.Int("failed", len(res.Failures)),
	)
}

func head(outcomes []model.Outcome, n int) []model.Outcome {
	if n < 0 || n >= len(outcomes) {
		return outcomes
	}
	return outcomes[:n]
}

// Sort orders events in place by key. Numeric keys sort descending and
// end_date ascending with undated events last. Equal events keep their order.
func Sort(events []model.Event, key SortKey) {
	var less func(a, b *model.Event) bool
	switch key {
	case SortVolume:
		less = func(a, b *model.Event) bool { return a.VolumeTotal > b.VolumeTotal }
	case SortLiquidity:
		less = func(a, b *model.Event) bool { return a.Liquidity > b.Liquidity }
	case SortEndDate:
		less = func(a, b *model.Event) bool {
			switch {
			case a.EndDate == nil:
				return false
			case b.EndDate == nil:
				return true
			default:
				return a.EndDate.Before(*b.EndDate)
			}
		}
	default:
		less = func(a, b *model.Event) bool { return a.Volume24h > b.Volume24h }
	}

	sort.SliceStable(events, func(i, j int) bool {
		return less(&events[i], &events[j])
	})
}

func clone(ev model.Event) model.Event {
	ev.Outcomes = append([]model.Outcome(nil), ev.Outcomes...)
	return ev
}
