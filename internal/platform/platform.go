// Package platform provides an adapter interface for prediction market platforms.
package platform

import (
	"context"
	"errors"

	"github.com/daszybak/polymarket_cli/internal/aggregate"
	"github.com/daszybak/polymarket_cli/internal/model"
	"github.com/daszybak/polymarket_cli/internal/recommend"
)

// ErrNotFound is returned when a looked up event does not exist.
var ErrNotFound = errors.New("not found")

// Query selects the top events of a platform.
type Query struct {
	Limit  int
	Sort   aggregate.SortKey
	Enrich bool
}

type Platform interface {
	// TopEvents returns active events ranked by q.Sort.
	TopEvents(ctx context.Context, q Query) ([]model.Event, error)
	// Event looks up a single event, enriching every outcome when enrich is set.
	Event(ctx context.Context, slug string, enrich bool) (model.Event, error)
	// Search returns active events whose title contains every term of query.
	Search(ctx context.Context, query string, limit int) ([]model.Event, error)
	// Recommend scores the top pool events by 24h volume. ok is false when
	// nothing is eligible.
	Recommend(ctx context.Context, pool int) (pick recommend.Pick, ok bool, err error)
}
