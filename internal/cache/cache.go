// Package cache stores price-history series for a short time so that repeated
// lookups of the same token skip the network.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/daszybak/polymarket_cli/internal/model"
)

// DefaultTTL is how long a stored series stays readable.
const DefaultTTL = 60 * time.Second

// Cache is safe for concurrent use. Concurrent Sets of the same key are
// allowed and the last writer wins.
type Cache interface {
	// Get returns the series stored under key if it has not expired.
	Get(ctx context.Context, key string) (model.PriceSeries, bool)
	Set(ctx context.Context, key string, series model.PriceSeries)
}

// Key identifies a series by token, interval and sampling fidelity.
func Key(tokenID, interval string, fidelity int) string {
	var b strings.Builder
	b.Grow(len(tokenID) + len(interval) + 8)
	b.WriteString(tokenID)
	b.WriteByte('|')
	b.WriteString(interval)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(fidelity))
	return b.String()
}
