// Package recommend picks the single outcome with the strongest upward
// momentum among a set of enriched events.
package recommend

import (
	"math"
	"time"

	"github.com/daszybak/polymarket_cli/internal/model"
)

const (
	DefaultMinTimeToClose = 72 * time.Hour
	DefaultMinPrice       = 0.02
	DefaultMaxPrice       = 0.90

	// Outcomes priced inside [bandLow, bandHigh] get the full weight.
	bandLow  = 0.10
	bandHigh = 0.70
	// minWeight is the weight at a price of exactly 0 or 1.
	minWeight = 0.01
)

type Pick struct {
	Event   model.Event
	Outcome model.Outcome
	Score   float64
}

// Scorer ranks outcomes by delta × ln(volume24h+1) × MidRangeWeight(price).
// Only outcomes that are rising, have known volume, trade strictly between
// MinPrice and MaxPrice and belong to a non-live event closing at least
// MinTimeToClose from now are considered.
type Scorer struct {
	Now            func() time.Time
	MinTimeToClose time.Duration
	MinPrice       float64
	MaxPrice       float64
}

func NewScorer() *Scorer {
	return &Scorer{
		Now:            time.Now,
		MinTimeToClose: DefaultMinTimeToClose,
		MinPrice:       DefaultMinPrice,
		MaxPrice:       DefaultMaxPrice,
	}
}

// Pick returns the highest-scoring eligible outcome. Equal scores go to the
// outcome with more 24h volume, then to the one seen first. ok is false when
// no outcome is eligible.
func (s *Scorer) Pick(events []model.Event) (best Pick, ok bool) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	for i := range events {
		ev := &events[i]
		if ev.Live() || !ev.EndsAfter(now, s.MinTimeToClose) {
			continue
		}
		for _, o := range ev.Outcomes {
			score, eligible := s.Score(o)
			if !eligible {
				continue
			}
			if ok && !better(score, o.Volume(), best) {
				continue
			}
			best = Pick{Event: *ev, Outcome: o, Score: score}
			ok = true
		}
	}
	return best, ok
}

// Score scores a single outcome without looking at its event.
func (s *Scorer) Score(o model.Outcome) (float64, bool) {
	if o.PriceDelta == nil || o.Volume24h == nil {
		return 0, false
	}
	delta := *o.PriceDelta
	if delta <= 0 {
		return 0, false
	}
	if o.Price <= s.MinPrice || o.Price >= s.MaxPrice {
		return 0, false
	}
	vol := math.Max(*o.Volume24h, 0)
	return delta * math.Log(vol+1) * MidRangeWeight(o.Price), true
}

func better(score, volume float64, cur Pick) bool {
	if score != cur.Score {
		return score > cur.Score
	}
	return volume > cur.Outcome.Volume()
}

// MidRangeWeight is 1 on [0.10, 0.70] and falls linearly to 0.01 at 0 and 1.
func MidRangeWeight(p float64) float64 {
	switch {
	case p < 0 || p > 1:
		return minWeight
	case p < bandLow:
		return minWeight + (1-minWeight)*p/bandLow
	case p > bandHigh:
		return minWeight + (1-minWeight)*(1-p)/(1-bandHigh)
	default:
		return 1
	}
}
