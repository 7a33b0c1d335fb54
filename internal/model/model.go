// Package model holds the canonical event and outcome shapes shared by the
// catalog, enrichment, ranking and rendering layers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiveVolumeShare is the share of lifetime volume traded in the last 24h
// above which an event is treated as live or expiring.
const LiveVolumeShare = 0.6

// DeltaPrecision is the number of decimal places a price delta is rounded to.
const DeltaPrecision = 4

// OutcomeKind records how an outcome was decoded from its market.
type OutcomeKind int

const (
	// KindBinary is the Yes side (or an expanded Yes/No side) of a plain binary market.
	KindBinary OutcomeKind = iota
	// KindGrouped is one candidate of a multi-candidate event.
	KindGrouped
	// KindNamed is a side of a market whose outcomes are not Yes/No.
	KindNamed
)

func (k OutcomeKind) String() string {
	switch k {
	case KindGrouped:
		return "grouped"
	case KindNamed:
		return "named"
	default:
		return "binary"
	}
}

type Event struct {
	ID               string
	Slug             string
	Title            string
	VolumeTotal      float64
	Volume24h        float64 // signed
	Liquidity        float64
	EndDate          *time.Time
	ResolutionSource string
	Outcomes         []Outcome
}

// Live reports whether most of the event's lifetime volume traded in the last
// 24 hours, which marks in-progress games and same-day events.
func (e *Event) Live() bool {
	return e.VolumeTotal > 0 && e.Volume24h > e.VolumeTotal*LiveVolumeShare
}

// EndsAfter reports whether the event has an end date at least d after now.
func (e *Event) EndsAfter(now time.Time, d time.Duration) bool {
	if e.EndDate == nil {
		return false
	}
	return e.EndDate.Sub(now) >= d
}

// Outcome is a single tradable proposition within an event.
// PriceDelta and Volume24h are nil when unknown.
type Outcome struct {
	Name       string
	Price      float64
	PriceDelta *float64
	TokenID    string
	Volume24h  *float64
	Kind       OutcomeKind
}

// Volume returns the outcome's 24h volume, treating an unknown volume as zero.
func (o *Outcome) Volume() float64 {
	if o.Volume24h == nil {
		return 0
	}
	return *o.Volume24h
}

type PricePoint struct {
	Timestamp int64   `json:"t"`
	Price     float64 `json:"p"`
}

// PriceSeries is ordered by time. An empty series means no history in the window.
type PriceSeries []PricePoint

// Delta returns last minus first price, rounded to DeltaPrecision places.
// ok is false when the series holds fewer than two points.
func (s PriceSeries) Delta() (delta float64, ok bool) {
	if len(s) < 2 {
		return 0, false
	}
	first := decimal.NewFromFloat(s[0].Price)
	last := decimal.NewFromFloat(s[len(s)-1].Price)
	return last.Sub(first).Round(DeltaPrecision).InexactFloat64(), true
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
