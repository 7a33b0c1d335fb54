package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceSeriesDelta(t *testing.T) {
	tests := []struct {
		name   string
		series PriceSeries
		want   float64
		wantOK bool
	}{
		{"empty", PriceSeries{}, 0, false},
		{"single point is absent", PriceSeries{{0, 0.5}}, 0, false},
		{"flat is zero", PriceSeries{{0, 0.5}, {1, 0.5}}, 0, true},
		{"last minus first", PriceSeries{{0, 0.50}, {1, 0.60}, {2, 0.55}}, 0.05, true},
		{"downward", PriceSeries{{0, 0.31}, {1, 0.2}}, -0.11, true},
		{"rounded", PriceSeries{{0, 0.1}, {1, 0.123456}}, 0.0235, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.series.Delta()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventLive(t *testing.T) {
	assert.True(t, (&Event{VolumeTotal: 100, Volume24h: 61}).Live())
	assert.False(t, (&Event{VolumeTotal: 100, Volume24h: 60}).Live())
	assert.False(t, (&Event{VolumeTotal: 0, Volume24h: 10}).Live())
}

func TestEventEndsAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(72 * time.Hour)

	assert.True(t, (&Event{EndDate: &end}).EndsAfter(now, 72*time.Hour))
	assert.False(t, (&Event{EndDate: &end}).EndsAfter(now, 73*time.Hour))
	assert.False(t, (&Event{}).EndsAfter(now, 0))
}

func TestOutcomeVolume(t *testing.T) {
	assert.Zero(t, (&Outcome{}).Volume())
	assert.Equal(t, 12.5, (&Outcome{Volume24h: Float(12.5)}).Volume())
}
