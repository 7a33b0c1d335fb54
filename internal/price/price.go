// Package price handles probability values from prediction market APIs
// without losing precision while parsing.
package price

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmpty      = errors.New("empty price")
	ErrOutOfRange = errors.New("price outside [0, 1]")
)

var one = decimal.NewFromInt(1)

// Probability is a price quoted in probability units, always within [0, 1].
type Probability struct {
	decimal.Decimal
}

// Parse parses a decimal string such as "0.535" into a Probability.
func Parse(s string) (Probability, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Probability{}, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Probability{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	if d.IsNegative() || d.GreaterThan(one) {
		return Probability{}, fmt.Errorf("%s: %w", d.String(), ErrOutOfRange)
	}
	return Probability{Decimal: d}, nil
}

func (p Probability) Float64() float64 {
	return p.InexactFloat64()
}
