package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// number decodes a JSON number or numeric string. Anything else leaves it
// invalid instead of failing the surrounding record.
type number struct {
	decimal.Decimal
	Valid bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*n = number{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		*n = number{}
		return nil
	}
	*n = number{Decimal: d, Valid: true}
	return nil
}

func (n number) Float64() float64 {
	if !n.Valid {
		return 0
	}
	return n.InexactFloat64()
}

func (n number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.InexactFloat64()
	return &v
}

// flexString accepts a JSON string or number, ids come as either.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// text decodes a free-form string field. Numbers and booleans keep their
// literal form; objects and arrays leave it empty and mark it Invalid so the
// record survives with the field skipped.
type text struct {
	Value   string
	Invalid bool
}

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = text{}
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
	case data[0] == '"':
		if err := json.Unmarshal(data, &t.Value); err != nil {
			t.Invalid = true
		}
	case data[0] == '{' || data[0] == '[':
		t.Invalid = true
	default:
		t.Value = string(data)
	}
	return nil
}

// stringList handles both a JSON array and the double-encoded form the
// catalog uses for outcomes, prices and token ids: "[\"Yes\", \"No\"]".
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			*l = nil
			return nil
		}
		data = []byte(inner)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected list: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s flexString
		if err := s.UnmarshalJSON(item); err != nil {
			return fmt.Errorf("list item %s: %w", item, err)
		}
		out = append(out, string(s))
	}
	*l = out
	return nil
}

type rawEvent struct {
	ID               text              `json:"id"`
	Slug             text              `json:"slug"`
	Title            text              `json:"title"`
	Volume           number            `json:"volume"`
	Volume24h        number            `json:"volume24hr"`
	Liquidity        number            `json:"liquidity"`
	EndDate          text              `json:"endDate"`
	ResolutionSource text              `json:"resolutionSource"`
	Markets          []json.RawMessage `json:"markets"`
}

type rawMarket struct {
	ID             text       `json:"id"`
	Question       text       `json:"question"`
	Title          text       `json:"title"`
	GroupItemTitle text       `json:"groupItemTitle"`
	Outcomes       stringList `json:"outcomes"`
	OutcomePrices  stringList `json:"outcomePrices"`
	ClobTokenIDs   stringList `json:"clobTokenIds"`
	Volume24h      number     `json:"volume24hr"`
}

// invalidFields names the free-form fields that held a non-string value.
func (e rawEvent) invalidFields() []string {
	var names []string
	for _, f := range []struct {
		name string
		v    text
	}{
		{"id", e.ID},
		{"slug", e.Slug},
		{"title", e.Title},
		{"endDate", e.EndDate},
		{"resolutionSource", e.ResolutionSource},
	} {
		if f.v.Invalid {
			names = append(names, f.name)
		}
	}
	return names
}

type marketShape int

const (
	shapeBinary marketShape = iota
	shapeGrouped
	shapeNamed
)

// decodedMarket is a market after its shape has been decided once.
type decodedMarket struct {
	raw       rawMarket
	shape     marketShape
	candidate string // set for shapeGrouped
}

func decodeMarket(data json.RawMessage) (decodedMarket, error) {
	var m rawMarket
	if err := json.Unmarshal(data, &m); err != nil {
		return decodedMarket{}, err
	}

	dm := decodedMarket{raw: m, shape: shapeNamed}
	if isYesNo(m.Outcomes) {
		dm.shape = shapeBinary
		if title := strings.TrimSpace(m.GroupItemTitle.Value); title != "" {
			dm.shape = shapeGrouped
			dm.candidate = title
		}
	}
	return dm, nil
}

func isYesNo(outcomes []string) bool {
	return len(outcomes) == 2 &&
		strings.EqualFold(strings.TrimSpace(outcomes[0]), "yes") &&
		strings.EqualFold(strings.TrimSpace(outcomes[1]), "no")
}

// isObject reports whether data holds a JSON object.
func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func isArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}
