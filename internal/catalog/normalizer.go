// Package catalog turns raw event catalog payloads into model.Event values.
//
// Each market of an event decodes into one of three shapes:
//
//   - grouped: a Yes/No market carrying a groupItemTitle, one candidate of a
//     multi-candidate event. It contributes the candidate's Yes side.
//   - binary: a plain Yes/No market. It contributes its Yes side, or both
//     sides when ExpandBinary is set.
//   - named: any other outcome list. Every side is an outcome.
//
// Outcomes with a missing or malformed price are dropped with a warning, and
// events left with no outcomes are dropped entirely.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daszybak/polymarket_cli/internal/model"
	"github.com/daszybak/polymarket_cli/internal/price"
)

// ErrNoEvent is returned by Event when the payload holds no displayable event.
var ErrNoEvent = errors.New("no event in payload")

// ParseError reports a payload whose event-level structure is unrecognized.
type ParseError struct {
	Index  int // position in the event list, -1 for a single object
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse catalog payload"
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: event %d", msg, e.Index)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var endDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05Z0700", "2006-01-02"}

type Normalizer struct {
	// ExpandBinary emits both sides of a plain binary market instead of
	// collapsing it to its Yes side.
	ExpandBinary bool

	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger.With(zap.String("component", "normalizer"))}
}

// Events normalizes a list payload. Events are returned in payload order.
func (n *Normalizer) Events(payload []byte) ([]model.Event, error) {
	if !isArray(payload) {
		return nil, &ParseError{Index: -1, Reason: "expected a list of events"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, &ParseError{Index: -1, Reason: "malformed event list", Err: err}
	}

	events := make([]model.Event, 0, len(items))
	for i, item := range items {
		ev, ok, err := n.event(item, i)
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// Event normalizes a single-event payload, which may be an object or a list
// holding it. ErrNoEvent is returned when nothing displayable remains.
func (n *Normalizer) Event(payload []byte) (model.Event, error) {
	if isObject(payload) {
		ev, ok, err := n.event(payload, -1)
		if err != nil {
			return model.Event{}, err
		}
		if !ok {
			return model.Event{}, ErrNoEvent
		}
		return ev, nil
	}

	events, err := n.Events(payload)
	if err != nil {
		return model.Event{}, err
	}
	if len(events) == 0 {
		return model.Event{}, ErrNoEvent
	}
	return events[0], nil
}

func (n *Normalizer) event(data json.RawMessage, index int) (model.Event, bool, error) {
	if !isObject(data) {
		return model.Event{}, false, &ParseError{Index: index, Reason: "event is not an object"}
	}
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Event{}, false, &ParseError{Index: index, Reason: "malformed event", Err: err}
	}

	logger := n.logger.With(zap.String("event_id", raw.ID.Value), zap.String("slug", raw.Slug.Value))
	if fields := raw.invalidFields(); len(fields) > 0 {
		logger.Warn("ignoring malformed event fields", zap.Strings("fields", fields))
	}

	ev := model.Event{
		ID:               raw.ID.Value,
		Slug:             raw.Slug.Value,
		Title:            raw.Title.Value,
		VolumeTotal:      raw.Volume.Float64(),
		Volume24h:        raw.Volume24h.Float64(),
		Liquidity:        raw.Liquidity.Float64(),
		EndDate:          parseEndDate(raw.EndDate.Value, logger),
		ResolutionSource: raw.ResolutionSource.Value,
	}

	for _, data := range raw.Markets {
		m, err := decodeMarket(data)
		if err != nil {
			logger.Warn("dropping malformed market", zap.Error(err))
			continue
		}
		ev.Outcomes = append(ev.Outcomes, n.outcomes(m, logger)...)
	}

	if len(ev.Outcomes) == 0 {
		logger.Warn("dropping event without valid outcomes")
		return model.Event{}, false, nil
	}

	sortOutcomes(ev.Outcomes)
	return ev, true, nil
}

func (n *Normalizer) outcomes(m decodedMarket, logger *zap.Logger) []model.Outcome {
	logger = logger.With(zap.String("market_id", m.raw.ID.Value))

	switch m.shape {
	case shapeGrouped:
		if o, ok := side(m, 0, m.candidate, model.KindGrouped, logger); ok {
			return []model.Outcome{o}
		}
		return nil

	case shapeBinary:
		if n.ExpandBinary {
			return sides(m, model.KindBinary, logger)
		}
		if o, ok := side(m, 0, binaryName(m.raw), model.KindBinary, logger); ok {
			return []model.Outcome{o}
		}
		return nil

	default:
		return sides(m, model.KindNamed, logger)
	}
}

func sides(m decodedMarket, kind model.OutcomeKind, logger *zap.Logger) []model.Outcome {
	out := make([]model.Outcome, 0, len(m.raw.Outcomes))
	for i, name := range m.raw.Outcomes {
		if o, ok := side(m, i, strings.TrimSpace(name), kind, logger); ok {
			out = append(out, o)
		}
	}
	return out
}

// side builds the outcome at index i of the market's parallel lists.
func side(m decodedMarket, i int, name string, kind model.OutcomeKind, logger *zap.Logger) (model.Outcome, bool) {
	if i >= len(m.raw.OutcomePrices) {
		logger.Warn("dropping outcome without price", zap.String("outcome", name))
		return model.Outcome{}, false
	}
	p, err := price.Parse(m.raw.OutcomePrices[i])
	if err != nil {
		logger.Warn("dropping outcome with malformed price",
			zap.String("outcome", name),
			zap.String("price", m.raw.OutcomePrices[i]),
			zap.Error(err),
		)
		return model.Outcome{}, false
	}

	o := model.Outcome{
		Name:      name,
		Price:     p.Float64(),
		Volume24h: m.raw.Volume24h.Ptr(),
		Kind:      kind,
	}
	if i < len(m.raw.ClobTokenIDs) {
		o.TokenID = strings.TrimSpace(m.raw.ClobTokenIDs[i])
	}
	return o, true
}

func binaryName(m rawMarket) string {
	for _, s := range []string{m.Question.Value, m.Title.Value} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return "Yes"
}

// sortOutcomes orders by 24h volume then price, both descending. The sort is
// stable so equal outcomes keep market order.
func sortOutcomes(outcomes []model.Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		vi, vj := outcomes[i].Volume(), outcomes[j].Volume()
		if vi != vj {
			return vi > vj
		}
		return outcomes[i].Price > outcomes[j].Price
	})
}

func parseEndDate(s string, logger *zap.Logger) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range endDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	logger.Warn("ignoring malformed end date", zap.String("end_date", s))
	return nil
}
