// Package render writes events and recommendations to a terminal as aligned
// tables or to pipes as JSON documents.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/daszybak/polymarket_cli/internal/model"
	"github.com/daszybak/polymarket_cli/internal/recommend"
	"github.com/daszybak/polymarket_cli/pkg/hashset"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table or json)", s)
	}
}

const (
	eventURL = "https://polymarket.com/event/"

	// DefaultDashboardOutcomes is how many outcome columns a dashboard row shows.
	DefaultDashboardOutcomes = 3

	titleWidth       = 30
	wideTitleWidth   = 40
	outcomeWidth     = 14
	wideOutcomeWidth = 22

	// Outcomes priced outside this range are treated as resolved.
	resolvedLow  = 0.005
	resolvedHigh = 0.995
)

type Renderer struct {
	w      io.Writer
	format Format
	now    func() time.Time

	// DashboardOutcomes caps the outcome column groups in Dashboard.
	DashboardOutcomes int
	// EnrichedOutcomes, when positive, limits Dashboard columns to the
	// leading outcomes of each event that had their deltas fetched.
	EnrichedOutcomes int
}

func New(w io.Writer, format Format) *Renderer {
	return &Renderer{
		w:                 w,
		format:            format,
		now:               time.Now,
		DashboardOutcomes: DefaultDashboardOutcomes,
	}
}

// Dashboard writes a ranked row per event with its leading outcomes.
func (r *Renderer) Dashboard(events []model.Event) error {
	if r.format == FormatJSON {
		return r.json(eventList{Generated: r.now().UTC(), Events: eventDocs(events)})
	}

	tw := r.table()
	fmt.Fprintf(r.w, "\nPOLYMARKET  %s\n\n", r.now().Format("Jan 02 15:04"))

	header := []string{"#", "EVENT", "TOTAL", "24H"}
	for i := 1; i <= r.DashboardOutcomes; i++ {
		header = append(header, "#"+strconv.Itoa(i), "¢", "Δ")
	}
	row(tw, header...)

	for i, ev := range events {
		cols := []string{
			strconv.Itoa(i + 1),
			Truncate(ev.Title, titleWidth),
			Volume(ev.VolumeTotal),
			SignedVolume(ev.Volume24h),
		}
		leading := ev.Outcomes
		if r.EnrichedOutcomes > 0 && len(leading) > r.EnrichedOutcomes {
			leading = leading[:r.EnrichedOutcomes]
		}
		shown := displayOutcomes(leading)
		for j := 0; j < r.DashboardOutcomes; j++ {
			if j >= len(shown) {
				cols = append(cols, "", "", "")
				continue
			}
			o := shown[j]
			cols = append(cols, Truncate(o.Name, outcomeWidth), Price(o.Price), Delta(o.PriceDelta))
		}
		row(tw, cols...)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(r.w, "\n  ▲ up  ▼ down over 24h, in cents   Prices = probability in cents")
	return err
}

// Markets writes one row per event with its leading outcome.
func (r *Renderer) Markets(events []model.Event) error {
	if r.format == FormatJSON {
		return r.json(eventList{Generated: r.now().UTC(), Events: eventDocs(events)})
	}
	fmt.Fprintln(r.w)
	return r.marketTable(events)
}

// Search writes the events matching query, or a notice when there are none.
func (r *Renderer) Search(query string, events []model.Event) error {
	if r.format == FormatJSON {
		return r.json(eventList{Query: query, Generated: r.now().UTC(), Events: eventDocs(events)})
	}
	if len(events) == 0 {
		_, err := fmt.Fprintf(r.w, "No events match %q.\n", query)
		return err
	}
	fmt.Fprintf(r.w, "\n%d result(s) for %q\n\n", len(events), query)
	return r.marketTable(events)
}

// Event writes the detail view of a single event.
func (r *Renderer) Event(ev model.Event) error {
	if r.format == FormatJSON {
		return r.json(eventDoc(ev))
	}

	fmt.Fprintf(r.w, "\n%s\n\n", ev.Title)
	meta := []string{"Vol: " + Volume(ev.VolumeTotal)}
	if ev.Volume24h != 0 {
		meta = append(meta, "24h: "+SignedVolume(ev.Volume24h))
	}
	meta = append(meta, "Liquidity: "+Volume(ev.Liquidity))
	if ev.EndDate != nil {
		meta = append(meta, "Closes: "+ev.EndDate.Format("Jan 02, 2006"))
	}
	fmt.Fprintf(r.w, "  %s\n\n", strings.Join(meta, "   "))

	tw := r.table()
	row(tw, "OUTCOME", "PRICE", "Δ24H", "VOL 24H")
	for _, o := range ev.Outcomes {
		vol := noValue
		if o.Volume24h != nil {
			vol = Volume(*o.Volume24h)
		}
		row(tw, o.Name, Price(o.Price), Delta(o.PriceDelta), vol)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if ev.ResolutionSource != "" {
		fmt.Fprintf(r.w, "\n  Resolution: %s\n", ev.ResolutionSource)
	}
	_, err := fmt.Fprintf(r.w, "  %s%s\n", eventURL, ev.Slug)
	return err
}

// Recommendation writes the picked trade, or a notice when ok is false.
func (r *Renderer) Recommendation(pick recommend.Pick, ok bool) error {
	if r.format == FormatJSON {
		doc := recommendationDoc{Generated: r.now().UTC()}
		if ok {
			doc.Pick = &pickDoc{
				Event:   eventDoc(pick.Event),
				Outcome: outcomeDoc(pick.Outcome),
				Score:   pick.Score,
			}
		}
		return r.json(doc)
	}

	if !ok {
		_, err := fmt.Fprintln(r.w, "No outcome currently shows upward momentum in a tradable price range.")
		return err
	}

	o := pick.Outcome
	cents := o.Price * 100
	var deltaCents float64
	if o.PriceDelta != nil {
		deltaCents = *o.PriceDelta * 100
	}

	fmt.Fprintf(r.w, "\nPOLYMARKET TRADE SIGNAL\n\n")
	fmt.Fprintf(r.w, "  Market:   %s\n", pick.Event.Title)
	fmt.Fprintf(r.w, "  Outcome:  %s\n", o.Name)
	fmt.Fprintf(r.w, "  Action:   BUY %s @ %s\n\n", o.Name, Price(o.Price))
	fmt.Fprintf(r.w, "  Signal\n")
	fmt.Fprintf(r.w, "  ├─ Price:       %.1f¢  (%.1f%% implied probability)\n", cents, cents)
	fmt.Fprintf(r.w, "  ├─ 24h move:    ▲%.1f¢\n", deltaCents)
	fmt.Fprintf(r.w, "  ├─ Outcome vol: %s in last 24h\n", Volume(o.Volume()))
	fmt.Fprintf(r.w, "  └─ Score:       %.2f  (momentum × volume × mid-range weight)\n\n", pick.Score)
	fmt.Fprintf(r.w, "  %s%s\n\n", eventURL, pick.Event.Slug)
	_, err := fmt.Fprintln(r.w, "  Heuristic signal only. Not financial advice.")
	return err
}

func (r *Renderer) marketTable(events []model.Event) error {
	tw := r.table()
	row(tw, "#", "EVENT", "TOTAL VOL", "24H VOL", "TOP OUTCOME", "PRICE")
	for i, ev := range events {
		name, price := noValue, noValue
		if top, ok := topOutcome(ev.Outcomes); ok {
			name, price = Truncate(top.Name, wideOutcomeWidth), Price(top.Price)
		}
		row(tw,
			strconv.Itoa(i+1),
			Truncate(ev.Title, wideTitleWidth),
			Volume(ev.VolumeTotal),
			SignedVolume(ev.Volume24h),
			name,
			price,
		)
	}
	return tw.Flush()
}

func (r *Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func row(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

// displayOutcomes drops resolved outcomes unless nothing else is left and
// keeps the first outcome of each name.
func displayOutcomes(outcomes []model.Outcome) []model.Outcome {
	pool := make([]model.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Price > resolvedLow && o.Price < resolvedHigh {
			pool = append(pool, o)
		}
	}
	if len(pool) == 0 {
		pool = outcomes
	}

	seen := hashset.NewSet[string]()
	out := make([]model.Outcome, 0, len(pool))
	for _, o := range pool {
		if seen.Has(o.Name) {
			continue
		}
		seen.Set(o.Name)
		out = append(out, o)
	}
	return out
}

// topOutcome is the highest priced outcome, preferring any side not named "No".
func topOutcome(outcomes []model.Outcome) (model.Outcome, bool) {
	var top model.Outcome
	found := false
	for _, allowNo := range []bool{false, true} {
		for _, o := range outcomes {
			if !allowNo && strings.EqualFold(o.Name, "no") {
				continue
			}
			if !found || o.Price > top.Price {
				top, found = o, true
			}
		}
		if found {
			break
		}
	}
	return top, found
}
