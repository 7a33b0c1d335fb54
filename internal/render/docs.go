package render

import (
	"time"

	"github.com/daszybak/polymarket_cli/internal/model"
)

type eventList struct {
	Query     string          `json:"query,omitempty"`
	Generated time.Time       `json:"generated_at"`
	Events    []eventDocument `json:"events"`
}

type eventDocument struct {
	ID               string            `json:"id"`
	Slug             string            `json:"slug"`
	Title            string            `json:"title"`
	URL              string            `json:"url"`
	Volume           float64           `json:"volume"`
	Volume24h        float64           `json:"volume_24hr"`
	Liquidity        float64           `json:"liquidity"`
	EndDate          *time.Time        `json:"end_date"`
	ResolutionSource string            `json:"resolution_source,omitempty"`
	Outcomes         []outcomeDocument `json:"outcomes"`
}

// outcomeDocument keeps unknown values as null rather than zero.
type outcomeDocument struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Price      float64  `json:"price"`
	PriceDelta *float64 `json:"price_delta"`
	Volume24h  *float64 `json:"volume_24hr"`
	TokenID    string   `json:"token_id,omitempty"`
}

type recommendationDoc struct {
	Generated time.Time `json:"generated_at"`
	Pick      *pickDoc  `json:"pick"`
}

type pickDoc struct {
	Event   eventDocument   `json:"event"`
	Outcome outcomeDocument `json:"outcome"`
	Score   float64         `json:"score"`
}

func eventDocs(events []model.Event) []eventDocument {
	docs := make([]eventDocument, len(events))
	for i, ev := range events {
		docs[i] = eventDoc(ev)
	}
	return docs
}

func eventDoc(ev model.Event) eventDocument {
	doc := eventDocument{
		ID:               ev.ID,
		Slug:             ev.Slug,
		Title:            ev.Title,
		URL:              eventURL + ev.Slug,
		Volume:           ev.VolumeTotal,
		Volume24h:        ev.Volume24h,
		Liquidity:        ev.Liquidity,
		EndDate:          ev.EndDate,
		ResolutionSource: ev.ResolutionSource,
		Outcomes:         make([]outcomeDocument, len(ev.Outcomes)),
	}
	for i, o := range ev.Outcomes {
		doc.Outcomes[i] = outcomeDoc(o)
	}
	return doc
}

func outcomeDoc(o model.Outcome) outcomeDocument {
	return outcomeDocument{
		Name:       o.Name,
		Kind:       o.Kind.String(),
		Price:      o.Price,
		PriceDelta: o.PriceDelta,
		Volume24h:  o.Volume24h,
		TokenID:    o.TokenID,
	}
}
