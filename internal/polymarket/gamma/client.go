// Package gamma consumes the Polymarket gamma events catalog.
package gamma

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/daszybak/polymarket_cli/pkg/httpclient"
)

const DefaultBaseURL = "https://gamma-api.polymarket.com"

// ErrNotFound is returned when no event exists for a slug.
var ErrNotFound = errors.New("event not found")

// Order values accepted by the events endpoint.
const (
	OrderVolume24h = "volume24hr"
	OrderVolume    = "volume"
	OrderLiquidity = "liquidity"
	OrderEndDate   = "endDate"
)

type Client struct {
	requester *httpclient.Requester
	baseURL   string
}

func New(baseURL string, r *httpclient.Requester) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if r == nil {
		r = &httpclient.Requester{}
	}
	return &Client{
		requester: r,
		baseURL:   baseURL,
	}
}

// EventsParams are the query parameters of the events listing.
// Nil pointers are omitted from the request.
type EventsParams struct {
	Active    *bool
	Closed    *bool
	Order     string
	Ascending *bool
	Limit     int
}

func (p EventsParams) values() url.Values {
	q := url.Values{}
	if p.Active != nil {
		q.Set("active", strconv.FormatBool(*p.Active))
	}
	if p.Closed != nil {
		q.Set("closed", strconv.FormatBool(*p.Closed))
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.Ascending != nil {
		q.Set("ascending", strconv.FormatBool(*p.Ascending))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Events returns the raw events payload. Decoding is left to the caller
// because event and market shapes vary between records.
func (c *Client) Events(ctx context.Context, params EventsParams) ([]byte, error) {
	body, err := c.requester.Get(ctx, c.baseURL, "/events", params.values(), []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't get events: %w", err)
	}
	return body, nil
}

// EventBySlug returns the raw payload of a single event, either an object or
// a one-element list depending on the endpoint version.
func (c *Client) EventBySlug(ctx context.Context, slug string) ([]byte, error) {
	body, err := c.requester.Get(ctx, c.baseURL, "/events/slug/"+url.PathEscape(slug), nil, []int{http.StatusOK})
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("slug %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("couldn't get event by slug %s: %w", slug, err)
	}
	return body, nil
}

// Bool returns a pointer to b, for EventsParams fields.
func Bool(b bool) *bool {
	return &b
}
