// Package clob is used to call the polymarket CLOB price-history endpoint.
package clob

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/daszybak/polymarket_cli/internal/model"
	"github.com/daszybak/polymarket_cli/pkg/httpclient"
)

const DefaultBaseURL = "https://clob.polymarket.com"

// FetchError wraps a transport failure or non-2xx response for one token.
type FetchError struct {
	TokenID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch price history for %s: %v", e.TokenID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

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

type historyResponse struct {
	History []model.PricePoint `json:"history"`
}

// PriceHistory returns the price series of a token over interval (e.g. "1d")
// sampled every fidelity minutes. A token without trades in the window yields
// an empty series and no error.
func (c *Client) PriceHistory(ctx context.Context, tokenID, interval string, fidelity int) (model.PriceSeries, error) {
	query := url.Values{}
	query.Set("market", tokenID)
	if interval != "" {
		query.Set("interval", interval)
	}
	if fidelity > 0 {
		query.Set("fidelity", strconv.Itoa(fidelity))
	}

	resp, err := httpclient.GetResource[historyResponse](ctx, c.requester, c.baseURL, "/prices-history", query, []int{http.StatusOK})
	if err != nil {
		return nil, &FetchError{TokenID: tokenID, Err: err}
	}

	if resp.History == nil {
		return model.PriceSeries{}, nil
	}
	return model.PriceSeries(resp.History), nil
}
