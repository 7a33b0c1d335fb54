package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daszybak/polymarket_cli/internal/aggregate"
	"github.com/daszybak/polymarket_cli/internal/cache"
	"github.com/daszybak/polymarket_cli/internal/platform"
)

var farEnd = time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339)

func eventsPayload() string {
	return fmt.Sprintf(`[
	{"id": "1", "slug": "fed", "title": "Fed decision in December?", "volume": 1000000, "volume24hr": 50000,
	 "liquidity": 9000, "endDate": %[1]q, "markets": [
		{"groupItemTitle": "Cut", "outcomes": ["Yes","No"], "outcomePrices": ["0.40","0.60"], "clobTokenIds": ["cut-yes","cut-no"], "volume24hr": 30000},
		{"groupItemTitle": "Hold", "outcomes": ["Yes","No"], "outcomePrices": ["0.55","0.45"], "clobTokenIds": ["hold-yes","hold-no"], "volume24hr": 20000}
	]},
	{"id": "2", "slug": "btc", "title": "Bitcoin above 100k?", "volume": 500000, "volume24hr": 90000,
	 "liquidity": 1000, "endDate": %[1]q, "markets": [
		{"question": "Bitcoin above 100k?", "outcomes": "[\"Yes\",\"No\"]", "outcomePrices": "[\"0.30\",\"0.70\"]", "clobTokenIds": "[\"btc-yes\",\"btc-no\"]", "volume24hr": 90000}
	]},
	{"id": "3", "slug": "game", "title": "Lakers vs Celtics", "volume": 100, "volume24hr": 90,
	 "endDate": %[1]q, "markets": [
		{"question": "Winner", "outcomes": ["Lakers","Celtics"], "outcomePrices": ["0.5","0.5"], "clobTokenIds": ["lal","bos"], "volume24hr": 45}
	]}
]`, farEnd)
}

var histories = map[string]string{
	"cut-yes":  `{"history":[{"t":1,"p":0.35},{"t":2,"p":0.40}]}`,
	"hold-yes": `{"history":[{"t":1,"p":0.60},{"t":2,"p":0.55}]}`,
	"btc-yes":  `{"history":[{"t":1,"p":0.29},{"t":2,"p":0.30}]}`,
	"lal":      `{"history":[{"t":1,"p":0.30},{"t":2,"p":0.50}]}`,
	"bos":      `{"history":[]}`,
}

type fakeAPI struct {
	*httptest.Server

	mu           sync.Mutex
	eventQueries []url.Values
	historyCalls map[string]int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{historyCalls: map[string]int{}}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/events":
			api.mu.Lock()
			api.eventQueries = append(api.eventQueries, r.URL.Query())
			api.mu.Unlock()
			w.Write([]byte(eventsPayload()))
		case r.URL.Path == "/events/slug/fed":
			w.Write([]byte(`{"id": "1", "slug": "fed", "title": "Fed", "markets": [
				{"groupItemTitle": "Cut", "outcomes": ["Yes","No"], "outcomePrices": ["0.40","0.60"], "clobTokenIds": ["cut-yes","cut-no"], "volume24hr": 30000}
			]}`))
		case r.URL.Path == "/events/slug/empty":
			w.Write([]byte(`[]`))
		case strings.HasPrefix(r.URL.Path, "/events/slug/"):
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/prices-history":
			tok := r.URL.Query().Get("market")
			api.mu.Lock()
			api.historyCalls[tok]++
			api.mu.Unlock()
			body, ok := histories[tok]
			if !ok {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(body))
		default:
			t.Errorf("unexpected request %s", r.URL)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) calls(tok string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.historyCalls[tok]
}

func newPlatform(api *fakeAPI) *Polymarket {
	return New(Config{
		GammaURL:    api.URL,
		ClobURL:     api.URL,
		Timeout:     5 * time.Second,
		Concurrency: 4,
	}, cache.NewMemory(time.Minute), zap.NewNop())
}

func TestTopEvents(t *testing.T) {
	api := newFakeAPI(t)
	p := newPlatform(api)

	events, err := p.TopEvents(context.Background(), platform.Query{Limit: 2, Sort: aggregate.SortVolume24h, Enrich: true})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "btc", events[0].Slug)
	assert.Equal(t, "fed", events[1].Slug)

	require.NotNil(t, events[0].Outcomes[0].PriceDelta)
	assert.InDelta(t, 0.01, *events[0].Outcomes[0].PriceDelta, 1e-9)

	fed := events[1].Outcomes
	require.Len(t, fed, 2)
	assert.Equal(t, "Cut", fed[0].Name)
	require.NotNil(t, fed[0].PriceDelta)
	assert.InDelta(t, 0.05, *fed[0].PriceDelta, 1e-9)
	require.NotNil(t, fed[1].PriceDelta)
	assert.InDelta(t, -0.05, *fed[1].PriceDelta, 1e-9)

	assert.Zero(t, api.calls("lal"), "events past the limit are not enriched")

	require.Len(t, api.eventQueries, 1)
	q := api.eventQueries[0]
	assert.Equal(t, "volume24hr", q.Get("order"))
	assert.Equal(t, "false", q.Get("ascending"))
	assert.Equal(t, "true", q.Get("active"))
	assert.Equal(t, "false", q.Get("closed"))
	assert.Equal(t, "2", q.Get("limit"))
}

func TestTopEvents_CachedAcrossCalls(t *testing.T) {
	api := newFakeAPI(t)
	p := newPlatform(api)
	q := platform.Query{Limit: 3, Sort: aggregate.SortVolume24h, Enrich: true}

	_, err := p.TopEvents(context.Background(), q)
	require.NoError(t, err)
	_, err = p.TopEvents(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, api.calls("btc-yes"))
	assert.Equal(t, 1, api.calls("cut-yes"))
}

func TestTopEvents_EndDateAscending(t *testing.T) {
	api := newFakeAPI(t)
	p := newPlatform(api)

	_, err := p.TopEvents(context.Background(), platform.Query{Limit: 5, Sort: aggregate.SortEndDate})
	require.NoError(t, err)
	require.Len(t, api.eventQueries, 1)
	assert.Equal(t, "endDate", api.eventQueries[0].Get("order"))
	assert.Equal(t, "true", api.eventQueries[0].Get("ascending"))
}

func TestEvent(t *testing.T) {
	api := newFakeAPI(t)
	p := newPlatform(api)

	ev, err := p.Event(context.Background(), "fed", true)
	require.NoError(t, err)
	assert.Equal(t, "fed", ev.Slug)
	require.Len(t, ev.Outcomes, 1)
	require.NotNil(t, ev.Outcomes[0].PriceDelta)
	assert.InDelta(t, 0.05, *ev.Outcomes[0].PriceDelta, 1e-9)

	ev, err = p.Event(context.Background(), "fed", false)
	require.NoError(t, err)
	assert.Nil(t, ev.Outcomes[0].PriceDelta)
}

func TestEvent_NotFound(t *testing.T) {
	api := newFakeAPI(t)
	p := newPlatform(api)

	for _, slug := range []string{"missing", "empty"} {
		_, err := p.Event(context.Background(), slug, true)
		assert.ErrorIs(t, err, platform.ErrNotFound, slug)
	}
}

func TestSearch(t *testing.T) {
	api := newFakeAPI(t)
	p := newPlatform(api)

	events, err := p.Search(context.Background(), "BITCOIN 100k", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "btc", events[0].Slug)
	assert.Nil(t, events[0].Outcomes[0].PriceDelta, "search results are not enriched")

	require.Len(t, api.eventQueries, 1)
	assert.Equal(t, "volume", api.eventQueries[0].Get("order"))
	assert.Equal(t, strconv.Itoa(SearchPool), api.eventQueries[0].Get("limit"))
}

func TestRecommend(t *testing.T) {
	api := newFakeAPI(t)
	p := newPlatform(api)

	pick, ok, err := p.Recommend(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, ok)

	// The game is live (90% of its volume traded today), so the
	// bigger lakers move is ignored and the fed cut wins on delta.
	assert.Equal(t, "fed", pick.Event.Slug)
	assert.Equal(t, "Cut", pick.Outcome.Name)
	assert.Equal(t, strconv.Itoa(DefaultRecommendPool), api.eventQueries[0].Get("limit"))
}
