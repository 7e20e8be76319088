package predictit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/marketdata/all" {
			t.Errorf("path = %q, want /api/marketdata/all", r.URL.Path)
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFetchMarkets(t *testing.T) {
	c := newTestClient(t, `{"markets": [
		{"id": 4353, "name": "Which party wins?", "url": "https://www.predictit.org/markets/detail/4353",
		 "contracts": [
			{"id": 1, "name": "Dems", "lastTradePrice": 0.55},
			{"id": 2, "name": "GOP", "lastTradePrice": 0.47},
			{"id": 3, "name": "Other", "lastTradePrice": null}
		 ]},
		{"id": 9000, "name": "No contracts yet", "contracts": []}
	]}`)

	markets, err := c.FetchMarkets(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchMarkets: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(markets))
	}

	m := markets[0]
	if m.Site != "predictit" || m.ID != "4353" || m.Title != "Which party wins?" {
		t.Errorf("market[0] = %+v", m)
	}
	if m.Price == nil || *m.Price != 0.55 {
		t.Errorf("market[0].Price = %v, want max contract price 0.55", m.Price)
	}

	m = markets[1]
	if m.Price != nil {
		t.Errorf("market[1].Price = %v, want nil without priced contracts", m.Price)
	}
	if m.URL != "https://www.predictit.org/markets/detail/9000" {
		t.Errorf("market[1].URL = %q, want detail-page fallback", m.URL)
	}
}

func TestFetchMarketsClientSideLimit(t *testing.T) {
	c := newTestClient(t, `{"markets": [
		{"id": 1, "name": "A"}, {"id": 2, "name": "B"}, {"id": 3, "name": "C"}
	]}`)

	markets, err := c.FetchMarkets(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchMarkets: %v", err)
	}
	if len(markets) != 2 {
		t.Errorf("got %d markets, want limit-truncated 2", len(markets))
	}
	if markets[0].Title != "A" || markets[1].Title != "B" {
		t.Errorf("markets = %+v, want first two in feed order", markets)
	}
}
