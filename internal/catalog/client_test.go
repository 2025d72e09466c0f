package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"inquiry/internal"
	"inquiry/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, payload any) *http.Response {
	blob, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(blob))),
		Header:     make(http.Header),
	}
}

func testClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	cfg := config.Config{
		CatalogAPIToken:     "test",
		CatalogAPIBaseURL:   "https://example.test/api/v1",
		CatalogRateLimitRPS: 1000,
		CatalogTimeoutMs:    1000,
	}
	client := NewClient(cfg)
	client.httpClient = &http.Client{Transport: fn}
	return client
}

func TestFetchPriceListWithRetry(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/v1/price-list" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Fatalf("missing bearer token")
		}
		attempt++
		switch attempt {
		case 1:
			return jsonResponse(http.StatusServiceUnavailable, map[string]any{"error": "boom"}), nil
		case 2:
			return jsonResponse(http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"products": []map[string]any{{"name": "Widget", "unit_price": 2.5, "unit_of_measure": "pcs"}},
				"cursor":   "abc",
			}}), nil
		default:
			if r.URL.Query().Get("cursor") != "abc" {
				t.Fatalf("cursor not forwarded: %s", r.URL.RawQuery)
			}
			return jsonResponse(http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"products": []map[string]any{{"name": "Gadget", "unit_price": 10}, {"name": "", "unit_price": 1}},
				"cursor":   nil,
			}}), nil
		}
	})

	products, err := client.FetchPriceList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 {
		t.Fatalf("len=%d", len(products))
	}
	if products[0].Name != "Widget" || products[0].UnitOfMeasure != "pcs" || products[1].UnitPrice != 10 {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestFetchPriceListRequiresToken(t *testing.T) {
	client := NewClient(config.Config{CatalogAPIBaseURL: "https://example.test"})
	if _, err := client.FetchPriceList(context.Background()); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestFetchPriceListClientError(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, map[string]any{"error": "denied"}), nil
	})
	if _, err := client.FetchPriceList(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}

type memoryProductStore struct {
	products []internal.Product
	meta     map[string]string
}

func (m *memoryProductStore) UpsertProducts(products []internal.Product) error {
	m.products = append(m.products, products...)
	return nil
}

func (m *memoryProductStore) SetMetadata(key, value string) error {
	if m.meta == nil {
		m.meta = map[string]string{}
	}
	m.meta[key] = value
	return nil
}

func TestSyncServiceStoresProducts(t *testing.T) {
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"products": []map[string]any{{"name": "Widget", "unit_price": 2.5}},
		}}), nil
	})
	store := &memoryProductStore{}
	count, err := NewSyncService(store, client, zap.NewNop()).Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 || len(store.products) != 1 {
		t.Fatalf("count=%d stored=%d", count, len(store.products))
	}
	if store.meta[lastSyncKey] == "" {
		t.Fatal("last sync not recorded")
	}
}
