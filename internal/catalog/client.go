package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inquiry/internal"
	"inquiry/internal/config"
)

const maxAttempts = 5

// Client pulls the price list from the pricing service.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type pagePayload struct {
	Products []remoteProduct `json:"products"`
	Cursor   *string         `json:"cursor"`
}

type remoteProduct struct {
	Name          string   `json:"name"`
	UnitPrice     *float64 `json:"unit_price"`
	UnitOfMeasure string   `json:"unit_of_measure"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.CatalogTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.CatalogRateLimitRPS),
	}
}

// FetchPriceList follows the cursor until the service stops returning one.
func (c *Client) FetchPriceList(ctx context.Context) ([]internal.Product, error) {
	all := make([]internal.Product, 0)
	seen := map[string]struct{}{}
	var cursor string

	for {
		query := map[string]string{}
		if cursor != "" {
			query["cursor"] = cursor
		}

		body, err := c.fetchJSON(ctx, "price-list", query)
		if err != nil {
			return nil, err
		}

		var page pagePayload
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode price list page: %w", err)
		}

		for _, raw := range page.Products {
			product, err := toProduct(raw)
			if err != nil {
				continue
			}
			all = append(all, product)
		}

		if page.Cursor == nil || *page.Cursor == "" || len(page.Products) == 0 {
			break
		}
		if _, ok := seen[*page.Cursor]; ok {
			break
		}
		seen[*page.Cursor] = struct{}{}
		cursor = *page.Cursor
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.CatalogAPIToken) == "" {
		return nil, errors.New("missing CATALOG_API_TOKEN")
	}

	baseURL := strings.TrimRight(c.cfg.CatalogAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.CatalogAPIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				lastErr = fmt.Errorf("pricing service status %d", resp.StatusCode)
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				continue
			}
			return nil, fmt.Errorf("pricing service error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("pricing service unsuccessful: %s %s", apiResp.Message, string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("pricing service request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func toProduct(raw remoteProduct) (internal.Product, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return internal.Product{}, errors.New("empty name")
	}
	if raw.UnitPrice == nil {
		return internal.Product{}, fmt.Errorf("product %q has no price", name)
	}
	return internal.Product{
		Name:          name,
		UnitPrice:     *raw.UnitPrice,
		UnitOfMeasure: strings.TrimSpace(raw.UnitOfMeasure),
	}, nil
}
