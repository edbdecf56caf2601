package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// RateTable maps instance type names to hourly USD rates.
type RateTable map[string]float64

// Lookup implements the rate source consumed by the metrics package.
func (t RateTable) Lookup(instanceType string) (float64, bool) {
	rate, ok := t[instanceType]
	return rate, ok
}

// DefaultRates is the built-in rate table used whenever the rate service is
// unreachable. It covers every type in the default instance catalog.
func DefaultRates() RateTable {
	return RateTable{
		"omics.c.large":    0.126,
		"omics.c.xlarge":   0.252,
		"omics.c.2xlarge":  0.504,
		"omics.c.4xlarge":  1.008,
		"omics.c.8xlarge":  2.016,
		"omics.c.12xlarge": 3.024,
		"omics.c.16xlarge": 4.032,
		"omics.c.24xlarge": 6.048,
		"omics.m.large":    0.161,
		"omics.m.xlarge":   0.322,
		"omics.m.2xlarge":  0.644,
		"omics.m.4xlarge":  1.288,
		"omics.m.8xlarge":  2.576,
		"omics.m.12xlarge": 3.864,
		"omics.m.16xlarge": 5.152,
		"omics.m.24xlarge": 7.728,
		"omics.r.large":    0.211,
		"omics.r.xlarge":   0.422,
		"omics.r.2xlarge":  0.844,
		"omics.r.4xlarge":  1.688,
		"omics.r.8xlarge":  3.376,
		"omics.r.12xlarge": 5.064,
		"omics.r.16xlarge": 6.752,
		"omics.r.24xlarge": 10.128,
	}
}

type ratesResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// Client fetches hourly compute rates from a rate service and caches them
// for the life of the process. Every failure falls back to the built-in
// table: a cost report with approximate rates beats no report.
type Client struct {
	client *resty.Client

	mu     sync.Mutex
	cached RateTable
}

func NewClient(baseURL string) *Client {
	return &Client{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
	}
}

// Rates returns the current rate table, fetching it on first use.
func (c *Client) Rates(ctx context.Context) RateTable {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached
	}

	table, err := c.fetch(ctx)
	if err != nil {
		slog.Warn("rate service unavailable, using built-in rates", "error", err)
		table = DefaultRates()
	}
	c.cached = table
	return table
}

// Lookup resolves a rate from the (lazily fetched) table, so a *Client can
// stand in directly as a rate source.
func (c *Client) Lookup(instanceType string) (float64, bool) {
	return c.Rates(context.Background()).Lookup(instanceType)
}

func (c *Client) fetch(ctx context.Context) (RateTable, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get("/v1/rates")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("rate service returned status %d", res.StatusCode())
	}

	var parsed ratesResponse
	if err := json.Unmarshal(res.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rate response: %w", err)
	}
	if len(parsed.Prices) == 0 {
		return nil, fmt.Errorf("rate response contains no prices")
	}
	return RateTable(parsed.Prices), nil
}
