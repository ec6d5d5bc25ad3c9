package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/resilience"
	"github.com/sony/gobreaker"
)

// PopulationAdapter queries a grading-population-report style source
// (e.g. PSA/BGS population data with recent sale prices attached).
type PopulationAdapter struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *resilience.SlidingWindowLimiter
	breaker *gobreaker.CircuitBreaker
}

// NewPopulationAdapter builds the adapter with its rate limiter and circuit breaker.
func NewPopulationAdapter(baseURL, apiKey string, limiter *resilience.SlidingWindowLimiter, breaker *gobreaker.CircuitBreaker) *PopulationAdapter {
	return &PopulationAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		breaker: breaker,
	}
}

// Name identifies this source in PricingResult.Sources.
func (a *PopulationAdapter) Name() string { return "population" }

// Available reports whether the circuit breaker currently permits calls.
func (a *PopulationAdapter) Available() bool {
	return a.breaker.State() != gobreaker.StateOpen
}

type populationEntry struct {
	RecentSalePrice float64 `json:"recentSalePrice"`
	Currency        string  `json:"currency"`
	Grade           string  `json:"grade"`
	SaleDate        string  `json:"saleDate"`
	ReportURL       string  `json:"reportUrl"`
}

// Fetch looks up recent graded sales for the card, falling back to a
// name-only query when the name+set query is empty.
func (a *PopulationAdapter) Fetch(ctx context.Context, query cardmodel.PriceQuery) ([]cardmodel.RawComp, error) {
	if !a.limiter.Wait(ctx, 5*time.Second) {
		return nil, fmt.Errorf("population rate limit window exhausted")
	}

	entries, err := a.queryWithFallback(ctx, query)
	if err != nil {
		return nil, err
	}

	comps := make([]cardmodel.RawComp, 0, len(entries))
	for _, e := range entries {
		comps = append(comps, cardmodel.RawComp{
			Source:     a.Name(),
			Price:      e.RecentSalePrice,
			Currency:   e.Currency,
			Condition:  e.Grade,
			SoldDate:   e.SaleDate,
			ListingURL: e.ReportURL,
		})
	}
	return comps, nil
}

func (a *PopulationAdapter) queryWithFallback(ctx context.Context, query cardmodel.PriceQuery) ([]populationEntry, error) {
	primary, err := a.search(ctx, query.CardName, query.Set, query.Number)
	if err != nil {
		return nil, err
	}
	if len(primary) > 0 {
		return primary, nil
	}
	return a.search(ctx, query.CardName, "", "")
}

func (a *PopulationAdapter) search(ctx context.Context, name, set, number string) ([]populationEntry, error) {
	params := url.Values{}
	params.Set("cardName", name)
	if set != "" {
		params.Set("setName", set)
	}
	if number != "" && !hasPunctuation(number) {
		params.Set("cardNumber", number)
	}

	var entries []populationEntry
	_, err := a.breaker.Execute(func() (any, error) {
		return nil, resilience.Do(ctx, resilience.DefaultRetryPolicy(3), func(ctx context.Context) error {
			reqURL := a.baseURL + "/population/search?" + params.Encode()
			req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if rerr != nil {
				return rerr
			}
			req.Header.Set("X-Api-Key", a.apiKey)

			resp, rerr := a.http.Do(req)
			if rerr != nil {
				return rerr
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				return fmt.Errorf("population server error: %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("population returned %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&entries)
		})
	})
	if err != nil {
		return nil, nil
	}
	return entries, nil
}
