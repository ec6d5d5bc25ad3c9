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

// EbayAdapter queries an eBay-style sold-listings search.
type EbayAdapter struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *resilience.SlidingWindowLimiter
	breaker *gobreaker.CircuitBreaker
}

// NewEbayAdapter builds the adapter with its rate limiter and circuit breaker.
func NewEbayAdapter(baseURL, apiKey string, limiter *resilience.SlidingWindowLimiter, breaker *gobreaker.CircuitBreaker) *EbayAdapter {
	return &EbayAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		breaker: breaker,
	}
}

// Name identifies this source in PricingResult.Sources.
func (a *EbayAdapter) Name() string { return "ebay" }

// Available reports whether the circuit breaker currently permits calls.
func (a *EbayAdapter) Available() bool {
	return a.breaker.State() != gobreaker.StateOpen
}

type ebaySoldItem struct {
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	Condition  string  `json:"condition"`
	SoldDate   string  `json:"endTime"`
	ListingURL string  `json:"itemWebUrl"`
}

// Fetch queries sold listings for name+set+number, falling back to a
// name-only query if the primary query returns nothing.
func (a *EbayAdapter) Fetch(ctx context.Context, query cardmodel.PriceQuery) ([]cardmodel.RawComp, error) {
	if !a.limiter.Wait(ctx, 5*time.Second) {
		return nil, fmt.Errorf("ebay rate limit window exhausted")
	}

	items, err := a.queryWithFallback(ctx, query)
	if err != nil {
		return nil, err
	}

	comps := make([]cardmodel.RawComp, 0, len(items))
	for _, it := range items {
		comps = append(comps, cardmodel.RawComp{
			Source:     a.Name(),
			Price:      it.Price,
			Currency:   it.Currency,
			Condition:  it.Condition,
			SoldDate:   it.SoldDate,
			ListingURL: it.ListingURL,
		})
	}
	return comps, nil
}

func (a *EbayAdapter) queryWithFallback(ctx context.Context, query cardmodel.PriceQuery) ([]ebaySoldItem, error) {
	primary, err := a.search(ctx, query.CardName, query.Set, query.Number)
	if err != nil {
		return nil, err
	}
	if len(primary) > 0 {
		return primary, nil
	}
	return a.search(ctx, query.CardName, "", "")
}

func (a *EbayAdapter) search(ctx context.Context, name, set, number string) ([]ebaySoldItem, error) {
	params := url.Values{}
	phrase := name
	if set != "" {
		phrase = fmt.Sprintf("%q %q", name, set)
	}
	params.Set("q", phrase)
	if number != "" && !hasPunctuation(number) {
		params.Set("number", number)
	}
	params.Set("filter", "soldItemsOnly")

	var items []ebaySoldItem
	_, err := a.breaker.Execute(func() (any, error) {
		return nil, resilience.Do(ctx, resilience.DefaultRetryPolicy(3), func(ctx context.Context) error {
			reqURL := a.baseURL + "/item_summary/search?" + params.Encode()
			req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if rerr != nil {
				return rerr
			}
			req.Header.Set("Authorization", "Bearer "+a.apiKey)

			resp, rerr := a.http.Do(req)
			if rerr != nil {
				return rerr
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				return fmt.Errorf("ebay server error: %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("ebay returned %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&items)
		})
	})
	if err != nil {
		return nil, nil
	}
	return items, nil
}
