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

// TCGPlayerAdapter queries a TCGPlayer-style marketplace API: quoted
// name+set phrase search with a rarity-variant price selection.
type TCGPlayerAdapter struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *resilience.SlidingWindowLimiter
	breaker *gobreaker.CircuitBreaker
}

// NewTCGPlayerAdapter builds the adapter with its rate limiter and circuit breaker.
func NewTCGPlayerAdapter(baseURL, apiKey string, limiter *resilience.SlidingWindowLimiter, breaker *gobreaker.CircuitBreaker) *TCGPlayerAdapter {
	return &TCGPlayerAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		breaker: breaker,
	}
}

// Name identifies this source in PricingResult.Sources.
func (a *TCGPlayerAdapter) Name() string { return "tcgplayer" }

// Available reports whether the circuit breaker currently permits calls.
func (a *TCGPlayerAdapter) Available() bool {
	return a.breaker.State() != gobreaker.StateOpen
}

type tcgplayerListing struct {
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	Condition  string  `json:"condition"`
	SoldDate   string  `json:"soldDate"`
	ListingURL string  `json:"listingUrl"`
}

// Fetch runs the quoted-phrase search with a name-only fallback, retried
// up to 3 times with exponential backoff; on exhaustion it returns an
// empty slice rather than an error (spec.md §4.3).
func (a *TCGPlayerAdapter) Fetch(ctx context.Context, query cardmodel.PriceQuery) ([]cardmodel.RawComp, error) {
	if !a.limiter.Wait(ctx, 5*time.Second) {
		return nil, fmt.Errorf("tcgplayer rate limit window exhausted")
	}

	variant := RarityVariant(query.Condition)
	listings, err := a.queryWithFallback(ctx, query, variant)
	if err != nil {
		return nil, err
	}

	comps := make([]cardmodel.RawComp, 0, len(listings))
	for _, l := range listings {
		comps = append(comps, cardmodel.RawComp{
			Source:     a.Name(),
			Price:      l.Price,
			Currency:   l.Currency,
			Condition:  l.Condition,
			SoldDate:   l.SoldDate,
			ListingURL: l.ListingURL,
		})
	}
	return comps, nil
}

func (a *TCGPlayerAdapter) queryWithFallback(ctx context.Context, query cardmodel.PriceQuery, variant string) ([]tcgplayerListing, error) {
	primary, err := a.search(ctx, query.CardName, query.Set, query.Number, variant)
	if err != nil {
		return nil, err
	}
	if len(primary) > 0 {
		return primary, nil
	}
	return a.search(ctx, query.CardName, "", "", variant)
}

func (a *TCGPlayerAdapter) search(ctx context.Context, name, set, number, variant string) ([]tcgplayerListing, error) {
	params := url.Values{}
	params.Set("name", name)
	if set != "" {
		params.Set("set", set)
	}
	if number != "" && !hasPunctuation(number) {
		params.Set("number", number)
	}
	params.Set("variant", variant)

	var listings []tcgplayerListing
	_, err := a.breaker.Execute(func() (any, error) {
		return nil, resilience.Do(ctx, resilience.DefaultRetryPolicy(3), func(ctx context.Context) error {
			reqURL := a.baseURL + "/search?" + params.Encode()
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
				return fmt.Errorf("tcgplayer server error: %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("tcgplayer returned %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&listings)
		})
	})
	if err != nil {
		return nil, nil // onFailure: return empty, do not throw (spec.md §4.3)
	}
	return listings, nil
}
