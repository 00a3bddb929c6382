package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// ErrMissingAPIKey is returned before any request is issued when the
// credential is absent; a known-invalid setup must not produce partial
// attempts.
var ErrMissingAPIKey = errors.New("openweather api key is not configured")

// Fetcher retrieves 5-day/3-hour forecasts from the OpenWeatherMap
// forecast endpoint, one request per location.
type Fetcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

func NewFetcher(client *http.Client, apiKey string) *Fetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather-forecast",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Fetcher{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		client:  client,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
}

// FetchAll fetches forecast entries for every location in order and returns
// their concatenation. A single location's transport failure is logged and
// skipped; it never aborts the remaining locations. An empty result is a
// valid outcome.
func (f *Fetcher) FetchAll(ctx context.Context, locations []Location) ([]RawEntry, error) {
	if f.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var entries []RawEntry
	for _, loc := range locations {
		items, err := f.fetchLocation(ctx, loc)
		if err != nil {
			log.Printf("fetch failed for %s: %v", loc.Name, err)
			continue
		}
		for _, item := range items {
			entries = append(entries, RawEntry{Location: loc.Name, Item: item})
		}
		log.Printf("fetched %d forecast entries for %s", len(items), loc.Name)
	}
	return entries, nil
}

func (f *Fetcher) fetchLocation(ctx context.Context, loc Location) ([]forecastItem, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", loc.Lon))
		values.Set("appid", f.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", f.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doWithResilience(ctx, f.client, f.circuit, f.backoff, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []forecastItem `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return payload.List, nil
}
