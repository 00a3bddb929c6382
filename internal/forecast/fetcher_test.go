package forecast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const forecastBody = `{
	"list": [
		{
			"dt_txt": "2025-01-02 09:00:00",
			"main": {"temp": 5.2, "feels_like": 3.1, "humidity": 81},
			"weather": [{"main": "Clouds", "description": "overcast clouds"}],
			"wind": {"speed": 4.6}
		},
		{
			"dt_txt": "2025-01-02 12:00:00",
			"main": {"temp": 6.0, "feels_like": 4.2, "humidity": 77},
			"weather": [{"main": "Clear", "description": "clear sky"}],
			"wind": {"speed": 3.9}
		}
	]
}`

// newTestFetcher points a fetcher at the given server with retries disabled
// so failure cases return quickly.
func newTestFetcher(serverURL, apiKey string) *Fetcher {
	f := NewFetcher(&http.Client{Timeout: time.Second}, apiKey)
	f.baseURL = serverURL
	f.backoff = BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}
	return f
}

// TestFetchAllPartialFailure: one failing location is skipped and the
// remaining locations still contribute entries, in input order.
func TestFetchAllPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "2.000000" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, forecastBody)
	}))
	defer srv.Close()

	locations := []Location{
		{Lat: 1, Lon: 1, Name: "First"},
		{Lat: 2, Lon: 2, Name: "Broken"},
		{Lat: 3, Lon: 3, Name: "Third"},
	}

	entries, err := newTestFetcher(srv.URL, "key").FetchAll(context.Background(), locations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries from the two healthy locations, got %d", len(entries))
	}
	for i, want := range []string{"First", "First", "Third", "Third"} {
		if entries[i].Location != want {
			t.Errorf("entry %d tagged %q, want %q", i, entries[i].Location, want)
		}
	}
}

func TestFetchAllMissingAPIKey(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, forecastBody)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL, "").FetchAll(context.Background(), []Location{{Lat: 1, Lon: 1, Name: "Berlin"}})

	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no requests with a missing key, got %d", calls.Load())
	}
}

func TestFetchAllQueryParams(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, forecastBody)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL, "secret").FetchAll(context.Background(), []Location{
		{Lat: 52.52, Lon: 13.405, Name: "Berlin"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for key, want := range map[string]string{
		"lat":   "52.520000",
		"lon":   "13.405000",
		"appid": "secret",
		"units": "metric",
	} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %q", key, got, want)
		}
	}
}

func TestFetchAllAllLocationsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	entries, err := newTestFetcher(srv.URL, "key").FetchAll(context.Background(), []Location{
		{Lat: 1, Lon: 1, Name: "A"},
		{Lat: 2, Lon: 2, Name: "B"},
	})

	// Transport failures never escalate; the run sees an empty batch.
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
