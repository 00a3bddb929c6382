package forecast_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"weather-forecast-etl/internal/forecast"
	"weather-forecast-etl/internal/store"
)

type emptyFetcher struct{}

func (emptyFetcher) FetchAll(ctx context.Context, locations []forecast.Location) ([]forecast.RawEntry, error) {
	return nil, nil
}

// TestEmptyRunLeavesStoreFileByteIdentical exercises the no-op contract
// against a real on-disk store: an empty batch must not rewrite the file,
// not even with identical content.
func TestEmptyRunLeavesStoreFileByteIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_forecast.csv")
	content := []byte("location,forecast_time,temp,feels_like,humidity,condition,description,wind_speed,fetched_at\n" +
		"Berlin,2025-01-01T00:00:00Z,5,4.1,80,Clouds,overcast clouds,3.2,2025-01-01T00:05:00Z\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	svc := forecast.NewService(emptyFetcher{}, store.NewCSVStore(path, false),
		[]forecast.Location{{Lat: 52.52, Lon: 13.405, Name: "Berlin"}}, false)
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(content) {
		t.Errorf("store content changed on an empty run")
	}
	stat, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !stat.ModTime().Equal(before.ModTime()) {
		t.Errorf("store file was rewritten on an empty run")
	}
}
