package forecast

import (
	"errors"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func validEntry(loc, dtTxt string) RawEntry {
	return RawEntry{
		Location: loc,
		Item: forecastItem{
			DtTxt: dtTxt,
			Main: &itemMain{
				Temp:      f64(5.2),
				FeelsLike: f64(3.1),
				Humidity:  intp(81),
			},
			Weather: []itemWeather{
				{Main: "Clouds", Description: "overcast clouds"},
			},
			Wind: &itemWind{Speed: f64(4.6)},
		},
	}
}

func TestNormalizeFlattensEntry(t *testing.T) {
	fetchedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	records, err := Normalize([]RawEntry{validEntry("Berlin", "2025-01-02 09:00:00")}, fetchedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	want := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	if got.Location != "Berlin" {
		t.Errorf("location = %q", got.Location)
	}
	if !got.ForecastTime.Equal(want) {
		t.Errorf("forecast time = %v, want %v", got.ForecastTime, want)
	}
	if got.Temp != 5.2 || got.FeelsLike != 3.1 || got.Humidity != 81 {
		t.Errorf("temperature fields = %v/%v/%v", got.Temp, got.FeelsLike, got.Humidity)
	}
	if got.Condition != "Clouds" || got.Description != "overcast clouds" {
		t.Errorf("weather fields = %q/%q", got.Condition, got.Description)
	}
	if got.WindSpeed != 4.6 {
		t.Errorf("wind speed = %v", got.WindSpeed)
	}
	if !got.FetchedAt.Equal(fetchedAt) {
		t.Errorf("fetched at = %v, want %v", got.FetchedAt, fetchedAt)
	}
}

// TestNormalizeMissingTempFailsBatch verifies the strict contract: one
// malformed entry fails the whole batch, even when other entries are fine.
func TestNormalizeMissingTempFailsBatch(t *testing.T) {
	broken := validEntry("Paris", "2025-01-02 09:00:00")
	broken.Item.Main.Temp = nil

	records, err := Normalize([]RawEntry{
		validEntry("Berlin", "2025-01-02 09:00:00"),
		broken,
	}, time.Now())

	if records != nil {
		t.Errorf("expected no records on malformed input, got %d", len(records))
	}
	var malformed *MalformedEntryError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedEntryError, got %v", err)
	}
	if malformed.Location != "Paris" || malformed.Field != "main.temp" {
		t.Errorf("unexpected error detail: %+v", malformed)
	}
}

func TestNormalizeMissingWeatherList(t *testing.T) {
	e := validEntry("Berlin", "2025-01-02 09:00:00")
	e.Item.Weather = nil

	_, err := Normalize([]RawEntry{e}, time.Now())

	var malformed *MalformedEntryError
	if !errors.As(err, &malformed) || malformed.Field != "weather" {
		t.Fatalf("expected malformed weather error, got %v", err)
	}
}

func TestNormalizeBadTimestamp(t *testing.T) {
	e := validEntry("Berlin", "02.01.2025 09:00")

	_, err := Normalize([]RawEntry{e}, time.Now())

	var malformed *MalformedEntryError
	if !errors.As(err, &malformed) || malformed.Field != "dt_txt" {
		t.Fatalf("expected malformed dt_txt error, got %v", err)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	records, err := Normalize(nil, time.Now())
	if err != nil {
		t.Fatalf("empty input must not error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty batch, got %d records", len(records))
	}
}

func TestNormalizeSharedFetchTimestamp(t *testing.T) {
	fetchedAt := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	records, err := Normalize([]RawEntry{
		validEntry("Berlin", "2025-06-01 09:00:00"),
		validEntry("Berlin", "2025-06-01 12:00:00"),
	}, fetchedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range records {
		if !r.FetchedAt.Equal(fetchedAt) {
			t.Errorf("record %v has fetched_at %v, want %v", r.ForecastTime, r.FetchedAt, fetchedAt)
		}
	}
}
