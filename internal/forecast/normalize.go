package forecast

import (
	"fmt"
	"time"
)

// forecastTimeLayout is the dt_txt format the forecast endpoint returns,
// always in UTC.
const forecastTimeLayout = "2006-01-02 15:04:05"

// MalformedEntryError reports a fetched entry that lacks a required
// sub-field. Normalization has no partial-success contract; one malformed
// entry fails the whole batch.
type MalformedEntryError struct {
	Location string
	Field    string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("malformed forecast entry for %s: missing or invalid %s", e.Location, e.Field)
}

// Normalize flattens raw API entries into storable records. Every record of
// the batch is stamped with the same fetchedAt instant. An empty input
// yields an empty batch, which is a valid "nothing new to merge" outcome.
func Normalize(entries []RawEntry, fetchedAt time.Time) ([]Record, error) {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		rec, err := normalizeEntry(e, fetchedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeEntry(e RawEntry, fetchedAt time.Time) (Record, error) {
	item := e.Item

	if item.DtTxt == "" {
		return Record{}, &MalformedEntryError{Location: e.Location, Field: "dt_txt"}
	}
	ts, err := time.ParseInLocation(forecastTimeLayout, item.DtTxt, time.UTC)
	if err != nil {
		return Record{}, &MalformedEntryError{Location: e.Location, Field: "dt_txt"}
	}

	if item.Main == nil || item.Main.Temp == nil {
		return Record{}, &MalformedEntryError{Location: e.Location, Field: "main.temp"}
	}
	if item.Main.FeelsLike == nil {
		return Record{}, &MalformedEntryError{Location: e.Location, Field: "main.feels_like"}
	}
	if item.Main.Humidity == nil {
		return Record{}, &MalformedEntryError{Location: e.Location, Field: "main.humidity"}
	}
	if len(item.Weather) == 0 {
		return Record{}, &MalformedEntryError{Location: e.Location, Field: "weather"}
	}
	if item.Wind == nil || item.Wind.Speed == nil {
		return Record{}, &MalformedEntryError{Location: e.Location, Field: "wind.speed"}
	}

	return Record{
		Location:     e.Location,
		ForecastTime: ts,
		Temp:         *item.Main.Temp,
		FeelsLike:    *item.Main.FeelsLike,
		Humidity:     *item.Main.Humidity,
		Condition:    item.Weather[0].Main,
		Description:  item.Weather[0].Description,
		WindSpeed:    *item.Wind.Speed,
		FetchedAt:    fetchedAt.UTC(),
	}, nil
}
