package forecast

import (
	"time"
)

// Location is a forecast point of interest.
type Location struct {
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
	Name string  `json:"name" validate:"required"`
}

// Record is the unit of storage: one forecast slot for one location.
// (Location, ForecastTime) is the identity key; everything else is payload
// and may legitimately change between fetches as the forecast is refined.
type Record struct {
	Location     string    `json:"location"`
	ForecastTime time.Time `json:"forecast_time"` // always UTC
	Temp         float64   `json:"temp"`
	FeelsLike    float64   `json:"feels_like"`
	Humidity     int       `json:"humidity"`
	Condition    string    `json:"condition"`
	Description  string    `json:"description"`
	WindSpeed    float64   `json:"wind_speed"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// slotKey identifies a forecast slot for deduplication.
type slotKey struct {
	location string
	unix     int64
}

func (r Record) key() slotKey {
	return slotKey{location: r.Location, unix: r.ForecastTime.UTC().Unix()}
}

// RawEntry is one forecast slot exactly as delivered by the remote API,
// tagged with the location it was fetched for.
type RawEntry struct {
	Location string
	Item     forecastItem
}

// forecastItem mirrors one element of the OpenWeatherMap forecast "list".
// Required sub-fields are pointers so the normalizer can tell a missing
// field from a zero value.
type forecastItem struct {
	DtTxt   string        `json:"dt_txt"`
	Main    *itemMain     `json:"main"`
	Weather []itemWeather `json:"weather"`
	Wind    *itemWind     `json:"wind"`
}

type itemMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *int     `json:"humidity"`
}

type itemWeather struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type itemWind struct {
	Speed *float64 `json:"speed"`
}
