// Package geocode resolves human-named locations to coordinates through the
// Google geocoding API.
package geocode

import (
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"weather-forecast-etl/internal/forecast"
)

// Resolve turns "city" or "city,country" pairs into forecast locations.
// Resolution is strict: a pair that cannot be geocoded fails the whole call,
// since fetching forecasts for a half-resolved location set would silently
// drop configured points.
func Resolve(apiKey string, pairs []string) ([]forecast.Location, error) {
	geocoder.ApiKey = apiKey

	locs := make([]forecast.Location, 0, len(pairs))
	for _, pair := range pairs {
		fields := strings.SplitN(pair, ",", 2)
		addr := geocoder.Address{
			City: strings.TrimSpace(fields[0]),
		}
		if len(fields) == 2 {
			addr.Country = strings.TrimSpace(fields[1])
		}

		coords, err := geocoder.Geocoding(addr)
		if err != nil {
			return nil, fmt.Errorf("geocoding %q: %w", pair, err)
		}

		locs = append(locs, forecast.Location{
			Lat:  coords.Latitude,
			Lon:  coords.Longitude,
			Name: addr.City,
		})
	}
	return locs, nil
}
