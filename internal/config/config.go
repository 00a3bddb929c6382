package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"weather-forecast-etl/internal/forecast"
	"weather-forecast-etl/internal/geocode"
)

// ErrInvalid marks every configuration failure so the caller can map the
// whole class to one exit code.
var ErrInvalid = errors.New("invalid configuration")

type AppConfig struct {
	// APIKey authenticates against the OpenWeatherMap forecast endpoint.
	APIKey string `validate:"required"`

	// Locations to fetch forecasts for, in order.
	Locations []forecast.Location `validate:"required,min=1,dive"`

	// HTTPTimeout bounds each per-location request.
	HTTPTimeout time.Duration

	StoreDriver string `validate:"oneof=csv postgres"`
	StorePath   string
	PostgresDSN string

	// RecoverCorruptStore opts into backup-and-rebuild when the existing
	// store is unreadable, instead of failing the run.
	RecoverCorruptStore bool

	GeocoderAPIKey string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	cfg.APIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "5s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid HTTP_TIMEOUT: %v", ErrInvalid, err)
	}
	cfg.HTTPTimeout = timeout

	cfg.StoreDriver = getenvDefault("STORE_DRIVER", "csv")
	cfg.StorePath = getenvDefault("STORE_PATH", "data/weather_forecast.csv")
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	cfg.RecoverCorruptStore = getenvBool("STORE_RECOVER_CORRUPT", false)

	if cfg.StoreDriver == "postgres" && cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("%w: POSTGRES_DSN is required when STORE_DRIVER=postgres", ErrInvalid)
	}

	locs, err := loadLocations(cfg.GeocoderAPIKey)
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return cfg, nil
}

// loadLocations parses LOCATIONS ("lat,lon,name;...") and resolves
// LOCATION_NAMES ("city,country;...") through the geocoder. When neither is
// set, the fetch set defaults to Berlin.
func loadLocations(geocoderKey string) ([]forecast.Location, error) {
	raw := os.Getenv("LOCATIONS")
	names := os.Getenv("LOCATION_NAMES")
	if raw == "" && names == "" {
		raw = "52.52,13.405,Berlin"
	}

	var locs []forecast.Location
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		loc, err := parseLocation(part)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}

	if names != "" {
		if geocoderKey == "" {
			return nil, fmt.Errorf("%w: LOCATION_NAMES requires GEOCODER_API_KEY", ErrInvalid)
		}
		resolved, err := geocode.Resolve(geocoderKey, splitList(names))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		locs = append(locs, resolved...)
	}

	return locs, nil
}

func parseLocation(s string) (forecast.Location, error) {
	fields := strings.SplitN(s, ",", 3)
	if len(fields) != 3 {
		return forecast.Location{}, fmt.Errorf("%w: LOCATIONS entry %q: want lat,lon,name", ErrInvalid, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return forecast.Location{}, fmt.Errorf("%w: LOCATIONS entry %q: bad latitude", ErrInvalid, s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return forecast.Location{}, fmt.Errorf("%w: LOCATIONS entry %q: bad longitude", ErrInvalid, s)
	}

	return forecast.Location{
		Lat:  lat,
		Lon:  lon,
		Name: strings.TrimSpace(fields[2]),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}
