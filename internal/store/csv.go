package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"weather-forecast-etl/internal/forecast"
)

// csvColumns is the fixed on-disk column order.
var csvColumns = []string{
	"location",
	"forecast_time",
	"temp",
	"feels_like",
	"humidity",
	"condition",
	"description",
	"wind_speed",
	"fetched_at",
}

// CSVStore persists forecast records as a single flat CSV file with a
// header row, rewritten in full on every persist.
type CSVStore struct {
	path string

	// recoverCorrupt opts into backup-and-rebuild when the existing file is
	// unreadable, instead of failing the run.
	recoverCorrupt bool
}

func NewCSVStore(path string, recoverCorrupt bool) *CSVStore {
	return &CSVStore{
		path:           path,
		recoverCorrupt: recoverCorrupt,
	}
}

// Load reads the existing dataset. A missing file is an empty first-run
// store. A corrupt file is a ReadError unless recovery is enabled, in which
// case the bad file is backed up beside the store and the dataset rebuilds
// from empty. Open failures are always a ReadError: a transient problem
// like a permission error must not move the dataset aside.
func (s *CSVStore) Load(ctx context.Context) ([]forecast.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &ReadError{Target: s.path, Err: err}
	}

	records, err := decodeRecords(f)
	f.Close()
	if err != nil {
		return s.recover(err)
	}
	return records, nil
}

// recover applies the corrupt-store policy to a parse failure.
func (s *CSVStore) recover(cause error) ([]forecast.Record, error) {
	if !s.recoverCorrupt {
		return nil, &ReadError{Target: s.path, Err: cause}
	}

	backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, backup); err != nil {
		return nil, &ReadError{Target: s.path, Err: cause}
	}
	log.Printf("store: existing dataset unreadable (%v); backed it up to %s and rebuilding from empty", cause, backup)
	return nil, nil
}

// Persist rewrites the whole dataset. It writes to a temporary file in the
// store's directory and renames it over the destination, so a crash
// mid-write never leaves a truncated store. Missing parent directories are
// created.
func (s *CSVStore) Persist(ctx context.Context, records []forecast.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Target: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &WriteError{Target: s.path, Err: err}
	}

	if err := encodeRecords(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &WriteError{Target: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Target: s.path, Err: err}
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &WriteError{Target: s.path, Err: err}
	}
	return nil
}

func encodeRecords(w io.Writer, records []forecast.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Location,
			rec.ForecastTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(rec.Temp, 'g', -1, 64),
			strconv.FormatFloat(rec.FeelsLike, 'g', -1, 64),
			strconv.Itoa(rec.Humidity),
			rec.Condition,
			rec.Description,
			strconv.FormatFloat(rec.WindSpeed, 'g', -1, 64),
			rec.FetchedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decodeRecords(r io.Reader) ([]forecast.Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows[0]) != len(csvColumns) {
		return nil, fmt.Errorf("unexpected header %q", rows[0])
	}
	for i, col := range csvColumns {
		if rows[0][i] != col {
			return nil, fmt.Errorf("unexpected header %q", rows[0])
		}
	}

	var records []forecast.Record
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (forecast.Record, error) {
	forecastTime, err := time.Parse(time.RFC3339, row[1])
	if err != nil {
		return forecast.Record{}, fmt.Errorf("forecast_time: %w", err)
	}
	temp, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return forecast.Record{}, fmt.Errorf("temp: %w", err)
	}
	feelsLike, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return forecast.Record{}, fmt.Errorf("feels_like: %w", err)
	}
	humidity, err := strconv.Atoi(row[4])
	if err != nil {
		return forecast.Record{}, fmt.Errorf("humidity: %w", err)
	}
	windSpeed, err := strconv.ParseFloat(row[7], 64)
	if err != nil {
		return forecast.Record{}, fmt.Errorf("wind_speed: %w", err)
	}
	fetchedAt, err := time.Parse(time.RFC3339, row[8])
	if err != nil {
		return forecast.Record{}, fmt.Errorf("fetched_at: %w", err)
	}

	return forecast.Record{
		Location:     row[0],
		ForecastTime: forecastTime.UTC(),
		Temp:         temp,
		FeelsLike:    feelsLike,
		Humidity:     humidity,
		Condition:    row[5],
		Description:  row[6],
		WindSpeed:    windSpeed,
		FetchedAt:    fetchedAt.UTC(),
	}, nil
}
