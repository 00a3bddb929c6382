package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"weather-forecast-etl/internal/forecast"
)

const postgresTable = "weather_forecast"

// insertChunkSize bounds the number of rows per INSERT so the statement
// stays well under the Postgres placeholder limit.
const insertChunkSize = 500

// PostgresStore persists the dataset in a single weather_forecast table.
// Persist replaces the table content with the merged set in one
// transaction, mirroring the CSV store's whole-rewrite semantics.
type PostgresStore struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Load(ctx context.Context) ([]forecast.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location, forecast_time, temp, feels_like, humidity,
		       condition, description, wind_speed, fetched_at
		FROM `+postgresTable+`
		ORDER BY location, forecast_time`)
	if err != nil {
		return nil, &ReadError{Target: postgresTable, Err: err}
	}
	defer rows.Close()

	var records []forecast.Record
	for rows.Next() {
		var rec forecast.Record
		if err := rows.Scan(
			&rec.Location, &rec.ForecastTime, &rec.Temp, &rec.FeelsLike,
			&rec.Humidity, &rec.Condition, &rec.Description, &rec.WindSpeed,
			&rec.FetchedAt,
		); err != nil {
			return nil, &ReadError{Target: postgresTable, Err: err}
		}
		rec.ForecastTime = rec.ForecastTime.UTC()
		rec.FetchedAt = rec.FetchedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &ReadError{Target: postgresTable, Err: err}
	}
	return records, nil
}

func (s *PostgresStore) Persist(ctx context.Context, records []forecast.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Target: postgresTable, Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+postgresTable); err != nil {
		tx.Rollback()
		return &WriteError{Target: postgresTable, Err: err}
	}

	for start := 0; start < len(records); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(records) {
			end = len(records)
		}
		if err := insertChunk(ctx, tx, records[start:end]); err != nil {
			tx.Rollback()
			return &WriteError{Target: postgresTable, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Target: postgresTable, Err: err}
	}
	return nil
}

func insertChunk(ctx context.Context, tx *sql.Tx, records []forecast.Record) error {
	args := make([]interface{}, 0, len(records)*9)
	for _, rec := range records {
		args = append(args,
			rec.Location, rec.ForecastTime.UTC(), rec.Temp, rec.FeelsLike,
			rec.Humidity, rec.Condition, rec.Description, rec.WindSpeed,
			rec.FetchedAt.UTC(),
		)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (location, forecast_time, temp, feels_like, humidity,
		                condition, description, wind_speed, fetched_at)
		VALUES %s`, postgresTable, insertPlaceholders(len(records), 9))

	_, err := tx.ExecContext(ctx, stmt, args...)
	return err
}

// insertPlaceholders builds the "($1,...,$9),($10,...)" groups for a
// multi-row insert.
func insertPlaceholders(rows, cols int) string {
	groups := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		ph := make([]string, 0, cols)
		for c := 0; c < cols; c++ {
			ph = append(ph, fmt.Sprintf("$%d", r*cols+c+1))
		}
		groups = append(groups, "("+strings.Join(ph, ", ")+")")
	}
	return strings.Join(groups, ", ")
}
