package sources

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/weather-insight/internal/weather"
)

// PostgresSource reads the weather log from the weather_log table:
//
//	CREATE TABLE weather_log (
//	    id              BIGSERIAL PRIMARY KEY,
//	    date            TEXT NOT NULL,   -- MM-DD
//	    city            TEXT NOT NULL,
//	    temperature     DOUBLE PRECISION NOT NULL,
//	    min_temperature DOUBLE PRECISION NOT NULL,
//	    description     TEXT NOT NULL DEFAULT ''
//	);
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Name() string {
	return "postgres"
}

// Fetch returns every row in insertion (id) order.
func (s *PostgresSource) Fetch(ctx context.Context) ([]weather.Record, error) {
	query := `
		SELECT date, city, temperature, min_temperature, description
		FROM weather_log
		ORDER BY id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query weather log: %w", err)
	}
	defer rows.Close()

	results := []weather.Record{}
	for rows.Next() {
		var r weather.Record
		if err := rows.Scan(&r.Date, &r.City, &r.Temperature, &r.MinTemperature, &r.Description); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan weather row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read weather log: %w", err)
	}

	return results, nil
}
