package catalog

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crechespots/internal/models"
)

const galleryQuery = "SELECT image_url FROM creche_gallery WHERE creche_id = $1 AND image_url IS NOT NULL ORDER BY id"

// PostgresSource reads the catalog straight from the backend's Postgres database.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	log.Println("Connected to catalog database")
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Centres(ctx context.Context) ([]models.Centre, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(address, ''), COALESCE(phone_number, ''),
		       COALESCE(capacity, 0), COALESCE(logo, ''), latitude, longitude,
		       COALESCE(registered, false), COALESCE(monthly_price, 0), COALESCE(weekly_price, 0)
		FROM creches
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query creches: %w", err)
	}

	centres, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Centre, error) {
		var c models.Centre
		err := row.Scan(
			&c.ID,
			&c.Name,
			&c.Address,
			&c.PhoneNumber,
			&c.Capacity,
			&c.Logo,
			&c.Latitude,
			&c.Longitude,
			&c.Registered,
			&c.MonthlyPrice,
			&c.WeeklyPrice,
		)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan creches: %w", err)
	}
	return centres, nil
}

func (s *PostgresSource) Gallery(ctx context.Context, centreID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, galleryQuery, centreID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery: %w", err)
	}
	images, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan gallery: %w", err)
	}
	return images, nil
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}
