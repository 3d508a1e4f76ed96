package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const qSelectLatestDataset = `SELECT document FROM anime_datasets ORDER BY loaded_at DESC LIMIT 1`

// rowQuerier is the subset of *pgxpool.Pool used by PostgresSource.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSource reads the newest dataset document stored as jsonb.
type PostgresSource struct {
	db rowQuerier
}

func NewPostgresSource(db rowQuerier) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres:anime_datasets" }

func (s *PostgresSource) Load(ctx context.Context) (*Database, error) {
	var doc []byte
	if err := s.db.QueryRow(ctx, qSelectLatestDataset).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &LoadError{Kind: KindNotFound, Source: s.Name(), Err: err}
		}
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	return decodeDatabase(s.Name(), doc)
}
