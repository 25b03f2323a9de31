package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"summoner-analytics/internal/db"
	"summoner-analytics/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type QueryRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewQueryRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *QueryRepository {
	return &QueryRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Create stores a new pending query and fills in its id and timestamps.
func (r *QueryRepository) Create(ctx context.Context, query *domain.Query) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}

	now := time.Now()
	query.ID = id
	query.Status = domain.QueryStatusPending
	query.Complete = false
	query.Error = ""
	query.CreatedAt = now
	query.UpdatedAt = now

	return r.queries.CreateQuery(ctx, db.CreateQueryParams{
		ID:         query.ID,
		SearchTerm: query.SearchTerm,
		Type:       string(query.Type),
		Region:     query.Region,
		Depth:      int64(query.Depth),
		Status:     string(query.Status),
		CreatedAt:  query.CreatedAt,
		UpdatedAt:  query.UpdatedAt,
	})
}

func (r *QueryRepository) Get(ctx context.Context, id string) (*domain.Query, error) {
	row, err := r.queries.GetQuery(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &domain.Query{
		ID:         row.ID,
		SearchTerm: row.SearchTerm,
		Type:       domain.QueryType(row.Type),
		Region:     row.Region,
		Depth:      int(row.Depth),
		Status:     domain.QueryStatus(row.Status),
		Complete:   row.Complete,
		Error:      row.Error.String,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

// SetFetching moves a pending query to fetching. It reports false when the
// query is already terminal.
func (r *QueryRepository) SetFetching(ctx context.Context, id string) (bool, error) {
	n, err := r.queries.UpdateQueryStatus(ctx, db.UpdateQueryStatusParams{
		Status:    string(domain.QueryStatusFetching),
		UpdatedAt: time.Now(),
		ID:        id,
	})
	return n > 0, err
}

// MarkComplete is a no-op for queries that already reached a terminal state.
func (r *QueryRepository) MarkComplete(ctx context.Context, id string) (bool, error) {
	n, err := r.queries.CompleteQuery(ctx, db.CompleteQueryParams{
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("query_id", id).Msg("failed to mark query complete")
		return false, err
	}
	return n > 0, nil
}

// MarkFailed is a no-op for queries that already reached a terminal state.
func (r *QueryRepository) MarkFailed(ctx context.Context, id string, reason string) (bool, error) {
	n, err := r.queries.FailQuery(ctx, db.FailQueryParams{
		Error:     sql.NullString{String: reason, Valid: true},
		UpdatedAt: time.Now(),
		ID:        id,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("query_id", id).Msg("failed to mark query failed")
		return false, err
	}
	return n > 0, nil
}
