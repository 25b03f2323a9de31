package db

import (
	"context"
	"database/sql"
	"time"
)

const createQuery = `-- name: CreateQuery :exec
INSERT INTO queries (id, search_term, type, region, depth, status, complete, error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, FALSE, NULL, ?, ?)
`

type CreateQueryParams struct {
	ID         string
	SearchTerm string
	Type       string
	Region     string
	Depth      int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (q *Queries) CreateQuery(ctx context.Context, arg CreateQueryParams) error {
	_, err := q.db.ExecContext(ctx, createQuery,
		arg.ID,
		arg.SearchTerm,
		arg.Type,
		arg.Region,
		arg.Depth,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getQuery = `-- name: GetQuery :one
SELECT id, search_term, type, region, depth, status, complete, error, created_at, updated_at
FROM queries
WHERE id = ?
`

func (q *Queries) GetQuery(ctx context.Context, id string) (Query, error) {
	row := q.db.QueryRowContext(ctx, getQuery, id)
	var i Query
	err := row.Scan(
		&i.ID,
		&i.SearchTerm,
		&i.Type,
		&i.Region,
		&i.Depth,
		&i.Status,
		&i.Complete,
		&i.Error,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateQueryStatus = `-- name: UpdateQueryStatus :execrows
UPDATE queries
SET status = ?, updated_at = ?
WHERE id = ? AND status NOT IN ('complete', 'failed')
`

type UpdateQueryStatusParams struct {
	Status    string
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) UpdateQueryStatus(ctx context.Context, arg UpdateQueryStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateQueryStatus, arg.Status, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const completeQuery = `-- name: CompleteQuery :execrows
UPDATE queries
SET status = 'complete', complete = TRUE, updated_at = ?
WHERE id = ? AND status NOT IN ('complete', 'failed')
`

type CompleteQueryParams struct {
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) CompleteQuery(ctx context.Context, arg CompleteQueryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, completeQuery, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const failQuery = `-- name: FailQuery :execrows
UPDATE queries
SET status = 'failed', error = ?, updated_at = ?
WHERE id = ? AND status NOT IN ('complete', 'failed')
`

type FailQueryParams struct {
	Error     sql.NullString
	UpdatedAt time.Time
	ID        string
}

func (q *Queries) FailQuery(ctx context.Context, arg FailQueryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, failQuery, arg.Error, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
