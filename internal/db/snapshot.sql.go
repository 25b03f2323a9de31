package db

import (
	"context"
	"database/sql"
	"time"
)

const createSnapshot = `-- name: CreateSnapshot :exec
INSERT INTO player_snapshots (
    id, query_id, puuid, summoner_id, display_name, level, profile_icon_id,
    tier, rank, league_points, wins, losses, assigned_role, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateSnapshotParams struct {
	ID            string
	QueryID       string
	Puuid         string
	SummonerID    string
	DisplayName   string
	Level         int64
	ProfileIconID int64
	Tier          string
	Rank          string
	LeaguePoints  int64
	Wins          int64
	Losses        int64
	AssignedRole  sql.NullString
	CreatedAt     time.Time
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createSnapshot,
		arg.ID,
		arg.QueryID,
		arg.Puuid,
		arg.SummonerID,
		arg.DisplayName,
		arg.Level,
		arg.ProfileIconID,
		arg.Tier,
		arg.Rank,
		arg.LeaguePoints,
		arg.Wins,
		arg.Losses,
		arg.AssignedRole,
		arg.CreatedAt,
	)
	return err
}

const listSnapshotsByQuery = `-- name: ListSnapshotsByQuery :many
SELECT id, query_id, puuid, summoner_id, display_name, level, profile_icon_id,
       tier, rank, league_points, wins, losses, assigned_role, created_at
FROM player_snapshots
WHERE query_id = ?
ORDER BY created_at, rowid
`

func (q *Queries) ListSnapshotsByQuery(ctx context.Context, queryID string) ([]PlayerSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshotsByQuery, queryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlayerSnapshot
	for rows.Next() {
		var i PlayerSnapshot
		if err := rows.Scan(
			&i.ID,
			&i.QueryID,
			&i.Puuid,
			&i.SummonerID,
			&i.DisplayName,
			&i.Level,
			&i.ProfileIconID,
			&i.Tier,
			&i.Rank,
			&i.LeaguePoints,
			&i.Wins,
			&i.Losses,
			&i.AssignedRole,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createMastery = `-- name: CreateMastery :exec
INSERT INTO masteries (snapshot_id, champion_id, champion_level, champion_points)
VALUES (?, ?, ?, ?)
`

type CreateMasteryParams struct {
	SnapshotID     string
	ChampionID     int64
	ChampionLevel  int64
	ChampionPoints int64
}

func (q *Queries) CreateMastery(ctx context.Context, arg CreateMasteryParams) error {
	_, err := q.db.ExecContext(ctx, createMastery,
		arg.SnapshotID,
		arg.ChampionID,
		arg.ChampionLevel,
		arg.ChampionPoints,
	)
	return err
}

const listMasteriesBySnapshot = `-- name: ListMasteriesBySnapshot :many
SELECT id, snapshot_id, champion_id, champion_level, champion_points
FROM masteries
WHERE snapshot_id = ?
ORDER BY id
`

func (q *Queries) ListMasteriesBySnapshot(ctx context.Context, snapshotID string) ([]Mastery, error) {
	rows, err := q.db.QueryContext(ctx, listMasteriesBySnapshot, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Mastery
	for rows.Next() {
		var i Mastery
		if err := rows.Scan(
			&i.ID,
			&i.SnapshotID,
			&i.ChampionID,
			&i.ChampionLevel,
			&i.ChampionPoints,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
