package db

import (
	"context"
	"time"
)

const insertMatch = `-- name: InsertMatch :execrows
INSERT INTO matches (match_id, created_at, mode, type, map_id, duration, version, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (match_id) DO NOTHING
`

type InsertMatchParams struct {
	MatchID   string
	CreatedAt time.Time
	Mode      string
	Type      string
	MapID     int64
	Duration  int64
	Version   string
	FetchedAt time.Time
}

func (q *Queries) InsertMatch(ctx context.Context, arg InsertMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertMatch,
		arg.MatchID,
		arg.CreatedAt,
		arg.Mode,
		arg.Type,
		arg.MapID,
		arg.Duration,
		arg.Version,
		arg.FetchedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertParticipant = `-- name: InsertParticipant :exec
INSERT INTO participants (
    match_id, puuid, summoner_id, champion_id, champion_name, champion_level, position, win,
    kills, deaths, assists, creep_score, vision_score, vision_wards_bought, gold,
    damage_to_champions, damage_to_buildings, items, spells, runes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (match_id, puuid) DO NOTHING
`

func (q *Queries) InsertParticipant(ctx context.Context, arg Participant) error {
	_, err := q.db.ExecContext(ctx, insertParticipant,
		arg.MatchID,
		arg.Puuid,
		arg.SummonerID,
		arg.ChampionID,
		arg.ChampionName,
		arg.ChampionLevel,
		arg.Position,
		arg.Win,
		arg.Kills,
		arg.Deaths,
		arg.Assists,
		arg.CreepScore,
		arg.VisionScore,
		arg.VisionWardsBought,
		arg.Gold,
		arg.DamageToChampions,
		arg.DamageToBuildings,
		arg.Items,
		arg.Spells,
		arg.Runes,
	)
	return err
}

const countMatches = `-- name: CountMatches :one
SELECT COUNT(*) FROM matches WHERE match_id = ?
`

func (q *Queries) CountMatches(ctx context.Context, matchID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countMatches, matchID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const linkSnapshotMatch = `-- name: LinkSnapshotMatch :execrows
INSERT INTO snapshot_matches (snapshot_id, match_id, linked_at)
VALUES (?, ?, ?)
ON CONFLICT (snapshot_id, match_id) DO NOTHING
`

type LinkSnapshotMatchParams struct {
	SnapshotID string
	MatchID    string
	LinkedAt   time.Time
}

func (q *Queries) LinkSnapshotMatch(ctx context.Context, arg LinkSnapshotMatchParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, linkSnapshotMatch, arg.SnapshotID, arg.MatchID, arg.LinkedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countLinksByMatch = `-- name: CountLinksByMatch :one
SELECT COUNT(*) FROM snapshot_matches WHERE match_id = ?
`

func (q *Queries) CountLinksByMatch(ctx context.Context, matchID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countLinksByMatch, matchID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listParticipationsBySnapshot = `-- name: ListParticipationsBySnapshot :many
SELECT m.match_id, m.created_at, m.mode, m.type, m.map_id, m.duration, m.version, m.fetched_at,
       p.match_id, p.puuid, p.summoner_id, p.champion_id, p.champion_name, p.champion_level, p.position, p.win,
       p.kills, p.deaths, p.assists, p.creep_score, p.vision_score, p.vision_wards_bought, p.gold,
       p.damage_to_champions, p.damage_to_buildings, p.items, p.spells, p.runes
FROM snapshot_matches sm
JOIN player_snapshots s ON s.id = sm.snapshot_id
JOIN matches m ON m.match_id = sm.match_id
JOIN participants p ON p.match_id = sm.match_id AND p.puuid = s.puuid
WHERE sm.snapshot_id = ?
ORDER BY m.created_at DESC, m.match_id
`

type ListParticipationsBySnapshotRow struct {
	Match       Match
	Participant Participant
}

func (q *Queries) ListParticipationsBySnapshot(ctx context.Context, snapshotID string) ([]ListParticipationsBySnapshotRow, error) {
	rows, err := q.db.QueryContext(ctx, listParticipationsBySnapshot, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListParticipationsBySnapshotRow
	for rows.Next() {
		var i ListParticipationsBySnapshotRow
		if err := rows.Scan(
			&i.Match.MatchID,
			&i.Match.CreatedAt,
			&i.Match.Mode,
			&i.Match.Type,
			&i.Match.MapID,
			&i.Match.Duration,
			&i.Match.Version,
			&i.Match.FetchedAt,
			&i.Participant.MatchID,
			&i.Participant.Puuid,
			&i.Participant.SummonerID,
			&i.Participant.ChampionID,
			&i.Participant.ChampionName,
			&i.Participant.ChampionLevel,
			&i.Participant.Position,
			&i.Participant.Win,
			&i.Participant.Kills,
			&i.Participant.Deaths,
			&i.Participant.Assists,
			&i.Participant.CreepScore,
			&i.Participant.VisionScore,
			&i.Participant.VisionWardsBought,
			&i.Participant.Gold,
			&i.Participant.DamageToChampions,
			&i.Participant.DamageToBuildings,
			&i.Participant.Items,
			&i.Participant.Spells,
			&i.Participant.Runes,
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
