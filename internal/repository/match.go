package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/db"
	"summoner-analytics/internal/domain"

	"github.com/rs/zerolog"
)

// ErrMatchExists is returned by Create when another writer stored the match first.
var ErrMatchExists = errors.New("match already stored")

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *MatchRepository) Exists(ctx context.Context, matchID string) (bool, error) {
	count, err := r.queries.CountMatches(ctx, matchID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create stores the match and all of its participants atomically. Exactly one
// of several concurrent callers for the same match id succeeds; the others
// get ErrMatchExists and nothing is written.
func (r *MatchRepository) Create(ctx context.Context, match *domain.Match, participants []domain.Participant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	inserted, err := qtx.InsertMatch(ctx, db.InsertMatchParams{
		MatchID:   match.MatchID,
		CreatedAt: match.CreatedAt,
		Mode:      match.Mode,
		Type:      match.Type,
		MapID:     int64(match.MapID),
		Duration:  int64(match.Duration),
		Version:   match.Version,
		FetchedAt: match.FetchedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", match.MatchID, err)
	}
	if inserted == 0 {
		return ErrMatchExists
	}

	for i := 0; i < len(participants); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(participants) {
			end = len(participants)
		}

		for _, p := range participants[i:end] {
			row, err := participantRow(match.MatchID, p)
			if err != nil {
				return err
			}
			if err := qtx.InsertParticipant(ctx, row); err != nil {
				return fmt.Errorf("failed to insert participant %s/%s: %w", match.MatchID, p.Puuid, err)
			}
		}
	}

	return tx.Commit()
}

// Link records that the snapshot saw the match. Linking twice is a no-op.
func (r *MatchRepository) Link(ctx context.Context, snapshotID, matchID string) error {
	n, err := r.queries.LinkSnapshotMatch(ctx, db.LinkSnapshotMatchParams{
		SnapshotID: snapshotID,
		MatchID:    matchID,
		LinkedAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to link snapshot %s to match %s: %w", snapshotID, matchID, err)
	}
	if n == 0 {
		r.logger.Debug().Str("snapshot_id", snapshotID).Str("match_id", matchID).Msg("snapshot already linked")
	}
	return nil
}

func (r *MatchRepository) CountLinks(ctx context.Context, matchID string) (int, error) {
	count, err := r.queries.CountLinksByMatch(ctx, matchID)
	return int(count), err
}

// Participations returns the snapshot's linked matches, newest first, with
// the snapshot player's own participant row.
func (r *MatchRepository) Participations(ctx context.Context, snapshotID string) ([]domain.Participation, error) {
	rows, err := r.queries.ListParticipationsBySnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Participation, 0, len(rows))
	for _, row := range rows {
		p, err := participantFromRow(row.Participant)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.Participation{
			Match: domain.Match{
				MatchID:   row.Match.MatchID,
				CreatedAt: row.Match.CreatedAt,
				Mode:      row.Match.Mode,
				Type:      row.Match.Type,
				MapID:     int(row.Match.MapID),
				Duration:  int(row.Match.Duration),
				Version:   row.Match.Version,
				FetchedAt: row.Match.FetchedAt,
			},
			Participant: p,
		})
	}
	return result, nil
}

func participantRow(matchID string, p domain.Participant) (db.Participant, error) {
	items, err := encodeInts(p.Items)
	if err != nil {
		return db.Participant{}, err
	}
	spells, err := encodeInts(p.Spells)
	if err != nil {
		return db.Participant{}, err
	}
	runes, err := encodeInts(p.Runes)
	if err != nil {
		return db.Participant{}, err
	}

	return db.Participant{
		MatchID:           matchID,
		Puuid:             p.Puuid,
		SummonerID:        p.SummonerID,
		ChampionID:        int64(p.ChampionID),
		ChampionName:      p.ChampionName,
		ChampionLevel:     int64(p.ChampionLevel),
		Position:          string(p.Position),
		Win:               p.Win,
		Kills:             int64(p.Kills),
		Deaths:            int64(p.Deaths),
		Assists:           int64(p.Assists),
		CreepScore:        int64(p.CreepScore),
		VisionScore:       int64(p.VisionScore),
		VisionWardsBought: int64(p.VisionWardsBought),
		Gold:              int64(p.Gold),
		DamageToChampions: int64(p.DamageToChampions),
		DamageToBuildings: int64(p.DamageToBuildings),
		Items:             items,
		Spells:            spells,
		Runes:             runes,
	}, nil
}

func participantFromRow(row db.Participant) (domain.Participant, error) {
	items, err := decodeInts(row.Items)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("participant %s/%s items: %w", row.MatchID, row.Puuid, err)
	}
	spells, err := decodeInts(row.Spells)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("participant %s/%s spells: %w", row.MatchID, row.Puuid, err)
	}
	runes, err := decodeInts(row.Runes)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("participant %s/%s runes: %w", row.MatchID, row.Puuid, err)
	}

	return domain.Participant{
		MatchID:           row.MatchID,
		Puuid:             row.Puuid,
		SummonerID:        row.SummonerID,
		ChampionID:        int(row.ChampionID),
		ChampionName:      row.ChampionName,
		ChampionLevel:     int(row.ChampionLevel),
		Position:          domain.Position(row.Position),
		Win:               row.Win,
		Kills:             int(row.Kills),
		Deaths:            int(row.Deaths),
		Assists:           int(row.Assists),
		CreepScore:        int(row.CreepScore),
		VisionScore:       int(row.VisionScore),
		VisionWardsBought: int(row.VisionWardsBought),
		Gold:              int(row.Gold),
		DamageToChampions: int(row.DamageToChampions),
		DamageToBuildings: int(row.DamageToBuildings),
		Items:             items,
		Spells:            spells,
		Runes:             runes,
	}, nil
}

func encodeInts(v []int) (string, error) {
	if v == nil {
		v = []int{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeInts(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	var v []int
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
