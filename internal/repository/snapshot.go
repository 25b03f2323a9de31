package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/db"
	"summoner-analytics/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type SnapshotRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Create stores the snapshot together with its masteries in one transaction.
// The snapshot id and creation time are assigned here.
func (r *SnapshotRepository) Create(ctx context.Context, snapshot *domain.PlayerSnapshot, masteries []domain.Mastery) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}
	snapshot.ID = id
	snapshot.CreatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	var role sql.NullString
	if snapshot.AssignedRole != nil {
		role = sql.NullString{String: string(*snapshot.AssignedRole), Valid: true}
	}

	err = qtx.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:            snapshot.ID,
		QueryID:       snapshot.QueryID,
		Puuid:         snapshot.Puuid,
		SummonerID:    snapshot.SummonerID,
		DisplayName:   snapshot.DisplayName,
		Level:         int64(snapshot.Level),
		ProfileIconID: int64(snapshot.ProfileIconID),
		Tier:          snapshot.Tier,
		Rank:          snapshot.Rank,
		LeaguePoints:  int64(snapshot.LeaguePoints),
		Wins:          int64(snapshot.Wins),
		Losses:        int64(snapshot.Losses),
		AssignedRole:  role,
		CreatedAt:     snapshot.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", snapshot.Puuid, err)
	}

	for i := 0; i < len(masteries); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(masteries) {
			end = len(masteries)
		}

		for _, m := range masteries[i:end] {
			err := qtx.CreateMastery(ctx, db.CreateMasteryParams{
				SnapshotID:     snapshot.ID,
				ChampionID:     int64(m.ChampionID),
				ChampionLevel:  int64(m.ChampionLevel),
				ChampionPoints: int64(m.ChampionPoints),
			})
			if err != nil {
				return fmt.Errorf("failed to create mastery %d for snapshot %s: %w", m.ChampionID, snapshot.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (r *SnapshotRepository) ListByQuery(ctx context.Context, queryID string) ([]domain.PlayerSnapshot, error) {
	rows, err := r.queries.ListSnapshotsByQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.PlayerSnapshot, len(rows))
	for i, row := range rows {
		result[i] = domain.PlayerSnapshot{
			ID:            row.ID,
			QueryID:       row.QueryID,
			Puuid:         row.Puuid,
			SummonerID:    row.SummonerID,
			DisplayName:   row.DisplayName,
			Level:         int(row.Level),
			ProfileIconID: int(row.ProfileIconID),
			Tier:          row.Tier,
			Rank:          row.Rank,
			LeaguePoints:  int(row.LeaguePoints),
			Wins:          int(row.Wins),
			Losses:        int(row.Losses),
			CreatedAt:     row.CreatedAt,
		}
		if row.AssignedRole.Valid {
			role := domain.Position(row.AssignedRole.String)
			result[i].AssignedRole = &role
		}
	}
	return result, nil
}

func (r *SnapshotRepository) Masteries(ctx context.Context, snapshotID string) ([]domain.Mastery, error) {
	rows, err := r.queries.ListMasteriesBySnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Mastery, len(rows))
	for i, row := range rows {
		result[i] = domain.Mastery{
			SnapshotID:     row.SnapshotID,
			ChampionID:     int(row.ChampionID),
			ChampionLevel:  int(row.ChampionLevel),
			ChampionPoints: int(row.ChampionPoints),
		}
	}
	return result, nil
}
