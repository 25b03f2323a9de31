package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"summoner-analytics/internal/analytics"
	"summoner-analytics/internal/api"
	"summoner-analytics/internal/config"
	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/domain"
	"summoner-analytics/internal/eventbus"
	"summoner-analytics/internal/repository"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"
)

// WorkItem asks for one match to be stored and linked to every snapshot
// that saw it.
type WorkItem struct {
	MatchID     string
	QueryID     string
	RegionGroup string
	Snapshots   []domain.PlayerSnapshot
}

// Handle settles once the work item has been processed.
type Handle interface {
	Wait() error
}

type settled struct{ err error }

func (s settled) Wait() error { return s.err }

type MatchQueue struct {
	riot    StatsAPI
	matches *repository.MatchRepository
	lookup  analytics.Lookup
	bus     *eventbus.Bus
	pool    pond.Pool
	logger  zerolog.Logger
}

func NewMatchQueue(cfg *config.Config, riot StatsAPI, matches *repository.MatchRepository, lookup analytics.Lookup, bus *eventbus.Bus, logger zerolog.Logger) *MatchQueue {
	workers := cfg.MatchWorkers
	if workers < 1 {
		workers = 1
	}
	return &MatchQueue{
		riot:    riot,
		matches: matches,
		lookup:  lookup,
		bus:     bus,
		pool:    pond.NewPool(workers, pond.WithQueueSize(constants.MatchQueueSize)),
		logger:  logger,
	}
}

// Enqueue schedules the item. A match that is already stored is linked
// right away and the returned handle is settled.
func (q *MatchQueue) Enqueue(ctx context.Context, item WorkItem) Handle {
	log := q.logger.With().Str("query_id", item.QueryID).Str("match_id", item.MatchID).Logger()

	exists, err := q.matches.Exists(ctx, item.MatchID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check stored match, scheduling fetch")
	}
	if exists {
		if err := q.linkAll(ctx, item); err != nil {
			log.Error().Err(err).Msg("failed to link stored match")
			return settled{err: err}
		}
		log.Debug().Msg("match already stored, linked")
		q.bus.PublishUpdate(item.QueryID)
		return settled{}
	}

	return q.pool.SubmitErr(func() error {
		jobCtx, cancel := context.WithTimeout(ctx, constants.MatchJobTimeout)
		defer cancel()

		if err := q.process(jobCtx, item); err != nil {
			log.Error().Err(err).Msg("match job failed")
			return err
		}
		return nil
	})
}

func (q *MatchQueue) process(ctx context.Context, item WorkItem) error {
	dto, err := q.riot.Match(ctx, item.RegionGroup, item.MatchID)
	if err != nil {
		return fmt.Errorf("failed to fetch match %s: %w", item.MatchID, err)
	}

	match, participants := toMatch(dto, q.lookup)
	if match.MatchID == "" {
		match.MatchID = item.MatchID
	}

	err = q.matches.Create(ctx, match, participants)
	switch {
	case errors.Is(err, repository.ErrMatchExists):
		q.logger.Debug().Str("match_id", item.MatchID).Msg("match stored concurrently")
	case err != nil:
		return fmt.Errorf("failed to store match %s: %w", item.MatchID, err)
	}

	if err := q.linkAll(ctx, item); err != nil {
		return err
	}

	q.bus.PublishUpdate(item.QueryID)
	q.logger.Debug().Str("query_id", item.QueryID).Str("match_id", item.MatchID).Msg("match stored")
	return nil
}

func (q *MatchQueue) linkAll(ctx context.Context, item WorkItem) error {
	for _, snapshot := range item.Snapshots {
		if err := q.matches.Link(ctx, snapshot.ID, item.MatchID); err != nil {
			return err
		}
	}
	return nil
}

// Stop waits for queued jobs to drain.
func (q *MatchQueue) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.pool.StopAndWait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toMatch(dto *api.MatchDTO, lookup analytics.Lookup) (*domain.Match, []domain.Participant) {
	match := &domain.Match{
		MatchID:   dto.Metadata.MatchID,
		CreatedAt: time.UnixMilli(dto.Info.GameCreation),
		Mode:      dto.Info.GameMode,
		Type:      dto.Info.GameType,
		MapID:     dto.Info.MapID,
		Duration:  dto.Info.DurationSeconds(),
		Version:   dto.Info.GameVersion,
		FetchedAt: time.Now(),
	}

	participants := make([]domain.Participant, 0, len(dto.Info.Participants))
	for _, p := range dto.Info.Participants {
		name := p.ChampionName
		if name == "" && lookup != nil {
			name = lookup.ChampionName(p.ChampionID)
		}
		participants = append(participants, domain.Participant{
			MatchID:           match.MatchID,
			Puuid:             p.Puuid,
			SummonerID:        p.SummonerID,
			ChampionID:        p.ChampionID,
			ChampionName:      name,
			ChampionLevel:     p.ChampLevel,
			Position:          domain.InferPosition(p.Lane, p.Role),
			Win:               p.Win,
			Kills:             p.Kills,
			Deaths:            p.Deaths,
			Assists:           p.Assists,
			CreepScore:        p.TotalMinionsKilled,
			VisionScore:       p.VisionScore,
			VisionWardsBought: p.VisionWardsBoughtInGame,
			Gold:              p.GoldEarned,
			DamageToChampions: p.TotalDamageDealtToChampions,
			DamageToBuildings: p.DamageDealtToBuildings,
			Items:             p.Items(),
			Spells:            p.Spells(),
			Runes:             p.Runes(),
		})
	}
	return match, participants
}
