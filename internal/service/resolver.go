package service

import (
	"context"
	"errors"
	"fmt"

	"summoner-analytics/internal/api"
	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PlayerMetadata is everything a snapshot is built from.
type PlayerMetadata struct {
	Summoner  api.SummonerDTO
	League    *api.LeagueEntryDTO // nil when unranked
	Masteries []api.ChampionMasteryDTO
}

type PlayerResolver struct {
	riot   StatsAPI
	logger zerolog.Logger
}

func NewPlayerResolver(riot StatsAPI, logger zerolog.Logger) *PlayerResolver {
	return &PlayerResolver{riot: riot, logger: logger}
}

func (r *PlayerResolver) ResolveByName(ctx context.Context, name, platform string) (*PlayerMetadata, error) {
	summoner, err := r.riot.SummonerByName(ctx, platform, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(fmt.Sprintf("summoner %s not found", name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summoner %s: %w", name, err)
	}
	return r.Complete(ctx, summoner, platform), nil
}

func (r *PlayerResolver) ResolveByID(ctx context.Context, summonerID, platform string) (*PlayerMetadata, error) {
	summoner, err := r.riot.SummonerByID(ctx, platform, summonerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(fmt.Sprintf("summoner %s not found", summonerID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summoner %s: %w", summonerID, err)
	}
	return r.Complete(ctx, summoner, platform), nil
}

// Complete fetches league and mastery data for an already known summoner.
// Either fetch failing is logged and leaves that part empty; only the
// summoner lookup itself decides whether a player resolves.
func (r *PlayerResolver) Complete(ctx context.Context, summoner *api.SummonerDTO, platform string) *PlayerMetadata {
	apiCtx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	log := r.logger.With().Str("puuid", summoner.Puuid).Logger()

	var g errgroup.Group
	var entries []api.LeagueEntryDTO
	var masteries []api.ChampionMasteryDTO

	g.Go(func() error {
		var err error
		entries, err = r.riot.LeagueEntries(apiCtx, platform, summoner.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to fetch league entries, treating as unranked")
		}
		if err != nil {
			entries = nil
		}
		return nil
	})

	g.Go(func() error {
		var err error
		masteries, err = r.riot.ChampionMasteries(apiCtx, platform, summoner.Puuid)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to fetch champion masteries")
		}
		if err != nil {
			masteries = nil
		}
		return nil
	})

	g.Wait()

	log.Debug().
		Int("league_entries", len(entries)).
		Int("masteries", len(masteries)).
		Msg("player resolved")

	return &PlayerMetadata{
		Summoner:  *summoner,
		League:    pickLeague(entries),
		Masteries: masteries,
	}
}

// pickLeague prefers solo queue over flex and ignores every other queue.
func pickLeague(entries []api.LeagueEntryDTO) *api.LeagueEntryDTO {
	var flex *api.LeagueEntryDTO
	for i := range entries {
		switch entries[i].QueueType {
		case constants.RankedSoloQueue:
			return &entries[i]
		case constants.RankedFlexQueue:
			flex = &entries[i]
		}
	}
	return flex
}

// ClashTeam returns the Clash team the summoner is currently registered with.
func (r *PlayerResolver) ClashTeam(ctx context.Context, summonerID, platform string) (*api.ClashTeamDTO, error) {
	registrations, err := r.riot.ClashPlayers(ctx, platform, summonerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to list clash registrations: %w", err)
	}
	if len(registrations) == 0 {
		return nil, domain.ErrTeamNotFound
	}

	team, err := r.riot.ClashTeam(ctx, platform, registrations[0].TeamID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clash team %s: %w", registrations[0].TeamID, err)
	}
	return team, nil
}
