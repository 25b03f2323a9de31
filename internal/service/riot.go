package service

import (
	"context"

	"summoner-analytics/internal/api"
)

// StatsAPI is the subset of the Riot API the query pipeline consumes.
type StatsAPI interface {
	SummonerByName(ctx context.Context, platform, name string) (*api.SummonerDTO, error)
	SummonerByID(ctx context.Context, platform, summonerID string) (*api.SummonerDTO, error)
	LeagueEntries(ctx context.Context, platform, summonerID string) ([]api.LeagueEntryDTO, error)
	ChampionMasteries(ctx context.Context, platform, puuid string) ([]api.ChampionMasteryDTO, error)
	MatchIDs(ctx context.Context, regionGroup, puuid string, count int) ([]string, error)
	Match(ctx context.Context, regionGroup, matchID string) (*api.MatchDTO, error)
	ClashPlayers(ctx context.Context, platform, summonerID string) ([]api.ClashPlayerDTO, error)
	ClashTeam(ctx context.Context, platform, teamID string) (*api.ClashTeamDTO, error)
}

var _ StatsAPI = (*api.RiotClient)(nil)
