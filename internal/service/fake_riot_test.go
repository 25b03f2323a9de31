package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"summoner-analytics/internal/api"
	"summoner-analytics/internal/config"
	"summoner-analytics/internal/database"
	"summoner-analytics/internal/db"
	"summoner-analytics/internal/domain"
	"summoner-analytics/internal/eventbus"
	"summoner-analytics/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

type fakeRiot struct {
	mu sync.Mutex

	summoners    map[string]*api.SummonerDTO // lower-cased name
	byID         map[string]*api.SummonerDTO
	leagues      map[string][]api.LeagueEntryDTO
	leagueErr    map[string]error
	masteries    map[string][]api.ChampionMasteryDTO
	masteryErr   map[string]error
	matchIDs     map[string][]string
	matchIDErr   map[string]error
	matches      map[string]*api.MatchDTO
	matchErr     map[string]error
	clashPlayers map[string][]api.ClashPlayerDTO
	teams        map[string]*api.ClashTeamDTO

	// gate, when set, blocks every Match call until closed.
	gate  chan struct{}
	calls map[string]int
}

func newFakeRiot() *fakeRiot {
	return &fakeRiot{
		summoners:    map[string]*api.SummonerDTO{},
		byID:         map[string]*api.SummonerDTO{},
		leagues:      map[string][]api.LeagueEntryDTO{},
		leagueErr:    map[string]error{},
		masteries:    map[string][]api.ChampionMasteryDTO{},
		masteryErr:   map[string]error{},
		matchIDs:     map[string][]string{},
		matchIDErr:   map[string]error{},
		matches:      map[string]*api.MatchDTO{},
		matchErr:     map[string]error{},
		clashPlayers: map[string][]api.ClashPlayerDTO{},
		teams:        map[string]*api.ClashTeamDTO{},
		calls:        map[string]int{},
	}
}

func (f *fakeRiot) addPlayer(name, puuid, summonerID string, matchIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &api.SummonerDTO{ID: summonerID, Puuid: puuid, Name: name, SummonerLevel: 100, ProfileIconID: 1}
	f.summoners[strings.ToLower(name)] = s
	f.byID[summonerID] = s
	f.matchIDs[puuid] = matchIDs
	f.leagues[summonerID] = []api.LeagueEntryDTO{
		{QueueType: "RANKED_FLEX_SR", Tier: "SILVER", Rank: "I", LeaguePoints: 10},
		{QueueType: "RANKED_SOLO_5x5", Tier: "GOLD", Rank: "II", LeaguePoints: 55, Wins: 20, Losses: 18},
	}
	f.masteries[puuid] = []api.ChampionMasteryDTO{{ChampionID: 1, ChampionLevel: 7, ChampionPoints: 90000}}
}

// addMatch registers a match played by the given puuids. Summoner ids are
// derived as "s-<puuid>".
func (f *fakeRiot) addMatch(id string, created time.Time, puuids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dto := &api.MatchDTO{
		Metadata: api.MatchMetadataDTO{MatchID: id, Participants: puuids},
		Info: api.MatchInfoDTO{
			GameCreation:     created.UnixMilli(),
			GameDuration:     1800,
			GameEndTimestamp: created.Add(30 * time.Minute).UnixMilli(),
			GameMode:         "CLASSIC",
			GameType:         "MATCHED_GAME",
			GameVersion:      "14.1.1",
			MapID:            11,
		},
	}
	for i, puuid := range puuids {
		dto.Info.Participants = append(dto.Info.Participants, api.ParticipantDTO{
			Puuid:        puuid,
			SummonerID:   "s-" + puuid,
			ChampionID:   i + 1,
			ChampionName: "",
			ChampLevel:   16,
			Lane:         "MIDDLE",
			Role:         "SOLO",
			Win:          i%2 == 0,
			Kills:        5,
			Deaths:       2,
			Assists:      7,
			Summoner1ID:  4,
			Summoner2ID:  14,
			Perks:        api.PerksDTO{Styles: []api.PerkStyleDTO{{Style: 8100}, {Style: 8300}}},
		})
	}
	f.matches[id] = dto
}

func (f *fakeRiot) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeRiot) record(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
}

func (f *fakeRiot) SummonerByName(ctx context.Context, platform, name string) (*api.SummonerDTO, error) {
	f.record("SummonerByName")
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summoners[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeRiot) SummonerByID(ctx context.Context, platform, summonerID string) (*api.SummonerDTO, error) {
	f.record("SummonerByID")
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[summonerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeRiot) LeagueEntries(ctx context.Context, platform, summonerID string) ([]api.LeagueEntryDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.leagueErr[summonerID]; err != nil {
		return nil, err
	}
	return f.leagues[summonerID], nil
}

func (f *fakeRiot) ChampionMasteries(ctx context.Context, platform, puuid string) ([]api.ChampionMasteryDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.masteryErr[puuid]; err != nil {
		return nil, err
	}
	return f.masteries[puuid], nil
}

func (f *fakeRiot) MatchIDs(ctx context.Context, regionGroup, puuid string, count int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.matchIDErr[puuid]; err != nil {
		return nil, err
	}
	ids := f.matchIDs[puuid]
	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}

func (f *fakeRiot) Match(ctx context.Context, regionGroup, matchID string) (*api.MatchDTO, error) {
	f.record("Match:" + matchID)
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.matchErr[matchID]; err != nil {
		return nil, err
	}
	m, ok := f.matches[matchID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeRiot) ClashPlayers(ctx context.Context, platform, summonerID string) ([]api.ClashPlayerDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clashPlayers[summonerID], nil
}

func (f *fakeRiot) ClashTeam(ctx context.Context, platform, teamID string) (*api.ClashTeamDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[teamID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return team, nil
}

type fakeLookup struct{}

func (fakeLookup) ChampionName(id int) string { return map[int]string{1: "Annie", 2: "Olaf", 3: "Galio"}[id] }
func (fakeLookup) SpellImage(id int) string   { return "" }
func (fakeLookup) RuneIcon(id int) string     { return "" }

type harness struct {
	riot      *fakeRiot
	bus       *eventbus.Bus
	queries   *repository.QueryRepository
	snapshots *repository.SnapshotRepository
	matches   *repository.MatchRepository
	queue     *MatchQueue
	svc       *QueryService
	view      *SnapshotService
	stream    *StreamService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		MatchWorkers: 4,
	}
	sqlDB, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)

	q := db.New(sqlDB)
	logger := zerolog.Nop()

	h := &harness{
		riot:      newFakeRiot(),
		bus:       eventbus.New(logger),
		queries:   repository.NewQueryRepository(sqlDB, q, logger),
		snapshots: repository.NewSnapshotRepository(sqlDB, q, logger),
		matches:   repository.NewMatchRepository(sqlDB, q, logger),
	}
	h.queue = NewMatchQueue(cfg, h.riot, h.matches, fakeLookup{}, h.bus, logger)
	resolver := NewPlayerResolver(h.riot, logger)
	h.svc = NewQueryService(h.queries, h.snapshots, resolver, h.queue, h.riot, h.bus, logger)
	h.view = NewSnapshotService(h.queries, h.snapshots, h.matches, fakeLookup{}, logger)
	h.stream = NewStreamService(h.view, h.bus, logger)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.svc.Stop(ctx)
		h.queue.Stop(ctx)
		sqlDB.Close()
	})
	return h
}

// submit runs a query to completion and returns its id.
func (h *harness) submit(t *testing.T, in CreateQueryInput) string {
	t.Helper()
	id, err := h.svc.Submit(context.Background(), in)
	require.NoError(t, err)
	h.svc.Wait()
	return id
}

func clashTeam(id string, players ...api.ClashPlayerDTO) *api.ClashTeamDTO {
	for i := range players {
		players[i].TeamID = id
	}
	return &api.ClashTeamDTO{ID: id, Name: "Team " + id, Players: players}
}
