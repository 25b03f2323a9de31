package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/domain"
	"summoner-analytics/internal/eventbus"
	"summoner-analytics/internal/repository"

	"github.com/rs/zerolog"
)

type CreateQueryInput struct {
	SearchTerm string
	Type       domain.QueryType
	Region     string
	Depth      int
}

// QueryService runs queries end to end: resolve players, snapshot them,
// fan their match histories out to the match queue and mark the query
// complete once every job has settled.
type QueryService struct {
	queries   *repository.QueryRepository
	snapshots *repository.SnapshotRepository
	resolver  *PlayerResolver
	queue     *MatchQueue
	riot      StatsAPI
	bus       *eventbus.Bus
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewQueryService(
	queries *repository.QueryRepository,
	snapshots *repository.SnapshotRepository,
	resolver *PlayerResolver,
	queue *MatchQueue,
	riot StatsAPI,
	bus *eventbus.Bus,
	logger zerolog.Logger,
) *QueryService {
	ctx, cancel := context.WithCancel(context.Background())
	return &QueryService{
		queries:   queries,
		snapshots: snapshots,
		resolver:  resolver,
		queue:     queue,
		riot:      riot,
		bus:       bus,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Submit validates and stores the query, then processes it in the
// background. The caller's context only bounds the insert.
func (s *QueryService) Submit(ctx context.Context, in CreateQueryInput) (string, error) {
	query, err := validate(in)
	if err != nil {
		return "", err
	}

	if err := s.queries.Create(ctx, query); err != nil {
		s.logger.Error().Err(err).Str("search_term", query.SearchTerm).Msg("failed to create query")
		return "", fmt.Errorf("failed to create query: %w", err)
	}

	s.logger.Info().
		Str("query_id", query.ID).
		Str("search_term", query.SearchTerm).
		Str("type", string(query.Type)).
		Str("region", query.Region).
		Int("depth", query.Depth).
		Msg("query submitted")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(s.ctx, query)
	}()

	return query.ID, nil
}

func validate(in CreateQueryInput) (*domain.Query, error) {
	term := strings.TrimSpace(in.SearchTerm)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidQuery)
	}

	queryType := domain.QueryType(strings.ToUpper(strings.TrimSpace(string(in.Type))))
	if queryType != domain.QueryTypePlayer && queryType != domain.QueryTypeClash {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidQuery, in.Type)
	}

	if in.Depth < constants.MinQueryDepth || in.Depth > constants.MaxQueryDepth {
		return nil, fmt.Errorf("%w: depth must be between %d and %d", domain.ErrInvalidQuery, constants.MinQueryDepth, constants.MaxQueryDepth)
	}

	region, err := domain.NormalizeRegion(in.Region)
	if err != nil {
		return nil, err
	}

	if queryType == domain.QueryTypePlayer && len(splitNames(term)) == 0 {
		return nil, fmt.Errorf("%w: no summoner names in %q", domain.ErrInvalidQuery, term)
	}

	return &domain.Query{
		SearchTerm: term,
		Type:       queryType,
		Region:     region,
		Depth:      in.Depth,
	}, nil
}

// splitNames splits a comma separated list, dropping blanks and
// case-insensitive duplicates while keeping first-seen order.
func splitNames(term string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, part := range strings.Split(term, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

type resolvedPlayer struct {
	meta *PlayerMetadata
	role *domain.Position
}

func (s *QueryService) run(ctx context.Context, query *domain.Query) {
	log := s.logger.With().Str("query_id", query.ID).Logger()

	if _, err := s.queries.SetFetching(ctx, query.ID); err != nil {
		log.Warn().Err(err).Msg("failed to set query fetching")
	}

	regionGroup, err := domain.RegionGroup(query.Region)
	if err != nil {
		s.fail(query.ID, err)
		return
	}

	players, err := s.resolvePlayers(ctx, query)
	if err != nil {
		s.fail(query.ID, err)
		return
	}

	snapshots := make([]domain.PlayerSnapshot, 0, len(players))
	for _, player := range players {
		snapshot, err := s.saveSnapshot(ctx, query.ID, player)
		if err != nil {
			s.fail(query.ID, err)
			return
		}
		snapshots = append(snapshots, *snapshot)
		s.bus.PublishUpdate(query.ID)
	}

	order, groups := s.collectMatches(ctx, query, regionGroup, snapshots)

	handles := make([]Handle, 0, len(order))
	for _, matchID := range order {
		handles = append(handles, s.queue.Enqueue(ctx, WorkItem{
			MatchID:     matchID,
			QueryID:     query.ID,
			RegionGroup: regionGroup,
			Snapshots:   groups[matchID],
		}))
	}

	failed := 0
	for _, h := range handles {
		if err := h.Wait(); err != nil {
			failed++
		}
	}

	termCtx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if _, err := s.queries.MarkComplete(termCtx, query.ID); err != nil {
		log.Error().Err(err).Msg("failed to complete query")
	}
	s.bus.PublishComplete(query.ID)

	log.Info().
		Int("snapshots", len(snapshots)).
		Int("matches", len(order)).
		Int("failed_matches", failed).
		Msg("query complete")
}

func (s *QueryService) resolvePlayers(ctx context.Context, query *domain.Query) ([]resolvedPlayer, error) {
	if query.Type == domain.QueryTypeClash {
		return s.resolveClash(ctx, query)
	}

	var players []resolvedPlayer
	seen := make(map[string]struct{})
	for _, name := range splitNames(query.SearchTerm) {
		meta, err := s.resolver.ResolveByName(ctx, name, query.Region)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[meta.Summoner.Puuid]; ok {
			continue
		}
		seen[meta.Summoner.Puuid] = struct{}{}
		players = append(players, resolvedPlayer{meta: meta})
	}
	return players, nil
}

func (s *QueryService) resolveClash(ctx context.Context, query *domain.Query) ([]resolvedPlayer, error) {
	origin, err := s.resolver.ResolveByName(ctx, query.SearchTerm, query.Region)
	if err != nil {
		return nil, err
	}

	team, err := s.resolver.ClashTeam(ctx, origin.Summoner.ID, query.Region)
	if err != nil {
		return nil, err
	}

	var players []resolvedPlayer
	seen := make(map[string]struct{})
	for _, member := range team.Players {
		if _, ok := seen[member.SummonerID]; ok {
			continue
		}
		seen[member.SummonerID] = struct{}{}

		meta := origin
		if member.SummonerID != origin.Summoner.ID {
			meta, err = s.resolver.ResolveByID(ctx, member.SummonerID, query.Region)
			if err != nil {
				return nil, err
			}
		}

		role := domain.ClashPosition(member.Position)
		players = append(players, resolvedPlayer{meta: meta, role: &role})
	}

	if len(players) == 0 {
		return nil, domain.ErrTeamNotFound
	}
	return players, nil
}

func (s *QueryService) saveSnapshot(ctx context.Context, queryID string, player resolvedPlayer) (*domain.PlayerSnapshot, error) {
	summoner := player.meta.Summoner
	snapshot := &domain.PlayerSnapshot{
		QueryID:       queryID,
		Puuid:         summoner.Puuid,
		SummonerID:    summoner.ID,
		DisplayName:   summoner.Name,
		Level:         summoner.SummonerLevel,
		ProfileIconID: summoner.ProfileIconID,
		AssignedRole:  player.role,
	}
	if league := player.meta.League; league != nil {
		snapshot.Tier = league.Tier
		snapshot.Rank = league.Rank
		snapshot.LeaguePoints = league.LeaguePoints
		snapshot.Wins = league.Wins
		snapshot.Losses = league.Losses
	}

	masteries := make([]domain.Mastery, 0, len(player.meta.Masteries))
	for _, m := range player.meta.Masteries {
		masteries = append(masteries, domain.Mastery{
			ChampionID:     m.ChampionID,
			ChampionLevel:  m.ChampionLevel,
			ChampionPoints: m.ChampionPoints,
		})
	}

	if err := s.snapshots.Create(ctx, snapshot, masteries); err != nil {
		return nil, fmt.Errorf("failed to save snapshot for %s: %w", summoner.Name, err)
	}
	return snapshot, nil
}

// collectMatches lists every snapshot's recent matches and groups the
// snapshots by match id, in first-seen order.
func (s *QueryService) collectMatches(ctx context.Context, query *domain.Query, regionGroup string, snapshots []domain.PlayerSnapshot) ([]string, map[string][]domain.PlayerSnapshot) {
	var order []string
	groups := make(map[string][]domain.PlayerSnapshot)

	for _, snapshot := range snapshots {
		ids, err := s.riot.MatchIDs(ctx, regionGroup, snapshot.Puuid, query.Depth)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("query_id", query.ID).
				Str("puuid", snapshot.Puuid).
				Msg("failed to list matches, skipping player")
			continue
		}

		for _, id := range ids {
			if _, ok := groups[id]; !ok {
				order = append(order, id)
			}
			groups[id] = append(groups[id], snapshot)
		}
	}
	return order, groups
}

func (s *QueryService) fail(queryID string, cause error) {
	log := s.logger.With().Str("query_id", queryID).Logger()
	if errors.Is(cause, domain.ErrNotFound) {
		log.Info().Err(cause).Msg("query failed")
	} else {
		log.Error().Err(cause).Msg("query failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if _, err := s.queries.MarkFailed(ctx, queryID, cause.Error()); err != nil {
		log.Error().Err(err).Msg("failed to record query failure")
	}
	s.bus.PublishComplete(queryID)
}

// Wait blocks until every running query has finished.
func (s *QueryService) Wait() {
	s.wg.Wait()
}

// Stop cancels running queries and waits for them to record their outcome.
func (s *QueryService) Stop(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
