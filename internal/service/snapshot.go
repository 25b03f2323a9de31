package service

import (
	"context"
	"fmt"

	"summoner-analytics/internal/analytics"
	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/repository"

	"github.com/rs/zerolog"
)

// SnapshotService builds the point-in-time analytics view of a query.
type SnapshotService struct {
	queries   *repository.QueryRepository
	snapshots *repository.SnapshotRepository
	matches   *repository.MatchRepository
	lookup    analytics.Lookup
	logger    zerolog.Logger
}

func NewSnapshotService(
	queries *repository.QueryRepository,
	snapshots *repository.SnapshotRepository,
	matches *repository.MatchRepository,
	lookup analytics.Lookup,
	logger zerolog.Logger,
) *SnapshotService {
	return &SnapshotService{
		queries:   queries,
		snapshots: snapshots,
		matches:   matches,
		lookup:    lookup,
		logger:    logger,
	}
}

// Get returns domain.ErrNotFound for an unknown query id.
func (s *SnapshotService) Get(ctx context.Context, queryID string) (*analytics.AnalyzedQuery, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	query, err := s.queries.Get(ctx, queryID)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.snapshots.ListByQuery(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	inputs := make([]analytics.SnapshotInput, 0, len(snapshots))
	for _, snapshot := range snapshots {
		masteries, err := s.snapshots.Masteries(ctx, snapshot.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load masteries for %s: %w", snapshot.ID, err)
		}
		participations, err := s.matches.Participations(ctx, snapshot.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load matches for %s: %w", snapshot.ID, err)
		}
		inputs = append(inputs, analytics.SnapshotInput{
			Snapshot:       snapshot,
			Masteries:      masteries,
			Participations: participations,
		})
	}

	result := analytics.AggregateQuery(*query, inputs, s.lookup)
	return &result, nil
}
