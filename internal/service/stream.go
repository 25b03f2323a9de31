package service

import (
	"context"
	"fmt"

	"summoner-analytics/internal/analytics"
	"summoner-analytics/internal/domain"
	"summoner-analytics/internal/eventbus"

	"github.com/rs/zerolog"
)

// QueryFailedError ends a stream whose query reached the failed state.
type QueryFailedError struct {
	QueryID string
	Reason  string
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query %s failed: %s", e.QueryID, e.Reason)
}

// SendFunc delivers one state to a subscriber.
type SendFunc func(*analytics.AnalyzedQuery) error

type StreamService struct {
	snapshots *SnapshotService
	bus       *eventbus.Bus
	logger    zerolog.Logger
}

func NewStreamService(snapshots *SnapshotService, bus *eventbus.Bus, logger zerolog.Logger) *StreamService {
	return &StreamService{snapshots: snapshots, bus: bus, logger: logger}
}

// Stream sends the current state of the query, then a fresh state after
// every update until the query is complete or failed. It returns nil after
// the final state of a completed query, a *QueryFailedError for a failed
// one and ctx.Err() when the subscriber goes away first.
func (s *StreamService) Stream(ctx context.Context, queryID string, send SendFunc) error {
	// subscribe before the first read so no event between read and
	// subscribe is lost
	updates := s.bus.Subscribe(eventbus.UpdateTopic(queryID))
	defer updates.Close()
	completes := s.bus.Subscribe(eventbus.CompleteTopic(queryID))
	defer completes.Close()

	log := s.logger.With().Str("query_id", queryID).Logger()

	state, err := s.snapshots.Get(ctx, queryID)
	if err != nil {
		return err
	}
	if err := send(state); err != nil {
		return err
	}
	if state.Status.Terminal() {
		return finalErr(state)
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("subscriber left")
			return ctx.Err()
		case <-completes.C():
		case <-updates.C():
		}

		state, err = s.snapshots.Get(ctx, queryID)
		if err != nil {
			return err
		}
		if err := send(state); err != nil {
			return err
		}
		if state.Status.Terminal() {
			log.Debug().Str("status", string(state.Status)).Msg("stream finished")
			return finalErr(state)
		}
	}
}

func finalErr(state *analytics.AnalyzedQuery) error {
	if state.Status == domain.QueryStatusFailed {
		return &QueryFailedError{QueryID: state.ID, Reason: state.Error}
	}
	return nil
}
