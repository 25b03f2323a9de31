package fx

import (
	"context"
	"database/sql"

	"summoner-analytics/internal/analytics"
	"summoner-analytics/internal/api"
	"summoner-analytics/internal/config"
	"summoner-analytics/internal/database"
	"summoner-analytics/internal/db"
	"summoner-analytics/internal/eventbus"
	"summoner-analytics/internal/logger"
	"summoner-analytics/internal/refdata"
	"summoner-analytics/internal/repository"
	"summoner-analytics/internal/server"
	"summoner-analytics/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideStatsAPI(client *api.RiotClient) service.StatsAPI {
	return client
}

func ProvideLookup(ref *refdata.Service) analytics.Lookup {
	return ref
}

// Hooks are appended in dependency order, so on stop the query runner
// drains first, then the match pool, then the refresh schedule, and the
// database closes last.

func closeDatabase(lc fx.Lifecycle, sqlDB *sql.DB, logger zerolog.Logger) {
	lc.Append(fx.StopHook(func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing database connection")
		}
	}))
}

func runReferenceData(lc fx.Lifecycle, ref *refdata.Service) {
	lc.Append(fx.Hook{
		OnStart: ref.Start,
		OnStop:  ref.Stop,
	})
}

func drainMatchQueue(lc fx.Lifecycle, queue *service.MatchQueue) {
	lc.Append(fx.Hook{OnStop: queue.Stop})
}

func drainQueries(lc fx.Lifecycle, queries *service.QueryService, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("waiting for running queries")
			return queries.Stop(ctx)
		},
	})
}

// Core is everything below the transports.
var Core = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewQueryRepository),
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(repository.NewMatchRepository),
	// api clients
	fx.Provide(api.NewRiotClient),
	fx.Provide(api.NewDataDragonClient),
	fx.Provide(ProvideStatsAPI),
	// reference data
	fx.Provide(refdata.NewService),
	fx.Provide(ProvideLookup),
	// svc
	fx.Provide(eventbus.New),
	fx.Provide(service.NewPlayerResolver),
	fx.Provide(service.NewMatchQueue),
	fx.Provide(service.NewQueryService),
	fx.Provide(service.NewSnapshotService),
	fx.Provide(service.NewStreamService),
	// lifecycle
	fx.Invoke(closeDatabase),
	fx.Invoke(runReferenceData),
	fx.Invoke(drainMatchQueue),
	fx.Invoke(drainQueries),
)

var Module = fx.Options(
	Core,
	// server
	fx.Provide(server.NewAnalyticsServer),
	fx.Provide(server.NewWebSocketHandler),
	fx.Provide(server.NewRouter),
)
