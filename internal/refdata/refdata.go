// Package refdata keeps the static game data (champion names, summoner spell
// images and rune icons) in memory and refreshes it on a cron schedule.
package refdata

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"summoner-analytics/internal/api"
	"summoner-analytics/internal/config"
	"summoner-analytics/internal/constants"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Source is the upstream the catalog is loaded from.
type Source interface {
	LatestVersion(ctx context.Context) (string, error)
	Champions(ctx context.Context, version string) (*api.ChampionListDTO, error)
	SummonerSpells(ctx context.Context, version string) (*api.SummonerSpellListDTO, error)
	RuneStyles(ctx context.Context, version string) ([]api.RuneStyleDTO, error)
}

type Service struct {
	source  Source
	spec    string
	logger  zerolog.Logger
	version atomic.Value

	champions *xsync.Map[int, string]
	spells    *xsync.Map[int, string]
	runes     *xsync.Map[int, string]

	cron *cron.Cron
}

func NewService(cfg *config.Config, source *api.DataDragonClient, logger zerolog.Logger) *Service {
	return New(source, cfg.ReferenceRefreshSpec, logger)
}

func New(source Source, spec string, logger zerolog.Logger) *Service {
	s := &Service{
		source:    source,
		spec:      spec,
		logger:    logger,
		champions: xsync.NewMap[int, string](),
		spells:    xsync.NewMap[int, string](),
		runes:     xsync.NewMap[int, string](),
	}
	s.version.Store("")
	return s
}

func (s *Service) ChampionName(id int) string {
	name, _ := s.champions.Load(id)
	return name
}

func (s *Service) SpellImage(id int) string {
	image, _ := s.spells.Load(id)
	return image
}

func (s *Service) RuneIcon(id int) string {
	icon, _ := s.runes.Load(id)
	return icon
}

func (s *Service) Version() string {
	return s.version.Load().(string)
}

// Refresh downloads the latest catalog. Entries from older patches are kept
// so ids that disappeared upstream still resolve.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ReferenceTimeout)
	defer cancel()

	version, err := s.source.LatestVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest version: %w", err)
	}
	if version == s.Version() {
		s.logger.Debug().Str("version", version).Msg("reference data already current")
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	var (
		champions *api.ChampionListDTO
		spells    *api.SummonerSpellListDTO
		styles    []api.RuneStyleDTO
	)

	g.Go(func() error {
		var err error
		champions, err = s.source.Champions(gCtx, version)
		return err
	})

	g.Go(func() error {
		var err error
		spells, err = s.source.SummonerSpells(gCtx, version)
		return err
	})

	g.Go(func() error {
		var err error
		styles, err = s.source.RuneStyles(gCtx, version)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to download reference data for %s: %w", version, err)
	}

	for _, c := range champions.Data {
		id, err := strconv.Atoi(c.Key)
		if err != nil {
			s.logger.Warn().Str("champion", c.ID).Str("key", c.Key).Msg("skipping champion with non-numeric key")
			continue
		}
		s.champions.Store(id, c.Name)
	}

	for _, sp := range spells.Data {
		id, err := strconv.Atoi(sp.Key)
		if err != nil {
			continue
		}
		s.spells.Store(id, sp.Image.Full)
	}

	for _, style := range styles {
		s.runes.Store(style.ID, style.Icon)
		for _, slot := range style.Slots {
			for _, r := range slot.Runes {
				s.runes.Store(r.ID, r.Icon)
			}
		}
	}

	s.version.Store(version)
	s.logger.Info().
		Str("version", version).
		Int("champions", s.champions.Size()).
		Int("spells", s.spells.Size()).
		Int("runes", s.runes.Size()).
		Msg("reference data refreshed")
	return nil
}

// Start loads the catalog once and schedules periodic refreshes. A failed
// initial load is logged; the scheduled refresh retries it.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("initial reference data load failed")
	}

	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(cron.Recover(cl)), cron.WithLogger(cl))
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("scheduled reference data refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.spec).Msg("reference data refresh scheduled")
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
