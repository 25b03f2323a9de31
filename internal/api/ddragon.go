package api

import (
	"context"
	"fmt"
	"strings"

	"summoner-analytics/internal/config"

	"github.com/rs/zerolog"
)

// DataDragonClient reads the static game data published on Riot's CDN.
type DataDragonClient struct {
	*transport
	baseURL string
}

func NewDataDragonClient(cfg *config.Config, logger zerolog.Logger) *DataDragonClient {
	return &DataDragonClient{
		transport: &transport{
			client: newFastClient(),
			policy: cfg.Retry,
			logger: logger.With().Str("client", "ddragon").Logger(),
		},
		baseURL: strings.TrimRight(cfg.DDragonURL, "/"),
	}
}

// LatestVersion returns the newest published patch, e.g. "14.1.1".
func (c *DataDragonClient) LatestVersion(ctx context.Context) (string, error) {
	res, err := doRequest[[]string](ctx, c.transport, c.baseURL+"/api/versions.json")
	if err != nil {
		return "", err
	}
	if len(*res) == 0 {
		return "", fmt.Errorf("no data dragon versions published")
	}
	return (*res)[0], nil
}

func (c *DataDragonClient) Champions(ctx context.Context, version string) (*ChampionListDTO, error) {
	u := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", c.baseURL, version)
	return doRequest[ChampionListDTO](ctx, c.transport, u)
}

func (c *DataDragonClient) SummonerSpells(ctx context.Context, version string) (*SummonerSpellListDTO, error) {
	u := fmt.Sprintf("%s/cdn/%s/data/en_US/summoner.json", c.baseURL, version)
	return doRequest[SummonerSpellListDTO](ctx, c.transport, u)
}

func (c *DataDragonClient) RuneStyles(ctx context.Context, version string) ([]RuneStyleDTO, error) {
	u := fmt.Sprintf("%s/cdn/%s/data/en_US/runesReforged.json", c.baseURL, version)
	res, err := doRequest[[]RuneStyleDTO](ctx, c.transport, u)
	if err != nil {
		return nil, err
	}
	return *res, nil
}

type ChampionListDTO struct {
	Version string                 `json:"version"`
	Data    map[string]ChampionDTO `json:"data"`
}

type ChampionDTO struct {
	ID   string `json:"id"`
	Key  string `json:"key"` // numeric champion id
	Name string `json:"name"`
}

type SummonerSpellListDTO struct {
	Version string                      `json:"version"`
	Data    map[string]SummonerSpellDTO `json:"data"`
}

type SummonerSpellDTO struct {
	ID    string   `json:"id"`
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Image ImageDTO `json:"image"`
}

type ImageDTO struct {
	Full   string `json:"full"`
	Sprite string `json:"sprite"`
	Group  string `json:"group"`
}

type RuneStyleDTO struct {
	ID    int           `json:"id"`
	Key   string        `json:"key"`
	Icon  string        `json:"icon"`
	Name  string        `json:"name"`
	Slots []RuneSlotDTO `json:"slots"`
}

type RuneSlotDTO struct {
	Runes []RuneDTO `json:"runes"`
}

type RuneDTO struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Icon string `json:"icon"`
	Name string `json:"name"`
}
