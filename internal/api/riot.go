package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"summoner-analytics/internal/config"
	"summoner-analytics/internal/constants"
	"summoner-analytics/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// StatusError is a non-2xx answer from an upstream API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d (%s)", e.StatusCode, e.URL)
}

type RateLimitInfo struct {
	AppLimit    string        `json:"app_limit"`
	AppCount    string        `json:"app_count"`
	MethodLimit string        `json:"method_limit"`
	MethodCount string        `json:"method_count"`
	RetryAfter  time.Duration `json:"retry_after"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// transport is the shared GET-JSON path for the upstream clients: optional
// token bucket, bounded retries and fasthttp.
type transport struct {
	client  *fasthttp.Client
	limiter *rate.Limiter
	policy  config.RetryPolicy
	headers map[string]string
	logger  zerolog.Logger

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

func newFastClient() *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     100,
		ReadTimeout:         constants.ExternalAPITimeout,
		WriteTimeout:        constants.ExternalAPITimeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}
}

func (t *transport) backoff() retry.Backoff {
	base := t.policy.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(10, b)
	if t.policy.MaxDelay > 0 {
		b = retry.WithCappedDuration(t.policy.MaxDelay, b)
	}
	return retry.WithMaxRetries(t.policy.MaxRetries, b)
}

func (t *transport) GetRateLimitInfo() RateLimitInfo {
	t.rateLimitMu.RLock()
	defer t.rateLimitMu.RUnlock()
	return t.rateLimit
}

func (t *transport) updateRateLimit(resp *fasthttp.Response) {
	t.rateLimitMu.Lock()
	defer t.rateLimitMu.Unlock()

	if v := string(resp.Header.Peek("X-App-Rate-Limit")); v != "" {
		t.rateLimit.AppLimit = v
	}
	if v := string(resp.Header.Peek("X-App-Rate-Limit-Count")); v != "" {
		t.rateLimit.AppCount = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit")); v != "" {
		t.rateLimit.MethodLimit = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit-Count")); v != "" {
		t.rateLimit.MethodCount = v
	}
	t.rateLimit.RetryAfter = 0
	if v := string(resp.Header.Peek("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			t.rateLimit.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	t.rateLimit.UpdatedAt = time.Now()
}

// get performs one logical GET. 429, 5xx and transport failures are retried
// according to the policy; 404 maps to domain.ErrNotFound.
func (t *transport) get(ctx context.Context, url string) ([]byte, error) {
	return retry.DoValue(ctx, t.backoff(), func(ctx context.Context) ([]byte, error) {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(url)
		req.Header.SetMethod(fasthttp.MethodGet)
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}

		var err error
		if deadline, ok := ctx.Deadline(); ok {
			err = t.client.DoDeadline(req, resp, deadline)
		} else {
			err = t.client.DoTimeout(req, resp, constants.ExternalAPITimeout)
		}
		if err != nil {
			t.logger.Warn().Err(err).Str("url", url).Msg("upstream request failed")
			return nil, retry.RetryableError(err)
		}

		t.updateRateLimit(resp)

		status := resp.StatusCode()
		switch {
		case status == fasthttp.StatusOK:
			return append([]byte(nil), resp.Body()...), nil
		case status == fasthttp.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", url, domain.ErrNotFound)
		case status == fasthttp.StatusTooManyRequests:
			info := t.GetRateLimitInfo()
			t.logger.Warn().
				Str("url", url).
				Str("app_count", info.AppCount).
				Str("method_count", info.MethodCount).
				Dur("retry_after", info.RetryAfter).
				Msg("rate limited by upstream")
			if err := sleepCtx(ctx, info.RetryAfter); err != nil {
				return nil, err
			}
			return nil, retry.RetryableError(&StatusError{StatusCode: status, URL: url})
		case status >= fasthttp.StatusInternalServerError:
			return nil, retry.RetryableError(&StatusError{StatusCode: status, URL: url})
		default:
			return nil, &StatusError{StatusCode: status, URL: url}
		}
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func doRequest[T any](ctx context.Context, t *transport, url string) (*T, error) {
	body, err := t.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return &result, nil
}

type RiotClient struct {
	*transport
	baseURL string
}

func NewRiotClient(cfg *config.Config, logger zerolog.Logger) *RiotClient {
	return &RiotClient{
		transport: &transport{
			client:  newFastClient(),
			limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
			policy:  cfg.Retry,
			headers: map[string]string{"X-Riot-Token": cfg.RiotAPIKey},
			logger:  logger.With().Str("client", "riot").Logger(),
		},
		baseURL: strings.TrimRight(cfg.RiotBaseURL, "/"),
	}
}

// host returns the API root for a platform (NA1, EUW1) or regional routing
// value (AMERICAS, EUROPE).
func (c *RiotClient) host(routing string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", strings.ToLower(routing))
}

func (c *RiotClient) SummonerByName(ctx context.Context, platform, name string) (*SummonerDTO, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-name/%s", c.host(platform), url.PathEscape(name))
	return doRequest[SummonerDTO](ctx, c.transport, u)
}

func (c *RiotClient) SummonerByID(ctx context.Context, platform, summonerID string) (*SummonerDTO, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/%s", c.host(platform), url.PathEscape(summonerID))
	return doRequest[SummonerDTO](ctx, c.transport, u)
}

func (c *RiotClient) LeagueEntries(ctx context.Context, platform, summonerID string) ([]LeagueEntryDTO, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s", c.host(platform), url.PathEscape(summonerID))
	res, err := doRequest[[]LeagueEntryDTO](ctx, c.transport, u)
	if err != nil {
		return nil, err
	}
	return *res, nil
}

func (c *RiotClient) ChampionMasteries(ctx context.Context, platform, puuid string) ([]ChampionMasteryDTO, error) {
	u := fmt.Sprintf("%s/lol/champion-mastery/v4/champion-masteries/by-puuid/%s", c.host(platform), url.PathEscape(puuid))
	res, err := doRequest[[]ChampionMasteryDTO](ctx, c.transport, u)
	if err != nil {
		return nil, err
	}
	return *res, nil
}

func (c *RiotClient) MatchIDs(ctx context.Context, regionGroup, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d", c.host(regionGroup), url.PathEscape(puuid), count)
	res, err := doRequest[[]string](ctx, c.transport, u)
	if err != nil {
		return nil, err
	}
	return *res, nil
}

func (c *RiotClient) Match(ctx context.Context, regionGroup, matchID string) (*MatchDTO, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.host(regionGroup), url.PathEscape(matchID))
	return doRequest[MatchDTO](ctx, c.transport, u)
}

func (c *RiotClient) ClashPlayers(ctx context.Context, platform, summonerID string) ([]ClashPlayerDTO, error) {
	u := fmt.Sprintf("%s/lol/clash/v1/players/by-summoner/%s", c.host(platform), url.PathEscape(summonerID))
	res, err := doRequest[[]ClashPlayerDTO](ctx, c.transport, u)
	if err != nil {
		return nil, err
	}
	return *res, nil
}

func (c *RiotClient) ClashTeam(ctx context.Context, platform, teamID string) (*ClashTeamDTO, error) {
	u := fmt.Sprintf("%s/lol/clash/v1/teams/%s", c.host(platform), url.PathEscape(teamID))
	return doRequest[ClashTeamDTO](ctx, c.transport, u)
}

type SummonerDTO struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	Puuid         string `json:"puuid"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int    `json:"summonerLevel"`
	RevisionDate  int64  `json:"revisionDate"`
}

type LeagueEntryDTO struct {
	LeagueID     string `json:"leagueId"`
	SummonerID   string `json:"summonerId"`
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type ChampionMasteryDTO struct {
	Puuid          string `json:"puuid"`
	ChampionID     int    `json:"championId"`
	ChampionLevel  int    `json:"championLevel"`
	ChampionPoints int    `json:"championPoints"`
}

type ClashPlayerDTO struct {
	SummonerID string `json:"summonerId"`
	TeamID     string `json:"teamId"`
	Position   string `json:"position"`
	Role       string `json:"role"`
}

type ClashTeamDTO struct {
	ID           string           `json:"id"`
	TournamentID int              `json:"tournamentId"`
	Name         string           `json:"name"`
	Abbreviation string           `json:"abbreviation"`
	Captain      string           `json:"captain"`
	Players      []ClashPlayerDTO `json:"players"`
}

type MatchDTO struct {
	Metadata MatchMetadataDTO `json:"metadata"`
	Info     MatchInfoDTO     `json:"info"`
}

type MatchMetadataDTO struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfoDTO struct {
	GameCreation     int64            `json:"gameCreation"`
	GameDuration     int64            `json:"gameDuration"`
	GameEndTimestamp int64            `json:"gameEndTimestamp"`
	GameMode         string           `json:"gameMode"`
	GameType         string           `json:"gameType"`
	GameVersion      string           `json:"gameVersion"`
	MapID            int              `json:"mapId"`
	Participants     []ParticipantDTO `json:"participants"`
}

// DurationSeconds normalizes gameDuration, which older matches report in
// milliseconds (those have no gameEndTimestamp).
func (i MatchInfoDTO) DurationSeconds() int {
	if i.GameEndTimestamp == 0 {
		return int(i.GameDuration / 1000)
	}
	return int(i.GameDuration)
}

type ParticipantDTO struct {
	Puuid                       string   `json:"puuid"`
	SummonerID                  string   `json:"summonerId"`
	SummonerName                string   `json:"summonerName"`
	ChampionID                  int      `json:"championId"`
	ChampionName                string   `json:"championName"`
	ChampLevel                  int      `json:"champLevel"`
	Lane                        string   `json:"lane"`
	Role                        string   `json:"role"`
	Win                         bool     `json:"win"`
	Kills                       int      `json:"kills"`
	Deaths                      int      `json:"deaths"`
	Assists                     int      `json:"assists"`
	TotalMinionsKilled          int      `json:"totalMinionsKilled"`
	VisionScore                 int      `json:"visionScore"`
	VisionWardsBoughtInGame     int      `json:"visionWardsBoughtInGame"`
	GoldEarned                  int      `json:"goldEarned"`
	TotalDamageDealtToChampions int      `json:"totalDamageDealtToChampions"`
	DamageDealtToBuildings      int      `json:"damageDealtToBuildings"`
	Summoner1ID                 int      `json:"summoner1Id"`
	Summoner2ID                 int      `json:"summoner2Id"`
	Item0                       int      `json:"item0"`
	Item1                       int      `json:"item1"`
	Item2                       int      `json:"item2"`
	Item3                       int      `json:"item3"`
	Item4                       int      `json:"item4"`
	Item5                       int      `json:"item5"`
	Item6                       int      `json:"item6"`
	Perks                       PerksDTO `json:"perks"`
}

func (p ParticipantDTO) Items() []int {
	return []int{p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5, p.Item6}
}

func (p ParticipantDTO) Spells() []int {
	return []int{p.Summoner1ID, p.Summoner2ID}
}

// Runes returns the primary and secondary rune style ids.
func (p ParticipantDTO) Runes() []int {
	runes := make([]int, 0, len(p.Perks.Styles))
	for _, s := range p.Perks.Styles {
		runes = append(runes, s.Style)
	}
	return runes
}

type PerksDTO struct {
	Styles []PerkStyleDTO `json:"styles"`
}

type PerkStyleDTO struct {
	Description string `json:"description"`
	Style       int    `json:"style"`
}
