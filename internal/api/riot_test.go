package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"summoner-analytics/internal/config"
	"summoner-analytics/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		RiotAPIKey:    "RGAPI-test",
		RiotBaseURL:   baseURL,
		DDragonURL:    baseURL,
		RatePerSecond: 1000,
		RateBurst:     1000,
		Retry: config.RetryPolicy{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	}
}

func TestRiotClient_SummonerByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "RGAPI-test", r.Header.Get("X-Riot-Token"))
		assert.Equal(t, "/lol/summoner/v4/summoners/by-name/Nova Prime", r.URL.Path)
		w.Header().Set("X-App-Rate-Limit-Count", "1:1,1:120")
		w.Write([]byte(`{"id":"s1","puuid":"p1","name":"Nova Prime","profileIconId":7,"summonerLevel":120}`))
	}))
	defer srv.Close()

	client := NewRiotClient(testConfig(srv.URL), zerolog.Nop())
	summoner, err := client.SummonerByName(context.Background(), "NA1", "Nova Prime")
	require.NoError(t, err)

	assert.Equal(t, "s1", summoner.ID)
	assert.Equal(t, "p1", summoner.Puuid)
	assert.Equal(t, 120, summoner.SummonerLevel)
	assert.Equal(t, "1:1,1:120", client.GetRateLimitInfo().AppCount)
}

func TestRiotClient_NotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewRiotClient(testConfig(srv.URL), zerolog.Nop())
	_, err := client.SummonerByName(context.Background(), "NA1", "nobody")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRiotClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`["NA1_1","NA1_2"]`))
	}))
	defer srv.Close()

	client := NewRiotClient(testConfig(srv.URL), zerolog.Nop())
	ids, err := client.MatchIDs(context.Background(), "AMERICAS", "p1", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"NA1_1", "NA1_2"}, ids)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRiotClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewRiotClient(testConfig(srv.URL), zerolog.Nop())
	_, err := client.Match(context.Background(), "AMERICAS", "NA1_1")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRiotClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewRiotClient(testConfig(srv.URL), zerolog.Nop())
	_, err := client.LeagueEntries(context.Background(), "NA1", "s1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRiotClient_MatchIDsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lol/match/v5/matches/by-puuid/p1/ids", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("start"))
		assert.Equal(t, "15", r.URL.Query().Get("count"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewRiotClient(testConfig(srv.URL), zerolog.Nop())
	ids, err := client.MatchIDs(context.Background(), "AMERICAS", "p1", 15)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRiotClient_Host(t *testing.T) {
	client := NewRiotClient(testConfig(""), zerolog.Nop())
	assert.Equal(t, "https://euw1.api.riotgames.com", client.host("EUW1"))
	assert.Equal(t, "https://americas.api.riotgames.com", client.host("AMERICAS"))
}

func TestMatchDTO_Helpers(t *testing.T) {
	p := ParticipantDTO{
		Item0: 1, Item6: 3340,
		Summoner1ID: 4, Summoner2ID: 14,
		Perks: PerksDTO{Styles: []PerkStyleDTO{{Style: 8100}, {Style: 8300}}},
	}
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 3340}, p.Items())
	assert.Equal(t, []int{4, 14}, p.Spells())
	assert.Equal(t, []int{8100, 8300}, p.Runes())

	assert.Equal(t, 1800, MatchInfoDTO{GameDuration: 1800, GameEndTimestamp: 1}.DurationSeconds())
	assert.Equal(t, 1800, MatchInfoDTO{GameDuration: 1800000}.DurationSeconds())
}

func TestDataDragonClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["14.2.1","14.1.1"]`))
	})
	mux.HandleFunc("/cdn/14.2.1/data/en_US/champion.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"14.2.1","data":{"Annie":{"id":"Annie","key":"1","name":"Annie"}}}`))
	})
	mux.HandleFunc("/cdn/14.2.1/data/en_US/summoner.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"SummonerFlash":{"id":"SummonerFlash","key":"4","image":{"full":"SummonerFlash.png"}}}}`))
	})
	mux.HandleFunc("/cdn/14.2.1/data/en_US/runesReforged.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":8100,"icon":"perk-images/Styles/7200_Domination.png","slots":[{"runes":[{"id":8112,"icon":"perk-images/Styles/Domination/Electrocute/Electrocute.png"}]}]}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewDataDragonClient(testConfig(srv.URL), zerolog.Nop())
	ctx := context.Background()

	version, err := client.LatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "14.2.1", version)

	champs, err := client.Champions(ctx, version)
	require.NoError(t, err)
	assert.Equal(t, "1", champs.Data["Annie"].Key)

	spells, err := client.SummonerSpells(ctx, version)
	require.NoError(t, err)
	assert.Equal(t, "SummonerFlash.png", spells.Data["SummonerFlash"].Image.Full)

	styles, err := client.RuneStyles(ctx, version)
	require.NoError(t, err)
	require.Len(t, styles, 1)
	assert.Equal(t, 8112, styles[0].Slots[0].Runes[0].ID)
}
