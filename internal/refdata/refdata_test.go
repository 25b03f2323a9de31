package refdata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"summoner-analytics/internal/api"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	version   string
	downloads atomic.Int32
	fail      bool
}

func (f *fakeSource) LatestVersion(ctx context.Context) (string, error) {
	if f.fail {
		return "", errors.New("cdn unavailable")
	}
	return f.version, nil
}

func (f *fakeSource) Champions(ctx context.Context, version string) (*api.ChampionListDTO, error) {
	f.downloads.Add(1)
	return &api.ChampionListDTO{Data: map[string]api.ChampionDTO{
		"Annie":  {ID: "Annie", Key: "1", Name: "Annie"},
		"Ahri":   {ID: "Ahri", Key: "103", Name: "Ahri"},
		"Broken": {ID: "Broken", Key: "x", Name: "Broken"},
	}}, nil
}

func (f *fakeSource) SummonerSpells(ctx context.Context, version string) (*api.SummonerSpellListDTO, error) {
	return &api.SummonerSpellListDTO{Data: map[string]api.SummonerSpellDTO{
		"SummonerFlash": {Key: "4", Image: api.ImageDTO{Full: "SummonerFlash.png"}},
	}}, nil
}

func (f *fakeSource) RuneStyles(ctx context.Context, version string) ([]api.RuneStyleDTO, error) {
	return []api.RuneStyleDTO{{
		ID:   8100,
		Icon: "perk-images/Styles/7200_Domination.png",
		Slots: []api.RuneSlotDTO{{Runes: []api.RuneDTO{
			{ID: 8112, Icon: "perk-images/Styles/Domination/Electrocute/Electrocute.png"},
		}}},
	}}, nil
}

func TestService_Refresh(t *testing.T) {
	src := &fakeSource{version: "14.1.1"}
	svc := New(src, "@hourly", zerolog.Nop())

	require.NoError(t, svc.Refresh(context.Background()))

	assert.Equal(t, "14.1.1", svc.Version())
	assert.Equal(t, "Annie", svc.ChampionName(1))
	assert.Equal(t, "Ahri", svc.ChampionName(103))
	assert.Empty(t, svc.ChampionName(9999))
	assert.Equal(t, "SummonerFlash.png", svc.SpellImage(4))
	assert.Equal(t, "perk-images/Styles/7200_Domination.png", svc.RuneIcon(8100))
	assert.Contains(t, svc.RuneIcon(8112), "Electrocute")

	// same version is not downloaded twice
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, int32(1), src.downloads.Load())
}

func TestService_StartTolerantOfInitialFailure(t *testing.T) {
	src := &fakeSource{fail: true}
	svc := New(src, "@hourly", zerolog.Nop())

	require.NoError(t, svc.Start(context.Background()))
	assert.Empty(t, svc.ChampionName(1))
	require.NoError(t, svc.Stop(context.Background()))
}

func TestService_StartRejectsBadSchedule(t *testing.T) {
	svc := New(&fakeSource{version: "14.1.1"}, "not a schedule", zerolog.Nop())
	assert.Error(t, svc.Start(context.Background()))
}
