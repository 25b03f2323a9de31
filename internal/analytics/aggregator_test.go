package analytics

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"summoner-analytics/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct{}

func (stubLookup) ChampionName(id int) string {
	if id == 7 {
		return "Leblanc"
	}
	return ""
}
func (stubLookup) SpellImage(id int) string { return "spell.png" }
func (stubLookup) RuneIcon(id int) string   { return "rune.png" }

func participation(matchID string, championID int, win bool, pos domain.Position, at time.Time) domain.Participation {
	return domain.Participation{
		Match: domain.Match{MatchID: matchID, CreatedAt: at, Mode: "CLASSIC"},
		Participant: domain.Participant{
			MatchID:     matchID,
			ChampionID:  championID,
			Win:         win,
			Position:    pos,
			Kills:       2,
			Deaths:      1,
			Assists:     3,
			CreepScore:  100,
			VisionScore: 20,
			Spells:      []int{4, 14},
			Runes:       []int{8100, 8300},
		},
	}
}

func TestAggregate_SinglePlayerExample(t *testing.T) {
	query := domain.Query{ID: "q1", Depth: 2, Region: "EUN1", Status: domain.QueryStatusComplete, Complete: true}
	now := time.Now()
	in := SnapshotInput{
		Snapshot: domain.PlayerSnapshot{ID: "s1", DisplayName: "Nova"},
		Masteries: []domain.Mastery{
			{ChampionID: 7, ChampionLevel: 7, ChampionPoints: 120000},
		},
		Participations: []domain.Participation{
			participation("M1", 7, true, domain.PositionMiddle, now.Add(-time.Hour)),
			participation("M2", 7, false, domain.PositionMiddle, now),
		},
	}

	got := Aggregate(query, in, stubLookup{})

	assert.True(t, got.Complete)
	require.Len(t, got.ChampionPool, 1)
	assert.Equal(t, ChampionUsage{
		ChampionID:    7,
		ChampionName:  "Leblanc",
		Used:          2,
		Wins:          1,
		MasteryLevel:  7,
		MasteryPoints: 120000,
	}, got.ChampionPool[0])

	assert.Equal(t, []PositionCount{{Position: domain.PositionMiddle, Count: 2}}, got.Positions)

	assert.Equal(t, 2, got.GlobalStats.TotalGames)
	assert.Equal(t, 1, got.GlobalStats.Wins)
	assert.Equal(t, 4, got.GlobalStats.Kills)
	assert.Equal(t, 2, got.GlobalStats.Deaths)
	assert.Equal(t, 6, got.GlobalStats.Assists)
	assert.InDelta(t, 20.0, got.GlobalStats.AvgVisionScore, 0.001)
	assert.InDelta(t, 100.0, got.GlobalStats.AvgCreepScore, 0.001)

	require.Len(t, got.Participations, 2)
	assert.Equal(t, "M2", got.Participations[0].MatchID, "newest match first")
	assert.Equal(t, "Leblanc", got.Participations[0].ChampionName)
	assert.Equal(t, []ItemObject{{ID: 4, Image: "spell.png"}, {ID: 14, Image: "spell.png"}}, got.Participations[0].Spells)
}

func TestAggregate_IncompleteWhenFewerMatchesThanDepth(t *testing.T) {
	query := domain.Query{Depth: 3}
	in := SnapshotInput{
		Participations: []domain.Participation{participation("M1", 1, true, domain.PositionTop, time.Now())},
	}
	assert.False(t, Aggregate(query, in, nil).Complete)
}

func TestChampionPool_OrderIndependent(t *testing.T) {
	now := time.Now()
	parts := []domain.Participation{
		participation("M1", 22, true, domain.PositionBottom, now),
		participation("M2", 5, false, domain.PositionJungle, now),
		participation("M3", 22, false, domain.PositionBottom, now),
		participation("M4", 9, true, domain.PositionJungle, now),
		participation("M5", 5, true, domain.PositionJungle, now),
		participation("M6", 1, true, domain.PositionTop, now),
	}
	masteries := []domain.Mastery{{ChampionID: 5, ChampionLevel: 4, ChampionPoints: 9000}}

	expected := ChampionPool(parts, masteries, nil)
	require.Len(t, expected, 4)
	assert.Equal(t, []int{5, 22, 1, 9}, []int{
		expected[0].ChampionID, expected[1].ChampionID, expected[2].ChampionID, expected[3].ChampionID,
	}, "used desc, champion id asc on ties")
	assert.Equal(t, 4, expected[0].MasteryLevel)
	assert.Equal(t, 0, expected[1].MasteryLevel, "no mastery record means zero")

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]domain.Participation, len(parts))
		copy(shuffled, parts)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, expected, ChampionPool(shuffled, masteries, nil))
	}
}

func TestChampionPool_TopTen(t *testing.T) {
	now := time.Now()
	var parts []domain.Participation
	for champion := 1; champion <= 12; champion++ {
		for n := 0; n <= champion%3; n++ {
			parts = append(parts, participation(fmt.Sprintf("M%d-%d", champion, n), champion, true, domain.PositionMiddle, now))
		}
	}

	pool := ChampionPool(parts, nil, nil)
	require.Len(t, pool, MaxListed)
	assert.Equal(t, 3, pool[0].Used)
	assert.Equal(t, 2, pool[0].ChampionID)
	for _, usage := range pool {
		assert.NotContains(t, []int{9, 12}, usage.ChampionID, "least used, highest id champions are dropped")
	}
}

func TestPositionDistribution(t *testing.T) {
	now := time.Now()
	parts := []domain.Participation{
		participation("M1", 1, true, domain.PositionSupport, now),
		participation("M2", 1, true, domain.PositionTop, now),
		participation("M3", 1, true, domain.PositionSupport, now),
		participation("M4", 1, true, "", now),
	}

	got := PositionDistribution(parts)
	assert.Equal(t, []PositionCount{
		{Position: domain.PositionSupport, Count: 2},
		{Position: domain.PositionFill, Count: 1},
		{Position: domain.PositionTop, Count: 1},
	}, got)
}

func TestStats_Empty(t *testing.T) {
	stats := Stats(nil)
	assert.Equal(t, GlobalStats{}, stats)
}

func TestAggregateQuery_KeepsSnapshotOrder(t *testing.T) {
	query := domain.Query{ID: "q", Depth: 1, Error: "boom", Status: domain.QueryStatusFailed}
	got := AggregateQuery(query, []SnapshotInput{
		{Snapshot: domain.PlayerSnapshot{ID: "b"}},
		{Snapshot: domain.PlayerSnapshot{ID: "a"}},
	}, nil)

	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, domain.QueryStatusFailed, got.Status)
	require.Len(t, got.Snapshots, 2)
	assert.Equal(t, "b", got.Snapshots[0].ID)
	assert.Equal(t, "a", got.Snapshots[1].ID)
}
