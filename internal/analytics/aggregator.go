// Package analytics turns the stored state of a query into the aggregated
// view that is streamed to subscribers. Everything here is pure: the same
// input always produces the same output regardless of row order.
package analytics

import (
	"sort"
	"time"

	"summoner-analytics/internal/domain"
)

// Lookup resolves static reference data. Implementations may return empty
// strings for unknown ids.
type Lookup interface {
	ChampionName(id int) string
	SpellImage(id int) string
	RuneIcon(id int) string
}

type AnalyzedQuery struct {
	ID         string             `json:"id"`
	SearchTerm string             `json:"searchTerm"`
	Type       domain.QueryType   `json:"type"`
	Region     string             `json:"region"`
	Depth      int                `json:"depth"`
	Status     domain.QueryStatus `json:"status"`
	Complete   bool               `json:"complete"`
	Error      string             `json:"error,omitempty"`
	Snapshots  []AnalyzedSnapshot `json:"snapshots"`
}

type AnalyzedSnapshot struct {
	ID             string              `json:"id"`
	Puuid          string              `json:"puuid"`
	SummonerID     string              `json:"summonerId"`
	DisplayName    string              `json:"displayName"`
	Level          int                 `json:"level"`
	ProfileIconID  int                 `json:"profileIconId"`
	Tier           string              `json:"tier"`
	Rank           string              `json:"rank"`
	LeaguePoints   int                 `json:"leaguePoints"`
	AssignedRole   *domain.Position    `json:"assignedRole,omitempty"`
	Complete       bool                `json:"complete"`
	ChampionPool   []ChampionUsage     `json:"championPool"`
	Positions      []PositionCount     `json:"mostPlayedPosition"`
	GlobalStats    GlobalStats         `json:"globalStats"`
	Participations []ParticipationView `json:"participants"`
}

type ChampionUsage struct {
	ChampionID    int    `json:"championId"`
	ChampionName  string `json:"championName"`
	Used          int    `json:"used"`
	Wins          int    `json:"wins"`
	MasteryLevel  int    `json:"level"`
	MasteryPoints int    `json:"points"`
}

type PositionCount struct {
	Position domain.Position `json:"position"`
	Count    int             `json:"count"`
}

type GlobalStats struct {
	TotalGames           int     `json:"totalGames"`
	Wins                 int     `json:"wins"`
	Kills                int     `json:"kills"`
	Deaths               int     `json:"deaths"`
	Assists              int     `json:"assists"`
	AvgVisionScore       float64 `json:"avgVisionScore"`
	AvgVisionWardsBought float64 `json:"avgVisionWardsBought"`
	AvgCreepScore        float64 `json:"avgCreepScore"`
}

type ItemObject struct {
	ID    int    `json:"id"`
	Image string `json:"image,omitempty"`
}

type ParticipationView struct {
	MatchID           string          `json:"matchId"`
	PlayedAt          time.Time       `json:"createdAt"`
	Mode              string          `json:"mode"`
	Duration          int             `json:"duration"`
	ChampionID        int             `json:"championId"`
	ChampionName      string          `json:"championName"`
	ChampionLevel     int             `json:"championLevel"`
	Position          domain.Position `json:"position"`
	Win               bool            `json:"win"`
	Kills             int             `json:"kills"`
	Deaths            int             `json:"deaths"`
	Assists           int             `json:"assists"`
	CreepScore        int             `json:"creepScore"`
	VisionScore       int             `json:"visionScore"`
	Gold              int             `json:"gold"`
	DamageToChampions int             `json:"damageToChamps"`
	DamageToBuildings int             `json:"damageToBuildings"`
	Items             []int           `json:"items"`
	Spells            []ItemObject    `json:"spells"`
	Runes             []ItemObject    `json:"runes"`
}

// SnapshotInput is everything stored for one snapshot.
type SnapshotInput struct {
	Snapshot       domain.PlayerSnapshot
	Masteries      []domain.Mastery
	Participations []domain.Participation
}

type noLookup struct{}

func (noLookup) ChampionName(int) string { return "" }
func (noLookup) SpellImage(int) string   { return "" }
func (noLookup) RuneIcon(int) string     { return "" }

// AggregateQuery builds the full view of a query. Snapshots keep the order
// they are given in.
func AggregateQuery(query domain.Query, inputs []SnapshotInput, lookup Lookup) AnalyzedQuery {
	out := AnalyzedQuery{
		ID:         query.ID,
		SearchTerm: query.SearchTerm,
		Type:       query.Type,
		Region:     query.Region,
		Depth:      query.Depth,
		Status:     query.Status,
		Complete:   query.Complete,
		Error:      query.Error,
		Snapshots:  make([]AnalyzedSnapshot, 0, len(inputs)),
	}
	for _, in := range inputs {
		out.Snapshots = append(out.Snapshots, Aggregate(query, in, lookup))
	}
	return out
}

func Aggregate(query domain.Query, in SnapshotInput, lookup Lookup) AnalyzedSnapshot {
	if lookup == nil {
		lookup = noLookup{}
	}
	s := in.Snapshot

	return AnalyzedSnapshot{
		ID:             s.ID,
		Puuid:          s.Puuid,
		SummonerID:     s.SummonerID,
		DisplayName:    s.DisplayName,
		Level:          s.Level,
		ProfileIconID:  s.ProfileIconID,
		Tier:           s.Tier,
		Rank:           s.Rank,
		LeaguePoints:   s.LeaguePoints,
		AssignedRole:   s.AssignedRole,
		Complete:       len(in.Participations) == query.Depth,
		ChampionPool:   ChampionPool(in.Participations, in.Masteries, lookup),
		Positions:      PositionDistribution(in.Participations),
		GlobalStats:    Stats(in.Participations),
		Participations: participationViews(in.Participations, lookup),
	}
}

// MaxListed caps the champion pool and the position distribution.
const MaxListed = 10

// ChampionPool groups participations by champion, most used first. Ties are
// broken by ascending champion id. Only the top MaxListed are kept.
func ChampionPool(parts []domain.Participation, masteries []domain.Mastery, lookup Lookup) []ChampionUsage {
	if lookup == nil {
		lookup = noLookup{}
	}
	byChampion := make(map[int]domain.Mastery, len(masteries))
	for _, m := range masteries {
		byChampion[m.ChampionID] = m
	}

	pool := make(map[int]*ChampionUsage)
	for _, p := range parts {
		id := p.Participant.ChampionID
		usage, ok := pool[id]
		if !ok {
			mastery := byChampion[id]
			usage = &ChampionUsage{
				ChampionID:    id,
				MasteryLevel:  mastery.ChampionLevel,
				MasteryPoints: mastery.ChampionPoints,
			}
			pool[id] = usage
		}
		if usage.ChampionName == "" {
			usage.ChampionName = p.Participant.ChampionName
		}
		usage.Used++
		if p.Participant.Win {
			usage.Wins++
		}
	}

	out := make([]ChampionUsage, 0, len(pool))
	for _, usage := range pool {
		if name := lookup.ChampionName(usage.ChampionID); name != "" {
			usage.ChampionName = name
		}
		out = append(out, *usage)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Used != out[j].Used {
			return out[i].Used > out[j].Used
		}
		return out[i].ChampionID < out[j].ChampionID
	})
	if len(out) > MaxListed {
		out = out[:MaxListed]
	}
	return out
}

func PositionDistribution(parts []domain.Participation) []PositionCount {
	counts := make(map[domain.Position]int)
	for _, p := range parts {
		pos := p.Participant.Position
		if pos == "" {
			pos = domain.PositionFill
		}
		counts[pos]++
	}

	out := make([]PositionCount, 0, len(counts))
	for pos, n := range counts {
		out = append(out, PositionCount{Position: pos, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Position < out[j].Position
	})
	if len(out) > MaxListed {
		out = out[:MaxListed]
	}
	return out
}

func Stats(parts []domain.Participation) GlobalStats {
	var stats GlobalStats
	var vision, wards, creeps int
	for _, p := range parts {
		pt := p.Participant
		stats.TotalGames++
		if pt.Win {
			stats.Wins++
		}
		stats.Kills += pt.Kills
		stats.Deaths += pt.Deaths
		stats.Assists += pt.Assists
		vision += pt.VisionScore
		wards += pt.VisionWardsBought
		creeps += pt.CreepScore
	}
	if stats.TotalGames > 0 {
		n := float64(stats.TotalGames)
		stats.AvgVisionScore = float64(vision) / n
		stats.AvgVisionWardsBought = float64(wards) / n
		stats.AvgCreepScore = float64(creeps) / n
	}
	return stats
}

// participationViews orders matches newest first, match id breaking ties.
func participationViews(parts []domain.Participation, lookup Lookup) []ParticipationView {
	sorted := make([]domain.Participation, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Match, sorted[j].Match
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.MatchID < b.MatchID
	})

	views := make([]ParticipationView, 0, len(sorted))
	for _, p := range sorted {
		pt := p.Participant
		name := pt.ChampionName
		if name == "" {
			name = lookup.ChampionName(pt.ChampionID)
		}

		spells := make([]ItemObject, 0, len(pt.Spells))
		for _, id := range pt.Spells {
			spells = append(spells, ItemObject{ID: id, Image: lookup.SpellImage(id)})
		}
		runes := make([]ItemObject, 0, len(pt.Runes))
		for _, id := range pt.Runes {
			runes = append(runes, ItemObject{ID: id, Image: lookup.RuneIcon(id)})
		}

		views = append(views, ParticipationView{
			MatchID:           p.Match.MatchID,
			PlayedAt:          p.Match.CreatedAt,
			Mode:              p.Match.Mode,
			Duration:          p.Match.Duration,
			ChampionID:        pt.ChampionID,
			ChampionName:      name,
			ChampionLevel:     pt.ChampionLevel,
			Position:          pt.Position,
			Win:               pt.Win,
			Kills:             pt.Kills,
			Deaths:            pt.Deaths,
			Assists:           pt.Assists,
			CreepScore:        pt.CreepScore,
			VisionScore:       pt.VisionScore,
			Gold:              pt.Gold,
			DamageToChampions: pt.DamageToChampions,
			DamageToBuildings: pt.DamageToBuildings,
			Items:             pt.Items,
			Spells:            spells,
			Runes:             runes,
		})
	}
	return views
}
