package domain

import (
	"time"
)

type QueryType string

const (
	QueryTypePlayer QueryType = "PLAYER"
	QueryTypeClash  QueryType = "CLASH"
)

type QueryStatus string

const (
	QueryStatusPending  QueryStatus = "pending"
	QueryStatusFetching QueryStatus = "fetching"
	QueryStatusComplete QueryStatus = "complete"
	QueryStatusFailed   QueryStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s QueryStatus) Terminal() bool {
	return s == QueryStatusComplete || s == QueryStatusFailed
}

type Query struct {
	ID         string
	SearchTerm string
	Type       QueryType
	Region     string
	Depth      int
	Status     QueryStatus
	Complete   bool
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PlayerSnapshot struct {
	ID            string
	QueryID       string
	Puuid         string
	SummonerID    string
	DisplayName   string
	Level         int
	ProfileIconID int
	Tier          string
	Rank          string
	LeaguePoints  int
	Wins          int
	Losses        int
	AssignedRole  *Position
	CreatedAt     time.Time
}

type Mastery struct {
	SnapshotID     string
	ChampionID     int
	ChampionLevel  int
	ChampionPoints int
}

type Match struct {
	MatchID   string
	CreatedAt time.Time // game creation
	Mode      string
	Type      string
	MapID     int
	Duration  int // seconds
	Version   string
	FetchedAt time.Time
}

type Participant struct {
	MatchID           string
	Puuid             string
	SummonerID        string
	ChampionID        int
	ChampionName      string
	ChampionLevel     int
	Position          Position
	Win               bool
	Kills             int
	Deaths            int
	Assists           int
	CreepScore        int
	VisionScore       int
	VisionWardsBought int
	Gold              int
	DamageToChampions int
	DamageToBuildings int
	Items             []int
	Spells            []int
	Runes             []int
}

// Participation is one match as seen by one snapshot.
type Participation struct {
	Match       Match
	Participant Participant
}
