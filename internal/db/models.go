package db

import (
	"database/sql"
	"time"
)

type Query struct {
	ID         string
	SearchTerm string
	Type       string
	Region     string
	Depth      int64
	Status     string
	Complete   bool
	Error      sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PlayerSnapshot struct {
	ID            string
	QueryID       string
	Puuid         string
	SummonerID    string
	DisplayName   string
	Level         int64
	ProfileIconID int64
	Tier          string
	Rank          string
	LeaguePoints  int64
	Wins          int64
	Losses        int64
	AssignedRole  sql.NullString
	CreatedAt     time.Time
}

type Mastery struct {
	ID             int64
	SnapshotID     string
	ChampionID     int64
	ChampionLevel  int64
	ChampionPoints int64
}

type Match struct {
	MatchID   string
	CreatedAt time.Time
	Mode      string
	Type      string
	MapID     int64
	Duration  int64
	Version   string
	FetchedAt time.Time
}

type Participant struct {
	MatchID           string
	Puuid             string
	SummonerID        string
	ChampionID        int64
	ChampionName      string
	ChampionLevel     int64
	Position          string
	Win               bool
	Kills             int64
	Deaths            int64
	Assists           int64
	CreepScore        int64
	VisionScore       int64
	VisionWardsBought int64
	Gold              int64
	DamageToChampions int64
	DamageToBuildings int64
	Items             string
	Spells            string
	Runes             string
}
