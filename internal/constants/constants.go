package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	MatchJobTimeout    = 2 * time.Minute
	ReferenceTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	MinQueryDepth      = 1
	MaxQueryDepth      = 100
	MatchQueueSize     = 4096
	StreamPingInterval = 30 * time.Second
)

const (
	RankedSoloQueue = "RANKED_SOLO_5x5"
	RankedFlexQueue = "RANKED_FLEX_SR"
)
