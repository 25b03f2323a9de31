package domain

import "strings"

type Position string

const (
	PositionTop     Position = "TOP"
	PositionJungle  Position = "JUNGLE"
	PositionMiddle  Position = "MIDDLE"
	PositionBottom  Position = "BOTTOM"
	PositionSupport Position = "SUPPORT"
	PositionFill    Position = "FILL"
)

var laneAliases = map[string]string{
	"MID": "MIDDLE",
	"BOT": "BOTTOM",
}

var roleAliases = map[string]string{
	"DUO_CARRY":   "CARRY",
	"DUO_SUPPORT": "SUPPORT",
}

// InferPosition maps the lane/role pair reported for a participant to a
// canonical position. Unknown combinations fall back to FILL.
func InferPosition(lane, role string) Position {
	lane = strings.ToUpper(strings.TrimSpace(lane))
	role = strings.ToUpper(strings.TrimSpace(role))
	if alias, ok := laneAliases[lane]; ok {
		lane = alias
	}
	if alias, ok := roleAliases[role]; ok {
		role = alias
	}

	switch lane {
	case "TOP":
		return PositionTop
	case "JUNGLE":
		return PositionJungle
	case "MIDDLE":
		return PositionMiddle
	case "BOTTOM":
		switch role {
		case "CARRY":
			return PositionBottom
		case "SUPPORT":
			return PositionSupport
		}
	}
	return PositionFill
}

var clashPositions = map[string]Position{
	"UNSELECTED": PositionFill,
	"FILL":       PositionFill,
	"TOP":        PositionTop,
	"JUNGLE":     PositionJungle,
	"MIDDLE":     PositionMiddle,
	"BOTTOM":     PositionBottom,
	"UTILITY":    PositionSupport,
}

// ClashPosition maps a Clash roster position to a canonical position.
func ClashPosition(position string) Position {
	if p, ok := clashPositions[strings.ToUpper(position)]; ok {
		return p
	}
	return PositionFill
}
