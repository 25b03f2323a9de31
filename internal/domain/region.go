package domain

import (
	"fmt"
	"strings"
)

// platform region -> regional routing value used by match-v5
var regionGroups = map[string]string{
	"BR1":  "AMERICAS",
	"LA1":  "AMERICAS",
	"LA2":  "AMERICAS",
	"NA1":  "AMERICAS",
	"EUN1": "EUROPE",
	"EUW1": "EUROPE",
	"TR1":  "EUROPE",
	"RU":   "EUROPE",
	"JP1":  "ASIA",
	"KR":   "ASIA",
	"OC1":  "SEA",
	"PH2":  "SEA",
	"SG2":  "SEA",
	"TH2":  "SEA",
	"TW2":  "SEA",
	"VN2":  "SEA",
}

var regionAliases = map[string]string{
	"BR":   "BR1",
	"LAN":  "LA1",
	"LAS":  "LA2",
	"NA":   "NA1",
	"EUNE": "EUN1",
	"EUW":  "EUW1",
	"TR":   "TR1",
	"JP":   "JP1",
	"OCE":  "OC1",
	"PH":   "PH2",
	"SG":   "SG2",
	"TH":   "TH2",
	"TW":   "TW2",
	"VN":   "VN2",
}

// NormalizeRegion returns the platform id for a region or one of its
// common short names.
func NormalizeRegion(region string) (string, error) {
	r := strings.ToUpper(strings.TrimSpace(region))
	if alias, ok := regionAliases[r]; ok {
		r = alias
	}
	if _, ok := regionGroups[r]; !ok {
		return "", fmt.Errorf("%w: unknown region %q", ErrInvalidQuery, region)
	}
	return r, nil
}

// RegionGroup returns the regional routing value for a platform region.
func RegionGroup(region string) (string, error) {
	r, err := NormalizeRegion(region)
	if err != nil {
		return "", err
	}
	return regionGroups[r], nil
}
