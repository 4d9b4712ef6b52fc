// Package region defines the closed set of supported game-server regions
// and their routing values.
package region

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRegion is returned for region codes outside the supported set.
var ErrUnknownRegion = errors.New("unknown region")

// Region is a platform code such as NA1 or EUW1.
type Region string

// Supported regions.
const (
	NA1   Region = "NA1"
	EUW1  Region = "EUW1"
	EUNE1 Region = "EUNE1"
	KR    Region = "KR"
	BR1   Region = "BR1"
	LA1   Region = "LA1"
	LA2   Region = "LA2"
	OC1   Region = "OC1"
	JP1   Region = "JP1"
	TR1   Region = "TR1"
	RU    Region = "RU"
	PH2   Region = "PH2"
	SG2   Region = "SG2"
	TH2   Region = "TH2"
	TW2   Region = "TW2"
	VN2   Region = "VN2"
)

// Routing values for the regional (account/match) APIs.
const (
	RoutingAmericas = "americas"
	RoutingEurope   = "europe"
	RoutingAsia     = "asia"
	RoutingSEA      = "sea"
)

type info struct {
	label   string
	routing string
}

var regions = map[Region]info{
	NA1:   {"North America", RoutingAmericas},
	BR1:   {"Brazil", RoutingAmericas},
	LA1:   {"LAN", RoutingAmericas},
	LA2:   {"LAS", RoutingAmericas},
	EUW1:  {"Europe West", RoutingEurope},
	EUNE1: {"Europe Nordic & East", RoutingEurope},
	TR1:   {"Turkey", RoutingEurope},
	RU:    {"Russia", RoutingEurope},
	KR:    {"Korea", RoutingAsia},
	JP1:   {"Japan", RoutingAsia},
	OC1:   {"Oceania", RoutingSEA},
	PH2:   {"Philippines", RoutingSEA},
	SG2:   {"Singapore", RoutingSEA},
	TH2:   {"Thailand", RoutingSEA},
	TW2:   {"Taiwan", RoutingSEA},
	VN2:   {"Vietnam", RoutingSEA},
}

// order fixes the listing order used by All.
var order = []Region{NA1, EUW1, EUNE1, KR, BR1, LA1, LA2, OC1, JP1, TR1, RU, PH2, SG2, TH2, TW2, VN2}

// Parse validates s (case-insensitive, surrounding space ignored).
func Parse(s string) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := regions[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
	}
	return r, nil
}

// All returns every supported region in display order.
func All() []Region {
	out := make([]Region, len(order))
	copy(out, order)
	return out
}

// Valid reports whether r is in the supported set.
func (r Region) Valid() bool {
	_, ok := regions[r]
	return ok
}

// Label returns a human-readable name.
func (r Region) Label() string {
	return regions[r].label
}

// Routing returns the regional routing value used by account and match APIs.
func (r Region) Routing() string {
	if i, ok := regions[r]; ok {
		return i.routing
	}
	return RoutingAmericas
}

// Platform returns the platform host prefix used by the spectator API.
func (r Region) Platform() string {
	return strings.ToLower(string(r))
}

func (r Region) String() string { return string(r) }
