package roster

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/domain/riotid"
)

const defaultMaxDistance = 2

// MatchMethod records how the searching player was located in a lobby.
type MatchMethod string

// Match methods, strongest first.
const (
	MatchPlayerID  MatchMethod = "player_id"
	MatchExactName MatchMethod = "exact_name"
	MatchFuzzyName MatchMethod = "fuzzy_name"
	MatchNone      MatchMethod = "none"
)

// SelfMatch is the outcome of self-identification. When Method is MatchNone
// Player is the zero value and callers must apply their fallback policy.
type SelfMatch struct {
	Player   model.PlayerIdentity
	Method   MatchMethod
	Distance int // edit distance for fuzzy matches
}

// Found reports whether a participant was selected.
func (m SelfMatch) Found() bool { return m.Method != MatchNone }

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithMaxDistance bounds the edit distance accepted by the fuzzy fallback.
// Zero disables fuzzy matching.
func WithMaxDistance(d int) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.maxDistance = d
		}
	}
}

// Resolver locates the searching player within a lobby.
type Resolver struct {
	maxDistance int
}

// NewResolver creates a Resolver with configuration options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{maxDistance: defaultMaxDistance}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IdentifySelf finds the participant that corresponds to id.
//
// accountID is the provider's stable id for the searched account, if known.
// Lookup order: account id, case-insensitive name (tag breaks ties),
// closest name within the configured edit distance.
func (r *Resolver) IdentifySelf(lobby model.LobbySnapshot, id riotid.ID, accountID string) SelfMatch {
	if accountID != "" {
		if p, ok := lobby.Find(accountID); ok {
			return SelfMatch{Player: p, Method: MatchPlayerID}
		}
	}

	var byName []model.PlayerIdentity
	for _, p := range lobby.Participants {
		if strings.EqualFold(p.Name, id.Name) {
			byName = append(byName, p)
		}
	}
	if len(byName) > 0 {
		for _, p := range byName {
			if strings.EqualFold(p.Tag, id.Tag) {
				return SelfMatch{Player: p, Method: MatchExactName}
			}
		}
		return SelfMatch{Player: byName[0], Method: MatchExactName}
	}

	if r.maxDistance == 0 {
		return SelfMatch{Method: MatchNone}
	}

	target := strings.ToLower(id.Name)
	best, bestDist := -1, r.maxDistance+1
	for i, p := range lobby.Participants {
		d := fuzzy.LevenshteinDistance(target, strings.ToLower(p.Name))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return SelfMatch{Method: MatchNone}
	}
	return SelfMatch{Player: lobby.Participants[best], Method: MatchFuzzyName, Distance: bestDist}
}
