// Package model contains domain models passed between layers.
package model

import "time"

// Team identifies the side a participant plays on.
type Team int

// Team values as reported by the game-data provider.
const (
	TeamBlue Team = 100
	TeamRed  Team = 200
)

// String returns a short lowercase label for the team.
func (t Team) String() string {
	switch t {
	case TeamBlue:
		return "blue"
	case TeamRed:
		return "red"
	default:
		return "unknown"
	}
}

// PlayerIdentity is one participant of a live lobby.
type PlayerIdentity struct {
	Name       string `json:"summonerName"` // display name, may change
	Tag        string `json:"tagLine"`      // discriminator, may change
	PlayerID   string `json:"puuid"`        // stable id, unique within a lobby
	ChampionID int    `json:"championId"`   // champion selected for this game
	Team       Team   `json:"teamId"`
}

// RiotID renders the identity as name#tag.
func (p PlayerIdentity) RiotID() string {
	if p.Tag == "" {
		return p.Name
	}
	return p.Name + "#" + p.Tag
}

// LobbySnapshot is a live game session as resolved for a single search.
// It must be treated as immutable once built.
type LobbySnapshot struct {
	GameID       int64            `json:"gameId"`
	GameMode     string           `json:"gameMode"`
	StartTime    time.Time        `json:"gameStartTime"`
	Participants []PlayerIdentity `json:"participants"`
}

// Find returns the participant with the given player id.
func (l LobbySnapshot) Find(playerID string) (PlayerIdentity, bool) {
	for _, p := range l.Participants {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return PlayerIdentity{}, false
}

// Without returns a copy of the roster excluding playerID, preserving order.
func (l LobbySnapshot) Without(playerID string) []PlayerIdentity {
	out := make([]PlayerIdentity, 0, len(l.Participants))
	for _, p := range l.Participants {
		if p.PlayerID == playerID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Team returns the participants of one side, preserving roster order.
func (l LobbySnapshot) Team(t Team) []PlayerIdentity {
	var out []PlayerIdentity
	for _, p := range l.Participants {
		if p.Team == t {
			out = append(out, p)
		}
	}
	return out
}
