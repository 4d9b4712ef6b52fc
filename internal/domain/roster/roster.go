// Package roster normalizes live-game responses into lobby snapshots and
// locates the searching player inside them.
package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/sniped/internal/domain/model"
)

// Fallbacks applied when the provider omits identity fields.
const (
	unknownName = "Unknown"
	customGame  = "CUSTOM_GAME"
)

// expectedParticipants maps matchmade game modes to their lobby size.
var expectedParticipants = map[string]int{
	"CLASSIC":    10,
	"ARAM":       10,
	"URF":        10,
	"ARURF":      10,
	"ONEFORALL":  10,
	"NEXUSBLITZ": 10,
	"ULTBOOK":    10,
	"CHERRY":     16,
}

// ExpectedParticipants returns the lobby size for a matchmade game mode.
func ExpectedParticipants(mode string) (int, bool) {
	n, ok := expectedParticipants[strings.ToUpper(mode)]
	return n, ok
}

// RawParticipant is a participant as reported by the live-game provider.
type RawParticipant struct {
	RiotID       string // "name#tag" when available
	SummonerName string
	TagLine      string
	PlayerID     string
	ChampionID   int
	TeamID       int
}

// RawGame is a live game as reported by the provider.
type RawGame struct {
	GameID       int64
	GameMode     string
	GameType     string
	StartTime    time.Time
	Participants []RawParticipant
}

// Build validates a raw game and converts it into a LobbySnapshot.
// Participant order is preserved.
func Build(g RawGame) (model.LobbySnapshot, error) {
	if len(g.Participants) == 0 {
		return model.LobbySnapshot{}, ErrEmptyRoster
	}
	if want, ok := ExpectedParticipants(g.GameMode); ok && g.GameType != customGame && len(g.Participants) != want {
		return model.LobbySnapshot{}, fmt.Errorf("%w: mode %s expects %d participants, got %d",
			ErrMalformedRoster, g.GameMode, want, len(g.Participants))
	}

	seen := make(map[string]struct{}, len(g.Participants))
	players := make([]model.PlayerIdentity, 0, len(g.Participants))
	for i, rp := range g.Participants {
		id := strings.TrimSpace(rp.PlayerID)
		if id == "" {
			return model.LobbySnapshot{}, fmt.Errorf("%w: participant %d has no player id", ErrMalformedRoster, i)
		}
		if _, dup := seen[id]; dup {
			return model.LobbySnapshot{}, fmt.Errorf("%w: duplicate player id %s", ErrMalformedRoster, id)
		}
		seen[id] = struct{}{}

		name, tag := splitRiotID(rp)
		players = append(players, model.PlayerIdentity{
			Name:       name,
			Tag:        tag,
			PlayerID:   id,
			ChampionID: rp.ChampionID,
			Team:       model.Team(rp.TeamID),
		})
	}

	mode := g.GameMode
	if mode == "" {
		mode = "CLASSIC"
	}
	return model.LobbySnapshot{
		GameID:       g.GameID,
		GameMode:     mode,
		StartTime:    g.StartTime,
		Participants: players,
	}, nil
}

// splitRiotID prefers the combined riot id, split on its last '#'.
func splitRiotID(rp RawParticipant) (string, string) {
	if i := strings.LastIndex(rp.RiotID, "#"); i > 0 {
		return rp.RiotID[:i], rp.RiotID[i+1:]
	}
	name := rp.SummonerName
	if name == "" {
		name = rp.RiotID
	}
	if name == "" {
		name = unknownName
	}
	return name, rp.TagLine
}
