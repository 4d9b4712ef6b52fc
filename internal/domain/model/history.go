package model

import "time"

// Relation classifies another player relative to the searching player in a match.
type Relation string

// Relation values.
const (
	RelationTeammate Relation = "with"
	RelationOpponent Relation = "against"
)

// Match is one past game from the searching player's history.
type Match struct {
	MatchID      string
	CreatedAt    time.Time
	QueueID      int
	Participants []MatchParticipant
}

// Participant returns the participant with the given player id.
func (m Match) Participant(playerID string) (MatchParticipant, bool) {
	for _, p := range m.Participants {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return MatchParticipant{}, false
}

// MatchParticipant is a single player inside a past match.
type MatchParticipant struct {
	PlayerID   string
	Team       Team
	ChampionID int
	Win        bool
}

// HistoryEntry is one past match shared between the searching player and
// another player.
type HistoryEntry struct {
	MatchID          string    `json:"matchId"`
	Timestamp        time.Time `json:"timestamp"`
	Win              bool      `json:"win"`           // outcome for the searching player
	Relation         Relation  `json:"team"`          // teammate or opponent
	PlayerChampionID int       `json:"playerChampId"` // searching player's champion
	TargetChampionID int       `json:"targetChampId"` // other player's champion
}

// SnipeRecord aggregates every shared match with one lobby member.
// Invariant: Wins+Losses == TotalGames == len(Matches).
type SnipeRecord struct {
	PlayerIdentity
	Matches    []HistoryEntry `json:"matches"`
	TotalGames int            `json:"totalGames"`
	Wins       int            `json:"wins"`
	Losses     int            `json:"losses"`
}

// WinRate returns wins over total games as a percentage in [0, 100].
func (r SnipeRecord) WinRate() int {
	if r.TotalGames == 0 {
		return 0
	}
	return r.Wins * 100 / r.TotalGames
}

// LastPlayed returns the timestamp of the most recent shared match.
func (r SnipeRecord) LastPlayed() (time.Time, bool) {
	if len(r.Matches) == 0 {
		return time.Time{}, false
	}
	return r.Matches[0].Timestamp, true
}

// ChampionLookup resolves champion ids to display names.
type ChampionLookup interface {
	ChampionName(id int) (string, bool)
}
