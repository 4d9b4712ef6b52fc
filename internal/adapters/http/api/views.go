package api

import (
	"time"

	service "github.com/okian/sniped/internal/app"
	"github.com/okian/sniped/internal/domain/model"
)

// PlayerView is a lobby member as rendered to clients.
type PlayerView struct {
	SummonerName string `json:"summonerName"`
	TagLine      string `json:"tagLine"`
	PUUID        string `json:"puuid"`
	ChampionID   int    `json:"championId"`
	ChampionName string `json:"championName,omitempty"`
	TeamID       int    `json:"teamId"`
}

// GameView is the response of POST /api/check-game. Times are Unix
// milliseconds.
type GameView struct {
	InGame        bool         `json:"inGame"`
	GameID        int64        `json:"gameId,omitempty"`
	GameMode      string       `json:"gameMode,omitempty"`
	GameStartTime int64        `json:"gameStartTime,omitempty"`
	Participants  []PlayerView `json:"participants,omitempty"`
	UserPUUID     string       `json:"userPuuid,omitempty"`
	Self          *PlayerView  `json:"self,omitempty"`
	SelfResolved  bool         `json:"selfResolved"`
	SelfMatch     string       `json:"selfMatch,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// MatchView is one shared match of a snipe record.
type MatchView struct {
	MatchID         string `json:"matchId"`
	Timestamp       int64  `json:"timestamp"`
	Win             bool   `json:"win"`
	Team            string `json:"team"`
	PlayerChampID   int    `json:"playerChampId"`
	PlayerChampName string `json:"playerChampName,omitempty"`
	TargetChampID   int    `json:"targetChampId"`
	TargetChampName string `json:"targetChampName,omitempty"`
}

// SnipeView is a lobby member found in the user's history.
type SnipeView struct {
	PlayerView
	TotalGames int         `json:"totalGames"`
	Wins       int         `json:"wins"`
	Losses     int         `json:"losses"`
	WinRate    int         `json:"winRate"`
	LastPlayed int64       `json:"lastPlayed,omitempty"`
	Matches    []MatchView `json:"matches"`
}

// SearchView is the response of POST /api/search.
type SearchView struct {
	SearchID string      `json:"searchId"`
	Region   string      `json:"region"`
	Status   string      `json:"status"`
	Game     GameView    `json:"game"`
	Snipes   []SnipeView `json:"snipes"`
}

const notInGameMessage = "Player not in a live game"

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func championName(champs model.ChampionLookup, id int) string {
	if champs == nil {
		return ""
	}
	name, _ := champs.ChampionName(id)
	return name
}

// NewPlayerView renders p, resolving its champion through champs when set.
func NewPlayerView(p model.PlayerIdentity, champs model.ChampionLookup) PlayerView {
	return PlayerView{
		SummonerName: p.Name,
		TagLine:      p.Tag,
		PUUID:        p.PlayerID,
		ChampionID:   p.ChampionID,
		ChampionName: championName(champs, p.ChampionID),
		TeamID:       int(p.Team),
	}
}

// NewLobbyView renders a lobby snapshot.
func NewLobbyView(l model.LobbySnapshot, champs model.ChampionLookup) GameView {
	v := GameView{
		InGame:        true,
		GameID:        l.GameID,
		GameMode:      l.GameMode,
		GameStartTime: millis(l.StartTime),
		Participants:  make([]PlayerView, 0, len(l.Participants)),
	}
	for _, p := range l.Participants {
		v.Participants = append(v.Participants, NewPlayerView(p, champs))
	}
	return v
}

// NewGameView renders the outcome of a lobby lookup.
func NewGameView(g service.GameStatus, champs model.ChampionLookup) GameView {
	if !g.InGame {
		return GameView{InGame: false, UserPUUID: g.PlayerID, Error: notInGameMessage}
	}
	v := NewLobbyView(g.Lobby, champs)
	v.UserPUUID = g.PlayerID
	v.SelfResolved = g.SelfResolved
	v.SelfMatch = string(g.SelfMatch.Method)
	if g.SelfResolved {
		self := NewPlayerView(g.Self, champs)
		v.Self = &self
	}
	return v
}

// NewSnipeViews renders snipe records, preserving their order.
func NewSnipeViews(records []model.SnipeRecord, champs model.ChampionLookup) []SnipeView {
	out := make([]SnipeView, 0, len(records))
	for _, r := range records {
		v := SnipeView{
			PlayerView: NewPlayerView(r.PlayerIdentity, champs),
			TotalGames: r.TotalGames,
			Wins:       r.Wins,
			Losses:     r.Losses,
			WinRate:    r.WinRate(),
			Matches:    make([]MatchView, 0, len(r.Matches)),
		}
		if last, ok := r.LastPlayed(); ok {
			v.LastPlayed = millis(last)
		}
		for _, m := range r.Matches {
			v.Matches = append(v.Matches, MatchView{
				MatchID:         m.MatchID,
				Timestamp:       millis(m.Timestamp),
				Win:             m.Win,
				Team:            string(m.Relation),
				PlayerChampID:   m.PlayerChampionID,
				PlayerChampName: championName(champs, m.PlayerChampionID),
				TargetChampID:   m.TargetChampionID,
				TargetChampName: championName(champs, m.TargetChampionID),
			})
		}
		out = append(out, v)
	}
	return out
}

// NewSearchView renders a full pipeline result.
func NewSearchView(res service.SearchResult, champs model.ChampionLookup) SearchView {
	status := "done"
	if !res.Game.InGame {
		status = "not_in_game"
	}
	return SearchView{
		SearchID: res.SearchID,
		Region:   res.Region.String(),
		Status:   status,
		Game:     NewGameView(res.Game, champs),
		Snipes:   NewSnipeViews(res.Snipes, champs),
	}
}
