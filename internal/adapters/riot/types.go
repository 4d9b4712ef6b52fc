package riot

// AccountResponse is returned by account-v1 by-riot-id.
type AccountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// ActiveGameResponse is returned by spectator-v5 active-games.
type ActiveGameResponse struct {
	GameID        int64                   `json:"gameId"`
	GameMode      string                  `json:"gameMode"`
	GameType      string                  `json:"gameType"`
	GameStartTime int64                   `json:"gameStartTime"` // epoch millis
	Participants  []ActiveGameParticipant `json:"participants"`
}

// ActiveGameParticipant is one player of a live game.
type ActiveGameParticipant struct {
	PUUID         string `json:"puuid"`
	RiotID        string `json:"riotId"`
	SummonerName  string `json:"summonerName"`
	RiotIDTagline string `json:"riotIdTagline"`
	TeamID        int    `json:"teamId"`
	ChampionID    int    `json:"championId"`
}

// MatchResponse is returned by match-v5 matches/{matchId}.
type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

// MatchMetadata carries the match id and participant ids.
type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

// MatchInfo carries the match body.
type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"` // epoch millis
	GameDuration int                `json:"gameDuration"`
	QueueID      int                `json:"queueId"`
	Participants []MatchParticipant `json:"participants"`
}

// MatchParticipant is one player of a finished match.
type MatchParticipant struct {
	PUUID          string `json:"puuid"`
	RiotIDGameName string `json:"riotIdGameName"`
	RiotIDTagline  string `json:"riotIdTagline"`
	TeamID         int    `json:"teamId"`
	ChampionID     int    `json:"championId"`
	ChampionName   string `json:"championName"`
	Win            bool   `json:"win"`
}
