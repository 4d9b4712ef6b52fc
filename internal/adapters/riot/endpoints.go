package riot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/domain/region"
	"github.com/okian/sniped/internal/domain/riotid"
	"github.com/okian/sniped/internal/domain/roster"
	"github.com/okian/sniped/pkg/logger"
	"github.com/okian/sniped/pkg/metrics"
)

// maxMatchIDs is the largest page served by match-v5 by-puuid.
const maxMatchIDs = 100

// Endpoint labels used in metrics and errors.
const (
	endpointAccount  = "account"
	endpointActive   = "spectator"
	endpointMatchIDs = "match_ids"
	endpointMatch    = "match"
	endpointStatus   = "status"
)

// Account resolves a Riot ID to an account. Account-v1 uses regional routing.
func (c *Client) Account(ctx context.Context, id riotid.ID, r region.Region) (AccountResponse, error) {
	key := "account:" + strings.ToLower(id.String()) + "#" + string(r)
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.host(r.Routing()), url.PathEscape(id.Name), url.PathEscape(id.Tag))

	var acc AccountResponse
	if err := c.getCached(ctx, key, c.accountTTL, endpointAccount, u, &acc); err != nil {
		return AccountResponse{}, err
	}
	if acc.PUUID == "" {
		return AccountResponse{}, fmt.Errorf("%w: account without puuid", ErrMalformed)
	}
	return acc, nil
}

// AccountByRiotID returns the stable player id for a Riot ID.
func (c *Client) AccountByRiotID(ctx context.Context, id riotid.ID, r region.Region) (string, error) {
	acc, err := c.Account(ctx, id, r)
	if err != nil {
		return "", err
	}
	return acc.PUUID, nil
}

// ActiveGame returns the live game of puuid. A 404 from spectator-v5 means
// the player is not in a game and is reported as ok == false.
// Spectator-v5 uses platform routing.
func (c *Client) ActiveGame(ctx context.Context, puuid string, r region.Region) (roster.RawGame, bool, error) {
	u := fmt.Sprintf("%s/lol/spectator/v5/active-games/by-summoner/%s", c.host(r.Platform()), url.PathEscape(puuid))

	var g ActiveGameResponse
	if err := c.getCached(ctx, "", 0, endpointActive, u, &g); err != nil {
		if errors.Is(err, ErrNotFound) {
			return roster.RawGame{}, false, nil
		}
		return roster.RawGame{}, false, err
	}
	return g.toRawGame(), true, nil
}

func (g ActiveGameResponse) toRawGame() roster.RawGame {
	raw := roster.RawGame{
		GameID:       g.GameID,
		GameMode:     g.GameMode,
		GameType:     g.GameType,
		Participants: make([]roster.RawParticipant, 0, len(g.Participants)),
	}
	if g.GameStartTime > 0 {
		raw.StartTime = time.UnixMilli(g.GameStartTime).UTC()
	}
	for _, p := range g.Participants {
		raw.Participants = append(raw.Participants, roster.RawParticipant{
			RiotID:       p.RiotID,
			SummonerName: p.SummonerName,
			TagLine:      p.RiotIDTagline,
			PlayerID:     p.PUUID,
			ChampionID:   p.ChampionID,
			TeamID:       p.TeamID,
		})
	}
	return raw
}

// MatchIDs lists the most recent match ids of puuid, newest first.
// count is clamped to 1..100.
func (c *Client) MatchIDs(ctx context.Context, puuid string, r region.Region, count int) ([]string, error) {
	if count < 1 {
		count = 1
	}
	if count > maxMatchIDs {
		count = maxMatchIDs
	}
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d",
		c.host(r.Routing()), url.PathEscape(puuid), count)

	var ids []string
	if err := c.getCached(ctx, "", 0, endpointMatchIDs, u, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Match fetches one match. Finished matches never change and are cached.
func (c *Client) Match(ctx context.Context, matchID string, r region.Region) (model.Match, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.host(r.Routing()), url.PathEscape(matchID))

	var m MatchResponse
	if err := c.getCached(ctx, "match:"+matchID, c.matchTTL, endpointMatch, u, &m); err != nil {
		return model.Match{}, err
	}
	return m.toModel(matchID), nil
}

func (m MatchResponse) toModel(requestedID string) model.Match {
	id := m.Metadata.MatchID
	if id == "" {
		id = requestedID
	}
	out := model.Match{
		MatchID:      id,
		CreatedAt:    time.UnixMilli(m.Info.GameCreation).UTC(),
		QueueID:      m.Info.QueueID,
		Participants: make([]model.MatchParticipant, 0, len(m.Info.Participants)),
	}
	for _, p := range m.Info.Participants {
		out.Participants = append(out.Participants, model.MatchParticipant{
			PlayerID:   p.PUUID,
			Team:       model.Team(p.TeamID),
			ChampionID: p.ChampionID,
			Win:        p.Win,
		})
	}
	return out
}

// MatchHistory fetches up to count recent matches of puuid with bounded
// concurrency. Matches that vanished (404) are skipped; any other failure
// fails the whole call. Results keep the provider's newest-first order.
func (c *Client) MatchHistory(ctx context.Context, puuid string, r region.Region, count int) ([]model.Match, error) {
	ids, err := c.MatchIDs(ctx, puuid, r, count)
	if err != nil {
		return nil, err
	}

	type result struct {
		match model.Match
		ok    bool
	}
	results := make([]result, len(ids))

	err = c.pool.Run(ctx, len(ids), func(ctx context.Context, i int) error {
		m, err := c.Match(ctx, ids[i], r)
		switch {
		case err == nil:
			results[i] = result{match: m, ok: true}
		case errors.Is(err, ErrNotFound):
			c.log.Debug(ctx, "match vanished", logger.String("match_id", ids[i]))
		default:
			return err
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil, err
	}

	out := make([]model.Match, 0, len(ids))
	for _, res := range results {
		if res.ok {
			out = append(out, res.match)
		}
	}
	metrics.RecordMatchesAnalyzed(len(out))
	return out, nil
}

// ValidateKey checks the configured key against the status endpoint of r.
// It returns (false, nil) when the key is rejected.
func (c *Client) ValidateKey(ctx context.Context, r region.Region) (bool, error) {
	u := c.host(r.Platform()) + "/lol/status/v4/platform-data"
	_, err := c.get(ctx, endpointStatus, u)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUnauthorized):
		return false, nil
	default:
		return false, err
	}
}
