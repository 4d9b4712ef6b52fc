// Package snipe cross-references a live lobby with the searching player's
// match history.
package snipe

import (
	"context"
	"sort"

	"github.com/okian/sniped/internal/domain/model"
)

// DefaultHistoryLimit is the number of recent matches considered by default.
const DefaultHistoryLimit = 100

// Analyzer finds lobby members that appear in a player's recent matches.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	historyLimit int
}

// NewAnalyzer creates an Analyzer with configuration options.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{historyLimit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HistoryLimit returns the configured history window.
func (a *Analyzer) HistoryLimit() int { return a.historyLimit }

// Analyze returns one SnipeRecord per lobby member that shared at least one
// of selfID's recent matches. Records follow lobby order; entries within a
// record are most recent first. Matching uses player ids only.
//
// selfID is never reported even if it is present in lobby. Matches that do
// not include selfID are ignored. An empty history yields an empty result.
func (a *Analyzer) Analyze(ctx context.Context, selfID string, lobby []model.PlayerIdentity, history []model.Match) ([]model.SnipeRecord, error) {
	if selfID == "" {
		return nil, ErrMissingSelf
	}

	// lobby member id -> position in lobby order
	candidates := make(map[string]int, len(lobby))
	members := make([]model.PlayerIdentity, 0, len(lobby))
	for _, p := range lobby {
		if p.PlayerID == "" || p.PlayerID == selfID {
			continue
		}
		if _, dup := candidates[p.PlayerID]; dup {
			continue
		}
		candidates[p.PlayerID] = len(members)
		members = append(members, p)
	}

	entries := make([][]model.HistoryEntry, len(members))
	for _, m := range a.window(history) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		self, ok := m.Participant(selfID)
		if !ok {
			continue
		}
		counted := make(map[int]struct{})
		for _, p := range m.Participants {
			idx, ok := candidates[p.PlayerID]
			if !ok {
				continue
			}
			if _, dup := counted[idx]; dup {
				continue
			}
			counted[idx] = struct{}{}

			rel := model.RelationOpponent
			if p.Team == self.Team {
				rel = model.RelationTeammate
			}
			entries[idx] = append(entries[idx], model.HistoryEntry{
				MatchID:          m.MatchID,
				Timestamp:        m.CreatedAt,
				Win:              self.Win,
				Relation:         rel,
				PlayerChampionID: self.ChampionID,
				TargetChampionID: p.ChampionID,
			})
		}
	}

	out := make([]model.SnipeRecord, 0)
	for i, member := range members {
		if len(entries[i]) == 0 {
			continue
		}
		rec := model.SnipeRecord{
			PlayerIdentity: member,
			Matches:        entries[i],
			TotalGames:     len(entries[i]),
		}
		for _, e := range entries[i] {
			if e.Win {
				rec.Wins++
			}
		}
		rec.Losses = rec.TotalGames - rec.Wins
		out = append(out, rec)
	}
	return out, nil
}

// window orders a copy of history most recent first, drops repeated match
// ids and truncates it to the configured limit. Ties on time are broken by
// match id, descending.
func (a *Analyzer) window(history []model.Match) []model.Match {
	sorted := make([]model.Match, 0, len(history))
	seen := make(map[string]struct{}, len(history))
	for _, m := range history {
		if _, dup := seen[m.MatchID]; dup {
			continue
		}
		seen[m.MatchID] = struct{}{}
		sorted = append(sorted, m)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].MatchID > sorted[j].MatchID
	})
	if len(sorted) > a.historyLimit {
		sorted = sorted[:a.historyLimit]
	}
	return sorted
}
