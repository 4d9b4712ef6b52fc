// Package service runs the two-stage snipe search: resolve the live lobby
// of a player, then cross-reference it against their match history.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sniped/internal/adapters/riot"
	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/domain/region"
	"github.com/okian/sniped/internal/domain/riotid"
	"github.com/okian/sniped/internal/domain/roster"
	"github.com/okian/sniped/internal/domain/snipe"
	"github.com/okian/sniped/pkg/logger"
	"github.com/okian/sniped/pkg/metrics"
)

// Self fallback policies applied when the searched player is not found in
// their own lobby.
const (
	SelfFallbackProceed = "proceed"
	SelfFallbackFail    = "fail"
)

const defaultSearchTimeout = 2 * time.Minute

// Lookup outcomes reported to metrics.
const (
	outcomeInGame    = "in_game"
	outcomeNotInGame = "not_in_game"
	outcomeInvalid   = "invalid_input"
	outcomeNotFound  = "player_not_found"
	outcomeFailed    = "failed"
	outcomeOK        = "ok"
)

// GameLocator resolves accounts and their live games.
type GameLocator interface {
	AccountByRiotID(ctx context.Context, id riotid.ID, r region.Region) (string, error)
	// ActiveGame reports ok == false when the player is not in a game.
	ActiveGame(ctx context.Context, playerID string, r region.Region) (roster.RawGame, bool, error)
}

// HistoryProvider returns the most recent matches of a player, newest first.
type HistoryProvider interface {
	MatchHistory(ctx context.Context, playerID string, r region.Region, count int) ([]model.Match, error)
}

// GameStatus is the outcome of CheckInGame. InGame == false is the normal
// "not in game" result and carries no lobby.
type GameStatus struct {
	InGame       bool
	Lobby        model.LobbySnapshot
	Self         model.PlayerIdentity
	SelfMatch    roster.SelfMatch
	PlayerID     string // id used for the analysis stage
	SelfResolved bool
}

// Opponents returns the lobby without the searching player.
func (g GameStatus) Opponents() []model.PlayerIdentity {
	return g.Lobby.Without(g.PlayerID)
}

// SearchResult is the outcome of a full pipeline run.
type SearchResult struct {
	SearchID string
	Region   region.Region
	Game     GameStatus
	Snipes   []model.SnipeRecord
}

// Service implements the search pipeline used by the HTTP, WebSocket and CLI
// front ends.
type Service struct {
	locator   GameLocator
	history   HistoryProvider
	resolver  *roster.Resolver
	analyzer  *snipe.Analyzer
	champions model.ChampionLookup

	historyLimit  int
	selfFallback  string
	searchTimeout time.Duration

	mu        sync.RWMutex
	startedAt time.Time
	lastError string

	searches  atomic.Int64
	lookups   atomic.Int64
	analyses  atomic.Int64
	snipes    atomic.Int64
	failures  atomic.Int64
	notInGame atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGameLocator sets the provider used by the lookup stage.
func WithGameLocator(l GameLocator) Option {
	return func(s *Service) {
		s.locator = l
	}
}

// WithHistoryProvider sets the provider used by the analysis stage.
func WithHistoryProvider(h HistoryProvider) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithRiotClient uses c for both stages.
func WithRiotClient(c *riot.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.locator = c
			s.history = c
		}
	}
}

// WithHistoryLimit bounds the number of recent matches analyzed.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= snipe.DefaultHistoryLimit {
			s.historyLimit = n
		}
	}
}

// WithSelfFallback sets the policy used when self-identification fails.
func WithSelfFallback(policy string) Option {
	return func(s *Service) {
		switch policy {
		case SelfFallbackProceed, SelfFallbackFail:
			s.selfFallback = policy
		}
	}
}

// WithFuzzyMaxDistance bounds the fuzzy name match used to find the
// searching player. Zero disables fuzzy matching.
func WithFuzzyMaxDistance(d int) Option {
	return func(s *Service) {
		s.resolver = roster.NewResolver(roster.WithMaxDistance(d))
	}
}

// WithSearchTimeout bounds each pipeline stage.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.searchTimeout = d
		}
	}
}

// WithChampions sets the champion name lookup exposed to front ends.
func WithChampions(c model.ChampionLookup) Option {
	return func(s *Service) {
		s.champions = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Both a GameLocator and a HistoryProvider are
// required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		resolver:      roster.NewResolver(),
		historyLimit:  snipe.DefaultHistoryLimit,
		selfFallback:  SelfFallbackProceed,
		searchTimeout: defaultSearchTimeout,
		startedAt:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locator == nil {
		return nil, ErrMissingLocator
	}
	if s.history == nil {
		return nil, ErrMissingHistory
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("search")
	}
	s.analyzer = snipe.NewAnalyzer(snipe.WithHistoryLimit(s.historyLimit))
	return s, nil
}

// CheckInGame resolves name#tag in region and returns the live lobby.
// A player that is not in a game yields InGame == false and no error.
func (s *Service) CheckInGame(ctx context.Context, name, tag, regionName string) (GameStatus, error) {
	const op = "check_in_game"
	start := time.Now()
	s.lookups.Add(1)

	status, outcome, err := s.checkInGame(ctx, op, name, tag, regionName)
	metrics.RecordLookup(outcome, float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.fail(ctx, op, err)
		return GameStatus{}, err
	}
	return status, nil
}

func (s *Service) checkInGame(ctx context.Context, op, name, tag, regionName string) (GameStatus, string, error) {
	id, err := riotid.New(name, tag)
	if err != nil {
		return GameStatus{}, outcomeInvalid, WrapKind(op, ErrInvalidInput, err)
	}
	r, err := region.Parse(regionName)
	if err != nil {
		return GameStatus{}, outcomeInvalid, WrapKind(op, ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	playerID, err := s.locator.AccountByRiotID(ctx, id, r)
	if err != nil {
		if errors.Is(err, riot.ErrNotFound) {
			return GameStatus{}, outcomeNotFound, WrapKind(op, ErrPlayerNotFound, err)
		}
		return GameStatus{}, outcomeFailed, WrapKind(op, ErrLookupFailed, err)
	}

	raw, ok, err := s.locator.ActiveGame(ctx, playerID, r)
	if err != nil {
		return GameStatus{}, outcomeFailed, WrapKind(op, ErrLookupFailed, err)
	}
	if !ok {
		s.notInGame.Add(1)
		s.logger.Info(ctx, "player not in game",
			logger.String("riot_id", id.String()),
			logger.String("region", r.String()))
		return GameStatus{InGame: false, PlayerID: playerID}, outcomeNotInGame, nil
	}

	lobby, err := roster.Build(raw)
	if err != nil {
		return GameStatus{}, outcomeFailed, WrapKind(op, ErrLookupFailed, err)
	}

	match := s.resolver.IdentifySelf(lobby, id, playerID)
	metrics.RecordSelfIdentification(string(match.Method))

	status := GameStatus{
		InGame:    true,
		Lobby:     lobby,
		SelfMatch: match,
		PlayerID:  playerID,
	}
	// A fuzzy hit may be another player. It never replaces the account id.
	if !match.Found() || match.Method == roster.MatchFuzzyName {
		if s.selfFallback == SelfFallbackFail {
			return GameStatus{}, outcomeFailed, NewKind(op, ErrSelfNotIdentified)
		}
		s.logger.Warn(ctx, "searched player not identified in lobby, using account id",
			logger.String("riot_id", id.String()),
			logger.Int64("game_id", lobby.GameID),
			logger.String("method", string(match.Method)),
			logger.String("closest", match.Player.Name))
		return status, outcomeInGame, nil
	}

	status.Self = match.Player
	status.PlayerID = match.Player.PlayerID
	status.SelfResolved = true
	if match.Method == roster.MatchExactName {
		s.logger.Debug(ctx, "searched player identified by name",
			logger.String("method", string(match.Method)))
	}
	return status, outcomeInGame, nil
}

// AnalyzeSnipes fetches the match history of userID and returns the lobby
// members found in it, in roster order. The call is all-or-nothing.
func (s *Service) AnalyzeSnipes(ctx context.Context, userID string, participants []model.PlayerIdentity, regionName string) ([]model.SnipeRecord, error) {
	const op = "analyze_snipes"
	start := time.Now()
	s.analyses.Add(1)

	records, err := s.analyzeSnipes(ctx, op, userID, participants, regionName)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		outcome := outcomeFailed
		if errors.Is(err, ErrInvalidInput) {
			outcome = outcomeInvalid
		}
		metrics.RecordAnalysis(outcome, latency)
		s.fail(ctx, op, err)
		return nil, err
	}
	metrics.RecordAnalysis(outcomeOK, latency)
	metrics.RecordSnipesFound(len(records))
	s.snipes.Add(int64(len(records)))
	return records, nil
}

func (s *Service) analyzeSnipes(ctx context.Context, op, userID string, participants []model.PlayerIdentity, regionName string) ([]model.SnipeRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, WrapKind(op, ErrInvalidInput, snipe.ErrMissingSelf)
	}
	r, err := region.Parse(regionName)
	if err != nil {
		return nil, WrapKind(op, ErrInvalidInput, err)
	}
	if len(participants) == 0 {
		return []model.SnipeRecord{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	history, err := s.history.MatchHistory(ctx, userID, r, s.analyzer.HistoryLimit())
	if err != nil {
		return nil, WrapKind(op, ErrAnalysisFailed, err)
	}
	records, err := s.analyzer.Analyze(ctx, userID, participants, history)
	if err != nil {
		return nil, WrapKind(op, ErrAnalysisFailed, err)
	}

	s.logger.Debug(ctx, "analysis finished",
		logger.Int("matches", len(history)),
		logger.Int("participants", len(participants)),
		logger.Int("snipes", len(records)))
	return records, nil
}

// Search runs both stages for name#tag. The analysis stage is skipped when
// the player is not in a game.
func (s *Service) Search(ctx context.Context, name, tag, regionName string) (SearchResult, error) {
	s.searches.Add(1)
	res := SearchResult{SearchID: uuid.NewString()}

	game, err := s.CheckInGame(ctx, name, tag, regionName)
	if err != nil {
		return res, err
	}
	res.Game = game
	res.Region, _ = region.Parse(regionName)
	if !game.InGame {
		return res, nil
	}

	snipes, err := s.AnalyzeSnipes(ctx, game.PlayerID, game.Opponents(), regionName)
	if err != nil {
		return res, err
	}
	res.Snipes = snipes

	s.logger.Info(ctx, "search finished",
		logger.String("search_id", res.SearchID),
		logger.Int64("game_id", game.Lobby.GameID),
		logger.Bool("self_resolved", game.SelfResolved),
		logger.Int("snipes", len(snipes)))
	return res, nil
}

// ChampionName resolves a champion id through the configured lookup.
func (s *Service) ChampionName(id int) (string, bool) {
	if s.champions == nil {
		return "", false
	}
	return s.champions.ChampionName(id)
}

// HistoryLimit returns the analysis window.
func (s *Service) HistoryLimit() int { return s.historyLimit }

func (s *Service) fail(ctx context.Context, op string, err error) {
	s.failures.Add(1)
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()

	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrPlayerNotFound) {
		s.logger.Debug(ctx, "request rejected", logger.String("op", op), logger.Error(err))
		return
	}
	s.logger.Error(ctx, "search stage failed", logger.String("op", op), logger.Error(err))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
		"historyLimit":  s.historyLimit,
		"selfFallback":  s.selfFallback,
		"searches":      s.searches.Load(),
		"lookups":       s.lookups.Load(),
		"notInGame":     s.notInGame.Load(),
		"analyses":      s.analyses.Load(),
		"snipesFound":   s.snipes.Load(),
		"failures":      s.failures.Load(),
	}
	if s.lastError != "" {
		stats["lastError"] = s.lastError
	}
	return stats
}
