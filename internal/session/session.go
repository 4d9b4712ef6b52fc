// Package session tracks the searches of one client. Each search gets a new
// generation; starting a search cancels the previous one, and only results
// of the current generation are ever committed.
package session

import (
	"context"
	"errors"
	"sync"

	service "github.com/okian/sniped/internal/app"
	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/pkg/logger"
	"github.com/okian/sniped/pkg/metrics"
)

// Status is the lifecycle state of the current search.
type Status string

// Search states.
const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusAnalyzing Status = "analyzing"
	StatusNotInGame Status = "not_in_game"
	StatusDone      Status = "done"
	StatusError     Status = "error"
)

// Terminal reports whether no further updates follow for the generation.
func (s Status) Terminal() bool {
	switch s {
	case StatusNotInGame, StatusDone, StatusError:
		return true
	}
	return false
}

// ErrClosed is returned when searching on a closed session.
var ErrClosed = errors.New("session closed")

// Pipeline is the two-stage search the session drives.
type Pipeline interface {
	CheckInGame(ctx context.Context, name, tag, region string) (service.GameStatus, error)
	AnalyzeSnipes(ctx context.Context, userID string, participants []model.PlayerIdentity, region string) ([]model.SnipeRecord, error)
}

// Query identifies one search.
type Query struct {
	Name   string `json:"gameName"`
	Tag    string `json:"tagLine"`
	Region string `json:"region"`
}

// Snapshot is a copy of the session state for one generation.
type Snapshot struct {
	Generation   uint64                `json:"generation"`
	Status       Status                `json:"status"`
	Query        Query                 `json:"query"`
	Lobby        *model.LobbySnapshot  `json:"lobby,omitempty"`
	Self         *model.PlayerIdentity `json:"self,omitempty"`
	SelfResolved bool                  `json:"selfResolved"`
	Snipes       []model.SnipeRecord   `json:"snipes"`
	Error        string                `json:"error,omitempty"`
	ErrorCode    string                `json:"errorCode,omitempty"`
}

// Session owns the searches of a single client.
type Session struct {
	pipeline Pipeline
	notify   func(Snapshot)
	log      logger.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  Snapshot
	closed bool
	wg     sync.WaitGroup
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithNotify registers fn to receive every committed snapshot, in order.
// fn runs with the session lock held and must not block or call back into
// the session.
func WithNotify(fn func(Snapshot)) Option {
	return func(s *Session) {
		s.notify = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an idle session.
func New(p Pipeline, opts ...Option) *Session {
	s := &Session{
		pipeline: p,
		state:    Snapshot{Status: StatusIdle, Snipes: []model.SnipeRecord{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("session")
	}
	metrics.UpdateActiveSessions(1)
	return s
}

// Start launches a search in the background, superseding any search in
// flight. It returns the generation assigned to the new search.
func (s *Session) Start(ctx context.Context, q Query) (uint64, error) {
	runCtx, gen, err := s.begin(ctx, q)
	if err != nil {
		return 0, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(runCtx, gen, q)
	}()
	return gen, nil
}

// Run performs a search synchronously and returns the snapshot it
// produced. If the search was superseded meanwhile, the returned snapshot
// is the newer generation's state.
func (s *Session) Run(ctx context.Context, q Query) (Snapshot, error) {
	runCtx, gen, err := s.begin(ctx, q)
	if err != nil {
		return Snapshot{}, err
	}
	s.run(runCtx, gen, q)
	return s.Snapshot(), nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the generation of the latest search.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Close cancels the search in flight and waits for it to finish. Results
// produced after Close are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
	metrics.UpdateActiveSessions(-1)
}

// begin resets the state for a new generation and cancels the previous one.
func (s *Session) begin(parent context.Context, q Query) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.gen++
	s.state = Snapshot{
		Generation: s.gen,
		Status:     StatusLoading,
		Query:      q,
		Snipes:     []model.SnipeRecord{},
	}
	s.publish()
	metrics.RecordSearchStarted()
	return ctx, s.gen, nil
}

// commit applies fn to the state if gen is still current.
func (s *Session) commit(gen uint64, fn func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		metrics.RecordStaleResult()
		return false
	}
	fn(&s.state)
	s.publish()
	if s.state.Status.Terminal() {
		metrics.RecordSearchFinished(string(s.state.Status))
	}
	return true
}

func (s *Session) publish() {
	if s.notify != nil {
		snap := s.state
		s.notify(snap)
	}
}

func (s *Session) run(ctx context.Context, gen uint64, q Query) {
	defer func() {
		// release the context of a finished search that was not superseded
		s.mu.Lock()
		if gen == s.gen && s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	game, err := s.pipeline.CheckInGame(ctx, q.Name, q.Tag, q.Region)
	if err != nil {
		s.fail(ctx, gen, err)
		return
	}
	if !game.InGame {
		s.commit(gen, func(st *Snapshot) {
			st.Status = StatusNotInGame
			st.Error = "Player not in a live game"
		})
		return
	}

	lobby := game.Lobby
	var self *model.PlayerIdentity
	if game.SelfResolved {
		p := game.Self
		self = &p
	}
	if !s.commit(gen, func(st *Snapshot) {
		st.Status = StatusAnalyzing
		st.Lobby = &lobby
		st.Self = self
		st.SelfResolved = game.SelfResolved
	}) {
		return
	}

	snipes, err := s.pipeline.AnalyzeSnipes(ctx, game.PlayerID, game.Opponents(), q.Region)
	if err != nil {
		s.fail(ctx, gen, err)
		return
	}
	s.commit(gen, func(st *Snapshot) {
		st.Status = StatusDone
		st.Snipes = snipes
	})
}

// fail records err for gen. Lobby and snipes are cleared first so earlier
// data is never shown next to the new error.
func (s *Session) fail(ctx context.Context, gen uint64, err error) {
	if s.commit(gen, func(st *Snapshot) {
		st.Lobby = nil
		st.Self = nil
		st.SelfResolved = false
		st.Snipes = []model.SnipeRecord{}
		st.Status = StatusError
		st.Error = err.Error()
		st.ErrorCode = service.Code(err)
	}) {
		s.log.Debug(ctx, "search failed", logger.Int64("generation", int64(gen)), logger.Error(err))
	}
}
