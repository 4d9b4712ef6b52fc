// Package ws serves live search sessions over WebSocket. Each connection
// owns one session; the newest search always wins.
package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/sniped/internal/adapters/http/api"
	service "github.com/okian/sniped/internal/app"
	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/domain/region"
	"github.com/okian/sniped/internal/domain/riotid"
	"github.com/okian/sniped/internal/session"
	"github.com/okian/sniped/pkg/logger"
	"github.com/okian/sniped/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	replyBuffer    = 8
)

// Message types.
const (
	TypeSearch = "search"
	TypeState  = "state"
	TypeError  = "error"
)

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type     string `json:"type"`
	RiotID   string `json:"riotId,omitempty"`
	GameName string `json:"gameName,omitempty"`
	TagLine  string `json:"tagLine,omitempty"`
	Region   string `json:"region,omitempty"`
}

// ServerMessage is pushed to the browser on every state change.
type ServerMessage struct {
	Type       string          `json:"type"`
	Generation uint64          `json:"generation"`
	Status     session.Status  `json:"status,omitempty"`
	Query      *session.Query  `json:"query,omitempty"`
	Game       *api.GameView   `json:"game,omitempty"`
	Snipes     []api.SnipeView `json:"snipes,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorCode  string          `json:"errorCode,omitempty"`
}

// Handler upgrades requests to WebSocket sessions.
type Handler struct {
	pipeline session.Pipeline
	champs   model.ChampionLookup
	upgrader websocket.Upgrader
	log      logger.Logger
}

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithChampions resolves champion names in pushed states.
func WithChampions(c model.ChampionLookup) Option {
	return func(h *Handler) {
		h.champs = c
	}
}

// WithCheckOrigin sets the origin policy of the upgrade.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler creates a handler running searches through p.
func NewHandler(p session.Pipeline, opts ...Option) *Handler {
	h := &Handler{
		pipeline: p,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.Get().Named("ws")
	}
	return h
}

// OriginChecker allows the origins of cfg, and same-origin requests.
func OriginChecker(cfg api.CORSConfig) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || cfg.AllowAll {
			return true
		}
		if strings.HasSuffix(origin, "://"+r.Host) {
			return true
		}
		for _, o := range cfg.Origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Register attaches the session endpoint to mux.
func (h *Handler) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("/ws", h)
}

// client is one connected browser.
type client struct {
	conn    *websocket.Conn
	sess    *session.Session
	champs  model.ChampionLookup
	wake    chan struct{}
	replies chan ServerMessage
	done    chan struct{}
	log     logger.Logger
}

// ServeHTTP upgrades the connection and runs it until the peer leaves.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	metrics.UpdateWebsocketConnections(1)
	defer metrics.UpdateWebsocketConnections(-1)

	c := &client{
		conn:    conn,
		champs:  h.champs,
		wake:    make(chan struct{}, 1),
		replies: make(chan ServerMessage, replyBuffer),
		done:    make(chan struct{}),
		log:     h.log,
	}
	c.sess = session.New(h.pipeline, session.WithNotify(c.notify), session.WithLogger(h.log))

	ctx, cancel := context.WithCancel(r.Context())
	go c.writePump()
	c.readPump(ctx)

	cancel()
	c.sess.Close()
	close(c.done)
}

// notify runs under the session lock, so it only signals the writer.
func (c *client) notify(session.Snapshot) {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *client) reply(msg ServerMessage) {
	select {
	case c.replies <- msg:
	default:
		c.log.Warn(context.Background(), "dropping websocket reply", logger.String("type", msg.Type))
	}
}

func (c *client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug(ctx, "websocket closed", logger.Error(err))
			}
			return
		}

		switch msg.Type {
		case TypeSearch:
			q, err := msg.query()
			if err != nil {
				c.reply(ServerMessage{Type: TypeError, Error: err.Error(), ErrorCode: service.CodeInvalidInput})
				continue
			}
			if _, err := c.sess.Start(ctx, q); err != nil {
				return
			}
		default:
			c.reply(ServerMessage{Type: TypeError, Error: "unknown message type " + msg.Type, ErrorCode: service.CodeInvalidInput})
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	var sent session.Snapshot
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-c.wake:
			snap := c.sess.Snapshot()
			if snap.Generation == sent.Generation && snap.Status == sent.Status {
				continue
			}
			sent = snap
			if err := c.write(render(snap, c.champs)); err != nil {
				return
			}
		case msg := <-c.replies:
			if err := c.write(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(msg ServerMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (m ClientMessage) query() (session.Query, error) {
	q := session.Query{Name: m.GameName, Tag: m.TagLine, Region: m.Region}
	if strings.TrimSpace(m.RiotID) != "" {
		id, err := riotid.Parse(m.RiotID)
		if err != nil {
			return session.Query{}, err
		}
		q.Name, q.Tag = id.Name, id.Tag
	}
	if _, err := riotid.New(q.Name, q.Tag); err != nil {
		return session.Query{}, err
	}
	if strings.TrimSpace(q.Region) == "" {
		q.Region = region.NA1.String()
	}
	return q, nil
}

// render converts a session snapshot into its wire form.
func render(s session.Snapshot, champs model.ChampionLookup) ServerMessage {
	q := s.Query
	msg := ServerMessage{
		Type:       TypeState,
		Generation: s.Generation,
		Status:     s.Status,
		Query:      &q,
		Snipes:     api.NewSnipeViews(s.Snipes, champs),
		Error:      s.Error,
		ErrorCode:  s.ErrorCode,
	}
	if s.Lobby != nil {
		g := api.NewLobbyView(*s.Lobby, champs)
		g.SelfResolved = s.SelfResolved
		if s.Self != nil {
			self := api.NewPlayerView(*s.Self, champs)
			g.Self = &self
			g.UserPUUID = s.Self.PlayerID
		}
		msg.Game = &g
	}
	return msg
}
