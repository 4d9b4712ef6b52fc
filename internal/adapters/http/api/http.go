// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/sniped/internal/app"
	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	model.ChampionLookup

	CheckInGame(ctx context.Context, name, tag, region string) (service.GameStatus, error)
	AnalyzeSnipes(ctx context.Context, userID string, participants []model.PlayerIdentity, region string) ([]model.SnipeRecord, error)
	Search(ctx context.Context, name, tag, region string) (service.SearchResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler    *RootHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	regionsHandler *RegionsHandler
	lookupHandler  *LookupHandler
	cors           CORSConfig
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORS sets the cross-origin policy applied by Handler.
func WithCORS(cfg CORSConfig) Option {
	return func(s *Server) {
		s.cors = cfg
	}
}

// WithLogger sets the logger used for failed lookups.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.lookupHandler.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		rootHandler:    NewRootHandler(),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		regionsHandler: NewRegionsHandler(),
		lookupHandler:  NewLookupHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/regions", MetricsMiddleware(s.regionsHandler.HandleRegions, "regions"))
	mux.HandleFunc("/api/check-game", MetricsMiddleware(s.lookupHandler.HandleCheckGame, "check_game"))
	mux.HandleFunc("/api/analyze-snipes", MetricsMiddleware(s.lookupHandler.HandleAnalyzeSnipes, "analyze_snipes"))
	mux.HandleFunc("/api/search", MetricsMiddleware(s.lookupHandler.HandleSearch, "search"))
	mux.HandleFunc("/{$}", MetricsMiddleware(s.rootHandler.HandleRoot, "root"))
}

// Handler wraps next with the configured CORS policy.
func (s *Server) Handler(next http.Handler) http.Handler {
	return CORSMiddleware(s.cors)(next)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps a pipeline error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	code := service.Code(err)
	switch code {
	case service.CodeInvalidInput:
		return http.StatusBadRequest, code
	case service.CodePlayerNotFound:
		return http.StatusNotFound, code
	case service.CodeLookupFailed, service.CodeAnalysisFailed:
		return http.StatusBadGateway, code
	case service.CodeCancelled:
		return http.StatusServiceUnavailable, code
	default:
		return http.StatusInternalServerError, code
	}
}
