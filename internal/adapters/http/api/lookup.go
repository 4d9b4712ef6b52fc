package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/sniped/internal/domain/model"
	"github.com/okian/sniped/internal/domain/region"
	"github.com/okian/sniped/internal/domain/riotid"
	"github.com/okian/sniped/pkg/logger"
)

type checkGameRequest struct {
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
	Region   string `json:"region"`
}

type analyzeRequest struct {
	UserPUUID    string                 `json:"userPuuid"`
	Participants []model.PlayerIdentity `json:"participants"`
	Region       string                 `json:"region"`
}

type searchRequest struct {
	RiotID   string `json:"riotId"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
	Region   string `json:"region"`
}

// name returns the Riot ID parts, preferring the combined form.
func (r searchRequest) name() (string, string, error) {
	if strings.TrimSpace(r.RiotID) == "" {
		return r.GameName, r.TagLine, nil
	}
	id, err := riotid.Parse(r.RiotID)
	if err != nil {
		return "", "", err
	}
	return id.Name, id.Tag, nil
}

// regionOrDefault applies the default region to an empty value.
func regionOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return region.NA1.String()
	}
	return s
}

// LookupHandler serves the search pipeline endpoints.
type LookupHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps Dependencies) *LookupHandler {
	return &LookupHandler{deps: deps}
}

func (h *LookupHandler) logger() logger.Logger {
	if h.log == nil {
		h.log = logger.Get().Named("api")
	}
	return h.log
}

// HandleCheckGame handles POST /api/check-game requests.
// A player that is not in a game is reported with 200 and inGame false.
func (h *LookupHandler) HandleCheckGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	var req checkGameRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	status, err := h.deps.CheckInGame(r.Context(), req.GameName, req.TagLine, regionOrDefault(req.Region))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewGameView(status, h.deps))
}

// HandleAnalyzeSnipes handles POST /api/analyze-snipes requests.
func (h *LookupHandler) HandleAnalyzeSnipes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	var req analyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	records, err := h.deps.AnalyzeSnipes(r.Context(), req.UserPUUID, req.Participants, regionOrDefault(req.Region))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSnipeViews(records, h.deps))
}

// HandleSearch handles POST /api/search requests: lookup and analysis in
// one call.
func (h *LookupHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	var req searchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	name, tag, err := req.name()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err)
		return
	}

	res, err := h.deps.Search(r.Context(), name, tag, regionOrDefault(req.Region))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSearchView(res, h.deps))
}

func (h *LookupHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger().Warn(r.Context(), "lookup request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}
