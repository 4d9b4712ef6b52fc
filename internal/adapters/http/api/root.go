package api

import "net/http"

type endpointInfo struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Description string            `json:"description"`
	Body        map[string]string `json:"body,omitempty"`
}

type rootResponse struct {
	Service   string                  `json:"service"`
	Status    string                  `json:"status"`
	Version   string                  `json:"version"`
	Endpoints map[string]endpointInfo `json:"endpoints"`
	Docs      string                  `json:"documentation"`
}

// Version is reported by GET /.
var Version = "dev"

// RootHandler describes the service.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rootResponse{
		Service: "sniped",
		Status:  "running",
		Version: Version,
		Endpoints: map[string]endpointInfo{
			"health":  {Method: http.MethodGet, Path: "/health", Description: "Health check"},
			"metrics": {Method: http.MethodGet, Path: "/healthz", Description: "Prometheus metrics"},
			"regions": {Method: http.MethodGet, Path: "/api/regions", Description: "Supported regions"},
			"check_game": {
				Method:      http.MethodPost,
				Path:        "/api/check-game",
				Description: "Check if a player is in a live game",
				Body:        map[string]string{"gameName": "string", "tagLine": "string", "region": "string (e.g., NA1, EUW1)"},
			},
			"analyze_snipes": {
				Method:      http.MethodPost,
				Path:        "/api/analyze-snipes",
				Description: "Find lobby members in the user's recent matches",
				Body:        map[string]string{"userPuuid": "string", "participants": "array", "region": "string"},
			},
			"search": {
				Method:      http.MethodPost,
				Path:        "/api/search",
				Description: "Check game and analyze snipes in one call",
				Body:        map[string]string{"riotId": "string (name#tag)", "region": "string"},
			},
			"session": {Method: http.MethodGet, Path: "/ws", Description: "WebSocket live session"},
		},
		Docs: "/api-docs",
	})
}
