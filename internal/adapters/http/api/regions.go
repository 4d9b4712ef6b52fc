package api

import (
	"net/http"

	"github.com/okian/sniped/internal/domain/region"
)

type regionView struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Routing string `json:"routing"`
}

// RegionsHandler lists the supported regions.
type RegionsHandler struct {
	regions []regionView
}

// NewRegionsHandler creates a new regions handler.
func NewRegionsHandler() *RegionsHandler {
	all := region.All()
	views := make([]regionView, 0, len(all))
	for _, r := range all {
		views = append(views, regionView{ID: r.String(), Label: r.Label(), Routing: r.Routing()})
	}
	return &RegionsHandler{regions: views}
}

// HandleRegions handles GET /api/regions requests.
func (h *RegionsHandler) HandleRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.regions)
}
