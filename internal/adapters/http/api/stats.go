package api

import "net/http"

// StatsHandler handles stats requests.
type StatsHandler struct {
	ctrl Controller
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(ctrl Controller) *StatsHandler {
	return &StatsHandler{ctrl: ctrl}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Stats())
}
