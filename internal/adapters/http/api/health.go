package api

import "net/http"

// Health states reported by /healthz.
const (
	StatusOK      = "ok"
	StatusStopped = "stopped"
)

type healthResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

// HealthHandler handles liveness requests.
type HealthHandler struct {
	ctrl Controller
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ctrl Controller) *HealthHandler {
	return &HealthHandler{ctrl: ctrl}
}

// HandleHealth handles GET /healthz. A stopped control loop answers 503 so
// supervisors can restart the process.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: StatusOK, RunID: h.ctrl.Stats().RunID}
	if !h.ctrl.Running() {
		resp.Status = StatusStopped
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
