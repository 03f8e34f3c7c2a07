package api

import (
	"net/http"
	"time"
)

// HealthLive reports that the process is up. Dependencies are not checked.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.opts.Version,
	})
}

// HealthReady reports whether the metadata store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	database := map[string]any{"status": "ok"}

	if err := h.svc.Health(r.Context()); err != nil {
		h.log.Warn("Readiness check failed: %v", err)
		status, code = "fail", http.StatusServiceUnavailable
		database = map[string]any{"status": "fail", "message": err.Error()}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.opts.Version,
		"checks":    map[string]any{"database": database},
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(stats))
}
