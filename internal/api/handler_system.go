package api

import (
	"net/http"
	"time"
)

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) systemInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.system.Info())
}

// systemStatus always answers 200; degraded probes are reported in the body.
func (h *Handler) systemStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.system.Status(r.Context()))
}

func (h *Handler) systemDNS(w http.ResponseWriter, r *http.Request) {
	res, err := h.system.DNS(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCommandResponse(res))
}
