package handlers

import "net/http"

// StatsResponse is a point-in-time snapshot of server state.
type StatsResponse struct {
	Users       int64 `json:"users"`
	Messages    int64 `json:"messages"`
	Online      int   `json:"online"`
	OpenSockets int   `json:"open_sockets"`
}

// Stats handles GET /stats (admin only).
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.CountUsers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("user count failed")
		h.Error(w, http.StatusInternalServerError, "stats unavailable")
		return
	}

	messages, err := h.db.CountMessages(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("message count failed")
		h.Error(w, http.StatusInternalServerError, "stats unavailable")
		return
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		Users:       users,
		Messages:    messages,
		Online:      h.presence.Count(),
		OpenSockets: h.registry.ConnCount(),
	})
}
