package handlers

import (
	"net/http"
	"time"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/api/middleware"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
)

// HeartbeatResponse tells the client whether its heartbeat refreshed an
// existing presence entry or registered a new one.
type HeartbeatResponse struct {
	Status      string `json:"status"`
	OnlineCount int    `json:"onlineCount"`
}

// OnlineResponse is the admin view of everyone currently online.
type OnlineResponse struct {
	OnlineUsers []models.OnlineUser `json:"onlineUsers"`
	Total       int                 `json:"total"`
	AsOf        time.Time           `json:"asOf"`
}

// LogoutResponse reports how many users remain online after a logout.
type LogoutResponse struct {
	Remaining int `json:"remaining"`
}

// Heartbeat handles POST /presence/heartbeat. Every heartbeat is treated the
// same regardless of spacing: an alive entry is refreshed, a missing or stale
// one is registered fresh.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	result := h.presence.Heartbeat(sess.UserID, models.SessionMeta{
		Name:     sess.Name,
		Role:     sess.Role,
		ClientIP: sess.ClientIP,
	})

	h.JSON(w, http.StatusOK, HeartbeatResponse{
		Status:      string(result),
		OnlineCount: h.presence.Count(),
	})
}

// Online handles GET /presence/online (admin only). Stale entries are evicted
// before the list is built, so a silent browser disappears here even if the
// background sweep has not run yet.
func (h *Handler) Online(w http.ResponseWriter, r *http.Request) {
	users := h.presence.ListOnline()

	h.JSON(w, http.StatusOK, OnlineResponse{
		OnlineUsers: users,
		Total:       len(users),
		AsOf:        time.Now().UTC(),
	})
}

// Logout handles POST /presence/logout: the session token is revoked and the
// presence entry removed immediately, without waiting for the timeout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if token := middleware.GetTokenFromContext(r.Context()); token != "" {
		if err := h.redis.DeleteSession(r.Context(), token); err != nil {
			h.logger.Error().Err(err).Msg("session revocation failed")
		}
	}

	h.presence.RemoveSession(sess.UserID)

	h.logger.Info().Str("user_id", sess.UserID).Msg("user logged out")

	h.JSON(w, http.StatusOK, LogoutResponse{Remaining: h.presence.Count()})
}
