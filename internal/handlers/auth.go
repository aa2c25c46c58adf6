package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/api/middleware"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/store"
)

// LoginRequest is the login request payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login handles POST /auth/login. A successful login creates a session and
// records the user in the presence directory, so they show as online before
// their first heartbeat arrives.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.logger.Error().Err(err).Msg("user lookup failed")
		h.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	clientIP := middleware.RealIP(r)
	sess := &store.Session{
		UserID:   user.ID.String(),
		Name:     user.Name,
		Role:     user.Role,
		ClientIP: clientIP,
	}

	token, err := h.redis.CreateSession(r.Context(), sess)
	if err != nil {
		h.logger.Error().Err(err).Msg("session creation failed")
		h.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.presence.RecordLogin(user.ID.String(), models.SessionMeta{
		Name:     user.Name,
		Role:     user.Role,
		ClientIP: clientIP,
	})

	h.logger.Info().
		Str("user_id", user.ID.String()).
		Str("username", user.Username).
		Msg("user logged in")

	h.JSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}
