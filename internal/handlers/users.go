package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GetUser handles GET /users/{id}. Password hashes never serialize; the model
// hides them.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", id.String()).Msg("user lookup failed")
		h.Error(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "user not found")
		return
	}

	h.JSON(w, http.StatusOK, user)
}
