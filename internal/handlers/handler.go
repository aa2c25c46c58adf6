package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/presence"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/realtime"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db       store.DataStore
	redis    *store.RedisStore
	registry *realtime.Registry
	router   *realtime.Router
	presence *presence.Directory
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(db store.DataStore, redis *store.RedisStore, registry *realtime.Registry, router *realtime.Router, dir *presence.Directory, logger zerolog.Logger) *Handler {
	return &Handler{
		db:       db,
		redis:    redis,
		registry: registry,
		router:   router,
		presence: dir,
		logger:   logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
