package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/vivarium/internal/bus"
	"github.com/nidhogg/vivarium/internal/character"
	"github.com/nidhogg/vivarium/internal/emotion"
	"github.com/nidhogg/vivarium/internal/engine"
	"github.com/nidhogg/vivarium/internal/interaction"
	"github.com/nidhogg/vivarium/internal/relation"
	"go.uber.org/zap"
)

// History serves persisted interaction logs and character rows. It is
// optional: without a database the history endpoints return 503 and
// character writes stay in memory only.
type History interface {
	SaveCharacter(ctx context.Context, c *character.Character) error
	ListInteractions(ctx context.Context, ecosystemID string, limit int) ([]*interaction.Record, error)
	ListInteractionsBetween(ctx context.Context, a, b string, limit int) ([]*interaction.Record, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine    *engine.Engine
	registry  *character.Registry
	relations *relation.Store
	emotions  *emotion.Tracker
	eventBus  *bus.Bus
	history   History
	logger    *zap.Logger
}

// NewHandler creates a new API handler. history may be nil.
func NewHandler(
	eng *engine.Engine,
	registry *character.Registry,
	relations *relation.Store,
	emotions *emotion.Tracker,
	eventBus *bus.Bus,
	history History,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		engine:    eng,
		registry:  registry,
		relations: relations,
		emotions:  emotions,
		eventBus:  eventBus,
		history:   history,
		logger:    logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Get("/characters", h.listCharacters)
		r.Post("/characters", h.createCharacter)
		r.Get("/characters/{id}", h.getCharacter)
		r.Get("/characters/{id}/emotions", h.getEmotions)

		r.Post("/interactions", h.processInteraction)

		r.Get("/relationships/{a}/{b}", h.getRelationship)
		r.Get("/relationships/{a}/{b}/history", h.getPairHistory)

		r.Get("/ecosystems/{id}/characters", h.listEcosystemCharacters)
		r.Get("/ecosystems/{id}/interactions", h.getEcosystemHistory)
		r.Get("/ecosystems/{id}/events", h.streamEvents)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "vivarium"})
}

func (h *Handler) listCharacters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List())
}

func (h *Handler) listEcosystemCharacters(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, h.registry.ListEcosystem(id))
}

func (h *Handler) createCharacter(w http.ResponseWriter, r *http.Request) {
	var c character.Character
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if c.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !c.Traits.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "traits must lie in [0,1]"})
		return
	}
	if !c.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "autonomy and social_energy must lie in [0,1]"})
		return
	}
	h.registry.Register(&c)
	if h.history != nil {
		if err := h.history.SaveCharacter(r.Context(), &c); err != nil {
			h.logger.Warn("persist character failed", zap.String("id", c.ID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, ok := h.registry.Snapshot(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "character not found"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) getEmotions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.registry.Snapshot(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "character not found"})
		return
	}
	snap := h.emotions.Snapshot(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"character_id": id,
		"intensities":  snap.Intensities,
		"dominant":     snap.Dominant(),
		"updated_at":   snap.UpdatedAt,
	})
}

func (h *Handler) processInteraction(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.engine.ProcessInteraction(r.Context(), &req)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	// Business rejections are 200s: the request was processed, the
	// outcome was "no".
	writeJSON(w, http.StatusOK, result)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var (
		nf *engine.NotFoundError
		ve *engine.ValidationError
		ge *engine.GenerationError
		pe *engine.PersistenceError
	)
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ve), errors.Is(err, engine.ErrSelfInteraction):
		return http.StatusBadRequest
	case errors.As(err, &ge):
		return http.StatusBadGateway
	case errors.As(err, &pe):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) getRelationship(w http.ResponseWriter, r *http.Request) {
	a := chi.URLParam(r, "a")
	b := chi.URLParam(r, "b")
	if a == b {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a character has no relationship with itself"})
		return
	}
	for _, id := range []string{a, b} {
		if _, ok := h.registry.Snapshot(id); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "character not found: " + id})
			return
		}
	}
	// Reading a relationship never creates one; an untouched pair reads
	// as neutral.
	snap, ok := h.relations.Peek(relation.NewPair(a, b))
	if !ok {
		snap = relation.Snapshot{Pair: relation.NewPair(a, b), Metrics: relation.NeutralMetrics()}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) getPairHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history store not configured"})
		return
	}
	a := chi.URLParam(r, "a")
	b := chi.URLParam(r, "b")
	recs, err := h.history.ListInteractionsBetween(r.Context(), a, b, queryLimit(r))
	if err != nil {
		h.logger.Error("pair history query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history query failed"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) getEcosystemHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history store not configured"})
		return
	}
	id := chi.URLParam(r, "id")
	recs, err := h.history.ListInteractions(r.Context(), id, queryLimit(r))
	if err != nil {
		h.logger.Error("ecosystem history query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history query failed"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 50
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
