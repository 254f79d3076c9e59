package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lineage/internal/changefeed/feed"
	"lineage/internal/person/models"
	"lineage/internal/platform/middleware"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/httputil"
	"lineage/pkg/requestcontext"
)

// Service defines the person operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, in models.CreateInput) (*models.Person, error)
	Update(ctx context.Context, personID id.PersonID, in models.UpdateInput) (*models.Person, error)
	Get(ctx context.Context, personID id.PersonID) (*models.Person, error)
	AddEvent(ctx context.Context, in models.EventInput) (*models.EventResult, error)
	ListEvents(ctx context.Context, personID id.PersonID) ([]*models.Event, error)
	Changes(ctx context.Context, personID id.PersonID, limit int) ([]feed.Item, error)
}

// Handler serves the /persons routes.
type Handler struct {
	logger       *slog.Logger
	persons      Service
	jwtValidator middleware.JWTValidator
	writeRoles   []string
}

// New creates a person Handler. Mutations are limited to writeRoles.
func New(persons Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, writeRoles ...string) *Handler {
	return &Handler{
		logger:       logger,
		persons:      persons,
		jwtValidator: jwtValidator,
		writeRoles:   writeRoles,
	}
}

// Register registers the person routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/persons/{id}", h.handleGet)
		r.Get("/persons/{id}/events", h.handleListEvents)
		r.Get("/persons/{id}/changes", h.handleChanges)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, h.writeRoles...))
			r.Post("/persons", h.handleCreate)
			r.Patch("/persons/{id}", h.handleUpdate)
			r.Post("/persons/{id}/events", h.handleAddEvent)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreatePersonRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.persons.Create(ctx, req.Input())
	if err != nil {
		h.fail(ctx, w, err, "failed to create person")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	p, err := h.persons.Get(ctx, personID)
	if err != nil {
		h.fail(ctx, w, err, "failed to get person")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdatePersonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.persons.Update(ctx, personID, req.Input())
	if err != nil {
		h.fail(ctx, w, err, "failed to update person")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddEventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.persons.AddEvent(ctx, req.Input(personID))
	if err != nil {
		h.fail(ctx, w, err, "failed to add event")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	events, err := h.persons.ListEvents(ctx, personID)
	if err != nil {
		h.fail(ctx, w, err, "failed to list events")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleChanges serves the notification feed of a person, newest first.
func (h *Handler) handleChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := h.personID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer"))
			return
		}
		limit = n
	}
	items, err := h.persons.Changes(ctx, personID, limit)
	if err != nil {
		h.fail(ctx, w, err, "failed to list changes")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"changes": items})
}

func (h *Handler) personID(w http.ResponseWriter, r *http.Request) (id.PersonID, bool) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PersonID{}, false
	}
	return personID, true
}

// fail logs at a level matching the error class and writes the envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
