package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineage/internal/platform/middleware"
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/httputil"
	"lineage/pkg/requestcontext"
)

// Service defines the relationship operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, in models.CreateInput) (*models.Relationship, error)
	Update(ctx context.Context, relID id.RelationshipID, in models.UpdateInput) (*models.Relationship, error)
	Delete(ctx context.Context, relID id.RelationshipID) error
	Get(ctx context.Context, relID id.RelationshipID) (*models.Relationship, error)
	List(ctx context.Context, q models.ListQuery) (*models.Page, error)
	ListByPerson(ctx context.Context, personID id.PersonID) ([]*models.Relationship, error)
	ListByDateRange(ctx context.Context, from, to *time.Time) ([]*models.Relationship, error)
	ListBetweenPersons(ctx context.Context, a, b id.PersonID) ([]*models.Relationship, error)
	ListActive(ctx context.Context) ([]*models.Relationship, error)
	ListEnded(ctx context.Context) ([]*models.Relationship, error)
	ListParentChild(ctx context.Context) ([]*models.Relationship, error)
	ListSpouses(ctx context.Context) ([]*models.Relationship, error)
	FindRelationshipPath(ctx context.Context, from, to id.PersonID, maxDepth int) ([]models.PathStep, error)
	GetAncestors(ctx context.Context, root id.PersonID, generations int) (*models.TreeNode, error)
	GetDescendants(ctx context.Context, root id.PersonID, generations int) (*models.TreeNode, error)
}

// Handler serves the /relationships routes and the graph views under
// /persons/{id}.
type Handler struct {
	logger        *slog.Logger
	relationships Service
	jwtValidator  middleware.JWTValidator
	writeRoles    []string
}

// New creates a relationship Handler. Mutations are limited to writeRoles.
func New(relationships Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, writeRoles ...string) *Handler {
	return &Handler{
		logger:        logger,
		relationships: relationships,
		jwtValidator:  jwtValidator,
		writeRoles:    writeRoles,
	}
}

// Register registers the relationship routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Get("/persons/{id}/relationships", h.handleListByPerson)
		r.Get("/persons/{id}/ancestors", h.handleAncestors)
		r.Get("/persons/{id}/descendants", h.handleDescendants)

		r.Get("/relationships", h.handleList)
		r.Get("/relationships/between", h.handleBetween)
		r.Get("/relationships/parent-child", h.listing(h.relationships.ListParentChild))
		r.Get("/relationships/spouses", h.listing(h.relationships.ListSpouses))
		r.Get("/relationships/active", h.listing(h.relationships.ListActive))
		r.Get("/relationships/ended", h.listing(h.relationships.ListEnded))
		r.Get("/relationships/date-range", h.handleDateRange)
		r.Get("/relationships/path", h.handlePath)
		r.Get("/relationships/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.logger, h.writeRoles...))
			r.Post("/relationships", h.handleCreate)
			r.Patch("/relationships/{id}", h.handleUpdate)
			r.Delete("/relationships/{id}", h.handleDelete)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateRelationshipRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rel, err := h.relationships.Create(ctx, req.Input())
	if err != nil {
		h.fail(ctx, w, err, "failed to create relationship")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rel)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	relID, ok := relationshipID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRelationshipRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rel, err := h.relationships.Update(ctx, relID, req.Input())
	if err != nil {
		h.fail(ctx, w, err, "failed to update relationship")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rel)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	relID, ok := relationshipID(w, r)
	if !ok {
		return
	}
	if err := h.relationships.Delete(ctx, relID); err != nil {
		h.fail(ctx, w, err, "failed to delete relationship")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	relID, ok := relationshipID(w, r)
	if !ok {
		return
	}
	rel, err := h.relationships.Get(ctx, relID)
	if err != nil {
		h.fail(ctx, w, err, "failed to get relationship")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rel)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.relationships.List(ctx, q)
	if err != nil {
		h.fail(ctx, w, err, "failed to list relationships")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleListByPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	personID, ok := personID(w, r)
	if !ok {
		return
	}
	edges, err := h.relationships.ListByPerson(ctx, personID)
	h.writeEdges(ctx, w, edges, err)
}

func (h *Handler) handleBetween(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := id.ParsePersonID(r.URL.Query().Get("person1"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := id.ParsePersonID(r.URL.Query().Get("person2"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	edges, err := h.relationships.ListBetweenPersons(ctx, a, b)
	h.writeEdges(ctx, w, edges, err)
}

func (h *Handler) handleDateRange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, to, err := dateRange(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	edges, err := h.relationships.ListByDateRange(ctx, from, to)
	h.writeEdges(ctx, w, edges, err)
}

// listing adapts a parameterless list operation to a handler.
func (h *Handler) listing(list func(context.Context) ([]*models.Relationship, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		edges, err := list(r.Context())
		h.writeEdges(r.Context(), w, edges, err)
	}
}

func (h *Handler) writeEdges(ctx context.Context, w http.ResponseWriter, edges []*models.Relationship, err error) {
	if err != nil {
		h.fail(ctx, w, err, "failed to list relationships")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": edges})
}

func (h *Handler) handlePath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := r.URL.Query()
	from, err := id.ParsePersonID(v.Get("from"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := id.ParsePersonID(v.Get("to"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	maxDepth, err := intParam(v, "max_depth")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	path, err := h.relationships.FindRelationshipPath(ctx, from, to, maxDepth)
	if err != nil {
		h.fail(ctx, w, err, "failed to find relationship path")
		return
	}
	if path == nil {
		path = []models.PathStep{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"found": len(path) > 0 || from == to,
		"steps": path,
	})
}

func (h *Handler) handleAncestors(w http.ResponseWriter, r *http.Request) {
	h.tree(w, r, h.relationships.GetAncestors)
}

func (h *Handler) handleDescendants(w http.ResponseWriter, r *http.Request) {
	h.tree(w, r, h.relationships.GetDescendants)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request, expand func(context.Context, id.PersonID, int) (*models.TreeNode, error)) {
	ctx := r.Context()
	root, ok := personID(w, r)
	if !ok {
		return
	}
	generations, err := intParam(r.URL.Query(), "generations")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !r.URL.Query().Has("generations") {
		generations = defaultGenerations
	}
	node, err := expand(ctx, root, generations)
	if err != nil {
		h.fail(ctx, w, err, "failed to expand tree")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, node)
}

const defaultGenerations = 3

func personID(w http.ResponseWriter, r *http.Request) (id.PersonID, bool) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.PersonID{}, false
	}
	return personID, true
}

func relationshipID(w http.ResponseWriter, r *http.Request) (id.RelationshipID, bool) {
	relID, err := id.ParseRelationshipID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.RelationshipID{}, false
	}
	return relID, true
}

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
