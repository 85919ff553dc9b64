// Package contact exposes the HTTP endpoints for contact records
package contact

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	contactrepo "github.com/Ramsey-B/bramble/internal/repositories/contact"
	"github.com/Ramsey-B/bramble/pkg/events"
	"github.com/Ramsey-B/bramble/pkg/metrics"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/routes/helpers"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

var validate = validator.New()

// Handler handles contact endpoints
type Handler struct {
	contacts contactrepo.ContactRepository
	emitter  *events.Emitter
	logger   ectologger.Logger
}

// NewHandler creates a new contact handler
func NewHandler(contacts contactrepo.ContactRepository, emitter *events.Emitter, logger ectologger.Logger) *Handler {
	return &Handler{
		contacts: contacts,
		emitter:  emitter,
		logger:   logger,
	}
}

// RegisterRoutes registers the contact endpoints on the given group
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/search/:term", h.Search)
	g.GET("/stats/by-status", h.StatsByStatus)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// statsResponse is the by-status aggregate. Statuses with no contacts are
// absent from the map.
type statsResponse struct {
	Total    int                          `json:"total"`
	ByStatus map[models.ContactStatus]int `json:"by_status"`
}

// Create creates a new contact
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ContactHandler.Create")
	defer span.End()

	var req models.CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	if req.Status != "" && !req.Status.Valid() {
		return helpers.BadRequest("invalid status: " + string(req.Status))
	}

	if req.Email != nil {
		existing, err := h.contacts.GetByEmail(ctx, *req.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return helpers.Conflict("a contact with this email already exists")
		}
	}

	created, err := h.contacts.Create(ctx, req)
	if err != nil {
		metrics.RecordMutation("contact", "create", "error")
		return err
	}

	metrics.RecordMutation("contact", "create", "success")
	h.emitter.EmitCreated(ctx, "contact", created.ID, created.ID, created)

	return helpers.CreatedResponse(c, created)
}

// List lists contacts with optional status, search, and tags filters
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ContactHandler.List")
	defer span.End()

	skip, limit := helpers.ParsePagination(c)

	filter := models.ContactFilter{
		Tags: helpers.ParseTags(c.QueryParam("tags")),
	}

	if raw := c.QueryParam("status"); raw != "" {
		status := models.ContactStatus(raw)
		if !status.Valid() {
			return helpers.BadRequest("invalid status: " + raw)
		}
		filter.Status = &status
	}

	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	items, total, err := h.contacts.List(ctx, filter, skip, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.ContactListResponse{
		Items:    items,
		Total:    total,
		Page:     helpers.PageNumber(skip, limit),
		PageSize: limit,
	})
}

// Search searches contacts by name, email, or company substring
func (h *Handler) Search(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ContactHandler.Search")
	defer span.End()

	term := c.Param("term")
	if term == "" {
		return helpers.BadRequest("missing search term")
	}

	limit := helpers.ParseIntDefault(c, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	items, err := h.contacts.Search(ctx, term, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, items)
}

// StatsByStatus returns contact counts grouped by status
func (h *Handler) StatsByStatus(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ContactHandler.StatsByStatus")
	defer span.End()

	counts, err := h.contacts.CountByStatus(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return helpers.SuccessResponse(c, statsResponse{
		Total:    total,
		ByStatus: counts,
	})
}

// Get gets a contact by ID
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ContactHandler.Get")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	contact, err := h.contacts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if contact == nil {
		return helpers.NotFound("Contact not found")
	}

	return helpers.SuccessResponse(c, contact)
}

// Update partially updates a contact
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ContactHandler.Update")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if req.Status != nil && !req.Status.Valid() {
		return helpers.BadRequest("invalid status: " + string(*req.Status))
	}

	// A different contact already holding the email is a conflict; the record
	// keeping its own email is not.
	if req.Email.Present && req.Email.Value != nil {
		existing, err := h.contacts.GetByEmail(ctx, *req.Email.Value)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != id {
			return helpers.Conflict("a contact with this email already exists")
		}
	}

	updated, err := h.contacts.Update(ctx, id, req)
	if err != nil {
		metrics.RecordMutation("contact", "update", "error")
		return err
	}
	if updated == nil {
		return helpers.NotFound("Contact not found")
	}

	metrics.RecordMutation("contact", "update", "success")
	h.emitter.EmitUpdated(ctx, "contact", updated.ID, updated.ID, updated)

	return helpers.SuccessResponse(c, updated)
}

// Delete removes a contact and all of its dependent records
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ContactHandler.Delete")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.contacts.Delete(ctx, id)
	if err != nil {
		metrics.RecordMutation("contact", "delete", "error")
		return err
	}
	if !deleted {
		return helpers.NotFound("Contact not found")
	}

	metrics.RecordMutation("contact", "delete", "success")
	h.emitter.EmitDeleted(ctx, "contact", id)

	return helpers.NoContentResponse(c)
}
