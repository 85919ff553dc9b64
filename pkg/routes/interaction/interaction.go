// Package interaction exposes the HTTP endpoints for interaction records
package interaction

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	contactrepo "github.com/Ramsey-B/bramble/internal/repositories/contact"
	interactionrepo "github.com/Ramsey-B/bramble/internal/repositories/interaction"
	"github.com/Ramsey-B/bramble/pkg/events"
	"github.com/Ramsey-B/bramble/pkg/metrics"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/routes/helpers"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

var validate = validator.New()

// Handler handles interaction endpoints
type Handler struct {
	interactions interactionrepo.InteractionRepository
	contacts     contactrepo.ContactRepository
	emitter      *events.Emitter
	logger       ectologger.Logger
}

// NewHandler creates a new interaction handler
func NewHandler(interactions interactionrepo.InteractionRepository, contacts contactrepo.ContactRepository, emitter *events.Emitter, logger ectologger.Logger) *Handler {
	return &Handler{
		interactions: interactions,
		contacts:     contacts,
		emitter:      emitter,
		logger:       logger,
	}
}

// RegisterRoutes registers the interaction endpoints on the given group
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/recent", h.Recent)
	g.GET("/stats/by-type", h.StatsByType)
	g.GET("/contact/:contact_id", h.ListByContact)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type statsResponse struct {
	Total  int                            `json:"total"`
	ByType map[models.InteractionType]int `json:"by_type"`
}

// requireContact returns a 404 error unless the contact exists
func (h *Handler) requireContact(c echo.Context, contactID int64) error {
	exists, err := h.contacts.Exists(c.Request().Context(), contactID)
	if err != nil {
		return err
	}
	if !exists {
		return helpers.NotFound("Contact not found")
	}
	return nil
}

// Create creates a new interaction for an existing contact
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.Create")
	defer span.End()

	var req models.CreateInteractionRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	if req.Type != "" && !req.Type.Valid() {
		return helpers.BadRequest("invalid type: " + string(req.Type))
	}

	if err := h.requireContact(c, req.ContactID); err != nil {
		return err
	}

	created, err := h.interactions.Create(ctx, req)
	if err != nil {
		metrics.RecordMutation("interaction", "create", "error")
		return err
	}

	metrics.RecordMutation("interaction", "create", "success")
	h.emitter.EmitCreated(ctx, "interaction", created.ID, created.ContactID, created)

	return helpers.CreatedResponse(c, created)
}

// List lists interactions with optional contact, type, and date range filters
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.List")
	defer span.End()

	skip, limit := helpers.ParsePagination(c)

	filter := models.InteractionFilter{}

	contactID, err := helpers.ParseOptionalInt64(c, "contact_id")
	if err != nil {
		return err
	}
	filter.ContactID = contactID

	if raw := c.QueryParam("type"); raw != "" {
		interactionType := models.InteractionType(raw)
		if !interactionType.Valid() {
			return helpers.BadRequest("invalid type: " + raw)
		}
		filter.Type = &interactionType
	}

	if filter.StartDate, err = helpers.ParseOptionalTime(c, "start_date"); err != nil {
		return err
	}
	if filter.EndDate, err = helpers.ParseOptionalTime(c, "end_date"); err != nil {
		return err
	}

	items, total, err := h.interactions.List(ctx, filter, skip, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.InteractionListResponse{
		Items:    items,
		Total:    total,
		Page:     helpers.PageNumber(skip, limit),
		PageSize: limit,
	})
}

// Recent returns interactions from the last N days, optionally scoped to one
// contact, most recent first
func (h *Handler) Recent(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.Recent")
	defer span.End()

	contactID, err := helpers.ParseOptionalInt64(c, "contact_id")
	if err != nil {
		return err
	}
	if contactID != nil {
		if err := h.requireContact(c, *contactID); err != nil {
			return err
		}
	}

	days := helpers.ParseIntDefault(c, "days", 7)
	if days < 1 {
		days = 7
	}
	if days > 365 {
		days = 365
	}

	limit := helpers.ParseIntDefault(c, "limit", 50)
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	items, err := h.interactions.ListRecent(ctx, days, contactID, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, items)
}

// StatsByType returns interaction counts grouped by type, optionally scoped
// to one contact
func (h *Handler) StatsByType(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.StatsByType")
	defer span.End()

	contactID, err := helpers.ParseOptionalInt64(c, "contact_id")
	if err != nil {
		return err
	}
	if contactID != nil {
		if err := h.requireContact(c, *contactID); err != nil {
			return err
		}
	}

	counts, err := h.interactions.CountByType(ctx, contactID)
	if err != nil {
		return err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return helpers.SuccessResponse(c, statsResponse{
		Total:  total,
		ByType: counts,
	})
}

// ListByContact lists an existing contact's interactions
func (h *Handler) ListByContact(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.ListByContact")
	defer span.End()

	contactID, err := helpers.ParseID(c, "contact_id")
	if err != nil {
		return err
	}

	if err := h.requireContact(c, contactID); err != nil {
		return err
	}

	skip, limit := helpers.ParsePagination(c)

	items, total, err := h.interactions.List(ctx, models.InteractionFilter{ContactID: &contactID}, skip, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.InteractionListResponse{
		Items:    items,
		Total:    total,
		Page:     helpers.PageNumber(skip, limit),
		PageSize: limit,
	})
}

// Get gets an interaction by ID
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.Get")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	interaction, err := h.interactions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if interaction == nil {
		return helpers.NotFound("Interaction not found")
	}

	return helpers.SuccessResponse(c, interaction)
}

// Update partially updates an interaction
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.Update")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateInteractionRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if req.Type != nil && !req.Type.Valid() {
		return helpers.BadRequest("invalid type: " + string(*req.Type))
	}

	updated, err := h.interactions.Update(ctx, id, req)
	if err != nil {
		metrics.RecordMutation("interaction", "update", "error")
		return err
	}
	if updated == nil {
		return helpers.NotFound("Interaction not found")
	}

	metrics.RecordMutation("interaction", "update", "success")
	h.emitter.EmitUpdated(ctx, "interaction", updated.ID, updated.ContactID, updated)

	return helpers.SuccessResponse(c, updated)
}

// Delete removes an interaction
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "InteractionHandler.Delete")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.interactions.Delete(ctx, id)
	if err != nil {
		metrics.RecordMutation("interaction", "delete", "error")
		return err
	}
	if !deleted {
		return helpers.NotFound("Interaction not found")
	}

	metrics.RecordMutation("interaction", "delete", "success")
	h.emitter.EmitDeleted(ctx, "interaction", id)

	return helpers.NoContentResponse(c)
}
