// Package action exposes the HTTP endpoints for action records
package action

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	actionrepo "github.com/Ramsey-B/bramble/internal/repositories/action"
	contactrepo "github.com/Ramsey-B/bramble/internal/repositories/contact"
	"github.com/Ramsey-B/bramble/pkg/events"
	"github.com/Ramsey-B/bramble/pkg/metrics"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/routes/helpers"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

var validate = validator.New()

// Handler handles action endpoints
type Handler struct {
	actions  actionrepo.ActionRepository
	contacts contactrepo.ContactRepository
	emitter  *events.Emitter
	logger   ectologger.Logger
}

// NewHandler creates a new action handler
func NewHandler(actions actionrepo.ActionRepository, contacts contactrepo.ContactRepository, emitter *events.Emitter, logger ectologger.Logger) *Handler {
	return &Handler{
		actions:  actions,
		contacts: contacts,
		emitter:  emitter,
		logger:   logger,
	}
}

// RegisterRoutes registers the action endpoints on the given group
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/pending", h.Pending)
	g.GET("/overdue", h.Overdue)
	g.GET("/upcoming", h.Upcoming)
	g.GET("/stats/by-status", h.StatsByStatus)
	g.GET("/stats/by-type", h.StatsByType)
	g.GET("/stats/by-priority", h.StatsByPriority)
	g.GET("/contact/:contact_id", h.ListByContact)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type statusStatsResponse struct {
	Total    int                         `json:"total"`
	ByStatus map[models.ActionStatus]int `json:"by_status"`
}

type typeStatsResponse struct {
	Total  int                       `json:"total"`
	ByType map[models.ActionType]int `json:"by_type"`
}

// priorityStatsResponse counts pending actions only; completed and cancelled
// work has no remaining urgency.
type priorityStatsResponse struct {
	Total      int                           `json:"total"`
	ByPriority map[models.ActionPriority]int `json:"by_priority"`
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

// scopedContactID parses the optional contact_id query parameter and verifies
// the contact exists when supplied
func (h *Handler) scopedContactID(c echo.Context) (*int64, error) {
	contactID, err := helpers.ParseOptionalInt64(c, "contact_id")
	if err != nil {
		return nil, err
	}
	if contactID != nil {
		if err := h.requireContact(c, *contactID); err != nil {
			return nil, err
		}
	}
	return contactID, nil
}

// Create creates a new action for an existing contact
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.Create")
	defer span.End()

	var req models.CreateActionRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	if req.Status != "" && !req.Status.Valid() {
		return helpers.BadRequest("invalid status: " + string(req.Status))
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return helpers.BadRequest("invalid priority: " + string(req.Priority))
	}
	if req.ActionType != "" && !req.ActionType.Valid() {
		return helpers.BadRequest("invalid action_type: " + string(req.ActionType))
	}

	if err := h.requireContact(c, req.ContactID); err != nil {
		return err
	}

	created, err := h.actions.Create(ctx, req)
	if err != nil {
		metrics.RecordMutation("action", "create", "error")
		return err
	}

	metrics.RecordMutation("action", "create", "success")
	h.emitter.EmitCreated(ctx, "action", created.ID, created.ContactID, created)

	return helpers.CreatedResponse(c, created)
}

// List lists actions with optional filters
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.List")
	defer span.End()

	skip, limit := helpers.ParsePagination(c)

	filter := models.ActionFilter{
		OverdueOnly: c.QueryParam("overdue_only") == "true",
	}

	contactID, err := helpers.ParseOptionalInt64(c, "contact_id")
	if err != nil {
		return err
	}
	filter.ContactID = contactID

	if raw := c.QueryParam("status"); raw != "" {
		status := models.ActionStatus(raw)
		if !status.Valid() {
			return helpers.BadRequest("invalid status: " + raw)
		}
		filter.Status = &status
	}

	if raw := c.QueryParam("priority"); raw != "" {
		priority := models.ActionPriority(raw)
		if !priority.Valid() {
			return helpers.BadRequest("invalid priority: " + raw)
		}
		filter.Priority = &priority
	}

	if raw := c.QueryParam("action_type"); raw != "" {
		actionType := models.ActionType(raw)
		if !actionType.Valid() {
			return helpers.BadRequest("invalid action_type: " + raw)
		}
		filter.ActionType = &actionType
	}

	if filter.AssignedTo, err = helpers.ParseOptionalInt64(c, "assigned_to"); err != nil {
		return err
	}

	items, total, err := h.actions.List(ctx, filter, skip, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.ActionListResponse{
		Items:    items,
		Total:    total,
		Page:     helpers.PageNumber(skip, limit),
		PageSize: limit,
	})
}

// Pending returns pending actions in urgency order
func (h *Handler) Pending(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.Pending")
	defer span.End()

	contactID, err := h.scopedContactID(c)
	if err != nil {
		return err
	}

	limit := helpers.ParseIntDefault(c, "limit", 100)
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	items, err := h.actions.ListPending(ctx, contactID, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, items)
}

// Overdue returns pending actions whose due date has passed, in urgency order
func (h *Handler) Overdue(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.Overdue")
	defer span.End()

	contactID, err := h.scopedContactID(c)
	if err != nil {
		return err
	}

	limit := helpers.ParseIntDefault(c, "limit", 100)
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	items, err := h.actions.ListOverdue(ctx, contactID, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, items)
}

// Upcoming returns pending actions due within the next N days, in urgency
// order
func (h *Handler) Upcoming(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.Upcoming")
	defer span.End()

	contactID, err := h.scopedContactID(c)
	if err != nil {
		return err
	}

	days := helpers.ParseIntDefault(c, "days", 7)
	if days < 1 {
		days = 7
	}
	if days > 365 {
		days = 365
	}

	limit := helpers.ParseIntDefault(c, "limit", 100)
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	items, err := h.actions.ListUpcoming(ctx, days, contactID, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, items)
}

// StatsByStatus returns action counts grouped by status, optionally scoped
// to one contact
func (h *Handler) StatsByStatus(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.StatsByStatus")
	defer span.End()

	contactID, err := h.scopedContactID(c)
	if err != nil {
		return err
	}

	counts, err := h.actions.CountByStatus(ctx, contactID)
	if err != nil {
		return err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return helpers.SuccessResponse(c, statusStatsResponse{
		Total:    total,
		ByStatus: counts,
	})
}

// StatsByType returns action counts grouped by action type, optionally scoped
// to one contact
func (h *Handler) StatsByType(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.StatsByType")
	defer span.End()

	contactID, err := h.scopedContactID(c)
	if err != nil {
		return err
	}

	counts, err := h.actions.CountByType(ctx, contactID)
	if err != nil {
		return err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return helpers.SuccessResponse(c, typeStatsResponse{
		Total:  total,
		ByType: counts,
	})
}

// StatsByPriority returns pending action counts grouped by priority,
// optionally scoped to one contact
func (h *Handler) StatsByPriority(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.StatsByPriority")
	defer span.End()

	contactID, err := h.scopedContactID(c)
	if err != nil {
		return err
	}

	counts, err := h.actions.CountPendingByPriority(ctx, contactID)
	if err != nil {
		return err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return helpers.SuccessResponse(c, priorityStatsResponse{
		Total:      total,
		ByPriority: counts,
	})
}

// ListByContact lists an existing contact's actions
func (h *Handler) ListByContact(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.ListByContact")
	defer span.End()

	contactID, err := helpers.ParseID(c, "contact_id")
	if err != nil {
		return err
	}

	if err := h.requireContact(c, contactID); err != nil {
		return err
	}

	skip, limit := helpers.ParsePagination(c)

	items, total, err := h.actions.List(ctx, models.ActionFilter{ContactID: &contactID}, skip, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.ActionListResponse{
		Items:    items,
		Total:    total,
		Page:     helpers.PageNumber(skip, limit),
		PageSize: limit,
	})
}

// Get gets an action by ID
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.Get")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	action, err := h.actions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if action == nil {
		return helpers.NotFound("Action not found")
	}

	return helpers.SuccessResponse(c, action)
}

// Update partially updates an action
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.Update")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateActionRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if req.Status != nil && !req.Status.Valid() {
		return helpers.BadRequest("invalid status: " + string(*req.Status))
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return helpers.BadRequest("invalid priority: " + string(*req.Priority))
	}
	if req.ActionType != nil && !req.ActionType.Valid() {
		return helpers.BadRequest("invalid action_type: " + string(*req.ActionType))
	}

	updated, err := h.actions.Update(ctx, id, req)
	if err != nil {
		metrics.RecordMutation("action", "update", "error")
		return err
	}
	if updated == nil {
		return helpers.NotFound("Action not found")
	}

	metrics.RecordMutation("action", "update", "success")
	h.emitter.EmitUpdated(ctx, "action", updated.ID, updated.ContactID, updated)

	return helpers.SuccessResponse(c, updated)
}

// Delete removes an action
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ActionHandler.Delete")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.actions.Delete(ctx, id)
	if err != nil {
		metrics.RecordMutation("action", "delete", "error")
		return err
	}
	if !deleted {
		return helpers.NotFound("Action not found")
	}

	metrics.RecordMutation("action", "delete", "success")
	h.emitter.EmitDeleted(ctx, "action", id)

	return helpers.NoContentResponse(c)
}
