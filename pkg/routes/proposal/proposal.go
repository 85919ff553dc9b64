// Package proposal exposes the HTTP endpoints for proposal records
package proposal

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	contactrepo "github.com/Ramsey-B/bramble/internal/repositories/contact"
	proposalrepo "github.com/Ramsey-B/bramble/internal/repositories/proposal"
	"github.com/Ramsey-B/bramble/pkg/events"
	"github.com/Ramsey-B/bramble/pkg/metrics"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/routes/helpers"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

var validate = validator.New()

// Handler handles proposal endpoints
type Handler struct {
	proposals proposalrepo.ProposalRepository
	contacts  contactrepo.ContactRepository
	emitter   *events.Emitter
	logger    ectologger.Logger
}

// NewHandler creates a new proposal handler
func NewHandler(proposals proposalrepo.ProposalRepository, contacts contactrepo.ContactRepository, emitter *events.Emitter, logger ectologger.Logger) *Handler {
	return &Handler{
		proposals: proposals,
		contacts:  contacts,
		emitter:   emitter,
		logger:    logger,
	}
}

// RegisterRoutes registers the proposal endpoints on the given group
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/expired", h.Expired)
	g.GET("/stats/by-status", h.StatsByStatus)
	g.GET("/contact/:contact_id", h.ListByContact)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
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

// Create creates a new proposal for an existing contact
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.Create")
	defer span.End()

	var req models.CreateProposalRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err)
	}

	if req.Status != "" && !req.Status.Valid() {
		return helpers.BadRequest("invalid status: " + string(req.Status))
	}
	if req.Value != nil && *req.Value < 0 {
		return helpers.BadRequest("value must not be negative")
	}

	if err := h.requireContact(c, req.ContactID); err != nil {
		return err
	}

	created, err := h.proposals.Create(ctx, req)
	if err != nil {
		metrics.RecordMutation("proposal", "create", "error")
		return err
	}

	metrics.RecordMutation("proposal", "create", "success")
	h.emitter.EmitCreated(ctx, "proposal", created.ID, created.ContactID, created)

	return helpers.CreatedResponse(c, created)
}

// List lists proposals with optional contact, status, and value range filters
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.List")
	defer span.End()

	skip, limit := helpers.ParsePagination(c)

	filter := models.ProposalFilter{}

	contactID, err := helpers.ParseOptionalInt64(c, "contact_id")
	if err != nil {
		return err
	}
	filter.ContactID = contactID

	if raw := c.QueryParam("status"); raw != "" {
		status := models.ProposalStatus(raw)
		if !status.Valid() {
			return helpers.BadRequest("invalid status: " + raw)
		}
		filter.Status = &status
	}

	if filter.MinValue, err = helpers.ParseOptionalFloat(c, "min_value"); err != nil {
		return err
	}
	if filter.MaxValue, err = helpers.ParseOptionalFloat(c, "max_value"); err != nil {
		return err
	}

	items, total, err := h.proposals.List(ctx, filter, skip, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.ProposalListResponse{
		Items:    items,
		Total:    total,
		Page:     helpers.PageNumber(skip, limit),
		PageSize: limit,
	})
}

// Expired returns open proposals whose expiry date has passed, optionally
// scoped to one contact, soonest expired first
func (h *Handler) Expired(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.Expired")
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

	limit := helpers.ParseIntDefault(c, "limit", 100)
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	items, err := h.proposals.ListExpired(ctx, contactID, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, items)
}

// StatsByStatus returns proposal counts and value totals for every status,
// optionally scoped to one contact. Every status appears, zero-filled.
func (h *Handler) StatsByStatus(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.StatsByStatus")
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

	counts, err := h.proposals.CountByStatus(ctx, contactID)
	if err != nil {
		return err
	}

	totals, err := h.proposals.SumValueByStatus(ctx, contactID)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.BuildProposalStats(counts, totals))
}

// ListByContact lists an existing contact's proposals
func (h *Handler) ListByContact(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.ListByContact")
	defer span.End()

	contactID, err := helpers.ParseID(c, "contact_id")
	if err != nil {
		return err
	}

	if err := h.requireContact(c, contactID); err != nil {
		return err
	}

	skip, limit := helpers.ParsePagination(c)

	items, total, err := h.proposals.List(ctx, models.ProposalFilter{ContactID: &contactID}, skip, limit)
	if err != nil {
		return err
	}

	return helpers.SuccessResponse(c, models.ProposalListResponse{
		Items:    items,
		Total:    total,
		Page:     helpers.PageNumber(skip, limit),
		PageSize: limit,
	})
}

// Get gets a proposal by ID
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.Get")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	proposal, err := h.proposals.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if proposal == nil {
		return helpers.NotFound("Proposal not found")
	}

	return helpers.SuccessResponse(c, proposal)
}

// Update partially updates a proposal
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.Update")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateProposalRequest
	if err := c.Bind(&req); err != nil {
		return helpers.BadRequest("invalid request body")
	}

	if req.Status != nil && !req.Status.Valid() {
		return helpers.BadRequest("invalid status: " + string(*req.Status))
	}
	if req.Value.Present && req.Value.Value != nil && *req.Value.Value < 0 {
		return helpers.BadRequest("value must not be negative")
	}

	updated, err := h.proposals.Update(ctx, id, req)
	if err != nil {
		metrics.RecordMutation("proposal", "update", "error")
		return err
	}
	if updated == nil {
		return helpers.NotFound("Proposal not found")
	}

	metrics.RecordMutation("proposal", "update", "success")
	h.emitter.EmitUpdated(ctx, "proposal", updated.ID, updated.ContactID, updated)

	return helpers.SuccessResponse(c, updated)
}

// Delete removes a proposal
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ProposalHandler.Delete")
	defer span.End()

	id, err := helpers.ParseID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.proposals.Delete(ctx, id)
	if err != nil {
		metrics.RecordMutation("proposal", "delete", "error")
		return err
	}
	if !deleted {
		return helpers.NotFound("Proposal not found")
	}

	metrics.RecordMutation("proposal", "delete", "success")
	h.emitter.EmitDeleted(ctx, "proposal", id)

	return helpers.NoContentResponse(c)
}
