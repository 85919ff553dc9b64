package action

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/bramble/pkg/database"
	"github.com/Ramsey-B/bramble/pkg/metrics"
	"github.com/Ramsey-B/bramble/pkg/models"
	"github.com/Ramsey-B/bramble/pkg/tracing"
)

// ActionRepository defines the interface for action operations
type ActionRepository interface {
	Create(ctx context.Context, req models.CreateActionRequest) (*models.Action, error)
	GetByID(ctx context.Context, id int64) (*models.Action, error)
	List(ctx context.Context, filter models.ActionFilter, skip, limit int) ([]models.Action, int, error)
	ListPending(ctx context.Context, contactID *int64, limit int) ([]models.Action, error)
	ListOverdue(ctx context.Context, contactID *int64, limit int) ([]models.Action, error)
	ListUpcoming(ctx context.Context, days int, contactID *int64, limit int) ([]models.Action, error)
	Update(ctx context.Context, id int64, req models.UpdateActionRequest) (*models.Action, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountByStatus(ctx context.Context, contactID *int64) (map[models.ActionStatus]int, error)
	CountByType(ctx context.Context, contactID *int64) (map[models.ActionType]int, error)
	CountPendingByPriority(ctx context.Context, contactID *int64) (map[models.ActionPriority]int, error)
}

// Repository implements ActionRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new action repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "actions"

var columns = []string{
	"id", "contact_id", "proposal_id", "interaction_id", "title", "description",
	"status", "priority", "action_type", "due_at", "completed_at", "assigned_to",
	"created_at", "updated_at",
}

// urgencyOrder sorts most urgent first, then earliest due date. Priority is a
// Postgres enum so DESC follows declaration order, not alphabetical order.
const urgencyOrder = "priority DESC, due_at ASC"

// Create inserts a new action, applying the pending/medium/other defaults
func (r *Repository) Create(ctx context.Context, req models.CreateActionRequest) (*models.Action, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.Create")
	defer span.End()
	defer metrics.TimeQuery("action", "create")()

	status := req.Status
	if status == "" {
		status = models.DefaultActionStatus
	}
	priority := req.Priority
	if priority == "" {
		priority = models.DefaultActionPriority
	}
	actionType := req.ActionType
	if actionType == "" {
		actionType = models.DefaultActionType
	}

	now := time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols(
		"contact_id", "proposal_id", "interaction_id", "title", "description",
		"status", "priority", "action_type", "due_at", "assigned_to",
		"created_at", "updated_at",
	)
	sb.Values(
		req.ContactID, req.ProposalID, req.InteractionID, req.Title, req.Description,
		status, priority, actionType, req.DueAt, req.AssignedTo,
		now, now,
	)
	sb.Returning("id")

	query, args := sb.Build()

	var id int64
	err := r.db.GetContext(ctx, &id, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create action")
		return nil, database.TranslateConstraintError(err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"contact_id": req.ContactID,
	}).Info("created action")

	return r.GetByID(ctx, id)
}

// GetByID gets an action by ID. Returns nil when no action exists.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Action, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var action models.Action
	err := r.db.GetContext(ctx, &action, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get action by ID")
		return nil, fmt.Errorf("failed to get action: %w", err)
	}

	return &action, nil
}

// List lists actions with optional filtering and pagination. The total count
// is computed before pagination. Most urgent first, then earliest due date.
func (r *Repository) List(ctx context.Context, filter models.ActionFilter, skip, limit int) ([]models.Action, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.List")
	defer span.End()
	defer metrics.TimeQuery("action", "list")()

	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 100
	}

	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	applyFilter(countSb, filter)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count actions")
		return nil, 0, fmt.Errorf("failed to count actions: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	applyFilter(sb, filter)
	sb.OrderBy(urgencyOrder)
	sb.Limit(limit)
	sb.Offset(skip)

	query, args := sb.Build()

	items := []models.Action{}
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list actions")
		return nil, 0, fmt.Errorf("failed to list actions: %w", err)
	}

	metrics.RecordListResult("action", len(items))

	return items, totalCount, nil
}

func applyFilter(sb *database.SelectBuilder, filter models.ActionFilter) {
	conds := []string{}

	if filter.ContactID != nil {
		conds = append(conds, sb.Equal("contact_id", *filter.ContactID))
	}
	if filter.Status != nil {
		conds = append(conds, sb.Equal("status", *filter.Status))
	}
	if filter.Priority != nil {
		conds = append(conds, sb.Equal("priority", *filter.Priority))
	}
	if filter.ActionType != nil {
		conds = append(conds, sb.Equal("action_type", *filter.ActionType))
	}
	if filter.AssignedTo != nil {
		conds = append(conds, sb.Equal("assigned_to", *filter.AssignedTo))
	}
	if filter.OverdueOnly {
		conds = append(conds,
			sb.Equal("status", models.ActionStatusPending),
			sb.LessThan("due_at", time.Now().UTC()),
		)
	}

	if len(conds) > 0 {
		sb.Where(conds...)
	}
}

// ListPending returns pending actions, optionally scoped to one contact
func (r *Repository) ListPending(ctx context.Context, contactID *int64, limit int) ([]models.Action, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.ListPending")
	defer span.End()
	defer metrics.TimeQuery("action", "list_pending")()

	sb := database.NewSelectBuilder()
	conds := []string{sb.Equal("status", models.ActionStatusPending)}
	if contactID != nil {
		conds = append(conds, sb.Equal("contact_id", *contactID))
	}

	return r.listByConditions(ctx, sb, conds, limit, "failed to list pending actions")
}

// ListOverdue returns pending actions whose due date has passed
func (r *Repository) ListOverdue(ctx context.Context, contactID *int64, limit int) ([]models.Action, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.ListOverdue")
	defer span.End()
	defer metrics.TimeQuery("action", "list_overdue")()

	sb := database.NewSelectBuilder()
	conds := []string{
		sb.Equal("status", models.ActionStatusPending),
		sb.LessThan("due_at", time.Now().UTC()),
	}
	if contactID != nil {
		conds = append(conds, sb.Equal("contact_id", *contactID))
	}

	return r.listByConditions(ctx, sb, conds, limit, "failed to list overdue actions")
}

// ListUpcoming returns pending actions due within the next N days, inclusive
// on both ends of the window
func (r *Repository) ListUpcoming(ctx context.Context, days int, contactID *int64, limit int) ([]models.Action, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.ListUpcoming")
	defer span.End()
	defer metrics.TimeQuery("action", "list_upcoming")()

	if days < 1 {
		days = 7
	}

	now := time.Now().UTC()

	sb := database.NewSelectBuilder()
	conds := []string{
		sb.Equal("status", models.ActionStatusPending),
		sb.GreaterEqualThan("due_at", now),
		sb.LessEqualThan("due_at", now.AddDate(0, 0, days)),
	}
	if contactID != nil {
		conds = append(conds, sb.Equal("contact_id", *contactID))
	}

	return r.listByConditions(ctx, sb, conds, limit, "failed to list upcoming actions")
}

func (r *Repository) listByConditions(ctx context.Context, sb *database.SelectBuilder, conds []string, limit int, errMsg string) ([]models.Action, error) {
	if limit < 1 {
		limit = 100
	}

	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(conds...)
	sb.OrderBy(urgencyOrder)
	sb.Limit(limit)

	query, args := sb.Build()

	items := []models.Action{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(errMsg)
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}

	return items, nil
}

// Update partially updates an action. A transition to completed stamps
// completed_at when it is not already set; an explicit completed_at in the
// request wins over the stamp. Returns nil when no action exists.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateActionRequest) (*models.Action, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.Update")
	defer span.End()
	defer metrics.TimeQuery("action", "update")()

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sb := database.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now().UTC()))

	if req.Title != nil {
		sb.SetMore(sb.Assign("title", *req.Title))
	}
	if req.Description.Present {
		sb.SetMore(sb.Assign("description", req.Description.Value))
	}
	if req.Status != nil {
		sb.SetMore(sb.Assign("status", *req.Status))
	}
	if req.Priority != nil {
		sb.SetMore(sb.Assign("priority", *req.Priority))
	}
	if req.ActionType != nil {
		sb.SetMore(sb.Assign("action_type", *req.ActionType))
	}
	if req.DueAt.Present {
		sb.SetMore(sb.Assign("due_at", req.DueAt.Value))
	}

	switch {
	case req.CompletedAt.Present:
		sb.SetMore(sb.Assign("completed_at", req.CompletedAt.Value))
	case req.Status != nil && *req.Status == models.ActionStatusCompleted && existing.CompletedAt == nil:
		sb.SetMore(sb.Assign("completed_at", time.Now().UTC()))
	}

	if req.AssignedTo.Present {
		sb.SetMore(sb.Assign("assigned_to", req.AssignedTo.Value))
	}
	if req.ProposalID.Present {
		sb.SetMore(sb.Assign("proposal_id", req.ProposalID.Value))
	}
	if req.InteractionID.Present {
		sb.SetMore(sb.Assign("interaction_id", req.InteractionID.Value))
	}

	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update action")
		return nil, database.TranslateConstraintError(err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("updated action")

	return r.GetByID(ctx, id)
}

// Delete removes an action. Reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.Delete")
	defer span.End()
	defer metrics.TimeQuery("action", "delete")()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete action")
		return false, fmt.Errorf("failed to delete action: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted action")

	return rowsAffected > 0, nil
}

// CountByStatus returns action counts grouped by status, optionally filtered
// to one contact
func (r *Repository) CountByStatus(ctx context.Context, contactID *int64) (map[models.ActionStatus]int, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.CountByStatus")
	defer span.End()

	rows, err := r.groupCount(ctx, "status", contactID, nil)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ActionStatus]int, len(rows))
	for _, row := range rows {
		counts[models.ActionStatus(row.Key)] = row.Count
	}

	return counts, nil
}

// CountByType returns action counts grouped by action type, optionally
// filtered to one contact
func (r *Repository) CountByType(ctx context.Context, contactID *int64) (map[models.ActionType]int, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.CountByType")
	defer span.End()

	rows, err := r.groupCount(ctx, "action_type", contactID, nil)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ActionType]int, len(rows))
	for _, row := range rows {
		counts[models.ActionType(row.Key)] = row.Count
	}

	return counts, nil
}

// CountPendingByPriority returns pending action counts grouped by priority,
// optionally filtered to one contact. Only pending actions are counted.
func (r *Repository) CountPendingByPriority(ctx context.Context, contactID *int64) (map[models.ActionPriority]int, error) {
	ctx, span := tracing.StartSpan(ctx, "ActionRepository.CountPendingByPriority")
	defer span.End()

	pending := models.ActionStatusPending
	rows, err := r.groupCount(ctx, "priority", contactID, &pending)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ActionPriority]int, len(rows))
	for _, row := range rows {
		counts[models.ActionPriority(row.Key)] = row.Count
	}

	return counts, nil
}

func (r *Repository) groupCount(ctx context.Context, column string, contactID *int64, status *models.ActionStatus) ([]models.GroupCount, error) {
	sb := database.NewSelectBuilder()
	sb.Select(column+" AS key", "COUNT(*) AS count")
	sb.From(tableName)

	conds := []string{}
	if contactID != nil {
		conds = append(conds, sb.Equal("contact_id", *contactID))
	}
	if status != nil {
		conds = append(conds, sb.Equal("status", *status))
	}
	if len(conds) > 0 {
		sb.Where(conds...)
	}
	sb.GroupBy(column)

	query, args := sb.Build()

	rows := []models.GroupCount{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Errorf("failed to count actions by %s", column)
		return nil, fmt.Errorf("failed to count actions by %s: %w", column, err)
	}

	return rows, nil
}
