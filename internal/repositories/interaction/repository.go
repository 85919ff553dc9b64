package interaction

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

// InteractionRepository defines the interface for interaction operations
type InteractionRepository interface {
	Create(ctx context.Context, req models.CreateInteractionRequest) (*models.Interaction, error)
	GetByID(ctx context.Context, id int64) (*models.Interaction, error)
	List(ctx context.Context, filter models.InteractionFilter, skip, limit int) ([]models.Interaction, int, error)
	ListRecent(ctx context.Context, days int, contactID *int64, limit int) ([]models.Interaction, error)
	Update(ctx context.Context, id int64, req models.UpdateInteractionRequest) (*models.Interaction, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountByType(ctx context.Context, contactID *int64) (map[models.InteractionType]int, error)
}

// Repository implements InteractionRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new interaction repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "interactions"

var columns = []string{
	"id", "contact_id", "type", "occurred_at", "summary", "outcome",
	"created_by", "created_at", "updated_at",
}

// Create inserts a new interaction, applying the note type default
func (r *Repository) Create(ctx context.Context, req models.CreateInteractionRequest) (*models.Interaction, error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionRepository.Create")
	defer span.End()
	defer metrics.TimeQuery("interaction", "create")()

	interactionType := req.Type
	if interactionType == "" {
		interactionType = models.DefaultInteractionType
	}

	now := time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("contact_id", "type", "occurred_at", "summary", "outcome", "created_by", "created_at", "updated_at")
	sb.Values(req.ContactID, interactionType, req.OccurredAt, req.Summary, req.Outcome, req.CreatedBy, now, now)
	sb.Returning("id")

	query, args := sb.Build()

	var id int64
	err := r.db.GetContext(ctx, &id, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create interaction")
		return nil, database.TranslateConstraintError(err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"contact_id": req.ContactID,
	}).Info("created interaction")

	return r.GetByID(ctx, id)
}

// GetByID gets an interaction by ID. Returns nil when no interaction exists.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Interaction, error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var interaction models.Interaction
	err := r.db.GetContext(ctx, &interaction, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get interaction by ID")
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}

	return &interaction, nil
}

// List lists interactions with optional filtering and pagination. The total
// count is computed before pagination. Ordering is occurred_at DESC.
func (r *Repository) List(ctx context.Context, filter models.InteractionFilter, skip, limit int) ([]models.Interaction, int, error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionRepository.List")
	defer span.End()
	defer metrics.TimeQuery("interaction", "list")()

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
		r.logger.WithContext(ctx).WithError(err).Error("failed to count interactions")
		return nil, 0, fmt.Errorf("failed to count interactions: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	applyFilter(sb, filter)
	sb.OrderBy("occurred_at DESC")
	sb.Limit(limit)
	sb.Offset(skip)

	query, args := sb.Build()

	items := []models.Interaction{}
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list interactions")
		return nil, 0, fmt.Errorf("failed to list interactions: %w", err)
	}

	metrics.RecordListResult("interaction", len(items))

	return items, totalCount, nil
}

func applyFilter(sb *database.SelectBuilder, filter models.InteractionFilter) {
	conds := []string{}

	if filter.ContactID != nil {
		conds = append(conds, sb.Equal("contact_id", *filter.ContactID))
	}
	if filter.Type != nil {
		conds = append(conds, sb.Equal("type", *filter.Type))
	}
	if filter.StartDate != nil {
		conds = append(conds, sb.GreaterEqualThan("occurred_at", *filter.StartDate))
	}
	if filter.EndDate != nil {
		conds = append(conds, sb.LessEqualThan("occurred_at", *filter.EndDate))
	}

	if len(conds) > 0 {
		sb.Where(conds...)
	}
}

// ListRecent returns interactions that occurred within the last N days,
// optionally scoped to one contact, most recent first.
func (r *Repository) ListRecent(ctx context.Context, days int, contactID *int64, limit int) ([]models.Interaction, error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionRepository.ListRecent")
	defer span.End()
	defer metrics.TimeQuery("interaction", "list_recent")()

	if days < 1 {
		days = 7
	}
	if limit < 1 {
		limit = 50
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.GreaterEqualThan("occurred_at", cutoff))
	if contactID != nil {
		sb.Where(sb.Equal("contact_id", *contactID))
	}
	sb.OrderBy("occurred_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()

	items := []models.Interaction{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list recent interactions")
		return nil, fmt.Errorf("failed to list recent interactions: %w", err)
	}

	return items, nil
}

// Update partially updates an interaction. Returns nil when no interaction
// exists. contact_id is immutable.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateInteractionRequest) (*models.Interaction, error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionRepository.Update")
	defer span.End()
	defer metrics.TimeQuery("interaction", "update")()

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

	if req.Type != nil {
		sb.SetMore(sb.Assign("type", *req.Type))
	}
	if req.OccurredAt != nil {
		sb.SetMore(sb.Assign("occurred_at", *req.OccurredAt))
	}
	if req.Summary != nil {
		sb.SetMore(sb.Assign("summary", *req.Summary))
	}
	if req.Outcome.Present {
		sb.SetMore(sb.Assign("outcome", req.Outcome.Value))
	}
	if req.CreatedBy.Present {
		sb.SetMore(sb.Assign("created_by", req.CreatedBy.Value))
	}

	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update interaction")
		return nil, database.TranslateConstraintError(err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("updated interaction")

	return r.GetByID(ctx, id)
}

// Delete removes an interaction. Reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionRepository.Delete")
	defer span.End()
	defer metrics.TimeQuery("interaction", "delete")()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete interaction")
		return false, fmt.Errorf("failed to delete interaction: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted interaction")

	return rowsAffected > 0, nil
}

// CountByType returns interaction counts grouped by type, optionally filtered
// to one contact. Types with no interactions are absent from the map.
func (r *Repository) CountByType(ctx context.Context, contactID *int64) (map[models.InteractionType]int, error) {
	ctx, span := tracing.StartSpan(ctx, "InteractionRepository.CountByType")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("type AS key", "COUNT(*) AS count")
	sb.From(tableName)
	if contactID != nil {
		sb.Where(sb.Equal("contact_id", *contactID))
	}
	sb.GroupBy("type")

	query, args := sb.Build()

	rows := []models.GroupCount{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count interactions by type")
		return nil, fmt.Errorf("failed to count interactions by type: %w", err)
	}

	counts := make(map[models.InteractionType]int, len(rows))
	for _, row := range rows {
		counts[models.InteractionType(row.Key)] = row.Count
	}

	return counts, nil
}
