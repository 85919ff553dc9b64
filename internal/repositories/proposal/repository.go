package proposal

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

// ProposalRepository defines the interface for proposal operations
type ProposalRepository interface {
	Create(ctx context.Context, req models.CreateProposalRequest) (*models.Proposal, error)
	GetByID(ctx context.Context, id int64) (*models.Proposal, error)
	List(ctx context.Context, filter models.ProposalFilter, skip, limit int) ([]models.Proposal, int, error)
	ListExpired(ctx context.Context, contactID *int64, limit int) ([]models.Proposal, error)
	Update(ctx context.Context, id int64, req models.UpdateProposalRequest) (*models.Proposal, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountByStatus(ctx context.Context, contactID *int64) (map[models.ProposalStatus]int, error)
	SumValueByStatus(ctx context.Context, contactID *int64) (map[models.ProposalStatus]float64, error)
}

// Repository implements ProposalRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new proposal repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "proposals"

var columns = []string{
	"id", "contact_id", "title", "description", "value", "status",
	"applied_at", "expires_at", "created_at", "updated_at",
}

// Create inserts a new proposal, applying the draft status default
func (r *Repository) Create(ctx context.Context, req models.CreateProposalRequest) (*models.Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.Create")
	defer span.End()
	defer metrics.TimeQuery("proposal", "create")()

	status := req.Status
	if status == "" {
		status = models.DefaultProposalStatus
	}

	now := time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("contact_id", "title", "description", "value", "status", "applied_at", "expires_at", "created_at", "updated_at")
	sb.Values(req.ContactID, req.Title, req.Description, req.Value, status, req.AppliedAt, req.ExpiresAt, now, now)
	sb.Returning("id")

	query, args := sb.Build()

	var id int64
	err := r.db.GetContext(ctx, &id, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create proposal")
		return nil, database.TranslateConstraintError(err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"contact_id": req.ContactID,
	}).Info("created proposal")

	return r.GetByID(ctx, id)
}

// GetByID gets a proposal by ID. Returns nil when no proposal exists.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var proposal models.Proposal
	err := r.db.GetContext(ctx, &proposal, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get proposal by ID")
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	return &proposal, nil
}

// List lists proposals with optional filtering and pagination. The total
// count is computed before pagination. Ordering is created_at DESC.
func (r *Repository) List(ctx context.Context, filter models.ProposalFilter, skip, limit int) ([]models.Proposal, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.List")
	defer span.End()
	defer metrics.TimeQuery("proposal", "list")()

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
		r.logger.WithContext(ctx).WithError(err).Error("failed to count proposals")
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	applyFilter(sb, filter)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)
	sb.Offset(skip)

	query, args := sb.Build()

	items := []models.Proposal{}
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list proposals")
		return nil, 0, fmt.Errorf("failed to list proposals: %w", err)
	}

	metrics.RecordListResult("proposal", len(items))

	return items, totalCount, nil
}

func applyFilter(sb *database.SelectBuilder, filter models.ProposalFilter) {
	conds := []string{}

	if filter.ContactID != nil {
		conds = append(conds, sb.Equal("contact_id", *filter.ContactID))
	}
	if filter.Status != nil {
		conds = append(conds, sb.Equal("status", *filter.Status))
	}
	if filter.MinValue != nil {
		conds = append(conds, sb.GreaterEqualThan("value", *filter.MinValue))
	}
	if filter.MaxValue != nil {
		conds = append(conds, sb.LessEqualThan("value", *filter.MaxValue))
	}

	if len(conds) > 0 {
		sb.Where(conds...)
	}
}

// ListExpired returns proposals whose deadline has passed while still open
// (draft or submitted), optionally scoped to one contact. The stored status
// is never rewritten; expiry is purely a query-time notion. Ordered by most
// recently expired.
func (r *Repository) ListExpired(ctx context.Context, contactID *int64, limit int) ([]models.Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.ListExpired")
	defer span.End()
	defer metrics.TimeQuery("proposal", "list_expired")()

	if limit < 1 {
		limit = 100
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.LessThan("expires_at", time.Now().UTC()),
		sb.In("status", models.ProposalStatusDraft, models.ProposalStatusSubmitted),
	)
	if contactID != nil {
		sb.Where(sb.Equal("contact_id", *contactID))
	}
	sb.OrderBy("expires_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()

	items := []models.Proposal{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list expired proposals")
		return nil, fmt.Errorf("failed to list expired proposals: %w", err)
	}

	return items, nil
}

// Update partially updates a proposal. Returns nil when no proposal exists.
// contact_id is immutable.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateProposalRequest) (*models.Proposal, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.Update")
	defer span.End()
	defer metrics.TimeQuery("proposal", "update")()

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
	if req.Value.Present {
		sb.SetMore(sb.Assign("value", req.Value.Value))
	}
	if req.Status != nil {
		sb.SetMore(sb.Assign("status", *req.Status))
	}
	if req.AppliedAt.Present {
		sb.SetMore(sb.Assign("applied_at", req.AppliedAt.Value))
	}
	if req.ExpiresAt.Present {
		sb.SetMore(sb.Assign("expires_at", req.ExpiresAt.Value))
	}

	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update proposal")
		return nil, database.TranslateConstraintError(err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("updated proposal")

	return r.GetByID(ctx, id)
}

// Delete removes a proposal. Actions referencing it are removed by the
// store's cascade rules. Reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.Delete")
	defer span.End()
	defer metrics.TimeQuery("proposal", "delete")()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete proposal")
		return false, fmt.Errorf("failed to delete proposal: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted proposal")

	return rowsAffected > 0, nil
}

// CountByStatus returns proposal counts grouped by status, optionally
// filtered to one contact. Statuses with no proposals are absent from the map.
func (r *Repository) CountByStatus(ctx context.Context, contactID *int64) (map[models.ProposalStatus]int, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.CountByStatus")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("status AS key", "COUNT(*) AS count")
	sb.From(tableName)
	if contactID != nil {
		sb.Where(sb.Equal("contact_id", *contactID))
	}
	sb.GroupBy("status")

	query, args := sb.Build()

	rows := []models.GroupCount{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count proposals by status")
		return nil, fmt.Errorf("failed to count proposals by status: %w", err)
	}

	counts := make(map[models.ProposalStatus]int, len(rows))
	for _, row := range rows {
		counts[models.ProposalStatus(row.Key)] = row.Count
	}

	return counts, nil
}

// SumValueByStatus returns summed proposal values grouped by status,
// optionally filtered to one contact. Proposals with no value contribute
// nothing to their group's sum.
func (r *Repository) SumValueByStatus(ctx context.Context, contactID *int64) (map[models.ProposalStatus]float64, error) {
	ctx, span := tracing.StartSpan(ctx, "ProposalRepository.SumValueByStatus")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("status AS key", "COALESCE(SUM(value), 0) AS total")
	sb.From(tableName)
	if contactID != nil {
		sb.Where(sb.Equal("contact_id", *contactID))
	}
	sb.GroupBy("status")

	query, args := sb.Build()

	rows := []models.GroupSum{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to sum proposal values by status")
		return nil, fmt.Errorf("failed to sum proposal values by status: %w", err)
	}

	totals := make(map[models.ProposalStatus]float64, len(rows))
	for _, row := range rows {
		totals[models.ProposalStatus(row.Key)] = row.Total
	}

	return totals, nil
}
