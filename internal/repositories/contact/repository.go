package contact

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
	"github.com/lib/pq"
)

// ContactRepository defines the interface for contact operations
type ContactRepository interface {
	Create(ctx context.Context, req models.CreateContactRequest) (*models.Contact, error)
	GetByID(ctx context.Context, id int64) (*models.Contact, error)
	GetByEmail(ctx context.Context, email string) (*models.Contact, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter models.ContactFilter, skip, limit int) ([]models.Contact, int, error)
	Search(ctx context.Context, term string, limit int) ([]models.Contact, error)
	Update(ctx context.Context, id int64, req models.UpdateContactRequest) (*models.Contact, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountByStatus(ctx context.Context) (map[models.ContactStatus]int, error)
}

// Repository implements ContactRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "contacts"

var columns = []string{
	"id", "first_name", "last_name", "email", "phone", "company", "job_title",
	"status", "source", "owner_id", "tags", "notes", "next_action",
	"created_at", "updated_at",
}

// Create inserts a new contact, applying the lead status default
func (r *Repository) Create(ctx context.Context, req models.CreateContactRequest) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Create")
	defer span.End()
	defer metrics.TimeQuery("contact", "create")()

	status := req.Status
	if status == "" {
		status = models.DefaultContactStatus
	}

	tags := pq.StringArray(req.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}

	now := time.Now().UTC()

	sb := database.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols(
		"first_name", "last_name", "email", "phone", "company", "job_title",
		"status", "source", "owner_id", "tags", "notes", "next_action",
		"created_at", "updated_at",
	)
	sb.Values(
		req.FirstName, req.LastName, req.Email, req.Phone, req.Company, req.JobTitle,
		status, req.Source, req.OwnerID, tags, req.Notes, req.NextAction,
		now, now,
	)
	sb.Returning("id")

	query, args := sb.Build()

	var id int64
	err := r.db.GetContext(ctx, &id, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create contact")
		return nil, database.TranslateConstraintError(err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Info("created contact")

	return r.GetByID(ctx, id)
}

// querier is satisfied by both the pool and an open transaction
type querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// GetByID gets a contact by ID. Returns nil when no contact exists.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.GetByID")
	defer span.End()

	return r.getByID(ctx, r.db, id)
}

func (r *Repository) getByID(ctx context.Context, q querier, id int64) (*models.Contact, error) {
	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var contact models.Contact
	err := q.GetContext(ctx, &contact, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get contact by ID")
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &contact, nil
}

// GetByEmail gets a contact by email. Returns nil when no contact exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.GetByEmail")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("email", email))

	query, args := sb.Build()

	var contact models.Contact
	err := r.db.GetContext(ctx, &contact, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get contact by email")
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &contact, nil
}

// Exists reports whether a contact with the given ID exists
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var count int
	err := r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to check contact existence")
		return false, fmt.Errorf("failed to check contact existence: %w", err)
	}

	return count > 0, nil
}

// List lists contacts with optional filtering and pagination. The total count
// is computed before pagination is applied. Ordering is created_at DESC.
func (r *Repository) List(ctx context.Context, filter models.ContactFilter, skip, limit int) ([]models.Contact, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.List")
	defer span.End()
	defer metrics.TimeQuery("contact", "list")()

	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 100
	}

	// Get total count
	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	applyFilter(countSb, filter)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count contacts")
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	// Get items
	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	applyFilter(sb, filter)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)
	sb.Offset(skip)

	query, args := sb.Build()

	items := []models.Contact{}
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list contacts")
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}

	metrics.RecordListResult("contact", len(items))

	return items, totalCount, nil
}

func applyFilter(sb *database.SelectBuilder, filter models.ContactFilter) {
	conds := []string{}

	if filter.Status != nil {
		conds = append(conds, sb.Equal("status", *filter.Status))
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		conds = append(conds, sb.Or(
			sb.ILike("first_name", pattern),
			sb.ILike("last_name", pattern),
			sb.ILike("email", pattern),
			sb.ILike("company", pattern),
		))
	}
	if len(filter.Tags) > 0 {
		// contact must carry every requested tag
		conds = append(conds, fmt.Sprintf("tags @> %s", sb.Var(pq.StringArray(filter.Tags))))
	}

	if len(conds) > 0 {
		sb.Where(conds...)
	}
}

// Search finds contacts matching the term across name, email, and company.
// Results are ordered by most recently updated.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Search")
	defer span.End()
	defer metrics.TimeQuery("contact", "search")()

	if limit < 1 {
		limit = 50
	}

	pattern := "%" + term + "%"

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Or(
		sb.ILike("first_name", pattern),
		sb.ILike("last_name", pattern),
		sb.ILike("email", pattern),
		sb.ILike("company", pattern),
	))
	sb.OrderBy("updated_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()

	items := []models.Contact{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to search contacts")
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}

	return items, nil
}

// Update partially updates a contact. Only fields present in the request are
// written; explicit nulls clear nullable columns. Returns nil when no contact
// exists.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateContactRequest) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Update")
	defer span.End()
	defer metrics.TimeQuery("contact", "update")()

	// existence check, write, and re-read form one atomic unit
	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := r.getByID(txCtx, tx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sb := database.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now().UTC()))

	if req.FirstName != nil {
		sb.SetMore(sb.Assign("first_name", *req.FirstName))
	}
	if req.LastName != nil {
		sb.SetMore(sb.Assign("last_name", *req.LastName))
	}
	if req.Email.Present {
		sb.SetMore(sb.Assign("email", req.Email.Value))
	}
	if req.Phone.Present {
		sb.SetMore(sb.Assign("phone", req.Phone.Value))
	}
	if req.Company.Present {
		sb.SetMore(sb.Assign("company", req.Company.Value))
	}
	if req.JobTitle.Present {
		sb.SetMore(sb.Assign("job_title", req.JobTitle.Value))
	}
	if req.Status != nil {
		sb.SetMore(sb.Assign("status", *req.Status))
	}
	if req.Source.Present {
		sb.SetMore(sb.Assign("source", req.Source.Value))
	}
	if req.OwnerID.Present {
		sb.SetMore(sb.Assign("owner_id", req.OwnerID.Value))
	}
	if req.Tags != nil {
		// whole-value replacement
		sb.SetMore(sb.Assign("tags", pq.StringArray(*req.Tags)))
	}
	if req.Notes.Present {
		sb.SetMore(sb.Assign("notes", req.Notes.Value))
	}
	if req.NextAction.Present {
		sb.SetMore(sb.Assign("next_action", req.NextAction.Value))
	}

	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update contact")
		return nil, database.TranslateConstraintError(err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("updated contact")

	updated, err := r.getByID(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, fmt.Errorf("failed to commit contact update: %w", err)
	}

	return updated, nil
}

// Delete removes a contact. Dependent interactions, proposals, and actions
// are removed by the store's cascade rules. Reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Delete")
	defer span.End()
	defer metrics.TimeQuery("contact", "delete")()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete contact")
		return false, fmt.Errorf("failed to delete contact: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted contact")

	return rowsAffected > 0, nil
}

// CountByStatus returns contact counts grouped by status. Statuses with no
// contacts are absent from the map.
func (r *Repository) CountByStatus(ctx context.Context) (map[models.ContactStatus]int, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.CountByStatus")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("status AS key", "COUNT(*) AS count")
	sb.From(tableName)
	sb.GroupBy("status")

	query, args := sb.Build()

	rows := []models.GroupCount{}
	err := r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count contacts by status")
		return nil, fmt.Errorf("failed to count contacts by status: %w", err)
	}

	counts := make(map[models.ContactStatus]int, len(rows))
	for _, row := range rows {
		counts[models.ContactStatus(row.Key)] = row.Count
	}

	return counts, nil
}
