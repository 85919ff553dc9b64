package contact

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/bramble/pkg/database"
	"github.com/Ramsey-B/bramble/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	t.Helper()

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		t.Skip("DB_HOST not set; skipping database tests")
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "bramble"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func uniqueEmail() string {
	return uuid.New().String() + "@example.com"
}

func createTestContact(t *testing.T, repo *Repository, req models.CreateContactRequest) *models.Contact {
	t.Helper()

	if req.FirstName == "" {
		req.FirstName = "Test"
	}
	if req.LastName == "" {
		req.LastName = "Contact"
	}

	created, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, created)

	t.Cleanup(func() {
		_, _ = repo.Delete(context.Background(), created.ID)
	})

	return created
}

func TestCreateAndGet(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	email := uniqueEmail()
	company := "Initech"
	created := createTestContact(t, repo, models.CreateContactRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     &email,
		Company:   &company,
		Tags:      []string{"vip", "newsletter"},
	})

	assert.Equal(t, models.ContactStatusLead, created.Status)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Ada", fetched.FirstName)
	require.NotNil(t, fetched.Email)
	assert.Equal(t, email, *fetched.Email)
	assert.ElementsMatch(t, []string{"vip", "newsletter"}, []string(fetched.Tags))
}

func TestGetByID_Missing(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())

	fetched, err := repo.GetByID(context.Background(), -1)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestCreate_DuplicateEmailViolation(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	email := uniqueEmail()
	createTestContact(t, repo, models.CreateContactRequest{Email: &email})

	_, err := repo.Create(ctx, models.CreateContactRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     &email,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestUpdate_ClearsNullableField(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	notes := "call back next week"
	created := createTestContact(t, repo, models.CreateContactRequest{Notes: &notes})
	require.NotNil(t, created.Notes)

	updated, err := repo.Update(ctx, created.ID, models.UpdateContactRequest{
		Notes: models.Null[string](),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Nil(t, updated.Notes)
	assert.Equal(t, created.FirstName, updated.FirstName)
}

func TestUpdate_OmittedFieldsUntouched(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	phone := "+1-555-0100"
	created := createTestContact(t, repo, models.CreateContactRequest{Phone: &phone})

	newName := "Renamed"
	updated, err := repo.Update(ctx, created.ID, models.UpdateContactRequest{
		FirstName: &newName,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Renamed", updated.FirstName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
}

func TestUpdate_Missing(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())

	name := "Nobody"
	updated, err := repo.Update(context.Background(), -1, models.UpdateContactRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestDelete(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	created := createTestContact(t, repo, models.CreateContactRequest{})

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)

	deletedAgain, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deletedAgain)
}

func TestList_FilterByTags(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	marker := uuid.New().String()
	createTestContact(t, repo, models.CreateContactRequest{Tags: []string{marker, "vip"}})
	createTestContact(t, repo, models.CreateContactRequest{Tags: []string{marker}})

	items, total, err := repo.List(ctx, models.ContactFilter{Tags: []string{marker, "vip"}}, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Contains(t, []string(items[0].Tags), "vip")
}

func TestList_OrderedNewestFirst(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	older := createTestContact(t, repo, models.CreateContactRequest{})
	time.Sleep(10 * time.Millisecond)
	newer := createTestContact(t, repo, models.CreateContactRequest{})

	items, _, err := repo.List(ctx, models.ContactFilter{}, 0, 1000)
	require.NoError(t, err)

	olderIdx, newerIdx := -1, -1
	for i, item := range items {
		if item.ID == older.ID {
			olderIdx = i
		}
		if item.ID == newer.ID {
			newerIdx = i
		}
	}
	require.NotEqual(t, -1, olderIdx)
	require.NotEqual(t, -1, newerIdx)
	assert.Less(t, newerIdx, olderIdx)
}

func TestSearch(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	marker := "zx" + uuid.New().String()[:8]
	company := "Acme " + marker
	created := createTestContact(t, repo, models.CreateContactRequest{Company: &company})

	items, err := repo.Search(ctx, marker, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created.ID, items[0].ID)
}

func TestCountByStatus(t *testing.T) {
	repo := NewRepository(getTestDB(t), getTestLogger())
	ctx := context.Background()

	createTestContact(t, repo, models.CreateContactRequest{Status: models.ContactStatusClient})

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counts[models.ContactStatusClient], 1)
}
