package proposal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contactrepo "github.com/Ramsey-B/bramble/internal/repositories/contact"
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

func createTestContact(t *testing.T, db database.DB) *models.Contact {
	t.Helper()

	contacts := contactrepo.NewRepository(db, getTestLogger())
	created, err := contacts.Create(context.Background(), models.CreateContactRequest{
		FirstName: "Proposal",
		LastName:  "Owner",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = contacts.Delete(context.Background(), created.ID)
	})

	return created
}

func TestCreate_AppliesDraftDefault(t *testing.T) {
	db := getTestDB(t)
	repo := NewRepository(db, getTestLogger())
	owner := createTestContact(t, db)

	value := 1250.75
	created, err := repo.Create(context.Background(), models.CreateProposalRequest{
		ContactID: owner.ID,
		Title:     "Annual support",
		Value:     &value,
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, models.ProposalStatusDraft, created.Status)
	require.NotNil(t, created.Value)
	assert.Equal(t, 1250.75, *created.Value)
}

func TestListExpired_OpenStatusesOnly(t *testing.T) {
	db := getTestDB(t)
	repo := NewRepository(db, getTestLogger())
	owner := createTestContact(t, db)
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour)

	expiredDraft, err := repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "expired draft", ExpiresAt: &past,
	})
	require.NoError(t, err)
	expiredSubmitted, err := repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "expired submitted", Status: models.ProposalStatusSubmitted, ExpiresAt: &past,
	})
	require.NoError(t, err)

	// settled statuses are never reported as expired
	_, err = repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "already won", Status: models.ProposalStatusWon, ExpiresAt: &past,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "still open", ExpiresAt: &future,
	})
	require.NoError(t, err)

	items, err := repo.ListExpired(ctx, nil, 1000)
	require.NoError(t, err)

	ids := map[int64]bool{}
	for _, item := range items {
		ids[item.ID] = true
		assert.Contains(t, []models.ProposalStatus{models.ProposalStatusDraft, models.ProposalStatusSubmitted}, item.Status)
	}
	assert.True(t, ids[expiredDraft.ID])
	assert.True(t, ids[expiredSubmitted.ID])
}

func TestListExpired_ContactScope(t *testing.T) {
	db := getTestDB(t)
	repo := NewRepository(db, getTestLogger())
	owner := createTestContact(t, db)
	other := createTestContact(t, db)
	ctx := context.Background()

	past := time.Now().UTC().Add(-48 * time.Hour)

	mine, err := repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "mine", ExpiresAt: &past,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.CreateProposalRequest{
		ContactID: other.ID, Title: "someone else's", ExpiresAt: &past,
	})
	require.NoError(t, err)

	items, err := repo.ListExpired(ctx, &owner.ID, 1000)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)
}

func TestList_ValueRange(t *testing.T) {
	db := getTestDB(t)
	repo := NewRepository(db, getTestLogger())
	owner := createTestContact(t, db)
	ctx := context.Background()

	for _, v := range []float64{100, 500, 2000} {
		value := v
		_, err := repo.Create(ctx, models.CreateProposalRequest{
			ContactID: owner.ID, Title: "deal", Value: &value,
		})
		require.NoError(t, err)
	}

	minValue, maxValue := 200.0, 1000.0
	items, total, err := repo.List(ctx, models.ProposalFilter{
		ContactID: &owner.ID,
		MinValue:  &minValue,
		MaxValue:  &maxValue,
	}, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Value)
	assert.Equal(t, 500.0, *items[0].Value)
}

func TestStatusAggregates(t *testing.T) {
	db := getTestDB(t)
	repo := NewRepository(db, getTestLogger())
	owner := createTestContact(t, db)
	ctx := context.Background()

	wonValue := 3000.0
	_, err := repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "won deal", Status: models.ProposalStatusWon, Value: &wonValue,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "no value draft",
	})
	require.NoError(t, err)

	counts, err := repo.CountByStatus(ctx, &owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.ProposalStatusWon])
	assert.Equal(t, 1, counts[models.ProposalStatusDraft])

	totals, err := repo.SumValueByStatus(ctx, &owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, totals[models.ProposalStatusWon])
	assert.Equal(t, 0.0, totals[models.ProposalStatusDraft])
}

func TestUpdate_ClearsExpiry(t *testing.T) {
	db := getTestDB(t)
	repo := NewRepository(db, getTestLogger())
	owner := createTestContact(t, db)
	ctx := context.Background()

	expiry := time.Now().UTC().Add(24 * time.Hour)
	created, err := repo.Create(ctx, models.CreateProposalRequest{
		ContactID: owner.ID, Title: "deal", ExpiresAt: &expiry,
	})
	require.NoError(t, err)
	require.NotNil(t, created.ExpiresAt)

	updated, err := repo.Update(ctx, created.ID, models.UpdateProposalRequest{
		ExpiresAt: models.Null[time.Time](),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Nil(t, updated.ExpiresAt)
}
