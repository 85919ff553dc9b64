package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/bramble/pkg/events"
	"github.com/Ramsey-B/bramble/pkg/models"
)

type fakeContactRepo struct {
	contacts map[int64]*models.Contact
	nextID   int64
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[int64]*models.Contact{}}
}

func (f *fakeContactRepo) Create(ctx context.Context, req models.CreateContactRequest) (*models.Contact, error) {
	status := req.Status
	if status == "" {
		status = models.DefaultContactStatus
	}

	f.nextID++
	now := time.Now().UTC()
	contact := &models.Contact{
		ID:        f.nextID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Company:   req.Company,
		Status:    status,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.contacts[contact.ID] = contact
	return contact, nil
}

func (f *fakeContactRepo) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	return f.contacts[id], nil
}

func (f *fakeContactRepo) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	for _, contact := range f.contacts {
		if contact.Email != nil && *contact.Email == email {
			return contact, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := f.contacts[id]
	return ok, nil
}

func (f *fakeContactRepo) List(ctx context.Context, filter models.ContactFilter, skip, limit int) ([]models.Contact, int, error) {
	matched := []models.Contact{}
	for _, contact := range f.contacts {
		if filter.Status != nil && contact.Status != *filter.Status {
			continue
		}
		matched = append(matched, *contact)
	}

	total := len(matched)
	if skip >= len(matched) {
		return []models.Contact{}, total, nil
	}
	matched = matched[skip:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeContactRepo) Search(ctx context.Context, term string, limit int) ([]models.Contact, error) {
	matched := []models.Contact{}
	for _, contact := range f.contacts {
		if strings.Contains(strings.ToLower(contact.FirstName), strings.ToLower(term)) {
			matched = append(matched, *contact)
		}
	}
	return matched, nil
}

func (f *fakeContactRepo) Update(ctx context.Context, id int64, req models.UpdateContactRequest) (*models.Contact, error) {
	contact, ok := f.contacts[id]
	if !ok {
		return nil, nil
	}

	if req.FirstName != nil {
		contact.FirstName = *req.FirstName
	}
	if req.Status != nil {
		contact.Status = *req.Status
	}
	if req.Email.Present {
		contact.Email = req.Email.Value
	}
	contact.UpdatedAt = time.Now().UTC()
	return contact, nil
}

func (f *fakeContactRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.contacts[id]; !ok {
		return false, nil
	}
	delete(f.contacts, id)
	return true, nil
}

func (f *fakeContactRepo) CountByStatus(ctx context.Context) (map[models.ContactStatus]int, error) {
	counts := map[models.ContactStatus]int{}
	for _, contact := range f.contacts {
		counts[contact.Status]++
	}
	return counts, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestHandler() (*Handler, *fakeContactRepo) {
	repo := newFakeContactRepo()
	logger := testLogger()
	return NewHandler(repo, events.NewEmitter(nil, logger), logger), repo
}

func doRequest(method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreate_AppliesDefaultStatus(t *testing.T) {
	h, _ := newTestHandler()

	c, rec := doRequest(http.MethodPost, "/", `{"first_name": "Ada", "last_name": "Lovelace"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.ContactStatusLead, created.Status)
	assert.NotZero(t, created.ID)
}

func TestCreate_MissingRequiredField(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := doRequest(http.MethodPost, "/", `{"first_name": "Ada"}`)
	err := h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestCreate_UnknownStatus(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := doRequest(http.MethodPost, "/", `{"first_name": "Ada", "last_name": "Lovelace", "status": "vip"}`)
	err := h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestCreate_DuplicateEmail(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := doRequest(http.MethodPost, "/", `{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"}`)
	require.NoError(t, h.Create(c))

	c, _ = doRequest(http.MethodPost, "/", `{"first_name": "Grace", "last_name": "Hopper", "email": "ada@example.com"}`)
	err := h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestGet_NotFound(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := doRequest(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	err := h.Get(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestUpdate_KeepingOwnEmailIsNotAConflict(t *testing.T) {
	h, repo := newTestHandler()

	email := "ada@example.com"
	created, err := repo.Create(context.Background(), models.CreateContactRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: &email,
	})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodPut, "/", `{"email": "ada@example.com", "first_name": "Adah"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	updated, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Adah", updated.FirstName)
}

func TestUpdate_TakingAnotherContactsEmailConflicts(t *testing.T) {
	h, repo := newTestHandler()

	email := "ada@example.com"
	_, err := repo.Create(context.Background(), models.CreateContactRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: &email,
	})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), models.CreateContactRequest{
		FirstName: "Grace", LastName: "Hopper",
	})
	require.NoError(t, err)

	c, _ := doRequest(http.MethodPut, "/", `{"email": "ada@example.com"}`)
	c.SetParamNames("id")
	c.SetParamValues("2")

	updateErr := h.Update(c)
	require.Error(t, updateErr)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(updateErr))
}

func TestDelete(t *testing.T) {
	h, repo := newTestHandler()

	_, err := repo.Create(context.Background(), models.CreateContactRequest{
		FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, _ = doRequest(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	deleteErr := h.Delete(c)
	require.Error(t, deleteErr)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(deleteErr))
}

func TestList_PageMath(t *testing.T) {
	h, repo := newTestHandler()

	for range [5]struct{}{} {
		_, err := repo.Create(context.Background(), models.CreateContactRequest{
			FirstName: "Ada", LastName: "Lovelace",
		})
		require.NoError(t, err)
	}

	c, rec := doRequest(http.MethodGet, "/?skip=2&limit=2", "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.ContactListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.PageSize)
	assert.Len(t, resp.Items, 2)
}

func TestStatsByStatus(t *testing.T) {
	h, repo := newTestHandler()

	client := models.ContactStatusClient
	_, err := repo.Create(context.Background(), models.CreateContactRequest{FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), models.CreateContactRequest{FirstName: "C", LastName: "D", Status: client})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodGet, "/", "")
	require.NoError(t, h.StatsByStatus(c))

	var resp struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"by_status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.ByStatus["lead"])
	assert.Equal(t, 1, resp.ByStatus["client"])
}
