package proposal

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

// fakeContacts only tracks existence; the proposal handler never reads
// contact fields.
type fakeContacts struct {
	ids map[int64]bool
}

func (f *fakeContacts) Create(ctx context.Context, req models.CreateContactRequest) (*models.Contact, error) {
	return nil, nil
}
func (f *fakeContacts) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	return nil, nil
}
func (f *fakeContacts) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	return nil, nil
}
func (f *fakeContacts) Exists(ctx context.Context, id int64) (bool, error) {
	return f.ids[id], nil
}
func (f *fakeContacts) List(ctx context.Context, filter models.ContactFilter, skip, limit int) ([]models.Contact, int, error) {
	return nil, 0, nil
}
func (f *fakeContacts) Search(ctx context.Context, term string, limit int) ([]models.Contact, error) {
	return nil, nil
}
func (f *fakeContacts) Update(ctx context.Context, id int64, req models.UpdateContactRequest) (*models.Contact, error) {
	return nil, nil
}
func (f *fakeContacts) Delete(ctx context.Context, id int64) (bool, error) {
	return false, nil
}
func (f *fakeContacts) CountByStatus(ctx context.Context) (map[models.ContactStatus]int, error) {
	return nil, nil
}

type fakeProposals struct {
	proposals map[int64]*models.Proposal
	nextID    int64
}

func newFakeProposals() *fakeProposals {
	return &fakeProposals{proposals: map[int64]*models.Proposal{}}
}

func (f *fakeProposals) Create(ctx context.Context, req models.CreateProposalRequest) (*models.Proposal, error) {
	status := req.Status
	if status == "" {
		status = models.DefaultProposalStatus
	}

	f.nextID++
	now := time.Now().UTC()
	proposal := &models.Proposal{
		ID:        f.nextID,
		ContactID: req.ContactID,
		Title:     req.Title,
		Value:     req.Value,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.proposals[proposal.ID] = proposal
	return proposal, nil
}

func (f *fakeProposals) GetByID(ctx context.Context, id int64) (*models.Proposal, error) {
	return f.proposals[id], nil
}

func (f *fakeProposals) List(ctx context.Context, filter models.ProposalFilter, skip, limit int) ([]models.Proposal, int, error) {
	return nil, 0, nil
}

func (f *fakeProposals) ListExpired(ctx context.Context, contactID *int64, limit int) ([]models.Proposal, error) {
	return nil, nil
}

func (f *fakeProposals) Update(ctx context.Context, id int64, req models.UpdateProposalRequest) (*models.Proposal, error) {
	return f.proposals[id], nil
}

func (f *fakeProposals) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.proposals[id]; !ok {
		return false, nil
	}
	delete(f.proposals, id)
	return true, nil
}

func (f *fakeProposals) CountByStatus(ctx context.Context, contactID *int64) (map[models.ProposalStatus]int, error) {
	counts := map[models.ProposalStatus]int{}
	for _, proposal := range f.proposals {
		if contactID != nil && proposal.ContactID != *contactID {
			continue
		}
		counts[proposal.Status]++
	}
	return counts, nil
}

func (f *fakeProposals) SumValueByStatus(ctx context.Context, contactID *int64) (map[models.ProposalStatus]float64, error) {
	totals := map[models.ProposalStatus]float64{}
	for _, proposal := range f.proposals {
		if contactID != nil && proposal.ContactID != *contactID {
			continue
		}
		if proposal.Value != nil {
			totals[proposal.Status] += *proposal.Value
		}
	}
	return totals, nil
}

func newTestHandler(contactIDs ...int64) (*Handler, *fakeProposals) {
	contacts := &fakeContacts{ids: map[int64]bool{}}
	for _, id := range contactIDs {
		contacts.ids[id] = true
	}

	repo := newFakeProposals()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewHandler(repo, contacts, events.NewEmitter(nil, logger), logger), repo
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

func TestCreate_UnknownContact(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := doRequest(http.MethodPost, "/", `{"contact_id": 5, "title": "Pitch"}`)
	err := h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestCreate_NegativeValue(t *testing.T) {
	h, _ := newTestHandler(5)

	c, _ := doRequest(http.MethodPost, "/", `{"contact_id": 5, "title": "Pitch", "value": -10}`)
	err := h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestCreate_AppliesDraftDefault(t *testing.T) {
	h, _ := newTestHandler(5)

	c, rec := doRequest(http.MethodPost, "/", `{"contact_id": 5, "title": "Pitch", "value": 2500.50}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created models.Proposal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.ProposalStatusDraft, created.Status)
}

func TestStatsByStatus_DenseZeroFilled(t *testing.T) {
	h, repo := newTestHandler(5)

	value := 1000.0
	_, err := repo.Create(context.Background(), models.CreateProposalRequest{
		ContactID: 5, Title: "Pitch", Value: &value, Status: models.ProposalStatusWon,
	})
	require.NoError(t, err)

	c, rec := doRequest(http.MethodGet, "/", "")
	require.NoError(t, h.StatsByStatus(c))

	var stats models.ProposalStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

	assert.Equal(t, 1, stats.TotalCount)
	assert.Equal(t, 1000.0, stats.TotalValue)
	assert.Len(t, stats.ByStatus, len(models.ProposalStatuses()))
	assert.Equal(t, 1, stats.ByStatus["won"].Count)
	assert.Equal(t, 0, stats.ByStatus["draft"].Count)
	assert.Equal(t, 0.0, stats.ByStatus["lost"].TotalValue)
}

func TestStatsByStatus_UnknownContact(t *testing.T) {
	h, _ := newTestHandler()

	c, _ := doRequest(http.MethodGet, "/?contact_id=9", "")
	err := h.StatsByStatus(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}
