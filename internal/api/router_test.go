package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmhub/crm-backend/internal/api/handler"
	"github.com/crmhub/crm-backend/internal/core/domain"
	"github.com/crmhub/crm-backend/internal/core/ports"
)

// --- stubs ---

type clientServiceStub struct {
	ports.ClientService
	create func(ports.CreateClientInput) (*ports.CreateClientResult, error)
	update func(int64, ports.UpdateClientInput) (*domain.Client, error)
	get    func(int64) (*domain.Client, error)
	lookup func(domain.UniqueField, string) (*domain.Client, error)
}

func (s *clientServiceStub) Create(_ context.Context, in ports.CreateClientInput) (*ports.CreateClientResult, error) {
	return s.create(in)
}

func (s *clientServiceStub) Update(_ context.Context, id int64, in ports.UpdateClientInput) (*domain.Client, error) {
	return s.update(id, in)
}

func (s *clientServiceStub) Get(_ context.Context, id int64) (*domain.Client, error) {
	return s.get(id)
}

func (s *clientServiceStub) FindByUniqueField(_ context.Context, f domain.UniqueField, v string) (*domain.Client, error) {
	return s.lookup(f, v)
}

type opportunityServiceStub struct {
	ports.OpportunityService
	create       func(ports.CreateOpportunityInput) (*ports.CreateOpportunityResult, error)
	update       func(int64, ports.UpdateOpportunityInput) (*domain.Opportunity, error)
	changeStatus func(int64, domain.OpportunityStatus) (*domain.Opportunity, error)
}

func (s *opportunityServiceStub) Create(_ context.Context, in ports.CreateOpportunityInput) (*ports.CreateOpportunityResult, error) {
	return s.create(in)
}

func (s *opportunityServiceStub) Update(_ context.Context, id int64, in ports.UpdateOpportunityInput) (*domain.Opportunity, error) {
	return s.update(id, in)
}

func (s *opportunityServiceStub) ChangeStatus(_ context.Context, id int64, target domain.OpportunityStatus) (*domain.Opportunity, error) {
	return s.changeStatus(id, target)
}

type userServiceStub struct {
	ports.UserService
	create func(ports.UserInput) (*domain.User, error)
	update func(int64, ports.UserInput) (*domain.User, error)
	get    func(int64) (*domain.User, error)
	list   func() ([]*domain.User, error)
}

func (s *userServiceStub) Create(_ context.Context, in ports.UserInput) (*domain.User, error) {
	return s.create(in)
}

func (s *userServiceStub) Update(_ context.Context, id int64, in ports.UserInput) (*domain.User, error) {
	return s.update(id, in)
}

func (s *userServiceStub) Get(_ context.Context, id int64) (*domain.User, error) {
	return s.get(id)
}

func (s *userServiceStub) List(context.Context) ([]*domain.User, error) {
	return s.list()
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	deps.Logger = zerolog.Nop()
	deps.Registerer = reg
	deps.Gatherer = reg
	return NewRouter(deps)
}

func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- tests ---

func TestCreateClient_Created(t *testing.T) {
	var got ports.CreateClientInput
	h := newTestRouter(t, Deps{Clients: &clientServiceStub{
		create: func(in ports.CreateClientInput) (*ports.CreateClientResult, error) {
			got = in
			return &ports.CreateClientResult{Client: &domain.Client{ID: 1, Name: in.Name}}, nil
		},
	}})

	rec := do(h, http.MethodPost, "/v1/clients",
		`{"name":"Ana","email":"ana@example.com","personal_document":"123.456.789-00","lead_score":7}`,
		"Idempotency-Key", "k-1")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "k-1", got.IdempotencyKey)
	assert.Equal(t, "123.456.789-00", got.PersonalDocument)
	assert.Equal(t, 7.0, got.LeadScore)
}

func TestCreateClient_Replayed(t *testing.T) {
	h := newTestRouter(t, Deps{Clients: &clientServiceStub{
		create: func(ports.CreateClientInput) (*ports.CreateClientResult, error) {
			return &ports.CreateClientResult{Client: &domain.Client{ID: 1}, Replayed: true}, nil
		},
	}})

	rec := do(h, http.MethodPost, "/v1/clients", `{"name":"Ana","personal_document":"1"}`, "Idempotency-Key", "k-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
}

func TestCreateClient_InvalidPayload(t *testing.T) {
	called := false
	h := newTestRouter(t, Deps{Clients: &clientServiceStub{
		create: func(ports.CreateClientInput) (*ports.CreateClientResult, error) {
			called = true
			return nil, nil
		},
	}})

	tests := []struct {
		name string
		body string
	}{
		{name: "bad email", body: `{"name":"Ana","email":"not-an-email"}`},
		{name: "malformed json", body: `{"name":`},
		{name: "wrong type", body: `{"lead_score":"high"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/v1/clients", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.False(t, called, "service must not be reached on invalid payload")
}

func TestCreateClient_DomainErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantBody  string
		wantField string
	}{
		{
			name:      "duplicate email",
			err:       domain.DuplicateField(domain.FieldEmail),
			wantCode:  http.StatusConflict,
			wantBody:  "duplicate_field",
			wantField: "email",
		},
		{
			name:     "both documents",
			err:      &domain.ConflictError{Code: domain.CodeBothDocumentsProvided},
			wantCode: http.StatusConflict,
			wantBody: "both_documents_provided",
		},
		{
			name:      "missing document",
			err:       &domain.ValidationError{Code: domain.CodeMissingDocument, Field: "document"},
			wantCode:  http.StatusBadRequest,
			wantBody:  "missing_document",
			wantField: "document",
		},
		{
			name:     "unexpected",
			err:      errors.New("connection reset"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(t, Deps{Clients: &clientServiceStub{
				create: func(ports.CreateClientInput) (*ports.CreateClientResult, error) {
					return nil, tc.err
				},
			}})

			rec := do(h, http.MethodPost, "/v1/clients", `{"name":"Ana"}`)
			require.Equal(t, tc.wantCode, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tc.wantBody, body.Code)
			assert.Equal(t, tc.wantField, body.Field)
			if tc.wantCode == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", body.Error)
			}
		})
	}
}

func TestGetClient(t *testing.T) {
	h := newTestRouter(t, Deps{Clients: &clientServiceStub{
		get: func(id int64) (*domain.Client, error) {
			if id == 1 {
				return &domain.Client{ID: 1, Name: "Ana"}, nil
			}
			return nil, domain.NotFound(domain.EntityClient, id)
		},
	}})

	rec := do(h, http.MethodGet, "/v1/clients/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/v1/clients/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)

	rec = do(h, http.MethodGet, "/v1/clients/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateClient_NullAndEmptyAreDistinct(t *testing.T) {
	var got ports.UpdateClientInput
	h := newTestRouter(t, Deps{Clients: &clientServiceStub{
		update: func(_ int64, in ports.UpdateClientInput) (*domain.Client, error) {
			got = in
			return &domain.Client{ID: 1}, nil
		},
	}})

	rec := do(h, http.MethodPut, "/v1/clients/1", `{"email":null,"phone":"","lead_score":3.5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, got.Email.IsSet(), "null must read as absent")
	assert.False(t, got.Name.IsSet(), "missing key must read as absent")
	phone, ok := got.Phone.Get()
	assert.True(t, ok)
	assert.Empty(t, phone)
	assert.Equal(t, 3.5, got.LeadScore.OrElse(0))
}

func TestLookupClient(t *testing.T) {
	var gotField domain.UniqueField
	var gotValue string
	h := newTestRouter(t, Deps{Clients: &clientServiceStub{
		lookup: func(f domain.UniqueField, v string) (*domain.Client, error) {
			gotField, gotValue = f, v
			return &domain.Client{ID: 4}, nil
		},
	}})

	rec := do(h, http.MethodGet, "/v1/clients/lookup?phone=%2B55+11+9999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.FieldPhone, gotField)
	assert.Equal(t, "+55 11 9999", gotValue)

	rec = do(h, http.MethodGet, "/v1/clients/lookup?phone=1&email=a@b.c", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/v1/clients/lookup", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatus(t *testing.T) {
	h := newTestRouter(t, Deps{Opportunities: &opportunityServiceStub{
		changeStatus: func(id int64, target domain.OpportunityStatus) (*domain.Opportunity, error) {
			if target == domain.StatusNew {
				return nil, &domain.IllegalTransitionError{From: domain.StatusWon, To: target}
			}
			return &domain.Opportunity{ID: id, Status: target}, nil
		},
	}})

	rec := do(h, http.MethodPut, "/v1/opportunities/3/status", `{"status":"NEGOTIATING"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var opp domain.Opportunity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opp))
	assert.Equal(t, domain.StatusNegotiating, opp.Status)

	rec = do(h, http.MethodPut, "/v1/opportunities/3/status", `{"status":"new"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "illegal_transition", decodeError(t, rec).Code)

	rec = do(h, http.MethodPut, "/v1/opportunities/3/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(domain.CodeUnknownStatus), decodeError(t, rec).Code)

	rec = do(h, http.MethodPut, "/v1/opportunities/3/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOpportunity(t *testing.T) {
	var got ports.CreateOpportunityInput
	h := newTestRouter(t, Deps{Opportunities: &opportunityServiceStub{
		create: func(in ports.CreateOpportunityInput) (*ports.CreateOpportunityResult, error) {
			got = in
			return &ports.CreateOpportunityResult{Opportunity: &domain.Opportunity{ID: 1, Title: in.Title}}, nil
		},
	}})

	rec := do(h, http.MethodPost, "/v1/opportunities",
		`{"title":"Annual license","estimated_value":15000.50,"status":"Negotiating","creation_date":"2024-03-01","client_id":2,"owner_id":3}`,
		"Idempotency-Key", "opp-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "Annual license", got.Title)
	assert.True(t, got.EstimatedValue.Equal(decimal.RequireFromString("15000.5")), "estimated value %s", got.EstimatedValue)
	status, ok := got.Status.Get()
	assert.True(t, ok)
	assert.Equal(t, domain.StatusNegotiating, status)
	date, ok := got.CreationDate.Get()
	assert.True(t, ok)
	assert.True(t, date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), "creation date %s", date)
	assert.Equal(t, int64(2), got.ClientID)
	assert.Equal(t, int64(3), got.OwnerID)
	assert.Equal(t, "opp-1", got.IdempotencyKey)

	rec = do(h, http.MethodPost, "/v1/opportunities", `{"title":"Renewal","estimated_value":"10","client_id":2,"owner_id":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, got.Status.IsSet(), "omitted status must stay absent")
	assert.False(t, got.CreationDate.IsSet(), "omitted creation date must stay absent")
	assert.True(t, got.EstimatedValue.Equal(decimal.NewFromInt(10)))
}

func TestCreateOpportunity_InvalidPayload(t *testing.T) {
	called := false
	h := newTestRouter(t, Deps{Opportunities: &opportunityServiceStub{
		create: func(ports.CreateOpportunityInput) (*ports.CreateOpportunityResult, error) {
			called = true
			return nil, nil
		},
	}})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"estimated_value":1,"client_id":2,"owner_id":3}`},
		{name: "bad creation date", body: `{"title":"x","creation_date":"01/03/2024","client_id":2,"owner_id":3}`},
		{name: "unknown status", body: `{"title":"x","status":"pending","client_id":2,"owner_id":3}`},
		{name: "non numeric value", body: `{"title":"x","estimated_value":"lots","client_id":2,"owner_id":3}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/v1/opportunities", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.False(t, called, "service must not be reached on invalid payload")
}

func TestUpdateOpportunity_PresentFieldsOnly(t *testing.T) {
	var (
		gotID int64
		got   ports.UpdateOpportunityInput
	)
	h := newTestRouter(t, Deps{Opportunities: &opportunityServiceStub{
		update: func(id int64, in ports.UpdateOpportunityInput) (*domain.Opportunity, error) {
			gotID, got = id, in
			return &domain.Opportunity{ID: id}, nil
		},
	}})

	rec := do(h, http.MethodPut, "/v1/opportunities/7",
		`{"title":"Renamed","status":null,"estimated_value":"99.90","client_id":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, int64(7), gotID)
	assert.Equal(t, "Renamed", got.Title.OrElse(""))
	assert.False(t, got.Status.IsSet(), "null status must read as absent")
	assert.False(t, got.Description.IsSet())
	assert.False(t, got.OwnerID.IsSet())
	assert.Equal(t, int64(5), got.ClientID.OrElse(0))
	value, ok := got.EstimatedValue.Get()
	assert.True(t, ok)
	assert.True(t, value.Equal(decimal.RequireFromString("99.9")))

	rec = do(h, http.MethodPut, "/v1/opportunities/7", `{"status":"ARCHIVED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusArchived, got.Status.OrElse(""))

	rec = do(h, http.MethodPut, "/v1/opportunities/7", `{"title":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	var (
		created ports.UserInput
		updated ports.UserInput
		updID   int64
	)
	h := newTestRouter(t, Deps{Users: &userServiceStub{
		create: func(in ports.UserInput) (*domain.User, error) {
			if in.Email == "taken@crm.test" {
				return nil, domain.DuplicateField(domain.FieldEmail)
			}
			created = in
			return &domain.User{ID: 1, Name: in.Name, Email: in.Email, Role: in.Role}, nil
		},
		update: func(id int64, in ports.UserInput) (*domain.User, error) {
			updID, updated = id, in
			return &domain.User{ID: id, Name: in.Name}, nil
		},
		get: func(id int64) (*domain.User, error) {
			return nil, domain.NotFound(domain.EntityUser, id)
		},
		list: func() ([]*domain.User, error) {
			return []*domain.User{{ID: 1}, {ID: 2}}, nil
		},
	}})

	rec := do(h, http.MethodPost, "/v1/users", `{"name":"Seller","email":"seller@crm.test","phone":"(11) 5555-0000","role":"sales"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, ports.UserInput{Name: "Seller", Email: "seller@crm.test", Phone: "(11) 5555-0000", Role: "sales"}, created)

	rec = do(h, http.MethodPost, "/v1/users", `{"name":"Other","email":"taken@crm.test","role":"sales"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email", decodeError(t, rec).Field)

	rec = do(h, http.MethodPost, "/v1/users", `{"name":"Other","email":"nope","role":"sales"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/v1/users/3", `{"name":"Lead","email":"lead@crm.test","role":"manager"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), updID)
	assert.Equal(t, "manager", updated.Role)

	rec = do(h, http.MethodGet, "/v1/users/4", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/v1/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, Deps{Readiness: map[string]handler.Pinger{
		"mongodb": pingerFunc(func(context.Context) error { return nil }),
		"redis":   pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	}})

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
	assert.Contains(t, rec.Body.String(), "dial tcp: refused")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, Deps{})

	do(h, http.MethodGet, "/health", "")
	rec := do(h, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crm_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t, Deps{})
	rec := do(h, http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
