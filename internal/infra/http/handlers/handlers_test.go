package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/auth"
	"github.com/xavierca1/leadflow/internal/infra/events"
	"github.com/xavierca1/leadflow/internal/infra/integration/paymob"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type MockSubmitLead struct {
	mock.Mock
}

func (m *MockSubmitLead) Execute(ctx context.Context, input usecase.SubmitLeadInput) (*usecase.SubmitLeadOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.SubmitLeadOutput)
	return out, args.Error(1)
}

type MockActivateSubscription struct {
	mock.Mock
}

func (m *MockActivateSubscription) Execute(ctx context.Context, input usecase.ActivateSubscriptionInput) error {
	return m.Called(ctx, input).Error(0)
}

type MockRoster struct {
	mock.Mock
}

func (m *MockRoster) List(ctx context.Context, companyID string) ([]entity.Agent, error) {
	args := m.Called(ctx, companyID)
	agents, _ := args.Get(0).([]entity.Agent)
	return agents, args.Error(1)
}

func (m *MockRoster) Add(ctx context.Context, companyID string, input usecase.AddAgentInput) (*entity.Agent, error) {
	args := m.Called(ctx, companyID, input)
	a, _ := args.Get(0).(*entity.Agent)
	return a, args.Error(1)
}

func (m *MockRoster) Remove(ctx context.Context, companyID, agentID string) error {
	return m.Called(ctx, companyID, agentID).Error(0)
}

func (m *MockRoster) Reorder(ctx context.Context, companyID string, input usecase.ReorderAgentsInput) ([]entity.Agent, error) {
	args := m.Called(ctx, companyID, input)
	agents, _ := args.Get(0).([]entity.Agent)
	return agents, args.Error(1)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func withCompany(r *http.Request, companyID string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), auth.Claims{CompanyID: companyID}))
}

func TestLeadHandler(t *testing.T) {
	t.Run("header credential and success", func(t *testing.T) {
		uc := new(MockSubmitLead)
		uc.On("Execute", mock.Anything, mock.MatchedBy(func(in usecase.SubmitLeadInput) bool {
			return in.Credential == "lf_key" && in.Payload["Name"] == "Mona"
		})).Return(&usecase.SubmitLeadOutput{Success: true, CompanyID: "co-1", LeadID: "l1", Status: entity.LeadStatusAssigned}, nil)

		h := NewLeadHandler(uc, 0)
		req := httptest.NewRequest(http.MethodPost, "/api/incoming-lead", bytes.NewBufferString(`{"Name":"Mona"}`))
		req.Header.Set(CredentialHeader, "lf_key")
		rec := httptest.NewRecorder()

		h.Handle(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var out usecase.SubmitLeadOutput
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "l1", out.LeadID)
		uc.AssertExpectations(t)
	})

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing key", &usecase.DomainError{Code: usecase.CodeUnauthenticated, Message: "missing"}, 401, usecase.CodeUnauthenticated},
		{"unknown key", &usecase.DomainError{Code: usecase.CodeForbidden, Message: "invalid"}, 403, usecase.CodeForbidden},
		{"no agents", &usecase.DomainError{Code: usecase.CodeNoAgents, Message: "no agents"}, 400, usecase.CodeNoAgents},
		{"db down", &usecase.TechnicalError{Code: usecase.CodePersistence, Message: "failed", Err: errors.New("conn reset")}, 500, usecase.CodePersistence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := new(MockSubmitLead)
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec := httptest.NewRecorder()
			NewLeadHandler(uc, 0).Handle(rec, httptest.NewRequest(http.MethodPost, "/api/incoming-lead", bytes.NewBufferString(`{}`)))

			assert.Equal(t, tc.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.code, body.Error)
			assert.NotContains(t, body.Message, "conn reset")
		})
	}

	t.Run("numeric phone keeps every digit", func(t *testing.T) {
		uc := new(MockSubmitLead)
		uc.On("Execute", mock.Anything, mock.MatchedBy(func(in usecase.SubmitLeadInput) bool {
			return in.Payload["phone"] == json.Number("201001234567890123")
		})).Return(&usecase.SubmitLeadOutput{Success: true}, nil)

		rec := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"phone":201001234567890123}`)
		NewLeadHandler(uc, 0).Handle(rec, httptest.NewRequest(http.MethodPost, "/api/incoming-lead", body))

		assert.Equal(t, http.StatusOK, rec.Code)
		uc.AssertExpectations(t)
	})

	t.Run("invalid json never reaches the use case", func(t *testing.T) {
		uc := new(MockSubmitLead)
		rec := httptest.NewRecorder()
		NewLeadHandler(uc, 0).Handle(rec, httptest.NewRequest(http.MethodPost, "/api/incoming-lead", bytes.NewBufferString(`[1,2`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("rate limited per ip", func(t *testing.T) {
		uc := new(MockSubmitLead)
		uc.On("Execute", mock.Anything, mock.Anything).Return(&usecase.SubmitLeadOutput{Success: true}, nil)
		h := NewLeadHandler(uc, 1)

		send := func() int {
			req := httptest.NewRequest(http.MethodPost, "/api/incoming-lead", bytes.NewBufferString(`{}`))
			req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
			rec := httptest.NewRecorder()
			h.Handle(rec, req)
			return rec.Code
		}

		assert.Equal(t, http.StatusOK, send())
		assert.Equal(t, http.StatusTooManyRequests, send())
	})
}

func paymobCallback(t *testing.T, success bool) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"obj": map[string]any{
			"id":                     123,
			"amount_cents":           50000,
			"created_at":             "2024-06-13T11:33:44",
			"currency":               "EGP",
			"error_occured":          false,
			"has_parent_transaction": false,
			"integration_id":         42,
			"is_3d_secure":           true,
			"is_auth":                false,
			"is_capture":             false,
			"is_refunded":            false,
			"is_standalone_payment":  true,
			"is_voided":              false,
			"owner":                  7,
			"pending":                false,
			"success":                success,
			"order": map[string]any{
				"id":            99,
				"shipping_data": map[string]any{"extra_description": "co-1"},
			},
			"source_data": map[string]any{"pan": "2346", "sub_type": "MasterCard", "type": "card"},
		},
	})
	require.NoError(t, err)
	return body
}

func sign(t *testing.T, body []byte, secret string) string {
	t.Helper()
	tx, err := paymob.ParseCallback(body)
	require.NoError(t, err)
	return hex.EncodeToString(paymob.Sign(secret, tx.SignedString()))
}

func TestWebhookHandler(t *testing.T) {
	const secret = "hmac-secret"

	t.Run("verified success activates", func(t *testing.T) {
		uc := new(MockActivateSubscription)
		uc.On("Execute", mock.Anything, usecase.ActivateSubscriptionInput{CompanyID: "co-1", TransactionID: "123", Success: true}).Return(nil)

		body := paymobCallback(t, true)
		req := httptest.NewRequest(http.MethodPost, "/api/paymob/callback?hmac="+sign(t, body, secret), bytes.NewReader(body))
		rec := httptest.NewRecorder()

		NewWebhookHandler(secret, uc, zerolog.Nop()).Handle(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		uc.AssertExpectations(t)
	})

	t.Run("tampered payload is rejected without mutation", func(t *testing.T) {
		uc := new(MockActivateSubscription)

		body := paymobCallback(t, false)
		sig := sign(t, body, secret)
		tampered := paymobCallback(t, true)

		req := httptest.NewRequest(http.MethodPost, "/api/paymob/callback?hmac="+sig, bytes.NewReader(tampered))
		rec := httptest.NewRecorder()
		NewWebhookHandler(secret, uc, zerolog.Nop()).Handle(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, usecase.CodeInvalidSignature, decodeError(t, rec).Error)
		uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("missing secret rejects everything", func(t *testing.T) {
		uc := new(MockActivateSubscription)
		body := paymobCallback(t, true)
		req := httptest.NewRequest(http.MethodPost, "/api/paymob/callback?hmac="+sign(t, body, ""), bytes.NewReader(body))
		rec := httptest.NewRecorder()

		NewWebhookHandler("", uc, zerolog.Nop()).Handle(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("no obj", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewWebhookHandler(secret, new(MockActivateSubscription), zerolog.Nop()).
			Handle(rec, httptest.NewRequest(http.MethodPost, "/api/paymob/callback", bytes.NewBufferString(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAgentHandler(t *testing.T) {
	roster := new(MockRoster)
	h := NewAgentHandler(roster)

	r := chi.NewRouter()
	r.Get("/api/agents", h.HandleList)
	r.Post("/api/agents", h.HandleAdd)
	r.Put("/api/agents/order", h.HandleReorder)
	r.Delete("/api/agents/{id}", h.HandleRemove)

	t.Run("empty list is an array", func(t *testing.T) {
		roster.On("List", mock.Anything, "co-1").Return(nil, nil).Once()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withCompany(httptest.NewRequest(http.MethodGet, "/api/agents", nil), "co-1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"agents":[]}`, rec.Body.String())
	})

	t.Run("add", func(t *testing.T) {
		input := usecase.AddAgentInput{Name: "Ana", ChatID: "111"}
		roster.On("Add", mock.Anything, "co-1", input).Return(&entity.Agent{ID: "a1", Name: "Ana", ChatID: "111"}, nil).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/agents", bytes.NewBufferString(`{"name":"Ana","telegram_chat_id":"111"}`))
		r.ServeHTTP(rec, withCompany(req, "co-1"))

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("remove uses path id", func(t *testing.T) {
		roster.On("Remove", mock.Anything, "co-1", "a9").Return(nil).Once()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withCompany(httptest.NewRequest(http.MethodDelete, "/api/agents/a9", nil), "co-1"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid order", func(t *testing.T) {
		roster.On("Reorder", mock.Anything, "co-1", usecase.ReorderAgentsInput{OrderedIDs: []string{"x"}}).
			Return(nil, &usecase.DomainError{Code: usecase.CodeValidation, Message: "ordered ids must match the roster"}).Once()

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/agents/order", bytes.NewBufferString(`{"ordered_ids":["x"]}`))
		r.ServeHTTP(rec, withCompany(req, "co-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	roster.AssertExpectations(t)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeBroker bool

func (b fakeBroker) Healthy() bool { return bool(b) }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(fakePinger{}, nil, "test").Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not configured", body.Dependencies["rabbitmq"])

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{}, fakeBroker(false), "test").Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(fakePinger{err: errors.New("down")}, fakeBroker(true), "test").Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEventsHandler_StreamsCompanyEvents(t *testing.T) {
	hub := events.NewHub()
	h := NewEventsHandler(hub)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Handle(w, withCompany(r, "co-1"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.Subscribers("co-1") == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast(entity.ChangeEvent{CompanyID: "co-2", Type: entity.EventLeadCreated})
	hub.Broadcast(entity.ChangeEvent{CompanyID: "co-1", Type: entity.EventAgentsChanged})

	buf := make([]byte, 0, 512)
	chunk := make([]byte, 256)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && !bytes.Contains(buf, []byte("event: agents.changed")) {
		n, err := resp.Body.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}

	assert.Contains(t, string(buf), "event: agents.changed")
	assert.NotContains(t, string(buf), "lead.created")
}
