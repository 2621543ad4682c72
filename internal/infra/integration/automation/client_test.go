package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func TestClient_PostsLeadAndAgent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	err := c.Dispatch(context.Background(), usecase.FallbackPayload{
		WebhookURL: srv.URL,
		LeadID:     "lead-1",
		CompanyID:  "co-1",
		Reason:     "telegram down",
		Lead:       &entity.Lead{ID: "lead-1", Name: "Mona"},
		Agent:      &entity.Agent{ID: "a1", Name: "Ana"},
	})

	require.NoError(t, err)
	assert.Equal(t, "lead-1", got["lead_id"])
	assert.Equal(t, "telegram down", got["reason"])
	assert.Equal(t, "Ana", got["agent"].(map[string]any)["name"])
	assert.NotContains(t, got, "WebhookURL")
}

func TestClient_Non2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(time.Second).Post(context.Background(), srv.URL, usecase.FallbackPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_EmptyURL(t *testing.T) {
	assert.Error(t, NewClient(time.Second).Post(context.Background(), "", usecase.FallbackPayload{}))
}
