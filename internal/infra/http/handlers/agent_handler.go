package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/auth"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type AgentRoster interface {
	List(ctx context.Context, companyID string) ([]entity.Agent, error)
	Add(ctx context.Context, companyID string, input usecase.AddAgentInput) (*entity.Agent, error)
	Remove(ctx context.Context, companyID, agentID string) error
	Reorder(ctx context.Context, companyID string, input usecase.ReorderAgentsInput) ([]entity.Agent, error)
}

type AgentHandler struct {
	Roster AgentRoster
}

func NewAgentHandler(roster AgentRoster) *AgentHandler {
	return &AgentHandler{Roster: roster}
}

type agentsResponse struct {
	Agents []entity.Agent `json:"agents"`
}

func (h *AgentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Roster.List(r.Context(), companyID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agentsResponse{Agents: nonNil(agents)})
}

func (h *AgentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var input usecase.AddAgentInput
	if !decodeJSON(w, r, &input) {
		return
	}

	agent, err := h.Roster.Add(r.Context(), companyID(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

// HandleRemove answers 204 even when the agent was already gone.
func (h *AgentHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.Roster.Remove(r.Context(), companyID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AgentHandler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	var input usecase.ReorderAgentsInput
	if !decodeJSON(w, r, &input) {
		return
	}

	agents, err := h.Roster.Reorder(r.Context(), companyID(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agentsResponse{Agents: nonNil(agents)})
}

// companyID is set by the gate; handlers behind it never see an empty one.
func companyID(r *http.Request) string {
	claims, _ := auth.ClaimsFrom(r.Context())
	return claims.CompanyID
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
