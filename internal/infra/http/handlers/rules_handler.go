package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/leadflow/internal/usecase"
)

type RoutingRules interface {
	Get(ctx context.Context, companyID string) (*usecase.RoutingRuleView, error)
	Update(ctx context.Context, companyID string, input usecase.UpdateRoutingRuleInput) (*usecase.RoutingRuleView, error)
}

type RulesHandler struct {
	Rules RoutingRules
}

func NewRulesHandler(rules RoutingRules) *RulesHandler {
	return &RulesHandler{Rules: rules}
}

func (h *RulesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.Rules.Get(r.Context(), companyID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RulesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateRoutingRuleInput
	if !decodeJSON(w, r, &input) {
		return
	}

	view, err := h.Rules.Update(r.Context(), companyID(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
