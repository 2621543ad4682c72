package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type LeadLogs interface {
	List(ctx context.Context, input usecase.ListLeadsInput) (*entity.LeadPage, error)
	Summary(ctx context.Context, companyID string) (*usecase.DashboardSummary, error)
	APIKey(ctx context.Context, companyID string) (string, error)
}

type LeadLogHandler struct {
	Logs LeadLogs
}

func NewLeadLogHandler(logs LeadLogs) *LeadLogHandler {
	return &LeadLogHandler{Logs: logs}
}

// HandleList serves GET /api/leads?agent=&lead=&date=YYYY-MM-DD&page=&page_size=
func (h *LeadLogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	out, err := h.Logs.List(r.Context(), usecase.ListLeadsInput{
		CompanyID: companyID(r),
		AgentName: q.Get("agent"),
		LeadName:  q.Get("lead"),
		Date:      q.Get("date"),
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out.Leads = nonNil(out.Leads)
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadLogHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := h.Logs.Summary(r.Context(), companyID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LeadLogHandler) HandleCompany(w http.ResponseWriter, r *http.Request) {
	id := companyID(r)
	key, err := h.Logs.APIKey(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"company_id": id,
		"api_key":    key,
		"header":     CredentialHeader,
	})
}
