package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

const DefaultLeadPageSize = 15

type ListLeadsInput struct {
	CompanyID string
	AgentName string
	LeadName  string
	// Date is YYYY-MM-DD; leads created that UTC day.
	Date     string
	Page     int
	PageSize int
}

type LeadLogsUseCase struct {
	Leads   entity.LeadRepositoryInterface
	Agents  entity.AgentRepositoryInterface
	Tenants entity.TenantRepositoryInterface
}

func NewLeadLogsUseCase(leads entity.LeadRepositoryInterface, agents entity.AgentRepositoryInterface, tenants entity.TenantRepositoryInterface) *LeadLogsUseCase {
	return &LeadLogsUseCase{Leads: leads, Agents: agents, Tenants: tenants}
}

func (uc *LeadLogsUseCase) List(ctx context.Context, input ListLeadsInput) (*entity.LeadPage, error) {
	f := entity.LeadFilter{
		CompanyID: input.CompanyID,
		AgentName: input.AgentName,
		LeadName:  input.LeadName,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = DefaultLeadPageSize
	}
	if input.Date != "" {
		d, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, &DomainError{Code: CodeValidation, Message: "date: must be YYYY-MM-DD"}
		}
		f.Date = &d
	}

	page, err := uc.Leads.List(ctx, f)
	if err != nil {
		return nil, persistenceError("failed to list leads", err)
	}
	if page.Leads == nil {
		page.Leads = []entity.Lead{}
	}
	return page, nil
}

type DashboardSummary struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	AgentCount  int    `json:"agent_count"`
	LeadCount   int    `json:"lead_count"`
}

func (uc *LeadLogsUseCase) Summary(ctx context.Context, companyID string) (*DashboardSummary, error) {
	tenant, err := uc.Tenants.FindByID(ctx, companyID)
	if err != nil {
		return nil, persistenceError("failed to load company", err)
	}
	agents, err := uc.Agents.List(ctx, companyID)
	if err != nil {
		return nil, persistenceError("failed to list agents", err)
	}
	count, err := uc.Leads.Count(ctx, companyID)
	if err != nil {
		return nil, persistenceError("failed to count leads", err)
	}
	return &DashboardSummary{
		CompanyID:   tenant.ID,
		CompanyName: tenant.Name,
		AgentCount:  len(agents),
		LeadCount:   count,
	}, nil
}

// APIKey returns the intake credential shown on the setup page.
func (uc *LeadLogsUseCase) APIKey(ctx context.Context, companyID string) (string, error) {
	tenant, err := uc.Tenants.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, entity.ErrTenantNotFound) {
			return "", &DomainError{Code: CodeNotFound, Message: "company not found"}
		}
		return "", persistenceError("failed to load company", err)
	}
	return tenant.APIKey, nil
}
