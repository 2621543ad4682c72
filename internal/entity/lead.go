package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	LeadStatusReceived = "received"
	LeadStatusAssigned = "assigned"
	LeadStatusSent     = "sent"
	LeadStatusFailed   = "failed"

	ChannelNone     = ""
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"

	NotAvailable = "N/A"
)

// Lead is one intake record. Only Status and DeliveryChannel change after
// insert.
type Lead struct {
	ID               string          `json:"id" db:"id"`
	CompanyID        string          `json:"company_id" db:"company_id"`
	Raw              json.RawMessage `json:"lead_json" db:"lead_json"`
	Name             string          `json:"name" db:"name"`
	Phone            string          `json:"phone" db:"phone"`
	JobTitle         string          `json:"job_title" db:"job_title"`
	Description      string          `json:"description" db:"description"`
	AdSource         string          `json:"ad_source" db:"ad_source"`
	Message          string          `json:"message" db:"message"`
	AgentID          string          `json:"agent_id,omitempty" db:"agent_id"`
	AgentName        string          `json:"agent_name,omitempty" db:"agent_name"`
	AgentChatID      string          `json:"agent_chat_id,omitempty" db:"agent_chat_id"`
	RotationPosition *int            `json:"rotation_position,omitempty" db:"rotation_position"`
	Status           string          `json:"status" db:"status"`
	DeliveryChannel  string          `json:"delivery_channel" db:"delivery_channel"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// LeadFields is the canonical schema every inbound payload maps onto.
type LeadFields struct {
	Name        string
	Phone       string
	JobTitle    string
	Description string
	AdSource    string
	Message     string
}

var leadAliases = map[string][]string{
	"name":        {"name", "full_name", "fullName", "official_name", "displayName", "lead_name"},
	"phone":       {"phone", "phone_number", "mobile", "tel"},
	"job_title":   {"job", "job_title", "title", "position"},
	"description": {"description", "desc", "notes"},
	"ad_source":   {"ad_source", "source", "ad", "campaign", "platform"},
	"message":     {"message", "msg", "comment"},
}

// NormalizeLeadPayload maps heterogeneous source fields onto LeadFields.
// Keys are matched ignoring case and separators, so "Full Name",
// "full_name" and "fullName" are the same key. Empty values count as
// missing.
func NormalizeLeadPayload(payload map[string]any) LeadFields {
	folded := make(map[string]any, len(payload))
	for k, v := range payload {
		fk := foldKey(k)
		if _, exists := folded[fk]; !exists {
			folded[fk] = v
		}
	}

	pick := func(field string) string {
		for _, alias := range leadAliases[field] {
			v, ok := folded[foldKey(alias)]
			if !ok || v == nil {
				continue
			}
			if s := strings.TrimSpace(stringify(v)); s != "" {
				return s
			}
		}
		return ""
	}

	return LeadFields{
		Name:        pick("name"),
		Phone:       pick("phone"),
		JobTitle:    pick("job_title"),
		Description: pick("description"),
		AdSource:    pick("ad_source"),
		Message:     pick("message"),
	}
}

func foldKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers; phone numbers arrive this way from some sheets
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func NewLead(companyID string, raw json.RawMessage, f LeadFields) *Lead {
	now := time.Now().UTC()
	return &Lead{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Raw:         raw,
		Name:        f.Name,
		Phone:       f.Phone,
		JobTitle:    f.JobTitle,
		Description: f.Description,
		AdSource:    f.AdSource,
		Message:     f.Message,
		Status:      LeadStatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AssignTo stamps the agent snapshot on the lead.
func (l *Lead) AssignTo(a Agent, position int) {
	l.AgentID = a.ID
	l.AgentName = a.Name
	l.AgentChatID = a.ChatID
	p := position
	l.RotationPosition = &p
	l.Status = LeadStatusAssigned
}

// Display returns v or the "not available" marker used in notifications.
func Display(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotAvailable
	}
	return v
}

type LeadFilter struct {
	CompanyID string
	AgentName string
	LeadName  string
	Date      *time.Time
	Page      int
	PageSize  int
}

type LeadPage struct {
	Leads    []Lead `json:"leads"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type LeadRepositoryInterface interface {
	UpdateDelivery(ctx context.Context, companyID, leadID, status, channel string) error
	FindByID(ctx context.Context, companyID, leadID string) (*Lead, error)
	List(ctx context.Context, f LeadFilter) (*LeadPage, error)
	Count(ctx context.Context, companyID string) (int, error)
}
