package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadflow/internal/entity"
)

type LeadRepository struct {
	DB *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `
	id, company_id,
	convert_to(lead_json::text, 'UTF8') AS lead_json,
	COALESCE(name, '') AS name,
	COALESCE(phone, '') AS phone,
	COALESCE(job_title, '') AS job_title,
	COALESCE(description, '') AS description,
	COALESCE(ad_source, '') AS ad_source,
	COALESCE(message, '') AS message,
	COALESCE(agent_id::text, '') AS agent_id,
	COALESCE(agent_name, '') AS agent_name,
	COALESCE(agent_chat_id, '') AS agent_chat_id,
	rotation_position, status, delivery_channel, created_at, updated_at
`

func insertLead(ctx context.Context, tx *sqlx.Tx, l *entity.Lead) error {
	raw := string(l.Raw)
	if raw == "" {
		raw = "{}"
	}

	query := `
		INSERT INTO lead_logs (
			id, company_id, lead_json,
			name, phone, job_title, description, ad_source, message,
			agent_id, agent_name, agent_chat_id, rotation_position,
			status, delivery_channel, created_at, updated_at
		) VALUES (
			$1, $2, $3::jsonb,
			$4, $5, $6, $7, $8, $9,
			NULLIF($10, '')::uuid, $11, $12, $13,
			$14, $15, $16, $17
		)
	`
	_, err := tx.ExecContext(ctx, query,
		l.ID, l.CompanyID, raw,
		nullString(l.Name), nullString(l.Phone), nullString(l.JobTitle),
		nullString(l.Description), nullString(l.AdSource), nullString(l.Message),
		l.AgentID, nullString(l.AgentName), nullString(l.AgentChatID), l.RotationPosition,
		l.Status, l.DeliveryChannel, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) UpdateDelivery(ctx context.Context, companyID, leadID, status, channel string) error {
	query := `
		UPDATE lead_logs SET status = $1, delivery_channel = $2, updated_at = NOW()
		WHERE id = $3 AND company_id = $4
	`
	if _, err := r.DB.ExecContext(ctx, query, status, channel, leadID, companyID); err != nil {
		return fmt.Errorf("update lead delivery: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, companyID, leadID string) (*entity.Lead, error) {
	var l entity.Lead
	query := `SELECT ` + leadColumns + ` FROM lead_logs WHERE id = $1 AND company_id = $2`
	if err := r.DB.GetContext(ctx, &l, query, leadID, companyID); err != nil {
		return nil, notFound(err, entity.ErrLeadNotFound)
	}
	return &l, nil
}

// List pages the log newest first. Name filters are case-insensitive
// substring matches.
func (r *LeadRepository) List(ctx context.Context, f entity.LeadFilter) (*entity.LeadPage, error) {
	where, args := leadWhere(f)

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM lead_logs WHERE `+where, args...); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := fmt.Sprintf(
		`SELECT %s FROM lead_logs WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args),
	)

	leads := []entity.Lead{}
	if err := r.DB.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	return &entity.LeadPage{Leads: leads, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (r *LeadRepository) Count(ctx context.Context, companyID string) (int, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM lead_logs WHERE company_id = $1`, companyID); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func leadWhere(f entity.LeadFilter) (string, []any) {
	conds := []string{"company_id = $1"}
	args := []any{f.CompanyID}

	if f.AgentName != "" {
		args = append(args, containsPattern(f.AgentName))
		conds = append(conds, fmt.Sprintf(`agent_name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if f.LeadName != "" {
		args = append(args, containsPattern(f.LeadName))
		conds = append(conds, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if f.Date != nil {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		args = append(args, day, day.Add(24*time.Hour))
		conds = append(conds, fmt.Sprintf("created_at >= $%d AND created_at < $%d", len(args)-1, len(args)))
	}

	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches s literally anywhere in the column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
