package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadflow/internal/entity"
)

// AgentRepository mutates the roster under the company's cursor lock so
// roster changes and assignments never interleave.
type AgentRepository struct {
	DB *sqlx.DB
}

func NewAgentRepository(db *sqlx.DB) *AgentRepository {
	return &AgentRepository{DB: db}
}

const selectAgents = `
	SELECT id, company_id, name, telegram_chat_id, order_index, created_at
	FROM agents
	WHERE company_id = $1
	ORDER BY order_index ASC
`

func (r *AgentRepository) List(ctx context.Context, companyID string) ([]entity.Agent, error) {
	agents := []entity.Agent{}
	if err := r.DB.SelectContext(ctx, &agents, selectAgents, companyID); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

func (r *AgentRepository) Add(ctx context.Context, companyID, name, chatID string) (*entity.Agent, error) {
	var agent *entity.Agent

	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := lockCursor(ctx, tx, companyID); err != nil {
			return err
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM agents WHERE company_id = $1`, companyID); err != nil {
			return fmt.Errorf("count agents: %w", err)
		}

		a, err := entity.NewAgent(companyID, name, chatID, count)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO agents (id, company_id, name, telegram_chat_id, order_index, created_at)
			VALUES (:id, :company_id, :name, :telegram_chat_id, :order_index, :created_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
			return fmt.Errorf("insert agent: %w", err)
		}
		agent = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// Remove deletes the agent, closes the gap in order_index and shifts the
// cursor when the removed agent sat before it. Absent agents are a no-op.
func (r *AgentRepository) Remove(ctx context.Context, companyID, agentID string) error {
	return withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		next, err := lockCursor(ctx, tx, companyID)
		if err != nil {
			return err
		}

		var roster []entity.Agent
		if err := tx.SelectContext(ctx, &roster, selectAgents, companyID); err != nil {
			return fmt.Errorf("list agents: %w", err)
		}

		removed := -1
		for i, a := range roster {
			if a.ID == agentID {
				removed = i
				break
			}
		}
		if removed < 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM agents WHERE id = $1 AND company_id = $2`, agentID, companyID); err != nil {
			return fmt.Errorf("delete agent: %w", err)
		}

		rest := make([]entity.Agent, 0, len(roster)-1)
		rest = append(rest, roster[:removed]...)
		rest = append(rest, roster[removed+1:]...)
		if err := writeOrder(ctx, tx, roster, entity.Repack(rest)); err != nil {
			return err
		}

		return storeCursor(ctx, tx, companyID, entity.CursorAfterRemoval(next, removed, len(rest)))
	})
}

// Reorder rewrites every order_index in one transaction. The unique
// (company_id, order_index) constraint is deferred to commit.
func (r *AgentRepository) Reorder(ctx context.Context, companyID string, orderedIDs []string) ([]entity.Agent, error) {
	var result []entity.Agent

	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := lockCursor(ctx, tx, companyID); err != nil {
			return err
		}

		var roster []entity.Agent
		if err := tx.SelectContext(ctx, &roster, selectAgents, companyID); err != nil {
			return fmt.Errorf("list agents: %w", err)
		}

		reordered, changed, err := entity.ApplyOrder(roster, orderedIDs)
		if err != nil {
			return err
		}
		if !changed {
			result = roster
			return nil
		}

		if err := writeOrder(ctx, tx, roster, reordered); err != nil {
			return err
		}
		result = reordered
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []entity.Agent{}
	}
	return result, nil
}

// writeOrder updates only the rows whose index moved.
func writeOrder(ctx context.Context, tx *sqlx.Tx, before, after []entity.Agent) error {
	old := make(map[string]int, len(before))
	for _, a := range before {
		old[a.ID] = a.OrderIndex
	}

	for _, a := range after {
		if idx, ok := old[a.ID]; ok && idx == a.OrderIndex {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE agents SET order_index = $1 WHERE id = $2 AND company_id = $3`,
			a.OrderIndex, a.ID, a.CompanyID,
		)
		if err != nil {
			return fmt.Errorf("update order_index: %w", err)
		}
	}
	return nil
}
