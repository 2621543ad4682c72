package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadflow/internal/entity"
)

// AssignmentRepository is the only writer of rotation_cursors.next_index
// outside roster mutations.
type AssignmentRepository struct {
	DB *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

// AssignNext locks the cursor, picks roster[p mod n], inserts the lead and
// advances the cursor in one transaction. With an empty roster the lead is
// committed as received and ErrNoAgents is returned.
func (r *AssignmentRepository) AssignNext(ctx context.Context, lead *entity.Lead) (*entity.Agent, error) {
	var (
		agent    *entity.Agent
		noAgents bool
	)

	err := withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		position, err := lockCursor(ctx, tx, lead.CompanyID)
		if err != nil {
			return err
		}

		var roster []entity.Agent
		if err := tx.SelectContext(ctx, &roster, selectAgents, lead.CompanyID); err != nil {
			return fmt.Errorf("list agents: %w", err)
		}

		pick, err := entity.PickNext(roster, position)
		if errors.Is(err, entity.ErrNoAgents) {
			noAgents = true
			lead.Status = entity.LeadStatusReceived
			return insertLead(ctx, tx, lead)
		}
		if err != nil {
			return err
		}

		lead.AssignTo(pick.Agent, pick.Position)
		if err := insertLead(ctx, tx, lead); err != nil {
			return err
		}
		if err := storeCursor(ctx, tx, lead.CompanyID, pick.Next); err != nil {
			return err
		}

		a := pick.Agent
		agent = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noAgents {
		return nil, entity.ErrNoAgents
	}
	return agent, nil
}

func (r *AssignmentRepository) RecordUnassigned(ctx context.Context, lead *entity.Lead) error {
	lead.Status = entity.LeadStatusReceived
	return withTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return insertLead(ctx, tx, lead)
	})
}

func (r *AssignmentRepository) Cursor(ctx context.Context, companyID string) (*entity.RotationCursor, error) {
	var c entity.RotationCursor
	query := `SELECT company_id, next_index, version, updated_at FROM rotation_cursors WHERE company_id = $1`
	if err := r.DB.GetContext(ctx, &c, query, companyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &entity.RotationCursor{CompanyID: companyID}, nil
		}
		return nil, fmt.Errorf("read cursor: %w", err)
	}
	return &c, nil
}

// lockCursor creates the cursor row on first use and holds it FOR UPDATE
// until the transaction ends.
func lockCursor(ctx context.Context, tx *sqlx.Tx, companyID string) (int, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO rotation_cursors (company_id) VALUES ($1) ON CONFLICT (company_id) DO NOTHING`,
		companyID,
	)
	if err != nil {
		return 0, fmt.Errorf("ensure cursor: %w", err)
	}

	var next int
	err = tx.GetContext(ctx, &next,
		`SELECT next_index FROM rotation_cursors WHERE company_id = $1 FOR UPDATE`,
		companyID,
	)
	if err != nil {
		return 0, fmt.Errorf("lock cursor: %w", err)
	}
	return next, nil
}

func storeCursor(ctx context.Context, tx *sqlx.Tx, companyID string, next int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE rotation_cursors SET next_index = $1, version = version + 1, updated_at = NOW() WHERE company_id = $2`,
		next, companyID,
	)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}
