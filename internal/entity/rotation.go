package entity

import (
	"context"
	"time"
)

// RotationCursor is the only writer of assignment order. NextIndex is the
// roster position of the next assignee, always read modulo the current
// roster size.
type RotationCursor struct {
	CompanyID string    `json:"company_id" db:"company_id"`
	NextIndex int       `json:"next_index" db:"next_index"`
	Version   int64     `json:"version" db:"version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pick is the outcome of one rotation step.
type Pick struct {
	Agent    Agent
	Position int
	Next     int
}

// PickNext selects roster[p mod n] and the cursor value that follows it.
// The roster must already be sorted by OrderIndex.
func PickNext(roster []Agent, position int) (Pick, error) {
	n := len(roster)
	if n == 0 {
		return Pick{}, ErrNoAgents
	}

	idx := position % n
	if idx < 0 {
		idx += n
	}

	return Pick{
		Agent:    roster[idx],
		Position: idx,
		Next:     (idx + 1) % n,
	}, nil
}

// CursorAfterRemoval keeps the agent that was next in line as next after the
// agent at removedIndex leaves a roster that now has newSize agents.
func CursorAfterRemoval(next, removedIndex, newSize int) int {
	if newSize <= 0 {
		return 0
	}
	if removedIndex < next {
		next--
	}
	next %= newSize
	if next < 0 {
		next += newSize
	}
	return next
}

// AssignmentRepositoryInterface runs the rotation protocol: lock cursor,
// pick, insert lead, advance cursor, in one transaction. When the company
// has no agents the lead is still stored as received and ErrNoAgents is
// returned.
type AssignmentRepositoryInterface interface {
	AssignNext(ctx context.Context, lead *Lead) (*Agent, error)
	RecordUnassigned(ctx context.Context, lead *Lead) error
	Cursor(ctx context.Context, companyID string) (*RotationCursor, error)
}
