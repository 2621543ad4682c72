package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Agent receives leads. OrderIndex is dense per company: {0..n-1}.
type Agent struct {
	ID         string    `json:"id" db:"id"`
	CompanyID  string    `json:"company_id" db:"company_id"`
	Name       string    `json:"name" db:"name"`
	ChatID     string    `json:"telegram_chat_id" db:"telegram_chat_id"`
	OrderIndex int       `json:"order_index" db:"order_index"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type AgentSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	ChatID string `json:"telegram_chat_id"`
}

func NewAgent(companyID, name, chatID string, orderIndex int) (*Agent, error) {
	name = strings.TrimSpace(name)
	chatID = strings.TrimSpace(chatID)
	if name == "" {
		return nil, errors.New("agent name is required")
	}
	if chatID == "" {
		return nil, errors.New("telegram chat id is required")
	}

	return &Agent{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Name:       name,
		ChatID:     chatID,
		OrderIndex: orderIndex,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (a *Agent) Summary() AgentSummary {
	return AgentSummary{ID: a.ID, Name: a.Name, ChatID: a.ChatID}
}

// Repack rewrites OrderIndex to the slice position.
func Repack(agents []Agent) []Agent {
	out := make([]Agent, len(agents))
	for i, a := range agents {
		a.OrderIndex = i
		out[i] = a
	}
	return out
}

// ApplyOrder returns the roster rearranged as orderedIDs. orderedIDs must be
// a permutation of the roster ids. changed is false when the requested order
// is the current one.
func ApplyOrder(current []Agent, orderedIDs []string) (reordered []Agent, changed bool, err error) {
	if len(orderedIDs) != len(current) {
		return nil, false, ErrInvalidOrder
	}

	byID := make(map[string]Agent, len(current))
	for _, a := range current {
		byID[a.ID] = a
	}

	seen := make(map[string]struct{}, len(orderedIDs))
	reordered = make([]Agent, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		a, ok := byID[id]
		if !ok {
			return nil, false, ErrInvalidOrder
		}
		if _, dup := seen[id]; dup {
			return nil, false, ErrInvalidOrder
		}
		seen[id] = struct{}{}

		if a.OrderIndex != i {
			changed = true
		}
		a.OrderIndex = i
		reordered = append(reordered, a)
	}

	return reordered, changed, nil
}

// IsContiguous reports whether the roster indices are exactly {0..n-1}.
func IsContiguous(agents []Agent) bool {
	seen := make([]bool, len(agents))
	for _, a := range agents {
		if a.OrderIndex < 0 || a.OrderIndex >= len(agents) || seen[a.OrderIndex] {
			return false
		}
		seen[a.OrderIndex] = true
	}
	return true
}

type AgentRepositoryInterface interface {
	List(ctx context.Context, companyID string) ([]Agent, error)
	Add(ctx context.Context, companyID, name, chatID string) (*Agent, error)
	Remove(ctx context.Context, companyID, agentID string) error
	Reorder(ctx context.Context, companyID string, orderedIDs []string) ([]Agent, error)
}
