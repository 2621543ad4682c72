package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
)

type AddAgentInput struct {
	Name   string `json:"name" validate:"required,min=1,max=120"`
	ChatID string `json:"telegram_chat_id" validate:"required,max=64"`
}

type ReorderAgentsInput struct {
	OrderedIDs []string `json:"ordered_ids" validate:"unique"`
}

// AgentRosterUseCase is the dashboard's view of the roster store. Every
// mutation answers with the roster as persisted.
type AgentRosterUseCase struct {
	Agents entity.AgentRepositoryInterface
	Events entity.EventPublisher
	Log    zerolog.Logger
}

func NewAgentRosterUseCase(agents entity.AgentRepositoryInterface, events entity.EventPublisher, log zerolog.Logger) *AgentRosterUseCase {
	return &AgentRosterUseCase{Agents: agents, Events: events, Log: log}
}

func (uc *AgentRosterUseCase) List(ctx context.Context, companyID string) ([]entity.Agent, error) {
	agents, err := uc.Agents.List(ctx, companyID)
	if err != nil {
		return nil, persistenceError("failed to list agents", err)
	}
	if agents == nil {
		agents = []entity.Agent{}
	}
	return agents, nil
}

func (uc *AgentRosterUseCase) Add(ctx context.Context, companyID string, input AddAgentInput) (*entity.Agent, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	agent, err := uc.Agents.Add(ctx, companyID, input.Name, input.ChatID)
	if err != nil {
		return nil, persistenceError("failed to add agent", err)
	}

	uc.changed(ctx, companyID, "added", agent.ID)
	return agent, nil
}

func (uc *AgentRosterUseCase) Remove(ctx context.Context, companyID, agentID string) error {
	if agentID == "" {
		return &DomainError{Code: CodeValidation, Message: "agent id is required"}
	}

	if err := uc.Agents.Remove(ctx, companyID, agentID); err != nil {
		return persistenceError("failed to remove agent", err)
	}

	uc.changed(ctx, companyID, "removed", agentID)
	return nil
}

func (uc *AgentRosterUseCase) Reorder(ctx context.Context, companyID string, input ReorderAgentsInput) ([]entity.Agent, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	agents, err := uc.Agents.Reorder(ctx, companyID, input.OrderedIDs)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidOrder) {
			return nil, &DomainError{Code: CodeValidation, Message: entity.ErrInvalidOrder.Error()}
		}
		return nil, persistenceError("failed to reorder agents", err)
	}

	uc.changed(ctx, companyID, "reordered", "")
	return agents, nil
}

func (uc *AgentRosterUseCase) changed(ctx context.Context, companyID, action, agentID string) {
	publish(ctx, uc.Events, uc.Log, companyID, entity.EventAgentsChanged, map[string]string{
		"action":   action,
		"agent_id": agentID,
	})
}
