package entity

import "errors"

var (
	ErrTenantNotFound       = errors.New("company not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailAlreadyExists   = errors.New("email already registered")
	ErrAgentNotFound        = errors.New("agent not found")
	ErrNoAgents             = errors.New("no agents available")
	ErrInvalidOrder         = errors.New("order must list every agent exactly once")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrRuleNotFound         = errors.New("routing rule not found")
	ErrLeadNotFound         = errors.New("lead not found")
	ErrRotationDisabled     = errors.New("round robin disabled for company")
)
