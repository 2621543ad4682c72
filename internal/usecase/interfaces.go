package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

// TelegramSender delivers a text message to one chat with the given bot.
type TelegramSender interface {
	Send(ctx context.Context, botToken, chatID, text string) error
}

// FallbackPayload is what the automation webhook receives when the primary
// channel could not deliver.
type FallbackPayload struct {
	WebhookURL string        `json:"-"`
	LeadID     string        `json:"lead_id"`
	CompanyID  string        `json:"company_id"`
	Reason     string        `json:"reason"`
	Lead       *entity.Lead  `json:"lead"`
	Agent      *entity.Agent `json:"agent"`
	CreatedAt  time.Time     `json:"created_at"`
}

// FallbackDispatcher hands a payload to the secondary channel. A nil error
// means the hand-off happened, not that the webhook accepted it.
type FallbackDispatcher interface {
	Dispatch(ctx context.Context, payload FallbackPayload) error
}

// LeadNotifier is the notification dispatcher as seen by intake.
type LeadNotifier interface {
	Notify(ctx context.Context, lead *entity.Lead, agent *entity.Agent, rule *entity.RoutingRule) DeliveryOutcome
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type SessionIssuer interface {
	Issue(user *entity.User) (string, time.Time, error)
}

type EmailService interface {
	SendWelcome(to, companyName string) error
}

// PaymentGateway starts a hosted checkout for one company.
type PaymentGateway interface {
	CreatePaymentKey(ctx context.Context, in PaymentKeyInput) (string, error)
}

type PaymentKeyInput struct {
	CompanyID   string
	UserID      string
	Email       string
	AmountCents int
	Currency    string
}
