package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type SubscriptionStatus interface {
	Status(ctx context.Context, companyID string) (*entity.Subscription, error)
}

// SubscriptionHandler serves the billing page payload.
type SubscriptionHandler struct {
	Subs        SubscriptionStatus
	AmountCents int
	Currency    string
}

func NewSubscriptionHandler(subs SubscriptionStatus, amountCents int, currency string) *SubscriptionHandler {
	return &SubscriptionHandler{Subs: subs, AmountCents: amountCents, Currency: currency}
}

type billingResponse struct {
	CompanyID   string     `json:"company_id"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	Active      bool       `json:"active"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	AmountCents int        `json:"amount_cents"`
	Currency    string     `json:"currency"`
}

func (h *SubscriptionHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	id := companyID(r)
	sub, err := h.Subs.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, &usecase.TechnicalError{Code: usecase.CodePersistence, Message: "subscription lookup failed", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, billingResponse{
		CompanyID:   id,
		Plan:        sub.Plan,
		Status:      sub.Status,
		Active:      sub.IsActive(time.Now()),
		EndsAt:      sub.EndsAt,
		AmountCents: h.AmountCents,
		Currency:    h.Currency,
	})
}
