package usecase

import (
	"context"

	"github.com/rs/zerolog"
)

type CheckoutInput struct {
	CompanyID string
	UserID    string
	Email     string
}

type CheckoutOutput struct {
	PaymentToken string `json:"paymentToken"`
	IframeURL    string `json:"iframe_url,omitempty"`
}

type CheckoutUseCase struct {
	Gateway     PaymentGateway
	AmountCents int
	Currency    string
	IframeID    string
	Log         zerolog.Logger
}

func NewCheckoutUseCase(gateway PaymentGateway, amountCents int, currency, iframeID string, log zerolog.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{Gateway: gateway, AmountCents: amountCents, Currency: currency, IframeID: iframeID, Log: log}
}

func (uc *CheckoutUseCase) Execute(ctx context.Context, input CheckoutInput) (*CheckoutOutput, error) {
	if input.CompanyID == "" {
		return nil, &DomainError{Code: CodeUnauthenticated, Message: "no company in session"}
	}

	token, err := uc.Gateway.CreatePaymentKey(ctx, PaymentKeyInput{
		CompanyID:   input.CompanyID,
		UserID:      input.UserID,
		Email:       input.Email,
		AmountCents: uc.AmountCents,
		Currency:    uc.Currency,
	})
	if err != nil {
		uc.Log.Error().Err(err).Str("company_id", input.CompanyID).Msg("🔥 paymob checkout failed")
		return nil, &TechnicalError{Code: CodeGateway, Message: "payment provider unavailable", Err: err}
	}

	out := &CheckoutOutput{PaymentToken: token}
	if uc.IframeID != "" {
		out.IframeURL = "https://accept.paymob.com/api/acceptance/iframes/" + uc.IframeID + "?payment_token=" + token
	}
	return out, nil
}
