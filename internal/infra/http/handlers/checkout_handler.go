package handlers

import (
	"context"
	"net/http"

	"github.com/xavierca1/leadflow/internal/infra/auth"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type CheckoutStarter interface {
	Execute(ctx context.Context, input usecase.CheckoutInput) (*usecase.CheckoutOutput, error)
}

type CheckoutHandler struct {
	Checkout CheckoutStarter
}

func NewCheckoutHandler(uc CheckoutStarter) *CheckoutHandler {
	return &CheckoutHandler{Checkout: uc}
}

func (h *CheckoutHandler) Handle(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())

	output, err := h.Checkout.Execute(r.Context(), usecase.CheckoutInput{
		CompanyID: claims.CompanyID,
		UserID:    claims.Subject,
		Email:     claims.Email,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
