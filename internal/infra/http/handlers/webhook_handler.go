package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/integration/paymob"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type SubscriptionActivator interface {
	Execute(ctx context.Context, input usecase.ActivateSubscriptionInput) error
}

// WebhookHandler receives Paymob processed-transaction callbacks.
type WebhookHandler struct {
	Secret   string
	Activate SubscriptionActivator
	Log      zerolog.Logger
}

func NewWebhookHandler(secret string, activate SubscriptionActivator, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{Secret: secret, Activate: activate, Log: log}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, usecase.CodeValidation, "unreadable body")
		return
	}

	tx, err := paymob.ParseCallback(body)
	if err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, paymob.ErrMissingTransaction) {
			msg = "no transaction data"
		}
		writeErrorCode(w, http.StatusBadRequest, usecase.CodeValidation, msg)
		return
	}

	if h.Secret == "" || tx.Verify(h.Secret, r.URL.Query().Get("hmac")) != nil {
		h.Log.Warn().Str("transaction_id", tx.ID()).Msg("❌ paymob hmac verification failed")
		middleware.RecordPaymentCallback("invalid_signature")
		writeErrorCode(w, http.StatusUnauthorized, usecase.CodeInvalidSignature, "signature mismatch")
		return
	}

	err = h.Activate.Execute(r.Context(), usecase.ActivateSubscriptionInput{
		CompanyID:     tx.CompanyID(),
		TransactionID: tx.ID(),
		Success:       tx.Success(),
	})
	if err != nil {
		middleware.RecordPaymentCallback("error")
		writeError(w, r, err)
		return
	}

	if tx.Success() {
		middleware.RecordPaymentCallback("activated")
		middleware.RecordSubscriptionActivation()
	} else {
		middleware.RecordPaymentCallback("declined")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
