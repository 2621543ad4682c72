package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/usecase"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

// writeError maps use case errors onto HTTP. Technical causes are logged,
// never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeErrorCode(w, statusFor(de.Code), de.Code, de.Message)
		return
	}

	log := zerolog.Ctx(r.Context())
	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		log.Error().Err(te.Err).Str("code", te.Code).Msg(te.Message)
		writeErrorCode(w, statusFor(te.Code), te.Code, te.Message)
		return
	}

	log.Error().Err(err).Msg("unexpected error")
	writeErrorCode(w, http.StatusInternalServerError, usecase.CodeInternal, "internal error")
}

func statusFor(code string) int {
	switch code {
	case usecase.CodeUnauthenticated, usecase.CodeInvalidSignature:
		return http.StatusUnauthorized
	case usecase.CodeForbidden:
		return http.StatusForbidden
	case usecase.CodeValidation, usecase.CodeNoAgents:
		return http.StatusBadRequest
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeConflict:
		return http.StatusConflict
	case usecase.CodePaymentRequired:
		return http.StatusPaymentRequired
	case usecase.CodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON rejects bodies over 1 MiB. Numbers in untyped fields stay
// json.Number so long phone numbers keep every digit.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		writeErrorCode(w, http.StatusBadRequest, usecase.CodeValidation, "invalid JSON body")
		return false
	}
	return true
}
