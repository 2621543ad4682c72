package usecase

import "errors"

const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeForbidden        = "FORBIDDEN"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNoAgents         = "NO_AGENTS"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodePaymentRequired  = "PAYMENT_REQUIRED"

	CodePersistence = "PERSISTENCE_ERROR"
	CodeGateway     = "GATEWAY_ERROR"
	CodeInternal    = "INTERNAL_ERROR"
)

// DomainError is caused by the caller and is safe to show.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps an infrastructure failure. Message is shown, Err is
// only logged.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func persistenceError(msg string, err error) error {
	return &TechnicalError{Code: CodePersistence, Message: msg, Err: err}
}
