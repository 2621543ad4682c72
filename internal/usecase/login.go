package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CompanyID string    `json:"company_id"`
	UserID    string    `json:"user_id"`
}

type LoginUseCase struct {
	Users    entity.UserRepositoryInterface
	Hasher   PasswordHasher
	Sessions SessionIssuer
}

func NewLoginUseCase(users entity.UserRepositoryInterface, hasher PasswordHasher, sessions SessionIssuer) *LoginUseCase {
	return &LoginUseCase{Users: users, Hasher: hasher, Sessions: sessions}
}

var errBadCredentials = &DomainError{Code: CodeUnauthenticated, Message: "invalid email or password"}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := uc.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, errBadCredentials
		}
		return nil, persistenceError("failed to load user", err)
	}

	if err := uc.Hasher.Compare(user.PasswordHash, input.Password); err != nil {
		return nil, errBadCredentials
	}

	token, exp, err := uc.Sessions.Issue(user)
	if err != nil {
		return nil, &TechnicalError{Code: CodeInternal, Message: "failed to issue session", Err: err}
	}

	return &LoginOutput{Token: token, ExpiresAt: exp, CompanyID: user.CompanyID, UserID: user.ID}, nil
}
