package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
)

type SignupInput struct {
	CompanyName string `json:"company_name" validate:"required,min=2,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type SignupOutput struct {
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

type SignupUseCase struct {
	Tenants       entity.TenantRepositoryInterface
	Users         entity.UserRepositoryInterface
	Subscriptions entity.SubscriptionRepository
	Hasher        PasswordHasher
	Mailer        EmailService
	Log           zerolog.Logger
}

func NewSignupUseCase(
	tenants entity.TenantRepositoryInterface,
	users entity.UserRepositoryInterface,
	subs entity.SubscriptionRepository,
	hasher PasswordHasher,
	mailer EmailService,
	log zerolog.Logger,
) *SignupUseCase {
	return &SignupUseCase{
		Tenants:       tenants,
		Users:         users,
		Subscriptions: subs,
		Hasher:        hasher,
		Mailer:        mailer,
		Log:           log,
	}
}

// Execute creates company, user and inactive subscription. A failure at any
// step removes the company again, which cascades to what was created.
func (uc *SignupUseCase) Execute(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	tenant, err := entity.NewTenant(input.CompanyName)
	if err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	hash, err := uc.Hasher.Hash(input.Password)
	if err != nil {
		return nil, &TechnicalError{Code: CodeInternal, Message: "failed to hash password", Err: err}
	}
	user := entity.NewUser(tenant.ID, input.Email, hash)

	tx := NewTransaction(uc.Log)
	tx.AddStep("create_company",
		func(ctx context.Context) error { return uc.Tenants.Create(ctx, tenant) },
		func(ctx context.Context) error { return uc.Tenants.Delete(ctx, tenant.ID) },
	)
	tx.AddStep("create_user",
		func(ctx context.Context) error { return uc.Users.Create(ctx, user) },
		nil,
	)
	tx.AddStep("create_subscription",
		func(ctx context.Context) error { return uc.Subscriptions.Create(ctx, entity.NewSubscription(tenant.ID)) },
		nil,
	)

	if err := tx.Execute(ctx); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, &DomainError{Code: CodeConflict, Message: entity.ErrEmailAlreadyExists.Error()}
		}
		return nil, persistenceError("signup failed", err)
	}

	uc.Log.Info().Str("company_id", tenant.ID).Str("email", user.Email).Msg("🏢 company registered")

	if uc.Mailer != nil {
		go func() {
			if err := uc.Mailer.SendWelcome(user.Email, tenant.Name); err != nil {
				uc.Log.Warn().Err(err).Str("email", user.Email).Msg("welcome e-mail failed")
			}
		}()
	}

	return &SignupOutput{CompanyID: tenant.ID, UserID: user.ID, Email: user.Email}, nil
}
