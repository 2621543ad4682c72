package entity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenant is a company. Every other row is owned through CompanyID.
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	APIKey    string    `json:"-" db:"api_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	CompanyID    string    `json:"company_id" db:"company_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func NewTenant(name string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("company name is required")
	}

	key, err := NewAPIKey()
	if err != nil {
		return nil, err
	}

	return &Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		APIKey:    key,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func NewUser(companyID, email, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

// NewAPIKey returns the opaque secret a company pastes into its lead
// sources (sheet snippet, ad platform webhook).
func NewAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "lf_" + hex.EncodeToString(buf), nil
}

type TenantRepositoryInterface interface {
	Create(ctx context.Context, t *Tenant) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Tenant, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*Tenant, error)
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}
