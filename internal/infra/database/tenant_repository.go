package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadflow/internal/entity"
)

type TenantRepository struct {
	DB *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) *TenantRepository {
	return &TenantRepository{DB: db}
}

func (r *TenantRepository) Create(ctx context.Context, t *entity.Tenant) error {
	query := `INSERT INTO companies (id, name, api_key, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.DB.ExecContext(ctx, query, t.ID, t.Name, t.APIKey, t.CreatedAt); err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return err
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*entity.Tenant, error) {
	var t entity.Tenant
	err := r.DB.GetContext(ctx, &t, `SELECT id, name, api_key, created_at FROM companies WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, entity.ErrTenantNotFound)
	}
	return &t, nil
}

func (r *TenantRepository) FindByAPIKey(ctx context.Context, apiKey string) (*entity.Tenant, error) {
	var t entity.Tenant
	err := r.DB.GetContext(ctx, &t, `SELECT id, name, api_key, created_at FROM companies WHERE api_key = $1`, apiKey)
	if err != nil {
		return nil, notFound(err, entity.ErrTenantNotFound)
	}
	return &t, nil
}

type UserRepository struct {
	DB *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `
		INSERT INTO users (id, company_id, email, password_hash, created_at)
		VALUES (:id, :company_id, :email, :password_hash, :created_at)
	`
	if _, err := r.DB.NamedExecContext(ctx, query, u); err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	query := `SELECT id, company_id, email, password_hash, created_at FROM users WHERE email = LOWER($1)`
	if err := r.DB.GetContext(ctx, &u, query, email); err != nil {
		return nil, notFound(err, entity.ErrUserNotFound)
	}
	return &u, nil
}
