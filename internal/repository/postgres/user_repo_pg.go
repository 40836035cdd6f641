package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bookshelf-app/backend/internal/domain"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, name, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (name, email, password_hash, password_salt)
        VALUES ($1, $2, $3, $4)
        RETURNING id, email, name, role, password_hash, password_salt, created_at, updated_at
    `
	row := r.db.QueryRowxContext(ctx, query, name, email, passwordHash, passwordSalt)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email, name string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, name)
        VALUES ($1, $2)
        ON CONFLICT (email) DO UPDATE
        SET name = COALESCE(NULLIF(EXCLUDED.name, ''), user_account.name),
            updated_at = NOW()
        RETURNING id, email, name, role, password_hash, password_salt, created_at, updated_at
    `
	row := r.db.QueryRowxContext(ctx, query, email, name)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, name, role, password_hash, password_salt, created_at, updated_at
        FROM user_account
        WHERE email = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
        SELECT id, email, name, role, password_hash, password_salt, created_at, updated_at
        FROM user_account
        WHERE id = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            password_salt = $3,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt)
	return err
}
