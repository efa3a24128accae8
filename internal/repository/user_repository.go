package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

const userColumns = `id, email, username, full_name, password_hash, active, is_admin, created_at, updated_at`

// UserRepository provides database access for operator accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ExistsByEmail checks whether an account already uses the email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
}

// ExistsByUsername checks whether an account already uses the username.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *UserRepository) exists(ctx context.Context, query, value string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, value); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new user. Unique violations map to ErrDuplicateEmail or
// ErrDuplicateUsername depending on the constraint hit.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, username, full_name, password_hash, active, is_admin, created_at, updated_at)
        VALUES (:id, :email, :username, :full_name, :password_hash, :active, :is_admin, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if constraint, dup := isUniqueViolation(err); dup {
			if constraint == "users_username_key" {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetAdmin promotes or demotes a user and re-activates the account.
func (r *UserRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	const query = `UPDATE users SET is_admin = $2, active = TRUE, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, admin, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set user admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user admin: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
