package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/database"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/models"
)

// SQLUserRepository stores accounts in the users table.
type SQLUserRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLUserRepository(db *sql.DB, dialect database.Dialect) *SQLUserRepository {
	return &SQLUserRepository{db: db, dialect: dialect}
}

func (r *SQLUserRepository) Create(ctx context.Context, u *models.User) error {
	q := r.dialect.Rebind("INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)")
	if _, err := r.db.ExecContext(ctx, q, u.ID, u.Email, u.PasswordHash, u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := r.dialect.Rebind("SELECT id, email, password_hash, created_at FROM users WHERE email = ?")
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *SQLUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	q := r.dialect.Rebind("SELECT id, email, password_hash, created_at FROM users WHERE id = ?")
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// isUniqueViolation recognizes postgres 23505 and sqlite UNIQUE failures.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
