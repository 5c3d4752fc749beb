package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"github.com/lib/pq"
)

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) repository.UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (name, email, phone, usn, password_hash, role, department, preferences, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Phone,
		sql.NullString{String: user.USN, Valid: user.USN != ""},
		user.PasswordHash, user.Role, user.Department, user.Preferences,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				if pqErr.Constraint == "users_email_key" {
					return nil, fmt.Errorf("%w: email '%s' đã được đăng ký", repository.ErrDuplicateEntry, user.Email)
				}
				if pqErr.Constraint == "users_usn_key" {
					return nil, fmt.Errorf("%w: mã thẻ '%s' đã được đăng ký", repository.ErrDuplicateEntry, user.USN)
				}
			}
		}
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, phone, usn, password_hash, role, department, preferences, created_at, updated_at
	           FROM users WHERE email = $1`, email)
}

func (r *pgUserRepository) FindByUSN(ctx context.Context, usn string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, phone, usn, password_hash, role, department, preferences, created_at, updated_at
	           FROM users WHERE usn = $1`, usn)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, phone, usn, password_hash, role, department, preferences, created_at, updated_at
	           FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user := &domain.User{}
	var usn sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &usn,
		&user.PasswordHash, &user.Role, &user.Department, &user.Preferences,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.findOne: %w", err)
	}
	if usn.Valid {
		user.USN = usn.String
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) UpdatePreferences(ctx context.Context, id int, preferences string) error {
	query := `UPDATE users SET preferences = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, preferences, id)
	if err != nil {
		return fmt.Errorf("UserRepository.UpdatePreferences: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UserRepository.UpdatePreferences (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
