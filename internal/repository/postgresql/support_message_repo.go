package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

type pgSupportMessageRepository struct {
	db *sql.DB
}

func NewPgSupportMessageRepository(db *sql.DB) repository.SupportMessageRepository {
	return &pgSupportMessageRepository{db: db}
}

func (r *pgSupportMessageRepository) Create(ctx context.Context, msg *domain.SupportMessage) (*domain.SupportMessage, error) {
	query := `INSERT INTO support_messages (sender_email, message, status, created_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, msg.SenderEmail, msg.Message, domain.MessageUnread).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("SupportMessageRepository.Create: %w", err)
	}
	msg.Status = domain.MessageUnread
	msg.CreatedAt = msg.CreatedAt.In(time.UTC)
	return msg, nil
}

func (r *pgSupportMessageRepository) FindAll(ctx context.Context) ([]domain.SupportMessage, error) {
	query := `SELECT id, sender_email, message, status, created_at FROM support_messages ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("SupportMessageRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var messages []domain.SupportMessage
	for rows.Next() {
		var msg domain.SupportMessage
		if err := rows.Scan(&msg.ID, &msg.SenderEmail, &msg.Message, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("SupportMessageRepository.FindAll (scanning row): %w", err)
		}
		msg.CreatedAt = msg.CreatedAt.In(time.UTC)
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("SupportMessageRepository.FindAll (rows error): %w", err)
	}
	return messages, nil
}

func (r *pgSupportMessageRepository) FindByID(ctx context.Context, id int) (*domain.SupportMessage, error) {
	msg := &domain.SupportMessage{}
	query := `SELECT id, sender_email, message, status, created_at FROM support_messages WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&msg.ID, &msg.SenderEmail, &msg.Message, &msg.Status, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SupportMessageRepository.FindByID: %w", err)
	}
	msg.CreatedAt = msg.CreatedAt.In(time.UTC)
	return msg, nil
}

func (r *pgSupportMessageRepository) UpdateStatus(ctx context.Context, id int, status domain.SupportMessageStatus) error {
	query := `UPDATE support_messages SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("SupportMessageRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("SupportMessageRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
