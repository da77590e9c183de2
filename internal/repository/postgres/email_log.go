package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/repository"
)

type emailLogRepository struct {
	db *sql.DB
}

func NewEmailLogRepository(db *sql.DB) repository.EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Create(ctx context.Context, e *domain.EmailLog) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	query := `INSERT INTO email_logs (outbox_id, recipient, template, payload, status, error, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, e.OutboxID, e.Recipient, e.Template, payload, e.Status, e.Error, e.CreatedAt).Scan(&e.ID)
}

func (r *emailLogRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]domain.EmailLog, error) {
	query := `SELECT id, outbox_id, recipient, template, payload, status, error, created_at
	          FROM email_logs WHERE recipient = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, recipient, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.EmailLog
	for rows.Next() {
		var (
			e       domain.EmailLog
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.OutboxID, &e.Recipient, &e.Template, &payload, &e.Status, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
