package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/repository"
)

type outboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, m *domain.OutboxMessage) (bool, error) {
	logger.EnterMethod("outboxRepository.Enqueue", "key", m.IdempotencyKey, "template", m.Template)

	payload, err := json.Marshal(m.Payload)
	if err != nil {
		logger.ExitMethodWithError("outboxRepository.Enqueue", err, "reason", "failed to marshal payload")
		return false, err
	}

	query := `INSERT INTO outbox (kind, idempotency_key, recipient, template, payload, status, attempts, available_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
	          ON CONFLICT (idempotency_key) DO NOTHING
	          RETURNING id`
	logger.DatabaseCall("INSERT", "outbox", "key", m.IdempotencyKey)

	err = r.db.QueryRowContext(ctx, query, m.Kind, m.IdempotencyKey, m.Recipient, m.Template, payload,
		domain.OutboxStatusPending, m.AvailableAt, m.CreatedAt).Scan(&m.ID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("INSERT", 0, nil, "key", m.IdempotencyKey, "duplicate", true)
		return false, nil
	}
	logger.DatabaseResult("INSERT", 1, err, "key", m.IdempotencyKey)
	if err != nil {
		logger.ExitMethodWithError("outboxRepository.Enqueue", err, "key", m.IdempotencyKey)
		return false, err
	}

	m.Status = domain.OutboxStatusPending
	logger.ExitMethod("outboxRepository.Enqueue", "outboxID", m.ID)
	return true, nil
}

// ClaimDue also picks up rows left in processing by a crashed dispatcher once
// their visibility window has passed.
func (r *outboxRepository) ClaimDue(ctx context.Context, now time.Time, limit int, visibility time.Duration) ([]domain.OutboxMessage, error) {
	query := `UPDATE outbox SET status = $1, available_at = $2
	          WHERE id IN (
	              SELECT id FROM outbox
	              WHERE status IN ($3, $1) AND available_at <= $4
	              ORDER BY available_at, id
	              LIMIT $5
	              FOR UPDATE SKIP LOCKED
	          )
	          RETURNING id, kind, idempotency_key, recipient, template, payload, status, attempts,
	                    COALESCE(last_error, ''), available_at, created_at`
	rows, err := r.db.QueryContext(ctx, query, domain.OutboxStatusProcessing, now.Add(visibility),
		domain.OutboxStatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox: %w", err)
	}
	defer rows.Close()

	var messages []domain.OutboxMessage
	for rows.Next() {
		var (
			m       domain.OutboxMessage
			payload []byte
		)
		if err := rows.Scan(&m.ID, &m.Kind, &m.IdempotencyKey, &m.Recipient, &m.Template, &payload, &m.Status,
			&m.Attempts, &m.LastError, &m.AvailableAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &m.Payload); err != nil {
				return nil, fmt.Errorf("decode outbox %d payload: %w", m.ID, err)
			}
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, id int64, now time.Time) error {
	query := `UPDATE outbox SET status = $1, delivered_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, domain.OutboxStatusDelivered, now, id)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id int64, attempts int, lastErr string, retryAt *time.Time) error {
	if retryAt == nil {
		query := `UPDATE outbox SET status = $1, attempts = $2, last_error = $3 WHERE id = $4`
		_, err := r.db.ExecContext(ctx, query, domain.OutboxStatusFailed, attempts, lastErr, id)
		return err
	}
	query := `UPDATE outbox SET status = $1, attempts = $2, last_error = $3, available_at = $4 WHERE id = $5`
	_, err := r.db.ExecContext(ctx, query, domain.OutboxStatusPending, attempts, lastErr, *retryAt, id)
	return err
}
