package postgres

import (
	"context"
	"database/sql"
	"time"

	"programdesk/internal/domain"
)

type MailQueueRepository struct {
	DB *sql.DB
}

func NewMailQueueRepository(db *sql.DB) domain.MailQueueRepository {
	return &MailQueueRepository{
		DB: db,
	}
}

// Enqueue inserts a batch of outbound mails. Inside a transaction the rows
// commit together with the schedule release that produced them.
func (r *MailQueueRepository) Enqueue(ctx context.Context, mails []*domain.QueuedMail) error {
	if len(mails) == 0 {
		return nil
	}
	query := `
		INSERT INTO queued_mails (id, recipient, subject, html_body, text_body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	db := q(ctx, r.DB)
	for _, mail := range mails {
		if _, err := db.ExecContext(ctx, query,
			mail.ID, mail.Recipient, mail.Subject, mail.HTMLBody, mail.TextBody, mail.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *MailQueueRepository) ListPending(ctx context.Context, limit int) ([]*domain.QueuedMail, error) {
	query := `
		SELECT id, recipient, subject, html_body, text_body, created_at
		FROM queued_mails
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var mails []*domain.QueuedMail
	for rows.Next() {
		mail := &domain.QueuedMail{}
		if err := rows.Scan(&mail.ID, &mail.Recipient, &mail.Subject, &mail.HTMLBody, &mail.TextBody, &mail.CreatedAt); err != nil {
			return nil, err
		}
		mails = append(mails, mail)
	}
	return mails, rows.Err()
}

func (r *MailQueueRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `UPDATE queued_mails SET sent_at = $2 WHERE id = $1 AND sent_at IS NULL`
	result, err := q(ctx, r.DB).ExecContext(ctx, query, id, sentAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
