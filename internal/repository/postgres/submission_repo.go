package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"programdesk/internal/domain"
)

type SubmissionRepository struct {
	DB *sql.DB
}

func NewSubmissionRepository(db *sql.DB) domain.SubmissionRepository {
	return &SubmissionRepository{
		DB: db,
	}
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	query := `
		SELECT id, event_id, title, state, created_at, updated_at
		FROM submissions
		WHERE id = $1
	`
	submission := &domain.Submission{}
	var state string
	err := q(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(
		&submission.ID, &submission.EventID, &submission.Title, &state,
		&submission.CreatedAt, &submission.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	submission.State = domain.SubmissionState(state)
	return submission, nil
}

func (r *SubmissionRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Submission, error) {
	query := `
		SELECT id, event_id, title, state, created_at, updated_at
		FROM submissions
		WHERE event_id = $1
		ORDER BY created_at, id
	`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var submissions []*domain.Submission
	for rows.Next() {
		submission := &domain.Submission{}
		var state string
		if err := rows.Scan(&submission.ID, &submission.EventID, &submission.Title, &state,
			&submission.CreatedAt, &submission.UpdatedAt); err != nil {
			return nil, err
		}
		submission.State = domain.SubmissionState(state)
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

func (r *SubmissionRepository) ListSpeakersBySubmissionIDs(ctx context.Context, submissionIDs []string) (map[string][]*domain.Speaker, error) {
	if len(submissionIDs) == 0 {
		return map[string][]*domain.Speaker{}, nil
	}
	query := `
		SELECT ss.submission_id, sp.id, sp.name, sp.email
		FROM submission_speakers ss
		INNER JOIN speakers sp ON sp.id = ss.speaker_id
		WHERE ss.submission_id = ANY($1)
		ORDER BY ss.submission_id, sp.name
	`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, pq.Array(submissionIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	speakersBySubmission := make(map[string][]*domain.Speaker)
	for rows.Next() {
		var submissionID string
		speaker := &domain.Speaker{}
		if err := rows.Scan(&submissionID, &speaker.ID, &speaker.Name, &speaker.Email); err != nil {
			return nil, err
		}
		speakersBySubmission[submissionID] = append(speakersBySubmission[submissionID], speaker)
	}
	return speakersBySubmission, rows.Err()
}
