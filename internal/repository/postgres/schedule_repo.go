package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"programdesk/internal/domain"
)

type ScheduleRepository struct {
	DB *sql.DB
}

func NewScheduleRepository(db *sql.DB) domain.ScheduleRepository {
	return &ScheduleRepository{
		DB: db,
	}
}

func (r *ScheduleRepository) CreateWIP(ctx context.Context, schedule *domain.Schedule) error {
	query := `
		INSERT INTO schedules (event_id, created_at)
		VALUES ($1, $2)
		RETURNING id
	`
	return q(ctx, r.DB).QueryRowContext(ctx, query, schedule.EventID, schedule.CreatedAt).Scan(&schedule.ID)
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	query := `
		SELECT id, event_id, version, published, created_at
		FROM schedules
		WHERE id = $1
	`
	return r.scanSchedule(q(ctx, r.DB).QueryRowContext(ctx, query, id))
}

func (r *ScheduleRepository) GetWIP(ctx context.Context, eventID string) (*domain.Schedule, error) {
	query := `
		SELECT id, event_id, version, published, created_at
		FROM schedules
		WHERE event_id = $1 AND version IS NULL
	`
	return r.scanSchedule(q(ctx, r.DB).QueryRowContext(ctx, query, eventID))
}

func (r *ScheduleRepository) MostRecentPublished(ctx context.Context, eventID string) (*domain.Schedule, error) {
	query := `
		SELECT id, event_id, version, published, created_at
		FROM schedules
		WHERE event_id = $1 AND published IS NOT NULL
		ORDER BY published DESC
		LIMIT 1
	`
	return r.scanSchedule(q(ctx, r.DB).QueryRowContext(ctx, query, eventID))
}

func (r *ScheduleRepository) Previous(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error) {
	if schedule.Published != nil {
		query := `
			SELECT id, event_id, version, published, created_at
			FROM schedules
			WHERE event_id = $1 AND id <> $2 AND published IS NOT NULL AND published < $3
			ORDER BY published DESC
			LIMIT 1
		`
		return r.scanSchedule(q(ctx, r.DB).QueryRowContext(ctx, query, schedule.EventID, schedule.ID, *schedule.Published))
	}
	// The working draft's predecessor is the latest published version.
	query := `
		SELECT id, event_id, version, published, created_at
		FROM schedules
		WHERE event_id = $1 AND id <> $2 AND published IS NOT NULL
		ORDER BY published DESC
		LIMIT 1
	`
	return r.scanSchedule(q(ctx, r.DB).QueryRowContext(ctx, query, schedule.EventID, schedule.ID))
}

func (r *ScheduleRepository) Release(ctx context.Context, scheduleID, version string, published time.Time) error {
	query := `
		UPDATE schedules
		SET version = $2, published = $3
		WHERE id = $1 AND version IS NULL
	`
	result, err := q(ctx, r.DB).ExecContext(ctx, query, scheduleID, version, published)
	if err != nil {
		var pqErr *pq.Error
		// 23505: the (event_id, version) unique constraint.
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrVersionNameTaken
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAlreadyReleased
	}
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, scheduleID string) error {
	query := `DELETE FROM schedules WHERE id = $1`
	_, err := q(ctx, r.DB).ExecContext(ctx, query, scheduleID)
	return err
}

func (r *ScheduleRepository) CountWIP(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM schedules WHERE event_id = $1 AND version IS NULL`
	var count int
	if err := q(ctx, r.DB).QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ScheduleRepository) ListReleased(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Schedule, int, error) {
	db := q(ctx, r.DB)
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules WHERE event_id = $1 AND published IS NOT NULL`, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, event_id, version, published, created_at
		FROM schedules
		WHERE event_id = $1 AND published IS NOT NULL
		ORDER BY published DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := db.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var schedules []*domain.Schedule
	for rows.Next() {
		schedule, err := r.scanScheduleRow(rows)
		if err != nil {
			return nil, 0, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, total, rows.Err()
}

func (r *ScheduleRepository) scanSchedule(row *sql.Row) (*domain.Schedule, error) {
	schedule := &domain.Schedule{}
	var version sql.NullString
	var published sql.NullTime
	err := row.Scan(&schedule.ID, &schedule.EventID, &version, &published, &schedule.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if version.Valid {
		schedule.Version = &version.String
	}
	if published.Valid {
		schedule.Published = &published.Time
	}
	return schedule, nil
}

func (r *ScheduleRepository) scanScheduleRow(rows *sql.Rows) (*domain.Schedule, error) {
	schedule := &domain.Schedule{}
	var version sql.NullString
	var published sql.NullTime
	if err := rows.Scan(&schedule.ID, &schedule.EventID, &version, &published, &schedule.CreatedAt); err != nil {
		return nil, err
	}
	if version.Valid {
		schedule.Version = &version.String
	}
	if published.Valid {
		schedule.Published = &published.Time
	}
	return schedule, nil
}
