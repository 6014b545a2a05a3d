package postgres

import (
	"context"
	"database/sql"

	"programdesk/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (name, slug, owner_id, timezone, export_on_release, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return q(ctx, r.DB).QueryRowContext(ctx, query,
		event.Name, event.Slug, event.OwnerID, event.Timezone, event.ExportOnRelease,
		event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, slug, owner_id, timezone, export_on_release, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	return r.scanEvent(q(ctx, r.DB).QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	query := `
		SELECT id, name, slug, owner_id, timezone, export_on_release, created_at, updated_at
		FROM events
		WHERE slug = $1
	`
	return r.scanEvent(q(ctx, r.DB).QueryRowContext(ctx, query, slug))
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT id, name, slug, owner_id, timezone, export_on_release, created_at, updated_at
		FROM events
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []*domain.Event
	for rows.Next() {
		event := &domain.Event{}
		if err := rows.Scan(&event.ID, &event.Name, &event.Slug, &event.OwnerID, &event.Timezone,
			&event.ExportOnRelease, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *eventRepository) scanEvent(row *sql.Row) (*domain.Event, error) {
	event := &domain.Event{}
	err := row.Scan(&event.ID, &event.Name, &event.Slug, &event.OwnerID, &event.Timezone,
		&event.ExportOnRelease, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}
