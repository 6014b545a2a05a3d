package domain

import (
	"context"
	"time"
)

// Event represents a conference event
type Event struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	OwnerID         string    `json:"owner_id"`
	Timezone        string    `json:"timezone"`
	ExportOnRelease bool      `json:"export_on_release"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name, slug, ownerID, timezone string, createdAt, updatedAt time.Time) *Event {
	if timezone == "" {
		timezone = "UTC"
	}
	return &Event{
		Name:      name,
		Slug:      slug,
		OwnerID:   ownerID,
		Timezone:  timezone,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Location resolves the event's IANA timezone. Falls back to UTC when the
// stored name does not resolve.
func (e *Event) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
}

// EventService defines the business logic for event management.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, eventID string) (*Event, []*Room, error)
	ListEventsByOwner(ctx context.Context, ownerID string) ([]*Event, error)
}
