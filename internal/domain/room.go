package domain

import (
	"context"
	"time"
)

// Room represents a physical room or track at the event
type Room struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	SpeakerInfo string    `json:"speaker_info"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewRoom returns a new Room with the given fields. ID is typically set by the repository on create.
func NewRoom(eventID, name, speakerInfo string, createdAt, updatedAt time.Time) *Room {
	return &Room{
		EventID:     eventID,
		Name:        name,
		SpeakerInfo: speakerInfo,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// RoomRepository defines the interface for room storage
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Room, error)
}
