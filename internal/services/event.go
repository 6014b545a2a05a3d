package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"programdesk/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	roomRepo       domain.RoomRepository
	scheduleRepo   domain.ScheduleRepository
	contextTimeout time.Duration
}

// NewEventService returns the EventService for event management. Creating an
// event also creates its initial working draft schedule.
func NewEventService(eventRepo domain.EventRepository, roomRepo domain.RoomRepository, scheduleRepo domain.ScheduleRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		roomRepo:       roomRepo,
		scheduleRepo:   scheduleRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return fmt.Errorf("event owner is required")
	}
	if event.Timezone == "" {
		event.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(event.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q", event.Timezone)
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	// Every event starts with an empty working draft.
	wip := domain.NewWIPSchedule(event.ID, now)
	if err := s.scheduleRepo.CreateWIP(ctx, wip); err != nil {
		return fmt.Errorf("create working draft: %w", err)
	}
	return nil
}

func (s *eventService) GetEventByID(ctx context.Context, eventID string) (*domain.Event, []*domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	rooms, err := s.roomRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list rooms: %w", err)
	}
	if rooms == nil {
		rooms = []*domain.Room{}
	}
	return event, rooms, nil
}

func (s *eventService) ListEventsByOwner(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.eventRepo.ListByOwnerID(ctx, ownerID)
}
