package domain

import (
	"context"
	"time"
)

// Reserved schedule version tokens. Both are resolved dynamically ("wip" to
// the working draft, "latest" to the most recently published version) and can
// therefore never be used as a release name.
const (
	VersionWIP    = "wip"
	VersionLatest = "latest"
)

// Schedule is one version of an event's schedule. Version and Published are
// nil for the working draft; both are stamped exactly once, at freeze time.
// A released schedule is immutable except for its slots' visibility flag,
// which is fixed during the freeze and never changes again.
type Schedule struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	Version   *string    `json:"version"`
	Published *time.Time `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewWIPSchedule returns a new working draft schedule for the event.
// ID is typically set by the repository on create.
func NewWIPSchedule(eventID string, createdAt time.Time) *Schedule {
	return &Schedule{
		EventID:   eventID,
		CreatedAt: createdAt,
	}
}

// IsReleased reports whether this schedule has been frozen into a version.
func (s *Schedule) IsReleased() bool {
	return s.Version != nil
}

// VersionName returns the version string, or "wip" for the working draft.
func (s *Schedule) VersionName() string {
	if s.Version == nil {
		return VersionWIP
	}
	return *s.Version
}

// ScheduleRepository defines the interface for schedule version storage.
// MostRecentPublished and GetWIP are explicit queries rather than cached
// state so they cannot go stale across a freeze/unfreeze boundary.
type ScheduleRepository interface {
	CreateWIP(ctx context.Context, schedule *Schedule) error
	GetByID(ctx context.Context, id string) (*Schedule, error)
	// GetWIP returns the single working draft (version IS NULL) of the event.
	GetWIP(ctx context.Context, eventID string) (*Schedule, error)
	// MostRecentPublished returns the released schedule with the latest
	// published timestamp, i.e. the currently visible version.
	MostRecentPublished(ctx context.Context, eventID string) (*Schedule, error)
	// Previous returns the schedule released immediately before the given
	// one, or ErrNotFound if it has no predecessor.
	Previous(ctx context.Context, schedule *Schedule) (*Schedule, error)
	// Release stamps version and published on a working draft. It must not
	// affect already-released schedules; implementations guard with
	// "version IS NULL" and report ErrAlreadyReleased on zero rows.
	Release(ctx context.Context, scheduleID, version string, published time.Time) error
	Delete(ctx context.Context, scheduleID string) error
	// CountWIP reports how many working drafts the event has. Used as a
	// defensive invariant check at freeze time; must be exactly one.
	CountWIP(ctx context.Context, eventID string) (int, error)
	ListReleased(ctx context.Context, eventID string, params PaginationParams) ([]*Schedule, int, error)
}

// SlotPlacement is a room/time assignment applied to a working draft slot.
type SlotPlacement struct {
	RoomID *string    `json:"room_id"`
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
}

// ScheduleService defines the business logic for schedule versioning:
// freezing the working draft into a released version, unfreezing back to an
// earlier version, and diffing consecutive versions.
type ScheduleService interface {
	// Freeze releases the given working draft under the given version name
	// and returns the released schedule and the fresh working draft.
	Freeze(ctx context.Context, scheduleID, version, actorID string, notify bool) (released, wip *Schedule, err error)
	// Unfreeze resets the working draft to the given released schedule,
	// preserving draft slots of submissions placed after that release.
	Unfreeze(ctx context.Context, scheduleID, actorID string) (released, wip *Schedule, err error)
	// Compare diffs a schedule against its predecessor version.
	Compare(ctx context.Context, scheduleID string) (*ChangeSet, error)
	GetCurrentSchedule(ctx context.Context, eventID string) (*Schedule, []*TalkSlot, error)
	GetWIPSchedule(ctx context.Context, eventID string) (*Schedule, []*TalkSlot, error)
	ListReleased(ctx context.Context, eventID string, params PaginationParams) ([]*Schedule, int, error)
	CreateWIPSlot(ctx context.Context, eventID, submissionID string, placement SlotPlacement) (*TalkSlot, error)
	UpdateWIPSlot(ctx context.Context, eventID, slotID string, placement SlotPlacement) (*TalkSlot, error)
	ExportICS(ctx context.Context, eventID string) ([]byte, error)
}

// ScheduleExporter renders a released schedule for external consumption as
// an iCalendar feed. Publish is the fire-and-forget variant triggered after a
// release; its failure never rolls back the freeze.
type ScheduleExporter interface {
	Render(event *Event, schedule *Schedule, slots []*TalkSlot) ([]byte, error)
	Publish(event *Event, schedule *Schedule, slots []*TalkSlot) error
}
