package domain

import (
	"context"
	"time"
)

// TalkSlot assigns a submission to a room and time within one schedule
// version. Room, Start and End are nil while the talk is unplaced. RoomName,
// RoomSpeakerInfo and SubmissionTitle are denormalized by repository joins
// for diff and notification output and are not persisted on the slot itself.
type TalkSlot struct {
	ID           string     `json:"id"`
	ScheduleID   string     `json:"schedule_id"`
	SubmissionID string     `json:"submission_id"`
	RoomID       *string    `json:"room_id"`
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
	IsVisible    bool       `json:"is_visible"`

	RoomName        string          `json:"room_name,omitempty"`
	RoomSpeakerInfo string          `json:"-"`
	SubmissionTitle string          `json:"submission_title,omitempty"`
	SubmissionState SubmissionState `json:"-"`
}

// IsScheduled reports whether the slot has both a room and a start time.
func (t *TalkSlot) IsScheduled() bool {
	return t.RoomID != nil && t.Start != nil
}

// SameSlot reports structural equality: two slots are the same placement iff
// they agree on (submission, room, start). End time and identity are ignored.
func (t *TalkSlot) SameSlot(other *TalkSlot) bool {
	return t.Key() == other.Key()
}

// SlotKey is the structural identity of a placement, used for set-difference
// comparison between schedule versions.
type SlotKey struct {
	SubmissionID string
	RoomID       string
	Start        int64
}

// Key returns the slot's structural key. Unplaced fields map to zero values;
// only scheduled slots are ever compared.
func (t *TalkSlot) Key() SlotKey {
	key := SlotKey{SubmissionID: t.SubmissionID}
	if t.RoomID != nil {
		key.RoomID = *t.RoomID
	}
	if t.Start != nil {
		key.Start = t.Start.Unix()
	}
	return key
}

// CopyToSchedule returns a fresh slot on the target schedule with the same
// placement and visibility. The copy carries the given new identity; a freeze
// never mutates slots in place.
func (t *TalkSlot) CopyToSchedule(newID, scheduleID string) *TalkSlot {
	return &TalkSlot{
		ID:           newID,
		ScheduleID:   scheduleID,
		SubmissionID: t.SubmissionID,
		RoomID:       t.RoomID,
		Start:        t.Start,
		End:          t.End,
		IsVisible:    t.IsVisible,
	}
}

// TalkSlotRepository defines the interface for talk slot storage.
type TalkSlotRepository interface {
	GetByID(ctx context.Context, id string) (*TalkSlot, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]*TalkSlot, error)
	// ListScheduled returns the slots with a room and a start time that are
	// visible and whose submission is not deleted, ordered by start then room
	// name. This is the slot set the diff engine compares.
	ListScheduled(ctx context.Context, scheduleID string) ([]*TalkSlot, error)
	ListSubmissionIDs(ctx context.Context, scheduleID string) ([]string, error)
	Create(ctx context.Context, slot *TalkSlot) error
	BulkCreate(ctx context.Context, slots []*TalkSlot) error
	UpdatePlacement(ctx context.Context, slot *TalkSlot) error
	DeleteBySchedule(ctx context.Context, scheduleID string) error
	// ShowConfirmedScheduled makes every placed slot of a confirmed
	// submission visible (freeze visibility pass one).
	ShowConfirmedScheduled(ctx context.Context, scheduleID string) error
	// HideUnscheduledOrUnconfirmed hides every visible slot that is not
	// placed-and-confirmed (freeze visibility pass two). After both passes
	// the visible set is exactly "placed and confirmed".
	HideUnscheduledOrUnconfirmed(ctx context.Context, scheduleID string) error
}
