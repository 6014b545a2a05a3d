package domain

import (
	"context"
	"time"
)

// SubmissionState enumerates the lifecycle states of a talk submission.
type SubmissionState string

const (
	StateSubmitted SubmissionState = "submitted"
	StateAccepted  SubmissionState = "accepted"
	StateConfirmed SubmissionState = "confirmed"
	StateRejected  SubmissionState = "rejected"
	StateWithdrawn SubmissionState = "withdrawn"
	StateDeleted   SubmissionState = "deleted"
)

// Submission represents a proposed talk. Only confirmed submissions with a
// placed slot become publicly visible when a schedule is released.
type Submission struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Title     string          `json:"title"`
	State     SubmissionState `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSubmission returns a new Submission with the given fields. ID is typically set by the repository on create.
func NewSubmission(eventID, title string, state SubmissionState, createdAt, updatedAt time.Time) *Submission {
	return &Submission{
		EventID:   eventID,
		Title:     title,
		State:     state,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Speaker represents a person speaking on one or more submissions.
type Speaker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionRepository defines the interface for submission and speaker storage
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (*Submission, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Submission, error)
	// ListSpeakersBySubmissionIDs returns the speakers of each submission,
	// keyed by submission ID. Submissions without speakers are absent.
	ListSpeakersBySubmissionIDs(ctx context.Context, submissionIDs []string) (map[string][]*Speaker, error)
}
