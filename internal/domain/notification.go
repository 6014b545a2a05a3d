package domain

import (
	"context"
	"time"
)

// SpeakerNotification collects what changed for one speaker between two
// schedule versions: newly assigned slots and moved placements. Cancellations
// alone do not notify (higher-level flows handle full teardowns).
type SpeakerNotification struct {
	Speaker *Speaker     `json:"speaker"`
	Create  []*TalkSlot  `json:"create"`
	Update  []*MovedTalk `json:"update"`
}

// QueuedMail is one outbound message awaiting deferred, at-least-once
// delivery. The core enqueues rendered content; delivery happens later.
type QueuedMail struct {
	ID        string     `json:"id"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject"`
	HTMLBody  string     `json:"html_body"`
	TextBody  string     `json:"text_body"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at"`
}

// MailQueueRepository defines the interface for the outbound mail queue.
// Enqueue participates in the caller's transaction, so queued notifications
// commit or roll back together with the freeze that produced them.
type MailQueueRepository interface {
	Enqueue(ctx context.Context, mails []*QueuedMail) error
	ListPending(ctx context.Context, limit int) ([]*QueuedMail, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// ScheduleUpdateEmailData holds data for the per-speaker schedule release email.
type ScheduleUpdateEmailData struct {
	SpeakerName string
	EventName   string
	Version     string
	NewTalks    []*TalkSlot
	MovedTalks  []*MovedTalk
}

// EmailService defines the contract for rendering and queueing domain-level
// emails and for flushing the queue.
type EmailService interface {
	// QueueSpeakerNotifications renders one schedule update email per
	// speaker and enqueues them. Returns the number of queued mails.
	QueueSpeakerNotifications(ctx context.Context, event *Event, version string, notifications map[string]*SpeakerNotification) (int, error)
	// SendPendingMail delivers up to limit queued mails. Returns the number sent.
	SendPendingMail(ctx context.Context, limit int) (int, error)
}
