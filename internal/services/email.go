package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"programdesk/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	queue    domain.MailQueueRepository
}

// NewEmailService returns an EmailService that renders notification emails
// and hands them to the mail queue for deferred delivery.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, queue domain.MailQueueRepository) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, queue: queue}
}

// QueueSpeakerNotifications renders one "schedule_update" email per speaker
// and enqueues the batch. Runs inside the caller's transaction when one is
// active, so queued mail commits together with the schedule release.
func (s *emailService) QueueSpeakerNotifications(ctx context.Context, event *domain.Event, version string, notifications map[string]*domain.SpeakerNotification) (int, error) {
	if len(notifications) == 0 {
		return 0, nil
	}
	now := time.Now()
	mails := make([]*domain.QueuedMail, 0, len(notifications))
	for _, notification := range notifications {
		data := &domain.ScheduleUpdateEmailData{
			SpeakerName: notification.Speaker.Name,
			EventName:   event.Name,
			Version:     version,
			NewTalks:    notification.Create,
			MovedTalks:  notification.Update,
		}
		subject, htmlBody, textBody, err := s.renderer.Render("schedule_update", data)
		if err != nil {
			return 0, fmt.Errorf("failed to render schedule_update template: %w", err)
		}
		mails = append(mails, &domain.QueuedMail{
			ID:        uuid.NewString(),
			Recipient: notification.Speaker.Email,
			Subject:   subject,
			HTMLBody:  htmlBody,
			TextBody:  textBody,
			CreatedAt: now,
		})
	}
	if err := s.queue.Enqueue(ctx, mails); err != nil {
		return 0, fmt.Errorf("failed to enqueue notifications: %w", err)
	}
	log.Printf("[EMAIL] Queued %d schedule update emails for %s %s", len(mails), event.Slug, version)
	return len(mails), nil
}

// SendPendingMail delivers up to limit queued mails through the configured
// mailer. A failed send leaves the mail queued for the next run
// (at-least-once); other mails in the batch still go out.
func (s *emailService) SendPendingMail(ctx context.Context, limit int) (int, error) {
	pending, err := s.queue.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending mail: %w", err)
	}
	sent := 0
	for _, mail := range pending {
		if err := s.mailer.Send(mail.Recipient, mail.Subject, mail.HTMLBody, mail.TextBody); err != nil {
			log.Printf("[EMAIL] Failed to send queued mail %s: %v", mail.ID, err)
			continue
		}
		if err := s.queue.MarkSent(ctx, mail.ID, time.Now()); err != nil {
			log.Printf("[EMAIL] Failed to mark mail %s as sent: %v", mail.ID, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("[EMAIL] Delivered %d queued emails", sent)
	}
	return sent, nil
}
