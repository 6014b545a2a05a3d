package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programdesk/internal/domain"
)

// fakeRenderer returns canned content keyed on the template name.
type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	if f.err != nil {
		return "", "", "", f.err
	}
	d := data.(*domain.ScheduleUpdateEmailData)
	return "[" + d.EventName + "] " + name, "<p>" + d.SpeakerName + "</p>", d.SpeakerName, nil
}

// fakeMailQueue is an in-memory MailQueueRepository for tests.
type fakeMailQueue struct {
	mails      []*domain.QueuedMail
	enqueueErr error
}

func (f *fakeMailQueue) Enqueue(_ context.Context, mails []*domain.QueuedMail) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.mails = append(f.mails, mails...)
	return nil
}

func (f *fakeMailQueue) ListPending(_ context.Context, limit int) ([]*domain.QueuedMail, error) {
	var out []*domain.QueuedMail
	for _, m := range f.mails {
		if m.SentAt == nil {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMailQueue) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	for _, m := range f.mails {
		if m.ID == id {
			m.SentAt = &sentAt
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeMailer records sends and can fail for specific recipients.
type fakeMailer struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeMailer) Send(to, _, _, _ string) error {
	if f.failFor[to] {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, to)
	return nil
}

func TestEmailService_QueueSpeakerNotifications(t *testing.T) {
	queue := &fakeMailQueue{}
	svc := NewEmailService(&fakeMailer{}, &fakeRenderer{}, queue)
	event := &domain.Event{ID: "ev-1", Name: "GopherConf", Slug: "gopherconf"}
	notifications := map[string]*domain.SpeakerNotification{
		"spk-1": {Speaker: &domain.Speaker{ID: "spk-1", Name: "Ada", Email: "ada@example.com"}},
		"spk-2": {Speaker: &domain.Speaker{ID: "spk-2", Name: "Grace", Email: "grace@example.com"}},
	}

	queued, err := svc.QueueSpeakerNotifications(context.Background(), event, "v2", notifications)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	require.Len(t, queue.mails, 2)

	recipients := []string{queue.mails[0].Recipient, queue.mails[1].Recipient}
	assert.ElementsMatch(t, []string{"ada@example.com", "grace@example.com"}, recipients)
	for _, mail := range queue.mails {
		assert.NotEmpty(t, mail.ID)
		assert.Equal(t, "[GopherConf] schedule_update", mail.Subject)
		assert.Nil(t, mail.SentAt)
	}
}

func TestEmailService_QueueSpeakerNotifications_empty(t *testing.T) {
	queue := &fakeMailQueue{}
	svc := NewEmailService(&fakeMailer{}, &fakeRenderer{}, queue)

	queued, err := svc.QueueSpeakerNotifications(context.Background(), &domain.Event{}, "v1", nil)
	require.NoError(t, err)
	assert.Zero(t, queued)
	assert.Empty(t, queue.mails)
}

func TestEmailService_QueueSpeakerNotifications_render_error(t *testing.T) {
	queue := &fakeMailQueue{}
	svc := NewEmailService(&fakeMailer{}, &fakeRenderer{err: errors.New("bad template")}, queue)
	notifications := map[string]*domain.SpeakerNotification{
		"spk-1": {Speaker: &domain.Speaker{ID: "spk-1", Name: "Ada", Email: "ada@example.com"}},
	}

	_, err := svc.QueueSpeakerNotifications(context.Background(), &domain.Event{Name: "X"}, "v1", notifications)
	assert.Error(t, err)
	assert.Empty(t, queue.mails, "nothing is enqueued when rendering fails")
}

func TestEmailService_SendPendingMail(t *testing.T) {
	queue := &fakeMailQueue{mails: []*domain.QueuedMail{
		{ID: "m-1", Recipient: "ada@example.com"},
		{ID: "m-2", Recipient: "broken@example.com"},
		{ID: "m-3", Recipient: "grace@example.com"},
	}}
	mailer := &fakeMailer{failFor: map[string]bool{"broken@example.com": true}}
	svc := NewEmailService(mailer, &fakeRenderer{}, queue)

	sent, err := svc.SendPendingMail(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{"ada@example.com", "grace@example.com"}, mailer.sent)

	// The failed mail stays queued for the next run.
	pending, err := queue.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m-2", pending[0].ID)
}

func TestEmailService_SendPendingMail_respects_limit(t *testing.T) {
	queue := &fakeMailQueue{mails: []*domain.QueuedMail{
		{ID: "m-1", Recipient: "a@example.com"},
		{ID: "m-2", Recipient: "b@example.com"},
		{ID: "m-3", Recipient: "c@example.com"},
	}}
	mailer := &fakeMailer{}
	svc := NewEmailService(mailer, &fakeRenderer{}, queue)

	sent, err := svc.SendPendingMail(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, mailer.sent, 2)
}
