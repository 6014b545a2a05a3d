package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programdesk/internal/domain"
)

// passTx runs the function without a real transaction.
type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID map[string]*domain.Event
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.Event)}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	e.ID = fmt.Sprintf("ev-%d", len(f.byID)+1)
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetBySlug(_ context.Context, slug string) (*domain.Event, error) {
	for _, e := range f.byID {
		if e.Slug == slug {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByOwnerID(_ context.Context, ownerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeScheduleRepo is an in-memory ScheduleRepository for tests.
type fakeScheduleRepo struct {
	byID   map[string]*domain.Schedule
	nextID int
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{byID: make(map[string]*domain.Schedule), nextID: 1}
}

func (f *fakeScheduleRepo) add(s *domain.Schedule) *domain.Schedule {
	s.ID = fmt.Sprintf("sch-%d", f.nextID)
	f.nextID++
	f.byID[s.ID] = s
	return s
}

func (f *fakeScheduleRepo) CreateWIP(_ context.Context, s *domain.Schedule) error {
	f.add(s)
	return nil
}

func (f *fakeScheduleRepo) GetByID(_ context.Context, id string) (*domain.Schedule, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeScheduleRepo) GetWIP(_ context.Context, eventID string) (*domain.Schedule, error) {
	for _, s := range f.byID {
		if s.EventID == eventID && s.Version == nil {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeScheduleRepo) released(eventID string) []*domain.Schedule {
	var out []*domain.Schedule
	for _, s := range f.byID {
		if s.EventID == eventID && s.IsReleased() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Published.After(*out[j].Published) })
	return out
}

func (f *fakeScheduleRepo) MostRecentPublished(_ context.Context, eventID string) (*domain.Schedule, error) {
	all := f.released(eventID)
	if len(all) == 0 {
		return nil, domain.ErrNotFound
	}
	return all[0], nil
}

func (f *fakeScheduleRepo) Previous(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error) {
	if schedule.Published == nil {
		return f.MostRecentPublished(ctx, schedule.EventID)
	}
	for _, s := range f.released(schedule.EventID) {
		if s.Published.Before(*schedule.Published) {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeScheduleRepo) Release(_ context.Context, scheduleID, version string, published time.Time) error {
	s, ok := f.byID[scheduleID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.IsReleased() {
		return domain.ErrAlreadyReleased
	}
	for _, other := range f.byID {
		if other.EventID == s.EventID && other.IsReleased() && *other.Version == version {
			return domain.ErrVersionNameTaken
		}
	}
	s.Version = &version
	s.Published = &published
	return nil
}

func (f *fakeScheduleRepo) Delete(_ context.Context, scheduleID string) error {
	delete(f.byID, scheduleID)
	return nil
}

func (f *fakeScheduleRepo) CountWIP(_ context.Context, eventID string) (int, error) {
	n := 0
	for _, s := range f.byID {
		if s.EventID == eventID && s.Version == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeScheduleRepo) ListReleased(_ context.Context, eventID string, params domain.PaginationParams) ([]*domain.Schedule, int, error) {
	all := f.released(eventID)
	total := len(all)
	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := offset + params.PageSize
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// fakeSlotRepo is an in-memory TalkSlotRepository. Submission states are
// resolved through the states map, mirroring the joins the real queries use.
type fakeSlotRepo struct {
	slots  []*domain.TalkSlot
	states map[string]domain.SubmissionState
	nextID int
}

func newFakeSlotRepo(states map[string]domain.SubmissionState) *fakeSlotRepo {
	return &fakeSlotRepo{states: states, nextID: 1}
}

func (f *fakeSlotRepo) add(slot *domain.TalkSlot) *domain.TalkSlot {
	if slot.ID == "" {
		slot.ID = fmt.Sprintf("slot-%d", f.nextID)
	}
	f.nextID++
	f.slots = append(f.slots, slot)
	return slot
}

func (f *fakeSlotRepo) state(submissionID string) domain.SubmissionState {
	if s, ok := f.states[submissionID]; ok {
		return s
	}
	return domain.StateConfirmed
}

func (f *fakeSlotRepo) GetByID(_ context.Context, id string) (*domain.TalkSlot, error) {
	for _, slot := range f.slots {
		if slot.ID == id {
			return slot, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSlotRepo) ListBySchedule(_ context.Context, scheduleID string) ([]*domain.TalkSlot, error) {
	var out []*domain.TalkSlot
	for _, slot := range f.slots {
		if slot.ScheduleID == scheduleID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) ListScheduled(_ context.Context, scheduleID string) ([]*domain.TalkSlot, error) {
	var out []*domain.TalkSlot
	for _, slot := range f.slots {
		if slot.ScheduleID == scheduleID && slot.IsScheduled() && slot.IsVisible &&
			f.state(slot.SubmissionID) != domain.StateDeleted {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(*out[j].Start) {
			return out[i].Start.Before(*out[j].Start)
		}
		return out[i].RoomName < out[j].RoomName
	})
	return out, nil
}

func (f *fakeSlotRepo) ListSubmissionIDs(_ context.Context, scheduleID string) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, slot := range f.slots {
		if slot.ScheduleID != scheduleID {
			continue
		}
		if _, ok := seen[slot.SubmissionID]; ok {
			continue
		}
		seen[slot.SubmissionID] = struct{}{}
		ids = append(ids, slot.SubmissionID)
	}
	return ids, nil
}

func (f *fakeSlotRepo) Create(_ context.Context, slot *domain.TalkSlot) error {
	f.add(slot)
	return nil
}

func (f *fakeSlotRepo) BulkCreate(_ context.Context, slots []*domain.TalkSlot) error {
	for _, slot := range slots {
		f.add(slot)
	}
	return nil
}

func (f *fakeSlotRepo) UpdatePlacement(_ context.Context, slot *domain.TalkSlot) error {
	for _, s := range f.slots {
		if s.ID == slot.ID {
			s.RoomID = slot.RoomID
			s.Start = slot.Start
			s.End = slot.End
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeSlotRepo) DeleteBySchedule(_ context.Context, scheduleID string) error {
	var kept []*domain.TalkSlot
	for _, slot := range f.slots {
		if slot.ScheduleID != scheduleID {
			kept = append(kept, slot)
		}
	}
	f.slots = kept
	return nil
}

func (f *fakeSlotRepo) ShowConfirmedScheduled(_ context.Context, scheduleID string) error {
	for _, slot := range f.slots {
		if slot.ScheduleID == scheduleID && slot.Start != nil &&
			f.state(slot.SubmissionID) == domain.StateConfirmed {
			slot.IsVisible = true
		}
	}
	return nil
}

func (f *fakeSlotRepo) HideUnscheduledOrUnconfirmed(_ context.Context, scheduleID string) error {
	for _, slot := range f.slots {
		if slot.ScheduleID == scheduleID && slot.IsVisible &&
			(slot.Start == nil || f.state(slot.SubmissionID) != domain.StateConfirmed) {
			slot.IsVisible = false
		}
	}
	return nil
}

// fakeSubmissionRepo is an in-memory SubmissionRepository for tests.
type fakeSubmissionRepo struct {
	byID     map[string]*domain.Submission
	speakers map[string][]*domain.Speaker
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSubmissionRepo) ListByEventID(_ context.Context, eventID string) ([]*domain.Submission, error) {
	var out []*domain.Submission
	for _, s := range f.byID {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListSpeakersBySubmissionIDs(_ context.Context, ids []string) (map[string][]*domain.Speaker, error) {
	out := make(map[string][]*domain.Speaker)
	for _, id := range ids {
		if speakers, ok := f.speakers[id]; ok {
			out[id] = speakers
		}
	}
	return out, nil
}

// fakeAuditRepo records audit entries for assertions.
type fakeAuditRepo struct {
	records []string
}

func (f *fakeAuditRepo) Record(_ context.Context, action, actorID, targetType, targetID string) error {
	f.records = append(f.records, fmt.Sprintf("%s:%s:%s:%s", action, actorID, targetType, targetID))
	return nil
}

// fakeEmailService captures queued notifications.
type fakeEmailService struct {
	queued []map[string]*domain.SpeakerNotification
}

func (f *fakeEmailService) QueueSpeakerNotifications(_ context.Context, _ *domain.Event, _ string, n map[string]*domain.SpeakerNotification) (int, error) {
	f.queued = append(f.queued, n)
	return len(n), nil
}

func (f *fakeEmailService) SendPendingMail(_ context.Context, _ int) (int, error) {
	return 0, nil
}

// fakeExporter signals publishes on a channel so tests can wait for the
// fire-and-forget goroutine.
type fakeExporter struct {
	published chan string
}

func (f *fakeExporter) Render(_ *domain.Event, schedule *domain.Schedule, _ []*domain.TalkSlot) ([]byte, error) {
	return []byte("BEGIN:VCALENDAR " + schedule.VersionName()), nil
}

func (f *fakeExporter) Publish(_ *domain.Event, schedule *domain.Schedule, _ []*domain.TalkSlot) error {
	if f.published != nil {
		f.published <- schedule.VersionName()
	}
	return nil
}

type scheduleFixture struct {
	svc      domain.ScheduleService
	event    *domain.Event
	wip      *domain.Schedule
	repo     *fakeScheduleRepo
	slots    *fakeSlotRepo
	subs     *fakeSubmissionRepo
	audit    *fakeAuditRepo
	email    *fakeEmailService
	exporter *fakeExporter
}

func newScheduleFixture(t *testing.T, states map[string]domain.SubmissionState) *scheduleFixture {
	t.Helper()
	event := &domain.Event{ID: "ev-1", Name: "GopherConf", Slug: "gopherconf", OwnerID: "user-1", Timezone: "UTC"}
	repo := newFakeScheduleRepo()
	wip := repo.add(domain.NewWIPSchedule(event.ID, time.Now()))
	slots := newFakeSlotRepo(states)
	subs := &fakeSubmissionRepo{
		byID:     make(map[string]*domain.Submission),
		speakers: make(map[string][]*domain.Speaker),
	}
	for id, state := range states {
		subs.byID[id] = &domain.Submission{ID: id, EventID: event.ID, Title: "Talk " + id, State: state}
		subs.speakers[id] = []*domain.Speaker{{ID: "spk-" + id, Name: "Speaker " + id, Email: id + "@example.com"}}
	}
	audit := &fakeAuditRepo{}
	email := &fakeEmailService{}
	exporter := &fakeExporter{published: make(chan string, 1)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewScheduleService(passTx{}, newFakeEventRepo(event), repo, slots, subs, audit, email, exporter, logger, 5*time.Second)
	return &scheduleFixture{
		svc: svc, event: event, wip: wip, repo: repo, slots: slots,
		subs: subs, audit: audit, email: email, exporter: exporter,
	}
}

func (fx *scheduleFixture) placeSlot(scheduleID, submissionID, roomID string, start *time.Time) *domain.TalkSlot {
	slot := &domain.TalkSlot{
		ScheduleID:   scheduleID,
		SubmissionID: submissionID,
		RoomName:     roomID,
	}
	if roomID != "" {
		slot.RoomID = &roomID
	}
	if start != nil {
		slot.Start = start
		end := start.Add(time.Hour)
		slot.End = &end
	}
	return fx.slots.add(slot)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestScheduleService_Freeze(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{
		"sub-placed":    domain.StateConfirmed,
		"sub-unplaced":  domain.StateConfirmed,
		"sub-accepted":  domain.StateAccepted,
	})
	placed := fx.placeSlot(fx.wip.ID, "sub-placed", "room-a", ptrTime(day))
	unplaced := fx.placeSlot(fx.wip.ID, "sub-unplaced", "", nil)
	// Visible despite not being confirmed; the freeze must hide it.
	stale := fx.placeSlot(fx.wip.ID, "sub-accepted", "room-b", ptrTime(day.Add(time.Hour)))
	stale.IsVisible = true

	released, draft, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", true)
	require.NoError(t, err)

	require.NotNil(t, released)
	require.NotNil(t, released.Version)
	assert.Equal(t, "v1", *released.Version)
	require.NotNil(t, released.Published)

	require.NotNil(t, draft)
	assert.False(t, draft.IsReleased())
	assert.NotEqual(t, released.ID, draft.ID)

	// Visibility after the two passes: exactly placed-and-confirmed.
	assert.True(t, placed.IsVisible)
	assert.False(t, unplaced.IsVisible)
	assert.False(t, stale.IsVisible)

	// All slots are copied to the fresh draft, visibility included.
	draftSlots, err := fx.slots.ListBySchedule(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, draftSlots, 3)
	for _, slot := range draftSlots {
		assert.NotEqual(t, placed.ID, slot.ID)
	}

	require.Len(t, fx.audit.records, 1)
	assert.Equal(t, "schedule.release:user-1:schedule:"+released.ID, fx.audit.records[0])

	// First release notifies every speaker with a visible slot.
	require.Len(t, fx.email.queued, 1)
	notified := fx.email.queued[0]
	assert.Contains(t, notified, "spk-sub-placed")
	assert.NotContains(t, notified, "spk-sub-unplaced")
	assert.NotContains(t, notified, "spk-sub-accepted")
}

func TestScheduleService_Freeze_name_validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		version string
		wantErr error
	}{
		{"empty", "", domain.ErrVersionNameEmpty},
		{"whitespace only", "   ", domain.ErrVersionNameEmpty},
		{"reserved wip", "wip", domain.ErrVersionNameReserved},
		{"reserved latest", "latest", domain.ErrVersionNameReserved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})

			_, _, err := fx.svc.Freeze(ctx, fx.wip.ID, tt.version, "user-1", true)
			require.ErrorIs(t, err, tt.wantErr)

			// A rejected freeze leaves everything untouched.
			assert.False(t, fx.wip.IsReleased())
			assert.Len(t, fx.repo.byID, 1)
			assert.Empty(t, fx.audit.records)
			assert.Empty(t, fx.email.queued)
		})
	}
}

func TestScheduleService_Freeze_already_released(t *testing.T) {
	ctx := context.Background()
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	_, _, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	_, _, err = fx.svc.Freeze(ctx, fx.wip.ID, "v2", "user-1", false)
	assert.ErrorIs(t, err, domain.ErrAlreadyReleased)
}

func TestScheduleService_Freeze_duplicate_version_name(t *testing.T) {
	ctx := context.Background()
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	_, draft, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	_, _, err = fx.svc.Freeze(ctx, draft.ID, "v1", "user-1", false)
	assert.ErrorIs(t, err, domain.ErrVersionNameTaken)
	assert.False(t, draft.IsReleased())
}

func TestScheduleService_Freeze_notify_disabled(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	fx.placeSlot(fx.wip.ID, "sub-1", "room-a", ptrTime(day))

	_, _, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)
	assert.Empty(t, fx.email.queued)
}

func TestScheduleService_Freeze_second_release_notifies_changes_only(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{
		"sub-stay": domain.StateConfirmed,
		"sub-move": domain.StateConfirmed,
	})
	fx.placeSlot(fx.wip.ID, "sub-stay", "room-a", ptrTime(day))
	fx.placeSlot(fx.wip.ID, "sub-move", "room-a", ptrTime(day.Add(time.Hour)))
	_, draft, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	// Move one talk on the new draft, then release again.
	draftSlots, err := fx.slots.ListBySchedule(ctx, draft.ID)
	require.NoError(t, err)
	for _, slot := range draftSlots {
		if slot.SubmissionID == "sub-move" {
			room := "room-b"
			slot.RoomID = &room
			slot.RoomName = "room-b"
		}
	}

	_, _, err = fx.svc.Freeze(ctx, draft.ID, "v2", "user-1", true)
	require.NoError(t, err)

	require.Len(t, fx.email.queued, 1)
	notified := fx.email.queued[0]
	require.Contains(t, notified, "spk-sub-move")
	assert.NotContains(t, notified, "spk-sub-stay")
	require.Len(t, notified["spk-sub-move"].Update, 1)
	assert.Equal(t, "room-b", notified["spk-sub-move"].Update[0].NewRoom)
}

func TestScheduleService_Freeze_cancellation_only_queues_nothing(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{
		"sub-stay": domain.StateConfirmed,
		"sub-gone": domain.StateConfirmed,
	})
	fx.placeSlot(fx.wip.ID, "sub-stay", "room-a", ptrTime(day))
	fx.placeSlot(fx.wip.ID, "sub-gone", "room-b", ptrTime(day.Add(time.Hour)))
	_, draft, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	// Unplace the canceled talk on the new draft.
	draftSlots, err := fx.slots.ListBySchedule(ctx, draft.ID)
	require.NoError(t, err)
	for _, slot := range draftSlots {
		if slot.SubmissionID == "sub-gone" {
			slot.RoomID = nil
			slot.Start = nil
			slot.End = nil
		}
	}

	_, _, err = fx.svc.Freeze(ctx, draft.ID, "v2", "user-1", true)
	require.NoError(t, err)
	assert.Empty(t, fx.email.queued, "cancellations alone do not notify")
}

func TestScheduleService_Freeze_export_on_release(t *testing.T) {
	ctx := context.Background()
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	fx.event.ExportOnRelease = true

	_, _, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	select {
	case version := <-fx.exporter.published:
		assert.Equal(t, "v1", version)
	case <-time.After(2 * time.Second):
		t.Fatal("export was not published")
	}
}

func TestScheduleService_Unfreeze_restores_version_and_keeps_new_talks(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{
		"sub-old": domain.StateConfirmed,
		"sub-new": domain.StateConfirmed,
	})
	fx.placeSlot(fx.wip.ID, "sub-old", "room-a", ptrTime(day))
	released, draft, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	// After the release: move the old talk and add a brand new one.
	draftSlots, err := fx.slots.ListBySchedule(ctx, draft.ID)
	require.NoError(t, err)
	room := "room-b"
	draftSlots[0].RoomID = &room
	fx.placeSlot(draft.ID, "sub-new", "room-c", ptrTime(day.Add(2*time.Hour)))

	gotReleased, newDraft, err := fx.svc.Unfreeze(ctx, released.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, released.ID, gotReleased.ID)
	assert.NotEqual(t, draft.ID, newDraft.ID)

	// The old draft is gone.
	_, err = fx.repo.GetByID(ctx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The new draft carries the released placement for sub-old and the
	// preserved draft slot for sub-new.
	newSlots, err := fx.slots.ListBySchedule(ctx, newDraft.ID)
	require.NoError(t, err)
	require.Len(t, newSlots, 2)
	bySubmission := make(map[string]*domain.TalkSlot)
	for _, slot := range newSlots {
		bySubmission[slot.SubmissionID] = slot
	}
	require.Contains(t, bySubmission, "sub-old")
	require.Contains(t, bySubmission, "sub-new")
	require.NotNil(t, bySubmission["sub-old"].RoomID)
	assert.Equal(t, "room-a", *bySubmission["sub-old"].RoomID, "placement reverts to the released version")
	assert.Equal(t, "room-c", *bySubmission["sub-new"].RoomID, "talk added after the release survives")

	require.Len(t, fx.audit.records, 2)
	assert.Equal(t, "schedule.unfreeze:user-1:schedule:"+released.ID, fx.audit.records[1])
}

func TestScheduleService_Unfreeze_rejects_working_draft(t *testing.T) {
	ctx := context.Background()
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})

	_, _, err := fx.svc.Unfreeze(ctx, fx.wip.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotReleased)
}

func TestScheduleService_Compare_first_release(t *testing.T) {
	ctx := context.Background()
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	released, _, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	changes, err := fx.svc.Compare(ctx, released.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreate, changes.Action)
	assert.Equal(t, 0, changes.Count)
}

func TestScheduleService_Compare_against_predecessor(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{
		"sub-1": domain.StateConfirmed,
		"sub-2": domain.StateConfirmed,
	})
	fx.placeSlot(fx.wip.ID, "sub-1", "room-a", ptrTime(day))
	_, draft, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	fx.placeSlot(draft.ID, "sub-2", "room-b", ptrTime(day.Add(time.Hour)))
	second, _, err := fx.svc.Freeze(ctx, draft.ID, "v2", "user-1", false)
	require.NoError(t, err)

	changes, err := fx.svc.Compare(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdate, changes.Action)
	require.Len(t, changes.NewTalks, 1)
	assert.Equal(t, "sub-2", changes.NewTalks[0].SubmissionID)
	assert.Empty(t, changes.CanceledTalks)
	assert.Empty(t, changes.MovedTalks)
}

func TestScheduleService_CreateWIPSlot_wrong_event(t *testing.T) {
	ctx := context.Background()
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	fx.subs.byID["sub-other"] = &domain.Submission{ID: "sub-other", EventID: "ev-other", State: domain.StateConfirmed}

	_, err := fx.svc.CreateWIPSlot(ctx, fx.event.ID, "sub-other", domain.SlotPlacement{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleService_UpdateWIPSlot_released_is_immutable(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	releasedSlot := fx.placeSlot(fx.wip.ID, "sub-1", "room-a", ptrTime(day))
	_, _, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	room := "room-b"
	_, err = fx.svc.UpdateWIPSlot(ctx, fx.event.ID, releasedSlot.ID, domain.SlotPlacement{RoomID: &room, Start: ptrTime(day)})
	assert.ErrorIs(t, err, domain.ErrAlreadyReleased)
	assert.Equal(t, "room-a", *releasedSlot.RoomID)
}

func TestScheduleService_GetCurrentSchedule(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})

	_, _, err := fx.svc.GetCurrentSchedule(ctx, fx.event.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no published version yet")

	fx.placeSlot(fx.wip.ID, "sub-1", "room-a", ptrTime(day))
	released, _, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	current, slots, err := fx.svc.GetCurrentSchedule(ctx, fx.event.ID)
	require.NoError(t, err)
	assert.Equal(t, released.ID, current.ID)
	require.Len(t, slots, 1)
	assert.Equal(t, "sub-1", slots[0].SubmissionID)
}

func TestScheduleService_ExportICS(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	fx := newScheduleFixture(t, map[string]domain.SubmissionState{"sub-1": domain.StateConfirmed})
	fx.placeSlot(fx.wip.ID, "sub-1", "room-a", ptrTime(day))
	_, _, err := fx.svc.Freeze(ctx, fx.wip.ID, "v1", "user-1", false)
	require.NoError(t, err)

	data, err := fx.svc.ExportICS(ctx, fx.event.ID)
	require.NoError(t, err)
	assert.Contains(t, string(data), "v1")
}
