package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"programdesk/internal/domain"
)

type scheduleService struct {
	tx             domain.TxRunner
	eventRepo      domain.EventRepository
	scheduleRepo   domain.ScheduleRepository
	slotRepo       domain.TalkSlotRepository
	submissionRepo domain.SubmissionRepository
	auditRepo      domain.AuditLogRepository
	emailService   domain.EmailService
	exporter       domain.ScheduleExporter
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewScheduleService returns the ScheduleService that owns schedule
// versioning: freeze, unfreeze, version diffing, and working draft edits.
func NewScheduleService(
	tx domain.TxRunner,
	eventRepo domain.EventRepository,
	scheduleRepo domain.ScheduleRepository,
	slotRepo domain.TalkSlotRepository,
	submissionRepo domain.SubmissionRepository,
	auditRepo domain.AuditLogRepository,
	emailService domain.EmailService,
	exporter domain.ScheduleExporter,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ScheduleService {
	return &scheduleService{
		tx:             tx,
		eventRepo:      eventRepo,
		scheduleRepo:   scheduleRepo,
		slotRepo:       slotRepo,
		submissionRepo: submissionRepo,
		auditRepo:      auditRepo,
		emailService:   emailService,
		exporter:       exporter,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// Freeze releases the working draft as a fixed schedule version and returns
// the released schedule together with the fresh working draft. The whole
// procedure runs in one transaction: version stamping, audit record, new
// draft creation, visibility recomputation, slot copy, and notification
// queueing commit or roll back as a unit. A rejected freeze leaves the
// schedule fully untouched.
func (s *scheduleService) Freeze(ctx context.Context, scheduleID, version, actorID string, notify bool) (*domain.Schedule, *domain.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name := strings.TrimSpace(version)
	if name == "" {
		return nil, nil, domain.ErrVersionNameEmpty
	}
	if name == domain.VersionWIP || name == domain.VersionLatest {
		return nil, nil, domain.ErrVersionNameReserved
	}

	var released, draft *domain.Schedule
	var event *domain.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
		if err != nil {
			return fmt.Errorf("get schedule: %w", err)
		}
		if schedule.IsReleased() {
			return domain.ErrAlreadyReleased
		}
		event, err = s.eventRepo.GetByID(ctx, schedule.EventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}

		now := time.Now()
		if err := s.scheduleRepo.Release(ctx, schedule.ID, name, now); err != nil {
			return fmt.Errorf("release schedule: %w", err)
		}
		schedule.Version = &name
		schedule.Published = &now

		if err := s.auditRepo.Record(ctx, domain.AuditScheduleRelease, actorID, "schedule", schedule.ID); err != nil {
			return fmt.Errorf("record release: %w", err)
		}

		wip := domain.NewWIPSchedule(event.ID, now)
		if err := s.scheduleRepo.CreateWIP(ctx, wip); err != nil {
			return fmt.Errorf("create working draft: %w", err)
		}
		// Should be unreachable under serializable isolation.
		if n, err := s.scheduleRepo.CountWIP(ctx, event.ID); err != nil {
			return fmt.Errorf("count working drafts: %w", err)
		} else if n != 1 {
			return domain.ErrWIPConflict
		}

		// Two disjoint passes: show placed slots of confirmed submissions,
		// then hide everything visible that is not placed-and-confirmed.
		if err := s.slotRepo.ShowConfirmedScheduled(ctx, schedule.ID); err != nil {
			return fmt.Errorf("show confirmed slots: %w", err)
		}
		if err := s.slotRepo.HideUnscheduledOrUnconfirmed(ctx, schedule.ID); err != nil {
			return fmt.Errorf("hide stale slots: %w", err)
		}

		slots, err := s.slotRepo.ListBySchedule(ctx, schedule.ID)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		copies := make([]*domain.TalkSlot, 0, len(slots))
		for _, slot := range slots {
			copies = append(copies, slot.CopyToSchedule(uuid.NewString(), wip.ID))
		}
		if err := s.slotRepo.BulkCreate(ctx, copies); err != nil {
			return fmt.Errorf("copy slots to working draft: %w", err)
		}

		if notify {
			if err := s.queueReleaseNotifications(ctx, event, schedule, name); err != nil {
				return err
			}
		}

		released, draft = schedule, wip
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "schedule released",
		"event", event.Slug, "version", name, "actor", actorID)

	if event.ExportOnRelease {
		go s.publishExport(event, released)
	}
	return released, draft, nil
}

// queueReleaseNotifications diffs the released schedule against its
// predecessor and enqueues one update email per affected speaker. Runs
// inside the freeze transaction so the diff sees the post-copy slot state
// and the queued mail commits together with the release.
func (s *scheduleService) queueReleaseNotifications(ctx context.Context, event *domain.Event, schedule *domain.Schedule, version string) error {
	newSlots, err := s.slotRepo.ListScheduled(ctx, schedule.ID)
	if err != nil {
		return fmt.Errorf("list scheduled slots: %w", err)
	}

	changes := &domain.ChangeSet{Action: domain.ActionCreate}
	previous, err := s.scheduleRepo.Previous(ctx, schedule)
	switch {
	case err == nil:
		oldSlots, err := s.slotRepo.ListScheduled(ctx, previous.ID)
		if err != nil {
			return fmt.Errorf("list predecessor slots: %w", err)
		}
		changes = CompareSchedules(oldSlots, newSlots, event.Location())
	case errors.Is(err, domain.ErrNotFound):
		// First release: every scheduled slot is implicitly new.
	default:
		return fmt.Errorf("get predecessor: %w", err)
	}

	submissionIDs := notificationSubmissionIDs(changes, newSlots)
	if len(submissionIDs) == 0 {
		return nil
	}
	speakers, err := s.submissionRepo.ListSpeakersBySubmissionIDs(ctx, submissionIDs)
	if err != nil {
		return fmt.Errorf("list speakers: %w", err)
	}

	notifications := BuildSpeakerNotifications(changes, newSlots, speakers)
	if len(notifications) == 0 {
		return nil
	}
	queued, err := s.emailService.QueueSpeakerNotifications(ctx, event, version, notifications)
	if err != nil {
		return fmt.Errorf("queue speaker notifications: %w", err)
	}
	s.logger.InfoContext(ctx, "release notifications queued",
		"event", event.Slug, "version", version, "mails", queued)
	return nil
}

// notificationSubmissionIDs collects the submissions whose speakers need
// resolving, deduplicated in first-seen order.
func notificationSubmissionIDs(changes *domain.ChangeSet, scheduleSlots []*domain.TalkSlot) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if changes.Action == domain.ActionCreate {
		for _, slot := range scheduleSlots {
			add(slot.SubmissionID)
		}
		return ids
	}
	for _, slot := range changes.NewTalks {
		add(slot.SubmissionID)
	}
	for _, moved := range changes.MovedTalks {
		add(moved.SubmissionID)
	}
	return ids
}

// publishExport renders the released schedule as an iCalendar feed and hands
// it to the export collaborator. Fire-and-forget: failures are logged, never
// propagated.
func (s *scheduleService) publishExport(event *domain.Event, schedule *domain.Schedule) {
	ctx, cancel := context.WithTimeout(context.Background(), s.contextTimeout)
	defer cancel()

	slots, err := s.slotRepo.ListScheduled(ctx, schedule.ID)
	if err != nil {
		s.logger.Error("schedule export failed", "event", event.Slug, "version", schedule.VersionName(), "err", err)
		return
	}
	if err := s.exporter.Publish(event, schedule, slots); err != nil {
		s.logger.Error("schedule export failed", "event", event.Slug, "version", schedule.VersionName(), "err", err)
		return
	}
	s.logger.Info("schedule exported", "event", event.Slug, "version", schedule.VersionName())
}

// Unfreeze resets the working draft to an earlier released version. Draft
// slots whose submission was not placed in that version are preserved, so
// talks added after the release are not lost. The released schedule itself
// is returned unchanged alongside the replacement draft.
func (s *scheduleService) Unfreeze(ctx context.Context, scheduleID, actorID string) (*domain.Schedule, *domain.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var released, draft *domain.Schedule
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
		if err != nil {
			return fmt.Errorf("get schedule: %w", err)
		}
		if !schedule.IsReleased() {
			return domain.ErrNotReleased
		}

		placedIDs, err := s.slotRepo.ListSubmissionIDs(ctx, schedule.ID)
		if err != nil {
			return fmt.Errorf("list placed submissions: %w", err)
		}
		placed := make(map[string]struct{}, len(placedIDs))
		for _, id := range placedIDs {
			placed[id] = struct{}{}
		}

		oldWIP, err := s.scheduleRepo.GetWIP(ctx, schedule.EventID)
		if err != nil {
			return fmt.Errorf("get working draft: %w", err)
		}
		wipSlots, err := s.slotRepo.ListBySchedule(ctx, oldWIP.ID)
		if err != nil {
			return fmt.Errorf("list draft slots: %w", err)
		}
		releasedSlots, err := s.slotRepo.ListBySchedule(ctx, schedule.ID)
		if err != nil {
			return fmt.Errorf("list released slots: %w", err)
		}

		wip := domain.NewWIPSchedule(schedule.EventID, time.Now())
		if err := s.scheduleRepo.CreateWIP(ctx, wip); err != nil {
			return fmt.Errorf("create working draft: %w", err)
		}

		var copies []*domain.TalkSlot
		for _, slot := range wipSlots {
			if _, ok := placed[slot.SubmissionID]; ok {
				continue
			}
			copies = append(copies, slot.CopyToSchedule(uuid.NewString(), wip.ID))
		}
		for _, slot := range releasedSlots {
			copies = append(copies, slot.CopyToSchedule(uuid.NewString(), wip.ID))
		}
		if err := s.slotRepo.BulkCreate(ctx, copies); err != nil {
			return fmt.Errorf("copy slots to working draft: %w", err)
		}

		if err := s.slotRepo.DeleteBySchedule(ctx, oldWIP.ID); err != nil {
			return fmt.Errorf("delete old draft slots: %w", err)
		}
		if err := s.scheduleRepo.Delete(ctx, oldWIP.ID); err != nil {
			return fmt.Errorf("delete old draft: %w", err)
		}
		if err := s.auditRepo.Record(ctx, domain.AuditScheduleUnfreeze, actorID, "schedule", schedule.ID); err != nil {
			return fmt.Errorf("record unfreeze: %w", err)
		}

		released, draft = schedule, wip
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.InfoContext(ctx, "schedule unfrozen", "schedule", released.ID, "version", released.VersionName(), "actor", actorID)
	return released, draft, nil
}

// Compare diffs a schedule against the version released before it. A
// schedule without a predecessor yields a bare "create" change-set.
func (s *scheduleService) Compare(ctx context.Context, scheduleID string) (*domain.ChangeSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	previous, err := s.scheduleRepo.Previous(ctx, schedule)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.ChangeSet{Action: domain.ActionCreate}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get predecessor: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, schedule.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	oldSlots, err := s.slotRepo.ListScheduled(ctx, previous.ID)
	if err != nil {
		return nil, fmt.Errorf("list predecessor slots: %w", err)
	}
	newSlots, err := s.slotRepo.ListScheduled(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled slots: %w", err)
	}
	return CompareSchedules(oldSlots, newSlots, event.Location()), nil
}

// GetCurrentSchedule returns the most recently published version and its
// publicly visible slots.
func (s *scheduleService) GetCurrentSchedule(ctx context.Context, eventID string) (*domain.Schedule, []*domain.TalkSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	schedule, err := s.scheduleRepo.MostRecentPublished(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	slots, err := s.slotRepo.ListScheduled(ctx, schedule.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list scheduled slots: %w", err)
	}
	if slots == nil {
		slots = []*domain.TalkSlot{}
	}
	return schedule, slots, nil
}

// GetWIPSchedule returns the event's working draft and all of its slots,
// placed or not.
func (s *scheduleService) GetWIPSchedule(ctx context.Context, eventID string) (*domain.Schedule, []*domain.TalkSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	schedule, err := s.scheduleRepo.GetWIP(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	slots, err := s.slotRepo.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list slots: %w", err)
	}
	if slots == nil {
		slots = []*domain.TalkSlot{}
	}
	return schedule, slots, nil
}

func (s *scheduleService) ListReleased(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Schedule, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.scheduleRepo.ListReleased(ctx, eventID, params)
}

// CreateWIPSlot places a submission on the working draft. Slots start out
// invisible; visibility is recomputed at freeze time.
func (s *scheduleService) CreateWIPSlot(ctx context.Context, eventID, submissionID string, placement domain.SlotPlacement) (*domain.TalkSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if submission.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	wip, err := s.scheduleRepo.GetWIP(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get working draft: %w", err)
	}
	slot := &domain.TalkSlot{
		ScheduleID:   wip.ID,
		SubmissionID: submissionID,
		RoomID:       placement.RoomID,
		Start:        placement.Start,
		End:          placement.End,
	}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

// UpdateWIPSlot changes a working draft slot's placement. Released schedules
// are immutable; editing one of their slots fails with ErrAlreadyReleased.
func (s *scheduleService) UpdateWIPSlot(ctx context.Context, eventID, slotID string, placement domain.SlotPlacement) (*domain.TalkSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	wip, err := s.scheduleRepo.GetWIP(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get working draft: %w", err)
	}
	if slot.ScheduleID != wip.ID {
		return nil, domain.ErrAlreadyReleased
	}
	slot.RoomID = placement.RoomID
	slot.Start = placement.Start
	slot.End = placement.End
	if err := s.slotRepo.UpdatePlacement(ctx, slot); err != nil {
		return nil, fmt.Errorf("update slot: %w", err)
	}
	return slot, nil
}

// ExportICS renders the current schedule as an iCalendar document.
func (s *scheduleService) ExportICS(ctx context.Context, eventID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	schedule, err := s.scheduleRepo.MostRecentPublished(ctx, eventID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slotRepo.ListScheduled(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled slots: %w", err)
	}
	return s.exporter.Render(event, schedule, slots)
}
