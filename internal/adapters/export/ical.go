package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"

	"programdesk/internal/domain"
)

type icalExporter struct {
	outputDir string
}

// NewICalExporter returns a ScheduleExporter that renders released schedules
// as iCalendar documents. Publish writes the feed to outputDir; Render
// returns the document for serving directly.
func NewICalExporter(outputDir string) domain.ScheduleExporter {
	return &icalExporter{outputDir: outputDir}
}

// Render builds an iCalendar document from the schedule's visible slots.
// Unplaced slots are skipped; placed slots without an end time get a
// zero-length event.
func (e *icalExporter) Render(event *domain.Event, schedule *domain.Schedule, slots []*domain.TalkSlot) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//programdesk//schedule//EN")
	cal.SetName(fmt.Sprintf("%s (%s)", event.Name, schedule.VersionName()))

	now := time.Now()
	for _, slot := range slots {
		if !slot.IsScheduled() {
			continue
		}
		ve := cal.AddEvent(fmt.Sprintf("%s@%s", slot.ID, event.Slug))
		ve.SetDtStampTime(now)
		ve.SetStartAt(slot.Start.UTC())
		if slot.End != nil {
			ve.SetEndAt(slot.End.UTC())
		} else {
			ve.SetEndAt(slot.Start.UTC())
		}
		ve.SetSummary(slot.SubmissionTitle)
		ve.SetLocation(slot.RoomName)
	}
	return []byte(cal.Serialize()), nil
}

// Publish renders the schedule and writes it to the export directory as
// <slug>-<version>.ics. Called fire-and-forget after a release commits.
func (e *icalExporter) Publish(event *domain.Event, schedule *domain.Schedule, slots []*domain.TalkSlot) error {
	data, err := e.Render(event, schedule, slots)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.ics", event.Slug, schedule.VersionName())
	path := filepath.Join(e.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	log.Printf("[EXPORT] Schedule written to %s", path)
	return nil
}
