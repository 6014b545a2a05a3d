package services

import (
	"time"

	"programdesk/internal/domain"
)

// CompareSchedules computes the structured difference between the scheduled
// slots of two consecutive schedule versions. It is a pure function: oldSlots
// and newSlots are the predecessor's and the successor's scheduled slots
// (placed, visible, submission not deleted), and loc is the event timezone
// used for the start times on moved-talk records.
//
// Placements present in both versions produce no entry. A submission that
// disappears entirely is a cancellation; one that appears for the first time
// is a creation; a submission placed on both sides resolves through
// per-submission move matching.
//
// Slots are processed in the order given. The repository returns scheduled
// slots ordered by start time then room name, which makes the positional
// pairing inside move matching deterministic.
func CompareSchedules(oldSlots, newSlots []*domain.TalkSlot, loc *time.Location) *domain.ChangeSet {
	changes := &domain.ChangeSet{
		Action:        domain.ActionUpdate,
		NewTalks:      []*domain.TalkSlot{},
		CanceledTalks: []*domain.TalkSlot{},
		MovedTalks:    []*domain.MovedTalk{},
	}
	if loc == nil {
		loc = time.UTC
	}

	oldSet := slotKeySet(oldSlots)
	newSet := slotKeySet(newSlots)
	oldBySubmission := groupBySubmission(oldSlots)
	newBySubmission := groupBySubmission(newSlots)
	handled := make(map[string]struct{})

	// Placements removed since the previous version.
	for _, slot := range oldSlots {
		if _, ok := newSet[slot.Key()]; ok {
			continue
		}
		if _, ok := handled[slot.SubmissionID]; ok {
			continue
		}
		handled[slot.SubmissionID] = struct{}{}
		if _, stillPlaced := newBySubmission[slot.SubmissionID]; !stillPlaced {
			changes.CanceledTalks = append(changes.CanceledTalks, oldBySubmission[slot.SubmissionID]...)
			continue
		}
		matchSubmissionMove(changes, oldBySubmission[slot.SubmissionID], newBySubmission[slot.SubmissionID], loc)
	}

	// Placements added since the previous version.
	for _, slot := range newSlots {
		if _, ok := oldSet[slot.Key()]; ok {
			continue
		}
		if _, ok := handled[slot.SubmissionID]; ok {
			continue
		}
		handled[slot.SubmissionID] = struct{}{}
		if _, wasPlaced := oldBySubmission[slot.SubmissionID]; !wasPlaced {
			changes.NewTalks = append(changes.NewTalks, newBySubmission[slot.SubmissionID]...)
			continue
		}
		matchSubmissionMove(changes, oldBySubmission[slot.SubmissionID], newBySubmission[slot.SubmissionID], loc)
	}

	changes.Count = len(changes.NewTalks) + len(changes.CanceledTalks) + len(changes.MovedTalks)
	return changes
}

// matchSubmissionMove resolves a submission with slots on both sides that
// differ structurally. Slots with an exact counterpart on the other side are
// unchanged placements and drop out first; the remainder pairs positionally.
// Because slot records carry no cross-version identity, this pairing is a
// deterministic tie-break, not a semantic guarantee.
func matchSubmissionMove(changes *domain.ChangeSet, allOld, allNew []*domain.TalkSlot, loc *time.Location) {
	oldUnmatched := withoutStructuralMatch(allOld, allNew)
	newUnmatched := withoutStructuralMatch(allNew, allOld)

	diff := len(oldUnmatched) - len(newUnmatched)
	if diff > 0 {
		changes.CanceledTalks = append(changes.CanceledTalks, oldUnmatched[:diff]...)
		oldUnmatched = oldUnmatched[diff:]
	} else if diff < 0 {
		changes.NewTalks = append(changes.NewTalks, newUnmatched[:-diff]...)
		newUnmatched = newUnmatched[-diff:]
	}

	for i := range oldUnmatched {
		oldSlot := oldUnmatched[i]
		newSlot := newUnmatched[i]
		changes.MovedTalks = append(changes.MovedTalks, &domain.MovedTalk{
			SubmissionID:    newSlot.SubmissionID,
			SubmissionTitle: newSlot.SubmissionTitle,
			OldStart:        oldSlot.Start.In(loc),
			NewStart:        newSlot.Start.In(loc),
			OldRoom:         oldSlot.RoomName,
			NewRoom:         newSlot.RoomName,
			NewRoomInfo:     newSlot.RoomSpeakerInfo,
		})
	}
}

// withoutStructuralMatch returns the slots of a that have no structural
// counterpart in b, preserving order.
func withoutStructuralMatch(a, b []*domain.TalkSlot) []*domain.TalkSlot {
	var out []*domain.TalkSlot
	for _, slot := range a {
		matched := false
		for _, other := range b {
			if slot.SameSlot(other) {
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, slot)
		}
	}
	return out
}

func slotKeySet(slots []*domain.TalkSlot) map[domain.SlotKey]struct{} {
	set := make(map[domain.SlotKey]struct{}, len(slots))
	for _, slot := range slots {
		set[slot.Key()] = struct{}{}
	}
	return set
}

func groupBySubmission(slots []*domain.TalkSlot) map[string][]*domain.TalkSlot {
	grouped := make(map[string][]*domain.TalkSlot)
	for _, slot := range slots {
		grouped[slot.SubmissionID] = append(grouped[slot.SubmissionID], slot)
	}
	return grouped
}
