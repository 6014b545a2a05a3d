package services

import (
	"programdesk/internal/domain"
)

// BuildSpeakerNotifications maps a change-set to per-speaker notification
// payloads, keyed by speaker ID. scheduleSlots are the released schedule's
// scheduled slots (used when the release is the first one), and
// speakersBySubmission resolves submission IDs to their speakers.
//
// On a first release every speaker with a scheduled talk is notified of all
// their slots. When every change is a cancellation nothing is returned: a
// full teardown with no replacement is left to higher-level flows.
// Cancellations never notify under this policy; only new and moved
// placements do. Value lists preserve append order.
func BuildSpeakerNotifications(changes *domain.ChangeSet, scheduleSlots []*domain.TalkSlot, speakersBySubmission map[string][]*domain.Speaker) map[string]*domain.SpeakerNotification {
	notifications := make(map[string]*domain.SpeakerNotification)

	add := func(speaker *domain.Speaker) *domain.SpeakerNotification {
		n, ok := notifications[speaker.ID]
		if !ok {
			n = &domain.SpeakerNotification{Speaker: speaker}
			notifications[speaker.ID] = n
		}
		return n
	}

	if changes.Action == domain.ActionCreate {
		for _, slot := range scheduleSlots {
			for _, speaker := range speakersBySubmission[slot.SubmissionID] {
				n := add(speaker)
				n.Create = append(n.Create, slot)
			}
		}
		return notifications
	}

	if changes.Count == len(changes.CanceledTalks) {
		return notifications
	}

	for _, slot := range changes.NewTalks {
		for _, speaker := range speakersBySubmission[slot.SubmissionID] {
			n := add(speaker)
			n.Create = append(n.Create, slot)
		}
	}
	for _, moved := range changes.MovedTalks {
		for _, speaker := range speakersBySubmission[moved.SubmissionID] {
			n := add(speaker)
			n.Update = append(n.Update, moved)
		}
	}
	return notifications
}
