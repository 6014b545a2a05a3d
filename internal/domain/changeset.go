package domain

import "time"

// ChangeAction distinguishes a first release from an update release.
type ChangeAction string

const (
	ActionCreate ChangeAction = "create"
	ActionUpdate ChangeAction = "update"
)

// MovedTalk records one placement that changed room and/or start time between
// two schedule versions. Start times are in the event's timezone.
type MovedTalk struct {
	SubmissionID    string    `json:"submission_id"`
	SubmissionTitle string    `json:"submission_title"`
	OldStart        time.Time `json:"old_start"`
	NewStart        time.Time `json:"new_start"`
	OldRoom         string    `json:"old_room"`
	NewRoom         string    `json:"new_room"`
	NewRoomInfo     string    `json:"new_room_info"`
}

// ChangeSet is the structured difference between a schedule and its
// predecessor version. Action "create" (no predecessor) carries no detail:
// every slot is implicitly new. Placements present in both versions produce
// no entry at all.
type ChangeSet struct {
	Action        ChangeAction `json:"action"`
	Count         int          `json:"count"`
	NewTalks      []*TalkSlot  `json:"new_talks"`
	CanceledTalks []*TalkSlot  `json:"canceled_talks"`
	MovedTalks    []*MovedTalk `json:"moved_talks"`
}
