package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"programdesk/internal/domain"
)

// slotColumns is the join used everywhere a slot is read: the room name and
// speaker info and the submission title and state travel with the slot for
// diff and notification output.
const slotColumns = `
	SELECT t.id, t.schedule_id, t.submission_id, t.room_id, t.start_time, t.end_time, t.is_visible,
	       COALESCE(r.name, ''), COALESCE(r.speaker_info, ''), s.title, s.state
	FROM talk_slots t
	LEFT JOIN rooms r ON r.id = t.room_id
	INNER JOIN submissions s ON s.id = t.submission_id
`

type TalkSlotRepository struct {
	DB *sql.DB
}

func NewTalkSlotRepository(db *sql.DB) domain.TalkSlotRepository {
	return &TalkSlotRepository{
		DB: db,
	}
}

func (r *TalkSlotRepository) GetByID(ctx context.Context, id string) (*domain.TalkSlot, error) {
	query := slotColumns + `WHERE t.id = $1`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	return scanSlot(rows)
}

func (r *TalkSlotRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]*domain.TalkSlot, error) {
	query := slotColumns + `
		WHERE t.schedule_id = $1
		ORDER BY t.start_time NULLS LAST, r.name, t.id
	`
	return r.list(ctx, query, scheduleID)
}

// ListScheduled returns the slots the diff engine compares: placed (room and
// start set), visible, and whose submission is not deleted. Ordered by start
// then room name so that positional move matching is deterministic.
func (r *TalkSlotRepository) ListScheduled(ctx context.Context, scheduleID string) ([]*domain.TalkSlot, error) {
	query := slotColumns + `
		WHERE t.schedule_id = $1
		  AND t.room_id IS NOT NULL
		  AND t.start_time IS NOT NULL
		  AND t.is_visible = TRUE
		  AND s.state <> $2
		ORDER BY t.start_time, r.name, t.id
	`
	return r.list(ctx, query, scheduleID, string(domain.StateDeleted))
}

func (r *TalkSlotRepository) list(ctx context.Context, query string, args ...any) ([]*domain.TalkSlot, error) {
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []*domain.TalkSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (r *TalkSlotRepository) ListSubmissionIDs(ctx context.Context, scheduleID string) ([]string, error) {
	query := `SELECT DISTINCT submission_id FROM talk_slots WHERE schedule_id = $1`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TalkSlotRepository) Create(ctx context.Context, slot *domain.TalkSlot) error {
	query := `
		INSERT INTO talk_slots (schedule_id, submission_id, room_id, start_time, end_time, is_visible)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return q(ctx, r.DB).QueryRowContext(ctx, query,
		slot.ScheduleID, slot.SubmissionID, slot.RoomID, slot.Start, slot.End, slot.IsVisible,
	).Scan(&slot.ID)
}

// BulkCreate inserts the slot copies produced by a freeze or unfreeze.
// Callers assign IDs up front; the COPY protocol does not return them.
func (r *TalkSlotRepository) BulkCreate(ctx context.Context, slots []*domain.TalkSlot) error {
	if len(slots) == 0 {
		return nil
	}
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	if !ok {
		// COPY requires a transaction; open one just for this batch.
		var err error
		tx, err = r.DB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if err := copySlots(ctx, tx, slots); err != nil {
			return err
		}
		return tx.Commit()
	}
	return copySlots(ctx, tx, slots)
}

func copySlots(ctx context.Context, tx *sql.Tx, slots []*domain.TalkSlot) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("talk_slots",
		"id", "schedule_id", "submission_id", "room_id", "start_time", "end_time", "is_visible"))
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if _, err := stmt.ExecContext(ctx,
			slot.ID, slot.ScheduleID, slot.SubmissionID, slot.RoomID, slot.Start, slot.End, slot.IsVisible,
		); err != nil {
			stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

func (r *TalkSlotRepository) UpdatePlacement(ctx context.Context, slot *domain.TalkSlot) error {
	query := `
		UPDATE talk_slots
		SET room_id = $2, start_time = $3, end_time = $4
		WHERE id = $1
	`
	result, err := q(ctx, r.DB).ExecContext(ctx, query, slot.ID, slot.RoomID, slot.Start, slot.End)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TalkSlotRepository) DeleteBySchedule(ctx context.Context, scheduleID string) error {
	query := `DELETE FROM talk_slots WHERE schedule_id = $1`
	_, err := q(ctx, r.DB).ExecContext(ctx, query, scheduleID)
	return err
}

// ShowConfirmedScheduled is the first freeze visibility pass: placed slots of
// confirmed submissions become visible.
func (r *TalkSlotRepository) ShowConfirmedScheduled(ctx context.Context, scheduleID string) error {
	query := `
		UPDATE talk_slots t
		SET is_visible = TRUE
		FROM submissions s
		WHERE s.id = t.submission_id
		  AND t.schedule_id = $1
		  AND t.start_time IS NOT NULL
		  AND s.state = $2
		  AND t.is_visible = FALSE
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query, scheduleID, string(domain.StateConfirmed))
	return err
}

// HideUnscheduledOrUnconfirmed is the second freeze visibility pass: visible
// slots that are not placed-and-confirmed become invisible. Together the two
// passes make the visible set exactly "placed and confirmed", whatever the
// visibility was before the freeze.
func (r *TalkSlotRepository) HideUnscheduledOrUnconfirmed(ctx context.Context, scheduleID string) error {
	query := `
		UPDATE talk_slots t
		SET is_visible = FALSE
		FROM submissions s
		WHERE s.id = t.submission_id
		  AND t.schedule_id = $1
		  AND t.is_visible = TRUE
		  AND (t.start_time IS NULL OR s.state <> $2)
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query, scheduleID, string(domain.StateConfirmed))
	return err
}

func scanSlot(rows *sql.Rows) (*domain.TalkSlot, error) {
	slot := &domain.TalkSlot{}
	var roomID sql.NullString
	var start, end sql.NullTime
	var state string
	err := rows.Scan(
		&slot.ID, &slot.ScheduleID, &slot.SubmissionID, &roomID, &start, &end, &slot.IsVisible,
		&slot.RoomName, &slot.RoomSpeakerInfo, &slot.SubmissionTitle, &state,
	)
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		slot.RoomID = &roomID.String
	}
	if start.Valid {
		t := start.Time
		slot.Start = &t
	}
	if end.Valid {
		t := end.Time
		slot.End = &t
	}
	slot.SubmissionState = domain.SubmissionState(state)
	return slot, nil
}
