package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"programdesk/internal/delivery/http/helpers"
	"programdesk/internal/delivery/http/middleware"
	"programdesk/internal/domain"
)

type ScheduleController struct {
	Logger  *slog.Logger
	Service domain.ScheduleService
}

func NewScheduleController(logger *slog.Logger, svc domain.ScheduleService) *ScheduleController {
	return &ScheduleController{
		Logger:  logger,
		Service: svc,
	}
}

// ReleaseScheduleRequest is the request body for POST /events/{eventID}/schedule/release.
type ReleaseScheduleRequest struct {
	Version string `json:"version"`
	Notify  *bool  `json:"notify"`
}

// Validate implements Validator.
func (r ReleaseScheduleRequest) Validate() []string {
	var errs []string
	if r.Version == "" {
		errs = append(errs, "version is required")
	}
	return errs
}

// ReleaseScheduleResponse is the data payload for a successful release.
type ReleaseScheduleResponse struct {
	Released *domain.Schedule `json:"released"`
	WIP      *domain.Schedule `json:"wip"`
}

// ReleaseScheduleSuccessResponse is the success response envelope for POST /events/{eventID}/schedule/release (201).
type ReleaseScheduleSuccessResponse struct {
	Data  ReleaseScheduleResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ReleaseSchedule godoc
// @Summary Release the working draft as a schedule version
// @Description Freezes the event's working draft under the given version name, creates a fresh working draft, recomputes slot visibility, and queues speaker notifications unless notify is false. The names "wip" and "latest" are reserved.
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body ReleaseScheduleRequest true "Version name and optional notify flag"
// @Success 201 {object} controllers.ReleaseScheduleSuccessResponse "data contains the released schedule and the new working draft"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (empty or reserved version name)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (version name in use or already released)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/schedule/release [post]
func (c *ScheduleController) ReleaseSchedule(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req ReleaseScheduleRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	wip, _, err := c.Service.GetWIPSchedule(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no working draft for event")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	notify := true
	if req.Notify != nil {
		notify = *req.Notify
	}
	released, draft, err := c.Service.Freeze(r.Context(), wip.ID, req.Version, actorID, notify)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVersionNameEmpty), errors.Is(err, domain.ErrVersionNameReserved):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		case errors.Is(err, domain.ErrVersionNameTaken), errors.Is(err, domain.ErrAlreadyReleased):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "schedule not found")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, ReleaseScheduleResponse{Released: released, WIP: draft})
}

// UnfreezeScheduleSuccessResponse is the success response envelope for POST /schedules/{scheduleID}/unfreeze (200).
type UnfreezeScheduleSuccessResponse struct {
	Data  ReleaseScheduleResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// UnfreezeSchedule godoc
// @Summary Reset the working draft to an earlier schedule version
// @Description Replaces the event's working draft with a copy of the given released version. Draft slots for submissions that were not placed in that version are preserved.
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param scheduleID path string true "Schedule ID (UUID) of a released version"
// @Success 200 {object} controllers.UnfreezeScheduleSuccessResponse "data contains the released schedule and the new working draft"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (schedule is the working draft)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /schedules/{scheduleID}/unfreeze [post]
func (c *ScheduleController) UnfreezeSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := r.PathValue("scheduleID")
	if scheduleID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing scheduleID")
		return
	}
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	released, draft, err := c.Service.Unfreeze(r.Context(), scheduleID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotReleased):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "schedule not found")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ReleaseScheduleResponse{Released: released, WIP: draft})
}

// ScheduleWithSlotsResponse is the data payload for schedule detail endpoints.
type ScheduleWithSlotsResponse struct {
	Schedule *domain.Schedule   `json:"schedule"`
	Slots    []*domain.TalkSlot `json:"slots"`
}

// CurrentScheduleSuccessResponse is the success response envelope for GET /events/{eventID}/schedule (200).
type CurrentScheduleSuccessResponse struct {
	Data  ScheduleWithSlotsResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// GetCurrentSchedule godoc
// @Summary Get the current public schedule
// @Description Returns the most recently published schedule version and its visible slots.
// @Tags schedules
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CurrentScheduleSuccessResponse "data contains the schedule and its visible slots"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no published version yet)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/schedule [get]
func (c *ScheduleController) GetCurrentSchedule(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	schedule, slots, err := c.Service.GetCurrentSchedule(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no published schedule")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ScheduleWithSlotsResponse{Schedule: schedule, Slots: slots})
}

// GetWIPSchedule godoc
// @Summary Get the working draft schedule
// @Description Returns the event's working draft and all of its slots, placed or not. Requires authentication.
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CurrentScheduleSuccessResponse "data contains the draft and its slots"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/schedule/wip [get]
func (c *ScheduleController) GetWIPSchedule(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	schedule, slots, err := c.Service.GetWIPSchedule(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no working draft for event")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ScheduleWithSlotsResponse{Schedule: schedule, Slots: slots})
}

// ScheduleChangelogSuccessResponse is the success response envelope for GET /schedules/{scheduleID}/changelog (200).
type ScheduleChangelogSuccessResponse struct {
	Data  *domain.ChangeSet `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GetScheduleChangelog godoc
// @Summary Diff a schedule version against its predecessor
// @Description Returns the new, canceled, and moved talks compared to the version released before this one. A first release yields action "create" with no detail.
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param scheduleID path string true "Schedule ID (UUID)"
// @Success 200 {object} controllers.ScheduleChangelogSuccessResponse "data contains the change-set"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /schedules/{scheduleID}/changelog [get]
func (c *ScheduleController) GetScheduleChangelog(w http.ResponseWriter, r *http.Request) {
	scheduleID := r.PathValue("scheduleID")
	if scheduleID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing scheduleID")
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	changes, err := c.Service.Compare(r.Context(), scheduleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "schedule not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, changes)
}

// ListScheduleVersionsResponse is the data payload for GET /events/{eventID}/schedules (200).
type ListScheduleVersionsResponse struct {
	Items      []*domain.Schedule     `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListScheduleVersionsSuccessResponse is the success response envelope for GET /events/{eventID}/schedules (200).
type ListScheduleVersionsSuccessResponse struct {
	Data  ListScheduleVersionsResponse `json:"data"`
	Error *helpers.APIError            `json:"error"`
}

// ListScheduleVersions godoc
// @Summary List released schedule versions
// @Description Returns a paginated list of released versions for the event, newest first. Use page and page_size query params.
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListScheduleVersionsSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/schedules [get]
func (c *ScheduleController) ListScheduleVersions(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	schedules, total, err := c.Service.ListReleased(r.Context(), eventID, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if schedules == nil {
		schedules = []*domain.Schedule{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListScheduleVersionsResponse{Items: schedules, Pagination: meta})
}

// SlotPlacementRequest is the request body for creating or moving a working draft slot.
type SlotPlacementRequest struct {
	SubmissionID string     `json:"submission_id,omitempty"`
	RoomID       *string    `json:"room_id"`
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
}

// SlotSuccessResponse is the success response envelope for slot endpoints.
type SlotSuccessResponse struct {
	Data  *domain.TalkSlot  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateWIPSlot godoc
// @Summary Place a submission on the working draft
// @Description Creates a slot on the event's working draft. Room and start may be null for an unplaced slot; visibility is recomputed when the draft is released.
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body SlotPlacementRequest true "Submission and placement"
// @Success 201 {object} controllers.SlotSuccessResponse "data contains the created slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/schedule/wip/slots [post]
func (c *ScheduleController) CreateWIPSlot(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req SlotPlacementRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.SubmissionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "submission_id is required")
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	slot, err := c.Service.CreateWIPSlot(r.Context(), eventID, req.SubmissionID, domain.SlotPlacement{
		RoomID: req.RoomID,
		Start:  req.Start,
		End:    req.End,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "submission or draft not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, slot)
}

// UpdateWIPSlot godoc
// @Summary Move a working draft slot
// @Description Changes a draft slot's room and/or times. Slots of released versions are immutable.
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param slotID path string true "Slot ID (UUID)"
// @Param body body SlotPlacementRequest true "New placement"
// @Success 200 {object} controllers.SlotSuccessResponse "data contains the updated slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (slot belongs to a released version)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/schedule/wip/slots/{slotID} [put]
func (c *ScheduleController) UpdateWIPSlot(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	slotID := r.PathValue("slotID")
	if eventID == "" || slotID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID or slotID")
		return
	}
	var req SlotPlacementRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	slot, err := c.Service.UpdateWIPSlot(r.Context(), eventID, slotID, domain.SlotPlacement{
		RoomID: req.RoomID,
		Start:  req.Start,
		End:    req.End,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyReleased):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "slot belongs to a released version")
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// ExportScheduleICS godoc
// @Summary Export the current schedule as iCalendar
// @Description Returns the most recently published schedule as a text/calendar feed.
// @Tags schedules
// @Produce plain
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} string "iCalendar document"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no published version yet)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/schedule.ics [get]
func (c *ScheduleController) ExportScheduleICS(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	data, err := c.Service.ExportICS(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no published schedule")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
