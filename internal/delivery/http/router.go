package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"programdesk/internal/delivery/http/controllers"
	"programdesk/internal/delivery/http/middleware"
	"programdesk/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	scheduleController *controllers.ScheduleController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEventByID)

	// Schedules
	mux.HandleFunc("GET /events/{eventID}/schedule", scheduleController.GetCurrentSchedule)
	mux.HandleFunc("GET /events/{eventID}/schedule.ics", scheduleController.ExportScheduleICS)
	mux.HandleFunc("GET /events/{eventID}/schedule/wip", auth(scheduleController.GetWIPSchedule))
	mux.HandleFunc("POST /events/{eventID}/schedule/wip/slots", auth(scheduleController.CreateWIPSlot))
	mux.HandleFunc("PUT /events/{eventID}/schedule/wip/slots/{slotID}", auth(scheduleController.UpdateWIPSlot))
	mux.HandleFunc("POST /events/{eventID}/schedule/release", auth(scheduleController.ReleaseSchedule))
	mux.HandleFunc("GET /events/{eventID}/schedules", auth(scheduleController.ListScheduleVersions))
	mux.HandleFunc("POST /schedules/{scheduleID}/unfreeze", auth(scheduleController.UnfreezeSchedule))
	mux.HandleFunc("GET /schedules/{scheduleID}/changelog", auth(scheduleController.GetScheduleChangelog))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
