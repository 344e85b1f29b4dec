package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"interviewdesk/internal/delivery/http/controllers"
	"interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/delivery/http/middleware"
	"interviewdesk/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth     *controllers.AuthController
	Meetings *controllers.MeetingController
	Bookings *controllers.BookingController
	Public   *controllers.PublicController
}

// NewRouter initializes the HTTP router with all application routes. Organizer routes require a
// bearer token; /public routes are reachable by participants without an account.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, controllers.StatusResponse{Status: "ok"})
	})

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("GET /auth/me", auth(c.Auth.Me))

	// Meetings
	mux.HandleFunc("POST /meetings", auth(c.Meetings.CreateMeeting))
	mux.HandleFunc("GET /meetings", auth(c.Meetings.ListMeetings))
	mux.HandleFunc("GET /meetings/{meetingID}", auth(c.Meetings.GetMeeting))
	mux.HandleFunc("PATCH /meetings/{meetingID}", auth(c.Meetings.UpdateMeeting))
	mux.HandleFunc("DELETE /meetings/{meetingID}", auth(c.Meetings.DeleteMeeting))
	mux.HandleFunc("POST /meetings/{meetingID}/open", auth(c.Meetings.OpenMeeting))
	mux.HandleFunc("POST /meetings/{meetingID}/close", auth(c.Meetings.CloseMeeting))
	mux.HandleFunc("POST /meetings/{meetingID}/cancel", auth(c.Meetings.CancelMeeting))
	mux.HandleFunc("POST /meetings/{meetingID}/slots/generate", auth(c.Meetings.GenerateSlots))
	mux.HandleFunc("GET /meetings/{meetingID}/slots", auth(c.Meetings.ListSlots))
	mux.HandleFunc("GET /meetings/{meetingID}/bookings", auth(c.Meetings.ListBookings))
	mux.HandleFunc("POST /meetings/{meetingID}/invitations", auth(c.Meetings.SendInvitations))
	mux.HandleFunc("GET /meetings/{meetingID}/invitations", auth(c.Meetings.ListInvitations))

	// Organizer booking actions
	mux.HandleFunc("POST /bookings/{bookingID}/approve", auth(c.Bookings.ApproveBooking))
	mux.HandleFunc("POST /bookings/{bookingID}/reject", auth(c.Bookings.RejectBooking))
	mux.HandleFunc("POST /bookings/{bookingID}/schedule", auth(c.Bookings.ScheduleBooking))
	mux.HandleFunc("POST /bookings/{bookingID}/complete", auth(c.Bookings.CompleteBooking))
	mux.HandleFunc("POST /bookings/{bookingID}/no-show", auth(c.Bookings.MarkNoShow))
	mux.HandleFunc("POST /bookings/{bookingID}/cancel", auth(c.Bookings.CancelBooking))

	// Public participant flow
	mux.HandleFunc("GET /public/meetings/{token}", c.Public.GetMeetingByLink)
	mux.HandleFunc("GET /public/meetings/{meetingID}/slots", c.Public.ListAvailableSlots)
	mux.HandleFunc("POST /public/slots/{slotID}/book", c.Public.BookSlot)
	mux.HandleFunc("GET /public/bookings/{token}", c.Public.GetBooking)
	mux.HandleFunc("POST /public/bookings/{token}/cancel", c.Public.CancelBooking)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
