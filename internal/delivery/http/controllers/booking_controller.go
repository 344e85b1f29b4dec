package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/domain"
)

// BookingSuccessResponse is the success envelope for endpoints returning one booking.
type BookingSuccessResponse struct {
	Data  *domain.Booking   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BookingController serves organizer actions on individual bookings.
type BookingController struct {
	Logger  *slog.Logger
	Service domain.SchedulingService
}

func NewBookingController(logger *slog.Logger, svc domain.SchedulingService) *BookingController {
	return &BookingController{Logger: logger, Service: svc}
}

type bookingAction func(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error)

func (c *BookingController) run(w http.ResponseWriter, r *http.Request, action bookingAction) {
	bookingID, ok := pathParam(w, r, "bookingID")
	if !ok {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	b, err := action(r.Context(), ownerID, bookingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, b)
}

// runWithReason is run for actions that take an optional reason body.
func (c *BookingController) runWithReason(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, ownerID, bookingID, reason string) (*domain.Booking, error)) {
	var req ReasonRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	c.run(w, r, func(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error) {
		return action(ctx, ownerID, bookingID, req.Reason)
	})
}

// ApproveBooking godoc
// @Summary Approve a pending booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /bookings/{bookingID}/approve [post]
func (c *BookingController) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.ApproveBooking)
}

// RejectBooking godoc
// @Summary Reject a booking
// @Description Rejects a pending or approved booking and frees its slot.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Param body body ReasonRequest false "Optional reason shown to the participant"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /bookings/{bookingID}/reject [post]
func (c *BookingController) RejectBooking(w http.ResponseWriter, r *http.Request) {
	c.runWithReason(w, r, c.Service.RejectBooking)
}

// ScheduleBooking godoc
// @Summary Confirm an approved booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /bookings/{bookingID}/schedule [post]
func (c *BookingController) ScheduleBooking(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.ScheduleBooking)
}

// CompleteBooking godoc
// @Summary Mark an approved booking completed
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /bookings/{bookingID}/complete [post]
func (c *BookingController) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.CompleteBooking)
}

// MarkNoShow godoc
// @Summary Mark a scheduled booking as no-show
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /bookings/{bookingID}/no-show [post]
func (c *BookingController) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	c.run(w, r, c.Service.MarkNoShow)
}

// CancelBooking godoc
// @Summary Cancel a booking as organizer
// @Description Cancels the booking and frees its slot. Cancelling an already cancelled booking succeeds.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Param body body ReasonRequest false "Optional reason shown to the participant"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /bookings/{bookingID}/cancel [post]
func (c *BookingController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	c.runWithReason(w, r, c.Service.CancelBookingByOrganizer)
}
