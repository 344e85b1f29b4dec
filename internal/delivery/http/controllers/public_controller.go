package controllers

import (
	"log/slog"
	"net/http"

	"interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/domain"
)

// PublicMeetingSuccessResponse is the success envelope for GET /public/meetings/{token} (200).
type PublicMeetingSuccessResponse struct {
	Data  *domain.MeetingWithSlots `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// BookSlotSuccessResponse is the success envelope for POST /public/slots/{slotID}/book (201).
type BookSlotSuccessResponse struct {
	Data  *domain.BookingWithToken `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// PublicController serves unauthenticated participant endpoints.
type PublicController struct {
	Logger  *slog.Logger
	Service domain.SchedulingService
}

func NewPublicController(logger *slog.Logger, svc domain.SchedulingService) *PublicController {
	return &PublicController{Logger: logger, Service: svc}
}

// GetMeetingByLink godoc
// @Summary Open a public booking page
// @Description Resolves a public meeting link to the meeting and its free slots. Private or draft meetings are reported as not found.
// @Tags public
// @Produce json
// @Param token path string true "Public meeting token"
// @Success 200 {object} controllers.PublicMeetingSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /public/meetings/{token} [get]
func (c *PublicController) GetMeetingByLink(w http.ResponseWriter, r *http.Request) {
	token, ok := pathParam(w, r, "token")
	if !ok {
		return
	}
	res, err := c.Service.GetMeetingByPublicLink(r.Context(), token)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if res.Slots == nil {
		res.Slots = []*domain.Slot{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// ListAvailableSlots godoc
// @Summary List free slots of an open meeting
// @Tags public
// @Produce json
// @Param meetingID path string true "Meeting ID (UUID)"
// @Success 200 {object} controllers.ListSlotsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: meeting_not_open"
// @Router /public/meetings/{meetingID}/slots [get]
func (c *PublicController) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	slots, err := c.Service.ListAvailableSlots(r.Context(), meetingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slots)
}

// BookSlot godoc
// @Summary Book a slot
// @Description Claims the slot for the participant. Exactly one of several concurrent requests for the same slot succeeds; the others get slot_unavailable. The response carries the cancel_token, shown only once.
// @Tags public
// @Accept json
// @Produce json
// @Param slotID path string true "Slot ID (UUID)"
// @Param body body BookSlotRequest true "Participant details"
// @Success 201 {object} controllers.BookSlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_unavailable or meeting_not_open"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /public/slots/{slotID}/book [post]
func (c *PublicController) BookSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathParam(w, r, "slotID")
	if !ok {
		return
	}
	var req BookSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.BookSlot(r.Context(), slotID, req.participant())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, res)
}

// GetBooking godoc
// @Summary Look up a booking by its cancel token
// @Tags public
// @Produce json
// @Param token path string true "Booking cancel token"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /public/bookings/{token} [get]
func (c *PublicController) GetBooking(w http.ResponseWriter, r *http.Request) {
	token, ok := pathParam(w, r, "token")
	if !ok {
		return
	}
	b, err := c.Service.GetBookingByToken(r.Context(), token)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, b)
}

// CancelBooking godoc
// @Summary Cancel a booking as participant
// @Description Cancels the booking identified by its token and frees the slot. Repeating the call succeeds.
// @Tags public
// @Produce json
// @Param token path string true "Booking cancel token"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (meeting disallows cancellation)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /public/bookings/{token}/cancel [post]
func (c *PublicController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	token, ok := pathParam(w, r, "token")
	if !ok {
		return
	}
	b, err := c.Service.CancelBooking(r.Context(), token)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, b)
}
