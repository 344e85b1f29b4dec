package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/delivery/http/middleware"
	"interviewdesk/internal/domain"
)

// MeetingSuccessResponse is the success envelope for endpoints returning one meeting.
type MeetingSuccessResponse struct {
	Data  *domain.Meeting   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListMeetingsSuccessResponse is the success envelope for GET /meetings (200).
type ListMeetingsSuccessResponse struct {
	Data  []*domain.Meeting `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListSlotsSuccessResponse is the success envelope for slot listings (200).
type ListSlotsSuccessResponse struct {
	Data  []*domain.Slot    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GenerateSlotsResponse is the data payload for POST /meetings/{meetingID}/slots/generate.
type GenerateSlotsResponse struct {
	Created int `json:"created"`
}

// ListBookingsResponse is the data payload for GET /meetings/{meetingID}/bookings (200).
type ListBookingsResponse struct {
	Items      []*domain.Booking      `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListBookingsSuccessResponse is the success envelope for GET /meetings/{meetingID}/bookings (200).
type ListBookingsSuccessResponse struct {
	Data  ListBookingsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// StatusResponse is a bare acknowledgement payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// MeetingController serves the organizer side of meetings, their slots, and invitations.
type MeetingController struct {
	Logger        *slog.Logger
	Service       domain.SchedulingService
	Invitations   domain.InvitationService
	DefaultPolicy domain.SlotPolicy
}

func NewMeetingController(logger *slog.Logger, svc domain.SchedulingService, invitations domain.InvitationService, defaultPolicy domain.SlotPolicy) *MeetingController {
	return &MeetingController{
		Logger:        logger,
		Service:       svc,
		Invitations:   invitations,
		DefaultPolicy: defaultPolicy,
	}
}

// organizerID reads the authenticated user, writing 401 when absent.
func organizerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.OrganizerIDFromContext(r.Context())
	if !ok || id == "" {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return id, true
}

// pathParam reads a required path value, writing 400 when empty.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.PathValue(name))
	if v == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	return v, true
}

// CreateMeeting godoc
// @Summary Create a meeting
// @Description Creates a draft meeting owned by the caller. Dates are YYYY-MM-DD labels in the meeting timezone.
// @Tags meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateMeetingRequest true "Meeting configuration"
// @Success 201 {object} controllers.MeetingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /meetings [post]
func (c *MeetingController) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req CreateMeetingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	m, err := c.Service.CreateMeeting(r.Context(), ownerID, req.toConfig())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, m)
}

// ListMeetings godoc
// @Summary List my meetings
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMeetingsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /meetings [get]
func (c *MeetingController) ListMeetings(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	list, err := c.Service.ListMeetings(r.Context(), ownerID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Meeting{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// GetMeeting godoc
// @Summary Get a meeting
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Success 200 {object} controllers.MeetingSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /meetings/{meetingID} [get]
func (c *MeetingController) GetMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	m, err := c.Service.GetMeeting(r.Context(), ownerID, meetingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// UpdateMeeting godoc
// @Summary Update a meeting
// @Description Edits meeting attributes. Window fields (dates, duration, timezone, buffers) can only change while the meeting is a draft.
// @Tags meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Param body body UpdateMeetingRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.MeetingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /meetings/{meetingID} [patch]
func (c *MeetingController) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	var req UpdateMeetingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	m, err := c.Service.UpdateMeeting(r.Context(), ownerID, meetingID, req.toPatch())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// DeleteMeeting godoc
// @Summary Delete a meeting
// @Description Removes a meeting with its slots and bookings. Meetings with active bookings must be cancelled first.
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data.status: deleted"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /meetings/{meetingID} [delete]
func (c *MeetingController) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteMeeting(r.Context(), ownerID, meetingID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// OpenMeeting godoc
// @Summary Open a meeting for booking
// @Description Generates slots from the business-hours template (optionally overridden in the body) and opens the meeting.
// @Tags meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Param body body SlotPolicyRequest false "Optional policy override"
// @Success 200 {object} controllers.MeetingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /meetings/{meetingID}/open [post]
func (c *MeetingController) OpenMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	var req SlotPolicyRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	m, err := c.Service.OpenMeeting(r.Context(), ownerID, meetingID, req.toPolicy(c.DefaultPolicy))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// CloseMeeting godoc
// @Summary Close a meeting
// @Description Stops new bookings. Existing bookings are kept.
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Success 200 {object} controllers.MeetingSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /meetings/{meetingID}/close [post]
func (c *MeetingController) CloseMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	m, err := c.Service.CloseMeeting(r.Context(), ownerID, meetingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// CancelMeeting godoc
// @Summary Cancel a meeting
// @Description Cancels the meeting and every active booking, freeing their slots.
// @Tags meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Param body body ReasonRequest false "Optional reason"
// @Success 200 {object} controllers.MeetingSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /meetings/{meetingID}/cancel [post]
func (c *MeetingController) CancelMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	var req ReasonRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	m, err := c.Service.CancelMeeting(r.Context(), ownerID, meetingID, req.Reason)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// GenerateSlots godoc
// @Summary Generate slots
// @Description Expands the availability window into slots. Re-running only adds slots that do not exist yet.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Param body body SlotPolicyRequest false "Optional policy override"
// @Success 200 {object} helpers.APIResponse "data.created: number of new slots"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_failed"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: illegal_state_transition"
// @Router /meetings/{meetingID}/slots/generate [post]
func (c *MeetingController) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	var req SlotPolicyRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	created, err := c.Service.GenerateSlots(r.Context(), ownerID, meetingID, req.toPolicy(c.DefaultPolicy))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, GenerateSlotsResponse{Created: created})
}

// ListSlots godoc
// @Summary List all slots of a meeting
// @Description Organizer view including booked slots and the booking holding them.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Success 200 {object} controllers.ListSlotsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /meetings/{meetingID}/slots [get]
func (c *MeetingController) ListSlots(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	slots, err := c.Service.ListSlots(r.Context(), ownerID, meetingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slots)
}

// ListBookings godoc
// @Summary List bookings of a meeting
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Param status query string false "Filter by booking status"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListBookingsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /meetings/{meetingID}/bookings [get]
func (c *MeetingController) ListBookings(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	var filter domain.BookingFilter
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		status := domain.BookingStatus(strings.ToLower(s))
		if !status.Valid() {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown booking status "+s)
			return
		}
		filter.Status = &status
	}
	params := helpers.ParsePagination(r)
	list, total, err := c.Service.ListBookings(r.Context(), ownerID, meetingID, filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Booking{}
	}
	meta := helpers.NewPaginationMeta(params, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListBookingsResponse{Items: list, Pagination: meta})
}
