package controllers

import (
	"net/http"
	"strings"

	"interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/domain"
)

// SendInvitationsRequest is the request body for POST /meetings/{meetingID}/invitations.
// Emails is one string of addresses separated by commas, semicolons or whitespace.
type SendInvitationsRequest struct {
	Emails string `json:"emails" example:"ada@example.com, grace@example.com"`
}

// Validate implements Validator.
func (s SendInvitationsRequest) Validate() []string {
	if strings.TrimSpace(s.Emails) == "" {
		return []string{"emails is required"}
	}
	return nil
}

// splitEmails breaks the raw list into addresses. Format checks and dedup happen in the service
// so that rejected addresses come back in the failed list.
func splitEmails(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
}

// SendInvitationsResponse is the data payload for POST /meetings/{meetingID}/invitations (200).
type SendInvitationsResponse struct {
	Sent   int      `json:"sent"`
	Failed []string `json:"failed"`
}

// SendInvitationsSuccessResponse is the success response envelope for POST /meetings/{meetingID}/invitations (200).
type SendInvitationsSuccessResponse struct {
	Data  SendInvitationsResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// ListInvitationsResponse is the data payload for GET /meetings/{meetingID}/invitations (200).
type ListInvitationsResponse struct {
	Items      []*domain.MeetingInvitation `json:"items"`
	Pagination helpers.PaginationMeta      `json:"pagination"`
}

// ListInvitationsSuccessResponse is the success response envelope for GET /meetings/{meetingID}/invitations (200).
type ListInvitationsSuccessResponse struct {
	Data  ListInvitationsResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// SendInvitations godoc
// @Summary Invite candidates to book
// @Description Emails the meeting's public booking link to each address. The meeting must be public and open. Addresses that are malformed or could not be sent are listed in failed.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Param body body SendInvitationsRequest true "Addresses to invite"
// @Success 200 {object} controllers.SendInvitationsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: meeting_not_open"
// @Router /meetings/{meetingID}/invitations [post]
func (c *MeetingController) SendInvitations(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	var req SendInvitationsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	emails := splitEmails(req.Emails)
	if len(emails) == 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "no email addresses given")
		return
	}
	sent, failed, err := c.Invitations.SendInvitations(r.Context(), ownerID, meetingID, emails)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SendInvitationsResponse{Sent: sent, Failed: failed})
}

// ListInvitations godoc
// @Summary List invited emails for a meeting
// @Description Returns a paginated list of invited emails. Optional search filters by email substring (case-insensitive).
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param meetingID path string true "Meeting ID (UUID)"
// @Param search query string false "Filter emails containing this string (case-insensitive)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListInvitationsSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /meetings/{meetingID}/invitations [get]
func (c *MeetingController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathParam(w, r, "meetingID")
	if !ok {
		return
	}
	ownerID, ok := organizerID(w, r)
	if !ok {
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	params := helpers.ParsePagination(r)
	list, total, err := c.Invitations.ListInvitations(r.Context(), ownerID, meetingID, search, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.MeetingInvitation{}
	}
	meta := helpers.NewPaginationMeta(params, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitationsResponse{Items: list, Pagination: meta})
}
