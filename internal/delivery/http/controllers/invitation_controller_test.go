package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"interviewdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingController_SendInvitations(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		ownerID        string
		fakeErr        error
		fakeSent       int
		fakeFailed     []string
		wantStatus     int
		wantBodySubstr string
		wantEmails     []string
	}{
		{
			name: "success", body: `{"emails":"a@example.com, b@example.com;c@example.com\nd@example.com"}`, ownerID: "user-1",
			fakeSent: 4, wantStatus: http.StatusOK,
			wantEmails: []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"},
		},
		{
			name: "partial failures", body: `{"emails":"ok@x.com nope"}`, ownerID: "user-1",
			fakeSent: 1, fakeFailed: []string{"nope"}, wantStatus: http.StatusOK,
		},
		{name: "empty emails", body: `{"emails":""}`, ownerID: "user-1", wantStatus: http.StatusBadRequest, wantBodySubstr: "emails is required"},
		{name: "only separators", body: `{"emails":" , ; "}`, ownerID: "user-1", wantStatus: http.StatusBadRequest, wantBodySubstr: "no email addresses"},
		{name: "no user", body: `{"emails":"a@example.com"}`, wantStatus: http.StatusUnauthorized, wantBodySubstr: "unauthorized"},
		{name: "private meeting", body: `{"emails":"a@example.com"}`, ownerID: "user-1", fakeErr: domain.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "meeting not open", body: `{"emails":"a@example.com"}`, ownerID: "user-1", fakeErr: domain.ErrMeetingNotOpen, wantStatus: http.StatusConflict},
		{name: "forbidden", body: `{"emails":"a@example.com"}`, ownerID: "user-1", fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeSchedulingService{err: tt.fakeErr, sent: tt.fakeSent, failed: tt.fakeFailed}
			ctrl := NewMeetingController(testLogger, fake, fake, domain.DefaultSlotPolicy())
			rr := httptest.NewRecorder()

			ctrl.SendInvitations(rr, newOrganizerRequest(http.MethodPost, "/meetings/m-1/invitations", tt.body, tt.ownerID, map[string]string{"meetingID": "m-1"}))

			require.Equal(t, tt.wantStatus, rr.Code)
			var data SendInvitationsResponse
			envelope := decodeEnvelope(t, rr, &data)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, tt.fakeSent, data.Sent)
				assert.Equal(t, tt.fakeFailed, data.Failed)
				if tt.wantEmails != nil {
					assert.Equal(t, tt.wantEmails, fake.last.emails)
				}
				return
			}
			if tt.wantBodySubstr != "" {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestMeetingController_ListInvitations(t *testing.T) {
	fake := &fakeSchedulingService{
		invites: []*domain.MeetingInvitation{{ID: "i-1", MeetingID: "m-1", Email: "ada@example.com"}},
		total:   3,
	}
	ctrl := NewMeetingController(testLogger, fake, fake, domain.DefaultSlotPolicy())
	rr := httptest.NewRecorder()

	ctrl.ListInvitations(rr, newOrganizerRequest(http.MethodGet, "/meetings/m-1/invitations?search=+ada+&page_size=1", "", "user-1", map[string]string{"meetingID": "m-1"}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ada", fake.last.search)
	assert.Equal(t, domain.PaginationParams{Page: 1, PageSize: 1}, fake.last.params)
	var data ListInvitationsResponse
	decodeEnvelope(t, rr, &data)
	require.Len(t, data.Items, 1)
	assert.Equal(t, 3, data.Pagination.TotalPages)
}
