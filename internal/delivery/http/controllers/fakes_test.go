package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// call records the arguments of the last service invocation.
type call struct {
	method    string
	ownerID   string
	id        string
	reason    string
	policy    *domain.SlotPolicy
	cfg       domain.MeetingConfig
	patch     domain.MeetingPatch
	filter    domain.BookingFilter
	params    domain.PaginationParams
	part      domain.Participant
	emails    []string
	search    string
	userEmail string
}

// fakeSchedulingService implements domain.SchedulingService and domain.InvitationService for handler tests.
type fakeSchedulingService struct {
	err      error
	meeting  *domain.Meeting
	meetings []*domain.Meeting
	slots    []*domain.Slot
	booking  *domain.Booking
	bookings []*domain.Booking
	total    int
	created  int
	sent     int
	failed   []string
	invites  []*domain.MeetingInvitation
	last     call
}

func (f *fakeSchedulingService) record(c call) { f.last = c }

func (f *fakeSchedulingService) CreateMeeting(_ context.Context, ownerID string, cfg domain.MeetingConfig) (*domain.Meeting, error) {
	f.record(call{method: "CreateMeeting", ownerID: ownerID, cfg: cfg})
	return f.meeting, f.err
}

func (f *fakeSchedulingService) GetMeeting(_ context.Context, ownerID, meetingID string) (*domain.Meeting, error) {
	f.record(call{method: "GetMeeting", ownerID: ownerID, id: meetingID})
	return f.meeting, f.err
}

func (f *fakeSchedulingService) ListMeetings(_ context.Context, ownerID string) ([]*domain.Meeting, error) {
	f.record(call{method: "ListMeetings", ownerID: ownerID})
	return f.meetings, f.err
}

func (f *fakeSchedulingService) UpdateMeeting(_ context.Context, ownerID, meetingID string, patch domain.MeetingPatch) (*domain.Meeting, error) {
	f.record(call{method: "UpdateMeeting", ownerID: ownerID, id: meetingID, patch: patch})
	return f.meeting, f.err
}

func (f *fakeSchedulingService) OpenMeeting(_ context.Context, ownerID, meetingID string, policy *domain.SlotPolicy) (*domain.Meeting, error) {
	f.record(call{method: "OpenMeeting", ownerID: ownerID, id: meetingID, policy: policy})
	return f.meeting, f.err
}

func (f *fakeSchedulingService) CloseMeeting(_ context.Context, ownerID, meetingID string) (*domain.Meeting, error) {
	f.record(call{method: "CloseMeeting", ownerID: ownerID, id: meetingID})
	return f.meeting, f.err
}

func (f *fakeSchedulingService) CancelMeeting(_ context.Context, ownerID, meetingID, reason string) (*domain.Meeting, error) {
	f.record(call{method: "CancelMeeting", ownerID: ownerID, id: meetingID, reason: reason})
	return f.meeting, f.err
}

func (f *fakeSchedulingService) DeleteMeeting(_ context.Context, ownerID, meetingID string) error {
	f.record(call{method: "DeleteMeeting", ownerID: ownerID, id: meetingID})
	return f.err
}

func (f *fakeSchedulingService) GenerateSlots(_ context.Context, ownerID, meetingID string, policy *domain.SlotPolicy) (int, error) {
	f.record(call{method: "GenerateSlots", ownerID: ownerID, id: meetingID, policy: policy})
	return f.created, f.err
}

func (f *fakeSchedulingService) ListSlots(_ context.Context, ownerID, meetingID string) ([]*domain.Slot, error) {
	f.record(call{method: "ListSlots", ownerID: ownerID, id: meetingID})
	return f.slots, f.err
}

func (f *fakeSchedulingService) ListBookings(_ context.Context, ownerID, meetingID string, filter domain.BookingFilter, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	f.record(call{method: "ListBookings", ownerID: ownerID, id: meetingID, filter: filter, params: params})
	return f.bookings, f.total, f.err
}

func (f *fakeSchedulingService) GetMeetingByPublicLink(_ context.Context, token string) (*domain.MeetingWithSlots, error) {
	f.record(call{method: "GetMeetingByPublicLink", id: token})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.MeetingWithSlots{Meeting: f.meeting, Slots: f.slots}, nil
}

func (f *fakeSchedulingService) ListAvailableSlots(_ context.Context, meetingID string) ([]*domain.Slot, error) {
	f.record(call{method: "ListAvailableSlots", id: meetingID})
	return f.slots, f.err
}

func (f *fakeSchedulingService) BookSlot(_ context.Context, slotID string, p domain.Participant) (*domain.BookingWithToken, error) {
	f.record(call{method: "BookSlot", id: slotID, part: p})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BookingWithToken{Booking: f.booking, CancelToken: "tok-123"}, nil
}

func (f *fakeSchedulingService) GetBookingByToken(_ context.Context, token string) (*domain.Booking, error) {
	f.record(call{method: "GetBookingByToken", id: token})
	return f.booking, f.err
}

func (f *fakeSchedulingService) CancelBooking(_ context.Context, token string) (*domain.Booking, error) {
	f.record(call{method: "CancelBooking", id: token})
	return f.booking, f.err
}

func (f *fakeSchedulingService) ApproveBooking(_ context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	f.record(call{method: "ApproveBooking", ownerID: ownerID, id: bookingID})
	return f.booking, f.err
}

func (f *fakeSchedulingService) RejectBooking(_ context.Context, ownerID, bookingID, reason string) (*domain.Booking, error) {
	f.record(call{method: "RejectBooking", ownerID: ownerID, id: bookingID, reason: reason})
	return f.booking, f.err
}

func (f *fakeSchedulingService) ScheduleBooking(_ context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	f.record(call{method: "ScheduleBooking", ownerID: ownerID, id: bookingID})
	return f.booking, f.err
}

func (f *fakeSchedulingService) CancelBookingByOrganizer(_ context.Context, ownerID, bookingID, reason string) (*domain.Booking, error) {
	f.record(call{method: "CancelBookingByOrganizer", ownerID: ownerID, id: bookingID, reason: reason})
	return f.booking, f.err
}

func (f *fakeSchedulingService) MarkNoShow(_ context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	f.record(call{method: "MarkNoShow", ownerID: ownerID, id: bookingID})
	return f.booking, f.err
}

func (f *fakeSchedulingService) CompleteBooking(_ context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	f.record(call{method: "CompleteBooking", ownerID: ownerID, id: bookingID})
	return f.booking, f.err
}

func (f *fakeSchedulingService) SendInvitations(_ context.Context, ownerID, meetingID string, emails []string) (int, []string, error) {
	f.record(call{method: "SendInvitations", ownerID: ownerID, id: meetingID, emails: emails})
	return f.sent, f.failed, f.err
}

func (f *fakeSchedulingService) ListInvitations(_ context.Context, ownerID, meetingID, search string, params domain.PaginationParams) ([]*domain.MeetingInvitation, int, error) {
	f.record(call{method: "ListInvitations", ownerID: ownerID, id: meetingID, search: search, params: params})
	return f.invites, f.total, f.err
}

// fakeAuthService implements domain.AuthService.
type fakeAuthService struct {
	err   error
	user  *domain.User
	token string
	last  call
}

func (f *fakeAuthService) SignUp(_ context.Context, email, _, name string) (*domain.User, error) {
	f.last = call{method: "SignUp", userEmail: email, reason: name}
	return f.user, f.err
}

func (f *fakeAuthService) Login(_ context.Context, email, _ string) (string, error) {
	f.last = call{method: "Login", userEmail: email}
	return f.token, f.err
}

func (f *fakeAuthService) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.last = call{method: "GetByID", id: id}
	return f.user, f.err
}

// decodeEnvelope decodes the response envelope and, when dest is non-nil, re-decodes data into it.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if dest != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, dest))
	}
	return envelope
}
