package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"interviewdesk/internal/delivery/http/controllers"
	"interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier struct{}

func (staticVerifier) Verify(token string) (string, error) {
	if token == "good" {
		return "user-1", nil
	}
	return "", errors.New("bad token")
}

// stubScheduling answers every call with ErrNotFound except the ones the routing test touches.
type stubScheduling struct {
	domain.SchedulingService
	lastOwner string
}

func (s *stubScheduling) ListMeetings(_ context.Context, ownerID string) ([]*domain.Meeting, error) {
	s.lastOwner = ownerID
	return []*domain.Meeting{{ID: "m-1"}}, nil
}

func (s *stubScheduling) ListAvailableSlots(_ context.Context, meetingID string) ([]*domain.Slot, error) {
	return []*domain.Slot{{ID: "s-1", MeetingID: meetingID}}, nil
}

func (s *stubScheduling) GetMeetingByPublicLink(_ context.Context, _ string) (*domain.MeetingWithSlots, error) {
	return nil, domain.ErrNotFound
}

func newTestRouter(svc domain.SchedulingService) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(Controllers{
		Auth:     controllers.NewAuthController(logger, nil),
		Meetings: controllers.NewMeetingController(logger, svc, nil, domain.DefaultSlotPolicy()),
		Bookings: controllers.NewBookingController(logger, svc),
		Public:   controllers.NewPublicController(logger, svc),
	}, staticVerifier{}, logger)
}

func TestNewRouter(t *testing.T) {
	svc := &stubScheduling{}
	router := newTestRouter(svc)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"organizer route needs token", http.MethodGet, "/meetings", "", http.StatusUnauthorized},
		{"organizer route rejects bad token", http.MethodGet, "/meetings", "bad", http.StatusUnauthorized},
		{"organizer route with token", http.MethodGet, "/meetings", "good", http.StatusOK},
		{"public slots without token", http.MethodGet, "/public/meetings/m-1/slots", "", http.StatusOK},
		{"public link unknown", http.MethodGet, "/public/meetings/nope", "", http.StatusNotFound},
		{"wrong method", http.MethodPut, "/meetings", "good", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(""))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
	assert.Equal(t, "user-1", svc.lastOwner)
}

func TestNewRouter_PublicSlotsPayload(t *testing.T) {
	router := newTestRouter(&stubScheduling{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/public/meetings/m-7/slots", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	slots := envelope.Data.([]any)
	require.Len(t, slots, 1)
	assert.Equal(t, "m-7", slots[0].(map[string]any)["meeting_id"])
}
