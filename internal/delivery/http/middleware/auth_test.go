package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"interviewdesk/internal/delivery/http/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVerifier accepts exactly one token.
type stubVerifier struct {
	token       string
	organizerID string
}

func (v stubVerifier) Verify(token string) (string, error) {
	if token != v.token {
		return "", errors.New("token signature invalid")
	}
	return v.organizerID, nil
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := stubVerifier{token: "recruiter-jwt", organizerID: "organizer-42"}

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
		wantID      string
	}{
		{name: "organizer token reaches the handler", header: "Bearer recruiter-jwt", wantStatus: http.StatusOK, wantID: "organizer-42"},
		{name: "scheme is case insensitive", header: "bearer recruiter-jwt", wantStatus: http.StatusOK, wantID: "organizer-42"},
		{name: "no header", wantStatus: http.StatusUnauthorized, wantMessage: "missing authorization header"},
		{name: "basic auth", header: "Basic cmVjcnVpdGVyOnB3", wantStatus: http.StatusUnauthorized, wantMessage: "invalid authorization format"},
		{name: "bearer without token", header: "Bearer   ", wantStatus: http.StatusUnauthorized, wantMessage: "missing token"},
		{name: "participant booking token is not an organizer token", header: "Bearer 9f2c0d", wantStatus: http.StatusUnauthorized, wantMessage: "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			reached := false
			handler := RequireAuth(verifier, logger)(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				gotID, _ = OrganizerIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/meetings/m-1/open", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, reached)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantID, gotID)
				return
			}
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, helpers.ErrCodeUnauthorized, envelope.Error.Code)
			assert.Equal(t, tt.wantMessage, envelope.Error.Message)
		})
	}
}

func TestOrganizerIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/meetings", nil)
	_, ok := OrganizerIDFromContext(req.Context())
	assert.False(t, ok)

	_, ok = OrganizerIDFromContext(WithOrganizerID(req.Context(), ""))
	assert.False(t, ok, "an empty organizer is not authenticated")

	id, ok := OrganizerIDFromContext(WithOrganizerID(req.Context(), "organizer-7"))
	assert.True(t, ok)
	assert.Equal(t, "organizer-7", id)
}
