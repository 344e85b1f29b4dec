package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "interviewdesk/internal/delivery/http/helpers"
	"interviewdesk/internal/domain"
)

type contextKey string

const organizerIDKey contextKey = "organizerID"

var (
	errMissingHeader = errors.New("missing authorization header")
	errNotBearer     = errors.New("invalid authorization format")
	errEmptyToken    = errors.New("missing token")
)

// WithOrganizerID returns a context carrying the authenticated organizer's user ID.
func WithOrganizerID(ctx context.Context, organizerID string) context.Context {
	return context.WithValue(ctx, organizerIDKey, organizerID)
}

// OrganizerIDFromContext returns the organizer set by RequireAuth.
func OrganizerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(organizerIDKey).(string)
	return id, ok && id != ""
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

// RequireAuth guards organizer routes. Meeting and booking management is only reachable with a
// valid Bearer token; participants use the /public routes instead.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, err.Error())
				return
			}
			organizerID, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "organizer token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			next(w, r.WithContext(WithOrganizerID(r.Context(), organizerID)))
		}
	}
}
