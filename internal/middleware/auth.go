package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/radif/media/internal/auth"
	"github.com/radif/media/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// SubjectKey is the context key for the authenticated token subject.
const SubjectKey contextKey = "subject"

// RequireAuth returns middleware that validates a Bearer JWT and injects its
// subject into the request context. A header without a token after the
// scheme is rejected with 401, an unusable token with 400.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				response.Unauthorized(w, "Access denied")
				return
			}

			scheme, raw, _ := strings.Cut(authHeader, " ")
			raw = strings.TrimSpace(raw)
			if raw == "" {
				response.Unauthorized(w, "Access denied")
				return
			}
			if !strings.EqualFold(scheme, "Bearer") {
				response.BadRequest(w, "Invalid token")
				return
			}

			subject, err := auth.Parse(jwtSecret, raw)
			if err != nil {
				zerolog.Ctx(r.Context()).Info().Err(err).Msg("token rejected")
				response.BadRequest(w, "Invalid token")
				return
			}

			logger := zerolog.Ctx(r.Context()).With().Str("subject", subject).Logger()
			ctx := context.WithValue(logger.WithContext(r.Context()), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated subject stored by RequireAuth, if any.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(SubjectKey).(string)
	return s
}
