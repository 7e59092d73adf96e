package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pliu/newsportal/internal/auth"
	"github.com/rs/zerolog"
)

type contextKey string

const ProfileIDKey contextKey = "profile_id"

// CookieName holds the signed browser profile id.
const CookieName = "profile_id"

const cookieMaxAge = 365 * 24 * time.Hour

// ProfileIDFromContext returns the profile id set by Profile.
func ProfileIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ProfileIDKey).(string)
	return id, ok && id != ""
}

// WithProfileID is used by tests and the websocket upgrade path.
func WithProfileID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ProfileIDKey, id)
}

// Profile resolves the browser profile from its signed cookie. A missing or
// tampered cookie starts a fresh profile and sets a new cookie.
func Profile(signer *auth.Signer, log *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(CookieName); err == nil {
				v, err := signer.Verify(cookie.Value)
				if err == nil && uuid.Validate(v) == nil {
					id = v
				} else {
					log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("discarding profile cookie")
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    signer.Sign(id),
					Path:     "/",
					MaxAge:   int(cookieMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithProfileID(r.Context(), id)))
		})
	}
}
