package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getresett/resett/internal/handler"
	"github.com/getresett/resett/internal/store"
)

const (
	// SessionCookieName carries the auth session token.
	SessionCookieName = "resett_session"
	// DeviceCookieName carries the anonymous device ID the usage counter is
	// scoped to. It exists whether or not the visitor ever signs in.
	DeviceCookieName = "resett_device"
	// TimezoneHeader is set by the client with its IANA zone name so the
	// server can key usage by the device's calendar day, not the server's.
	TimezoneHeader = "X-Timezone"
)

// RequireAuth validates the session cookie and populates the account ID in
// context. API requests get a 401; page requests are sent to the login form.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := sessionAccountID(r, sessionStore)
			if accountID == 0 {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					http.Error(w, "authentication required", http.StatusUnauthorized)
				} else {
					http.Redirect(w, r, "/login", http.StatusSeeOther)
				}
				return
			}
			ctx := handler.WithAccountID(r.Context(), accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the account ID when a valid session cookie is
// present and lets the request through either way. The usage endpoints run
// behind this: anonymous devices still get a quota decision.
func OptionalAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if accountID := sessionAccountID(r, sessionStore); accountID != 0 {
				r = r.WithContext(handler.WithAccountID(r.Context(), accountID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionAccountID(r *http.Request, sessionStore *store.SessionStore) int64 {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return 0
	}
	sess, err := sessionStore.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		return 0
	}
	return sess.AccountID
}

// DeviceIdentity assigns every visitor a stable device ID cookie and resolves
// the device's timezone from the X-Timezone header. Unknown or missing zones
// fall back to the server's local zone (never UTC, to keep date keys aligned
// with a wall-clock).
func DeviceIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := ""
		if cookie, err := r.Cookie(DeviceCookieName); err == nil {
			deviceID = cookie.Value
		}
		if deviceID == "" {
			deviceID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     DeviceCookieName,
				Value:    deviceID,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		loc := time.Local
		if name := r.Header.Get(TimezoneHeader); name != "" {
			if parsed, err := time.LoadLocation(name); err == nil {
				loc = parsed
			}
		}

		ctx := handler.WithDevice(r.Context(), handler.Device{ID: deviceID, Location: loc})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
