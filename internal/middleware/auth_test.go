package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getresett/resett/internal/database"
	"github.com/getresett/resett/internal/handler"
	"github.com/getresett/resett/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, *store.AccountStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewAccountStore(db)
}

func TestRequireAuthAPIUnauthorized(t *testing.T) {
	ss, _ := setupAuthTest(t)
	h := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthPageRedirects(t *testing.T) {
	ss, _ := setupAuthTest(t)
	h := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/account", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("location = %q, want /login", loc)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	ss, as := setupAuthTest(t)
	a, _ := as.Create("maya@example.com")
	sess, _ := ss.Create(a.ID)

	var gotAccountID int64
	h := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccountID = handler.AccountIDFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotAccountID != a.ID {
		t.Errorf("account id = %d, want %d", gotAccountID, a.ID)
	}
}

func TestOptionalAuthAnonymous(t *testing.T) {
	ss, _ := setupAuthTest(t)

	var gotAccountID int64 = -1
	h := OptionalAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccountID = handler.AccountIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotAccountID != 0 {
		t.Errorf("account id = %d, want 0 for anonymous", gotAccountID)
	}
}

func TestDeviceIdentityAssignsCookie(t *testing.T) {
	var got handler.Device
	h := DeviceIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handler.DeviceFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage", nil))

	if got.ID == "" {
		t.Fatal("expected device id in context")
	}
	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == DeviceCookieName && c.Value == got.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected device cookie to be set")
	}
}

func TestDeviceIdentityReusesCookie(t *testing.T) {
	var got handler.Device
	h := DeviceIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handler.DeviceFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "dev-existing"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got.ID != "dev-existing" {
		t.Errorf("device id = %q, want %q", got.ID, "dev-existing")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("existing device should not get a new cookie")
	}
}

func TestDeviceIdentityTimezone(t *testing.T) {
	var got handler.Device
	h := DeviceIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handler.DeviceFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.Header.Set(TimezoneHeader, "America/New_York")
	h.ServeHTTP(httptest.NewRecorder(), req)

	want, _ := time.LoadLocation("America/New_York")
	if got.Location.String() != want.String() {
		t.Errorf("location = %v, want %v", got.Location, want)
	}
}

func TestDeviceIdentityBadTimezoneFallsBack(t *testing.T) {
	var got handler.Device
	h := DeviceIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = handler.DeviceFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.Header.Set(TimezoneHeader, "Not/AZone")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.Location != time.Local {
		t.Errorf("location = %v, want server local", got.Location)
	}
}
