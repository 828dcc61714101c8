package handler

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/getresett/resett/internal/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// withTestDevice attaches a device identity the way the middleware would.
func withTestDevice(r *http.Request, deviceID string) *http.Request {
	return r.WithContext(WithDevice(r.Context(), Device{
		ID:       deviceID,
		Location: time.UTC,
	}))
}

func withTestAccount(r *http.Request, accountID int64) *http.Request {
	return r.WithContext(WithAccountID(r.Context(), accountID))
}
