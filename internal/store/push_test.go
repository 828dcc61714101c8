package store

import (
	"testing"

	"github.com/getresett/resett/internal/database"
)

func setupPushTestDB(t *testing.T) *PushStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db)
}

func TestPushCreateSubscription(t *testing.T) {
	s := setupPushTestDB(t)

	sub, err := s.CreateSubscription("dev-1", "https://push.example/ep1", "p256", "auth", "America/New_York")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub == nil {
		t.Fatal("expected subscription")
	}
	if sub.DeviceID != "dev-1" {
		t.Errorf("device_id = %q, want %q", sub.DeviceID, "dev-1")
	}
	if sub.LastResetKey != "" {
		t.Errorf("last_reset_key = %q, want empty", sub.LastResetKey)
	}
}

func TestPushResubscribeRefreshesKeys(t *testing.T) {
	s := setupPushTestDB(t)

	s.CreateSubscription("dev-1", "https://push.example/ep1", "old", "old", "UTC")
	sub, err := s.CreateSubscription("dev-1", "https://push.example/ep1", "new", "new", "Europe/London")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if sub.P256dhKey != "new" {
		t.Errorf("p256dh = %q, want refreshed %q", sub.P256dhKey, "new")
	}
	if sub.Timezone != "Europe/London" {
		t.Errorf("timezone = %q, want %q", sub.Timezone, "Europe/London")
	}

	subs, _ := s.List()
	if len(subs) != 1 {
		t.Errorf("len = %d, want 1 (endpoint unique)", len(subs))
	}
}

func TestPushMarkNotified(t *testing.T) {
	s := setupPushTestDB(t)

	sub, _ := s.CreateSubscription("dev-1", "https://push.example/ep1", "p", "a", "UTC")
	if err := s.MarkNotified(sub.ID, "2024-05-01"); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	got, _ := s.GetByEndpoint(sub.Endpoint)
	if got.LastResetKey != "2024-05-01" {
		t.Errorf("last_reset_key = %q, want %q", got.LastResetKey, "2024-05-01")
	}
}

func TestPushDeleteByEndpoint(t *testing.T) {
	s := setupPushTestDB(t)

	sub, _ := s.CreateSubscription("dev-1", "https://push.example/ep1", "p", "a", "UTC")
	if err := s.DeleteByEndpoint(sub.Endpoint); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := s.GetByEndpoint(sub.Endpoint)
	if got != nil {
		t.Error("expected nil after delete")
	}
}
