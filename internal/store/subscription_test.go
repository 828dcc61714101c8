package store

import (
	"testing"

	"github.com/getresett/resett/internal/database"
	"github.com/getresett/resett/internal/model"
)

func setupSubscriptionTestDB(t *testing.T) (*SubscriptionStore, *AccountStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionStore(db), NewAccountStore(db)
}

func TestSubscriptionCreate(t *testing.T) {
	ss, as := setupSubscriptionTestDB(t)

	a, _ := as.Create("maya@example.com")
	sub, err := ss.Create(a.ID, "monthly")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.AccountID != a.ID {
		t.Errorf("account_id = %d, want %d", sub.AccountID, a.ID)
	}
	if sub.Plan != "monthly" {
		t.Errorf("plan = %q, want %q", sub.Plan, "monthly")
	}
	if sub.Status != model.SubscriptionStatusActive {
		t.Errorf("status = %q, want %q", sub.Status, model.SubscriptionStatusActive)
	}
}

func TestSubscriptionGetByAccountIDLatest(t *testing.T) {
	ss, as := setupSubscriptionTestDB(t)

	a, _ := as.Create("maya@example.com")
	ss.Create(a.ID, "monthly")
	second, _ := ss.Create(a.ID, "annual")

	sub, err := ss.GetByAccountID(a.ID)
	if err != nil {
		t.Fatalf("get by account id: %v", err)
	}
	if sub == nil {
		t.Fatal("expected subscription, got nil")
	}
	if sub.ID != second.ID {
		t.Errorf("id = %d, want latest %d", sub.ID, second.ID)
	}
}

func TestSubscriptionGetByAccountIDNone(t *testing.T) {
	ss, as := setupSubscriptionTestDB(t)

	a, _ := as.Create("maya@example.com")
	sub, err := ss.GetByAccountID(a.ID)
	if err != nil {
		t.Fatalf("get by account id: %v", err)
	}
	if sub != nil {
		t.Error("expected nil for account without subscription")
	}
}

func TestSubscriptionUpdateStatus(t *testing.T) {
	ss, as := setupSubscriptionTestDB(t)

	a, _ := as.Create("maya@example.com")
	created, _ := ss.Create(a.ID, "monthly")

	if err := ss.UpdateStatus(created.ID, model.SubscriptionStatusTrialing); err != nil {
		t.Fatalf("update status: %v", err)
	}

	sub, _ := ss.GetByID(created.ID)
	if sub.Status != model.SubscriptionStatusTrialing {
		t.Errorf("status = %q, want %q", sub.Status, model.SubscriptionStatusTrialing)
	}
}

func TestSubscriptionGetByStripeID(t *testing.T) {
	ss, as := setupSubscriptionTestDB(t)

	a, _ := as.Create("maya@example.com")
	created, _ := ss.Create(a.ID, "monthly")
	ss.UpdateStripeID(created.ID, "sub_123")

	sub, err := ss.GetByStripeID("sub_123")
	if err != nil {
		t.Fatalf("get by stripe id: %v", err)
	}
	if sub == nil {
		t.Fatal("expected subscription, got nil")
	}
	if sub.ID != created.ID {
		t.Errorf("id = %d, want %d", sub.ID, created.ID)
	}
}

func TestSubscriptionSetCancelAtPeriodEnd(t *testing.T) {
	ss, as := setupSubscriptionTestDB(t)

	a, _ := as.Create("maya@example.com")
	created, _ := ss.Create(a.ID, "monthly")

	if err := ss.SetCancelAtPeriodEnd(created.ID, true); err != nil {
		t.Fatalf("set cancel: %v", err)
	}

	sub, _ := ss.GetByID(created.ID)
	if !sub.CancelAtPeriodEnd {
		t.Error("expected cancel_at_period_end = true")
	}
}

func TestSubscriptionDelete(t *testing.T) {
	ss, as := setupSubscriptionTestDB(t)

	a, _ := as.Create("maya@example.com")
	created, _ := ss.Create(a.ID, "monthly")

	if err := ss.Delete(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	sub, err := ss.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if sub != nil {
		t.Error("expected nil after delete")
	}
}
