package store

import (
	"testing"

	"github.com/getresett/resett/internal/database"
)

func setupAccountTestDB(t *testing.T) *AccountStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAccountStore(db)
}

func TestAccountCreate(t *testing.T) {
	s := setupAccountTestDB(t)

	a, err := s.Create("Maya@Example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Email != "maya@example.com" {
		t.Errorf("email = %q, want lower-cased %q", a.Email, "maya@example.com")
	}
	if a.StripeCustomerID != nil {
		t.Error("expected nil stripe customer id on new account")
	}
}

func TestAccountGetByEmail(t *testing.T) {
	s := setupAccountTestDB(t)

	created, _ := s.Create("maya@example.com")

	a, err := s.GetByEmail("MAYA@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if a == nil {
		t.Fatal("expected account, got nil")
	}
	if a.ID != created.ID {
		t.Errorf("id = %d, want %d", a.ID, created.ID)
	}
}

func TestAccountGetByEmailNotFound(t *testing.T) {
	s := setupAccountTestDB(t)

	a, err := s.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if a != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestAccountUpdateStripeCustomerID(t *testing.T) {
	s := setupAccountTestDB(t)

	created, _ := s.Create("maya@example.com")
	if err := s.UpdateStripeCustomerID(created.ID, "cus_123"); err != nil {
		t.Fatalf("update stripe customer id: %v", err)
	}

	a, _ := s.GetByStripeCustomerID("cus_123")
	if a == nil {
		t.Fatal("expected account by stripe customer id")
	}
	if a.ID != created.ID {
		t.Errorf("id = %d, want %d", a.ID, created.ID)
	}
}

func TestAccountDelete(t *testing.T) {
	s := setupAccountTestDB(t)

	created, _ := s.Create("maya@example.com")
	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	a, err := s.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if a != nil {
		t.Error("expected nil after delete")
	}
}
