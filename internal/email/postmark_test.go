package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendMagicLink(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "hello@getresett.com", "https://getresett.test", WithAPIURL(server.URL))

	if err := client.SendMagicLink("maya@example.com", "abc123"); err != nil {
		t.Fatalf("send magic link: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "maya@example.com" {
		t.Errorf("To = %q, want %q", received.To, "maya@example.com")
	}
	if received.Subject != "Sign in to Resett" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "https://getresett.test/auth/verify?token=abc123") {
		t.Errorf("TextBody missing verify link: %q", received.TextBody)
	}
}

func TestSendLeadWelcome(t *testing.T) {
	var received postmarkEmail

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "hello@getresett.com", "https://getresett.test", WithAPIURL(server.URL))

	if err := client.SendLeadWelcome("maya@example.com"); err != nil {
		t.Fatalf("send lead welcome: %v", err)
	}
	if received.Subject != "Welcome to Resett" {
		t.Errorf("Subject = %q", received.Subject)
	}
}

func TestSendNotConfigured(t *testing.T) {
	client := NewClient("", "hello@getresett.com", "https://getresett.test")

	if err := client.SendMagicLink("maya@example.com", "abc123"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "hello@getresett.com", "https://getresett.test", WithAPIURL(server.URL))
	if err := client.SendMagicLink("maya@example.com", "abc123"); err == nil {
		t.Fatal("expected error for API failure")
	}
}
