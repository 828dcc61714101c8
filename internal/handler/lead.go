package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/getresett/resett/internal/email"
	"github.com/getresett/resett/internal/store"
)

// LeadHandler captures emails from the landing and pricing pages.
type LeadHandler struct {
	leadStore   *store.LeadStore
	emailClient *email.Client
	logger      *slog.Logger
}

func NewLeadHandler(ls *store.LeadStore, ec *email.Client, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		leadStore:   ls,
		emailClient: ec,
		logger:      logger,
	}
}

// Capture records a lead. Duplicates succeed quietly so the form never tells
// a visitor their email is already known.
func (h *LeadHandler) Capture(w http.ResponseWriter, r *http.Request) {
	addr, source, ok := readLead(r)
	if !ok {
		http.Error(w, "valid email required", http.StatusBadRequest)
		return
	}

	if err := h.leadStore.Create(addr, source); err != nil {
		h.logger.Error("create lead", "error", err)
		http.Error(w, "unable to process request", http.StatusInternalServerError)
		return
	}

	if h.emailClient != nil && h.emailClient.Configured() {
		if err := h.emailClient.SendLeadWelcome(addr); err != nil {
			h.logger.Warn("send lead welcome", "error", err)
		}
	}

	h.logger.Info("lead captured", "email", addr, "source", source)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func readLead(r *http.Request) (addr, source string, ok bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Email  string `json:"email"`
			Source string `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", "", false
		}
		addr, source = body.Email, body.Source
	} else {
		if err := r.ParseForm(); err != nil {
			return "", "", false
		}
		addr, source = r.FormValue("email"), r.FormValue("source")
	}

	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", "", false
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return "", "", false
	}
	return addr, source, true
}
