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

const sessionCookie = "resett_session"

type AuthHandler struct {
	accountStore *store.AccountStore
	sessionStore *store.SessionStore
	emailClient  *email.Client
	logger       *slog.Logger
}

func NewAuthHandler(as *store.AccountStore, ss *store.SessionStore, ec *email.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accountStore: as,
		sessionStore: ss,
		emailClient:  ec,
		logger:       logger,
	}
}

// Login handles the magic link request. The response is identical for new and
// existing accounts to prevent user enumeration.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	addr, ok := readEmail(r)
	if !ok {
		http.Error(w, "valid email required", http.StatusBadRequest)
		return
	}

	account, err := h.accountStore.GetByEmail(addr)
	if err != nil {
		h.logger.Error("get account", "error", err)
	}
	if account == nil {
		account, err = h.accountStore.Create(addr)
		if err != nil {
			h.logger.Error("create account", "error", err)
			http.Error(w, "unable to process request", http.StatusInternalServerError)
			return
		}
	}

	sess, err := h.sessionStore.Create(account.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		http.Error(w, "unable to process request", http.StatusInternalServerError)
		return
	}

	if h.emailClient != nil && h.emailClient.Configured() {
		if err := h.emailClient.SendMagicLink(addr, sess.Token); err != nil {
			h.logger.Error("send magic link", "error", err)
		}
	} else {
		h.logger.Info("magic link token generated", "email", addr, "token", sess.Token)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// Verify processes the magic link token and sets the session cookie.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/login?error=invalid", http.StatusSeeOther)
		return
	}

	sess, err := h.sessionStore.GetByToken(token)
	if err != nil || sess == nil {
		http.Redirect(w, r, "/login?error=invalid", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(store.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookie)
	if err == nil && cookie.Value != "" {
		sess, err := h.sessionStore.GetByToken(cookie.Value)
		if err == nil && sess != nil {
			if err := h.sessionStore.Delete(sess.ID); err != nil {
				h.logger.Error("delete session", "error", err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readEmail accepts either a JSON body {"email": ...} or a form field, and
// validates the address.
func readEmail(r *http.Request) (string, bool) {
	var addr string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", false
		}
		addr = body.Email
	} else {
		if err := r.ParseForm(); err != nil {
			return "", false
		}
		addr = r.FormValue("email")
	}

	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", false
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return "", false
	}
	return addr, true
}
