package handler

import (
	"log/slog"
	"net/http"

	"github.com/getresett/resett/internal/store"
)

// AccountHandler serves the identity snapshot the UI (and the entitlement
// evaluation on the client) reads: the signed-in email and current
// subscription status.
type AccountHandler struct {
	accountStore      *store.AccountStore
	subscriptionStore *store.SubscriptionStore
	logger            *slog.Logger
}

func NewAccountHandler(as *store.AccountStore, ss *store.SubscriptionStore, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountStore:      as,
		subscriptionStore: ss,
		logger:            logger,
	}
}

type meResponse struct {
	Email              string `json:"email"`
	SubscriptionStatus string `json:"subscription_status,omitempty"`
}

// Me returns the current identity snapshot. Requires auth.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	account, err := h.accountStore.GetByID(accountID)
	if err != nil {
		h.logger.Error("get account", "account_id", accountID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}

	resp := meResponse{Email: account.Email}
	sub, err := h.subscriptionStore.GetByAccountID(accountID)
	if err != nil {
		// Status stays empty; the client treats that as not subscribed.
		h.logger.Warn("get subscription", "account_id", accountID, "error", err)
	} else if sub != nil {
		resp.SubscriptionStatus = sub.Status
	}

	writeJSON(w, http.StatusOK, resp)
}
