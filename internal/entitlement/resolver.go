package entitlement

import (
	"log/slog"

	"github.com/getresett/resett/internal/model"
)

// SubscriptionReader is the slice of the subscription store the resolver needs.
type SubscriptionReader interface {
	GetByAccountID(accountID int64) (*model.Subscription, error)
}

// Resolver derives the server-side subscription flag for an account. It only
// reads; billing webhooks own the underlying record.
type Resolver struct {
	subs   SubscriptionReader
	logger *slog.Logger
}

func NewResolver(subs SubscriptionReader, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{subs: subs, logger: logger}
}

// Resolve reports whether the account holds a paid entitlement. Anonymous
// visitors (accountID 0) resolve to false without touching the store, and any
// store failure also resolves to false: uncertainty closes toward the free
// tier, never toward unlimited access.
func (r *Resolver) Resolve(accountID int64) bool {
	if accountID == 0 {
		return false
	}
	sub, err := r.subs.GetByAccountID(accountID)
	if err != nil {
		r.logger.Warn("resolve subscription", "account_id", accountID, "error", err)
		return false
	}
	if sub == nil {
		return false
	}
	return StatusSubscribed(sub.Status)
}
