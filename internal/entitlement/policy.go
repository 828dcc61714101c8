// Package entitlement decides whether a device may start another guided reset.
// The decision combines the device's local daily count, the account's
// subscription state, and a configurable operator allow-list.
package entitlement

import (
	"strings"
	"time"

	"github.com/getresett/resett/internal/model"
)

// DailyFreeLimit is the number of free sessions per local calendar day.
const DailyFreeLimit = 3

// unlimitedSessions is the remaining-sessions sentinel reported for
// allow-listed identities. Server-subscribed accounts intentionally do not get
// it; their remaining count still follows the quota formula even though access
// is never blocked. Product has confirmed that asymmetry is intended.
const unlimitedSessions = 999

// Identity is the snapshot of the current user the engine evaluates against.
// Both fields may be empty for anonymous visitors.
type Identity struct {
	Email              string `json:"email"`
	SubscriptionStatus string `json:"subscription_status"`
}

// Decision is the access ruling exposed to the UI. It is derived, never stored.
type Decision struct {
	DailyCount        int    `json:"daily_count"`
	CanAccess         bool   `json:"can_access"`
	IsSubscribed      bool   `json:"is_subscribed"`
	RemainingSessions int    `json:"remaining_sessions"`
	ResetTime         string `json:"reset_time"`
	TotalLimit        int    `json:"total_limit"`
}

// AllowList is a set of identities exempt from quota enforcement.
type AllowList map[string]struct{}

// NewAllowList builds an allow-list from email addresses, normalizing each to
// lower case and dropping empties.
func NewAllowList(emails ...string) AllowList {
	al := make(AllowList, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			al[e] = struct{}{}
		}
	}
	return al
}

// Contains reports whether the normalized email is allow-listed.
func (a AllowList) Contains(email string) bool {
	_, ok := a[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// StatusSubscribed reports whether a subscription status string counts as a
// paid entitlement. Anything other than active or trialing, including the
// empty string, does not.
func StatusSubscribed(status string) bool {
	switch status {
	case model.SubscriptionStatusActive, model.SubscriptionStatusTrialing:
		return true
	}
	return false
}

// Engine computes access decisions. It holds only the injected allow-list;
// everything else arrives as explicit inputs, so Evaluate stays a pure
// function.
type Engine struct {
	allowList AllowList
}

func NewEngine(allowList AllowList) *Engine {
	if allowList == nil {
		allowList = AllowList{}
	}
	return &Engine{allowList: allowList}
}

// Evaluate computes the access decision from the identity snapshot, the
// device's local count for today, and the server-resolved subscription flag.
// It performs no I/O. Every input has a defined default: absent email reads
// as "", an absent count as 0, an unresolved subscription as false.
//
// The evaluation order is fixed for auditability: normalize email, check the
// allow-list, fold in the server flag, gate on the count, then derive the
// remaining-session figure and reset time.
func (e *Engine) Evaluate(identity Identity, localCount int, subscribedFromServer bool, now time.Time) Decision {
	if localCount < 0 {
		localCount = 0
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	hasUnlimitedAccess := e.allowList.Contains(email)
	isSubscribed := subscribedFromServer || hasUnlimitedAccess
	canAccess := isSubscribed || localCount < DailyFreeLimit

	remaining := DailyFreeLimit - localCount
	if remaining < 0 {
		remaining = 0
	}
	if hasUnlimitedAccess {
		remaining = unlimitedSessions
	}

	return Decision{
		DailyCount:        localCount,
		CanAccess:         canAccess,
		IsSubscribed:      isSubscribed,
		RemainingSessions: remaining,
		ResetTime:         nextResetTime(now),
		TotalLimit:        DailyFreeLimit,
	}
}

// nextResetTime formats the next local midnight as a short clock time. The
// count always resets at midnight of the device's calendar day.
func nextResetTime(now time.Time) string {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day+1, 0, 0, 0, 0, now.Location())
	return midnight.Format("3:04 PM")
}
