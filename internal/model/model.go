package model

import "time"

// Subscription status values we treat as an active paid entitlement.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

type Account struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	StripeCustomerID *string   `json:"stripe_customer_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Subscription struct {
	ID                   int64      `json:"id"`
	AccountID            int64      `json:"account_id"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	AccountID int64     `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Lead struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageRecord mirrors one entry of a device's local usage storage:
// record_key is "session_count_<YYYY-MM-DD>" for the device's local calendar
// day and record_value is a base-10 integer string.
type UsageRecord struct {
	DeviceID  string    `json:"device_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PushSubscription struct {
	ID           int64     `json:"id"`
	DeviceID     string    `json:"device_id"`
	Endpoint     string    `json:"endpoint"`
	P256dhKey    string    `json:"p256dh_key"`
	AuthKey      string    `json:"auth_key"`
	Timezone     string    `json:"timezone"`
	LastResetKey string    `json:"last_reset_key"`
	CreatedAt    time.Time `json:"created_at"`
}
