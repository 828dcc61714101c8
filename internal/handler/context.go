package handler

import (
	"context"
	"time"
)

type accountKey struct{}

// WithAccountID stores the authenticated account ID in the context.
func WithAccountID(ctx context.Context, accountID int64) context.Context {
	return context.WithValue(ctx, accountKey{}, accountID)
}

// AccountIDFromContext retrieves the account ID, or 0 for anonymous visitors.
func AccountIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(accountKey{}).(int64)
	return id
}

// Device identifies the browser the request came from, independent of login
// state. Location is the device's timezone, used to key its usage counter by
// its own calendar day.
type Device struct {
	ID       string
	Location *time.Location
}

type deviceKey struct{}

// WithDevice stores the device identity in the context.
func WithDevice(ctx context.Context, d Device) context.Context {
	return context.WithValue(ctx, deviceKey{}, d)
}

// DeviceFromContext retrieves the device identity. The boolean is false if
// the device middleware did not run.
func DeviceFromContext(ctx context.Context) (Device, bool) {
	d, ok := ctx.Value(deviceKey{}).(Device)
	return d, ok
}
