package store

import (
	"database/sql"
	"fmt"

	"github.com/getresett/resett/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, device_id, endpoint, p256dh_key, auth_key, timezone, last_reset_key, created_at`

func scanPushSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(
		&sub.ID, &sub.DeviceID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey,
		&sub.Timezone, &sub.LastResetKey, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription registers a push endpoint for a device. Re-subscribing an
// existing endpoint refreshes its keys and timezone.
func (s *PushStore) CreateSubscription(deviceID, endpoint, p256dh, auth, timezone string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (device_id, endpoint, p256dh_key, auth_key, timezone)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET device_id = excluded.device_id, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, timezone = excluded.timezone`,
		deviceID, endpoint, p256dh, auth, timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	return s.GetByEndpoint(endpoint)
}

func (s *PushStore) GetByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanPushSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return sub, nil
}

// List returns all push subscriptions. The reminder scheduler iterates these.
func (s *PushStore) List() ([]model.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT ` + pushCols + ` FROM push_subscriptions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanPushSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// MarkNotified records the date key of the last quota-reset reminder sent to
// the subscription, preventing duplicate sends within one local day.
func (s *PushStore) MarkNotified(id int64, resetKey string) error {
	_, err := s.db.Exec(
		`UPDATE push_subscriptions SET last_reset_key = ? WHERE id = ?`,
		resetKey, id,
	)
	if err != nil {
		return fmt.Errorf("mark push notified: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription, typically after the push service
// reports it gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByDevice(deviceID string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE device_id = ?`, deviceID)
	if err != nil {
		return fmt.Errorf("delete push subscriptions by device: %w", err)
	}
	return nil
}
