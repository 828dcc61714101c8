package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UsageStore persists per-device usage records as a small key-value namespace,
// mirroring the record shape the web client keeps in its own local storage:
// keys like "session_count_2024-05-01" with base-10 integer string values.
type UsageStore struct {
	db *sql.DB
}

func NewUsageStore(db *sql.DB) *UsageStore {
	return &UsageStore{db: db}
}

// Get returns the stored value for the device's key. The second return is
// false when no record exists.
func (s *UsageStore) Get(deviceID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT record_value FROM usage_records WHERE device_id = ? AND record_key = ?`,
		deviceID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get usage record: %w", err)
	}
	return value, true, nil
}

// Put upserts the value for the device's key. Concurrent writers race with
// last-writer-wins semantics, matching the client-side storage model.
func (s *UsageStore) Put(deviceID, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO usage_records (device_id, record_key, record_value, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(device_id, record_key) DO UPDATE SET record_value = excluded.record_value, updated_at = CURRENT_TIMESTAMP`,
		deviceID, key, value,
	)
	if err != nil {
		return fmt.Errorf("put usage record: %w", err)
	}
	return nil
}

// Keys returns all record keys stored for the device.
func (s *UsageStore) Keys(deviceID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT record_key FROM usage_records WHERE device_id = ? ORDER BY record_key ASC`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list usage keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan usage key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete removes the device's record for the key. Missing records are not an error.
func (s *UsageStore) Delete(deviceID, key string) error {
	_, err := s.db.Exec(
		`DELETE FROM usage_records WHERE device_id = ? AND record_key = ?`,
		deviceID, key,
	)
	if err != nil {
		return fmt.Errorf("delete usage record: %w", err)
	}
	return nil
}

// DeleteStale removes records across all devices not touched since the cutoff.
// Used by the hourly cleanup loop as a backstop to the per-device sweep; the
// cutoff is generous (days, not hours) because each device's "today" depends on
// its own timezone.
func (s *UsageStore) DeleteStale(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM usage_records WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete stale usage records: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
