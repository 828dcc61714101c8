// Package usage tracks how many reset sessions a device has consumed on its
// current local calendar day. It mirrors the bookkeeping the web client keeps
// in browser storage: one record per day under "session_count_<YYYY-MM-DD>",
// valued as a base-10 integer string.
package usage

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// KeyPrefix namespaces counter records within a device's key-value store.
const KeyPrefix = "session_count_"

// Store is the persistent key-value surface the counter reads and writes.
// Implementations are scoped to a single device.
type Store interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Keys() ([]string, error)
	Delete(key string) error
}

// Counter is a per-device, per-day session counter.
//
// All operations fail soft: a missing or unparsable record reads as zero, and
// if the backing store becomes unavailable the counter degrades to an
// in-memory record that lives only as long as the process. Increments are
// read-modify-write with no cross-writer locking; concurrent tabs race with
// last-writer-wins semantics, which is the accepted model.
type Counter struct {
	mu       sync.Mutex
	store    Store
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
	fallback *MemoryStore
	degraded bool
}

// Option configures a Counter.
type Option func(*Counter)

// WithClock overrides the wall-clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Counter) {
		c.now = now
	}
}

// WithFallback supplies the in-memory store adopted if the primary store
// fails. Callers that build a counter per request share one fallback per
// device so the degraded count survives between requests.
func WithFallback(m *MemoryStore) Option {
	return func(c *Counter) {
		c.fallback = m
	}
}

// NewCounter creates a counter over the given store, keyed by the wall-clock
// in loc. A nil loc falls back to the server's local zone; the counter never
// keys by UTC, so users near midnight in other zones don't lose or gain a day.
func NewCounter(s Store, loc *time.Location, logger *slog.Logger, opts ...Option) *Counter {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Counter{
		store:  s,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DateKey formats t's calendar date as YYYY-MM-DD (zero-padded, 1-indexed month).
func DateKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// TodayKey returns the full record key for the current local calendar day.
func (c *Counter) TodayKey() string {
	return KeyPrefix + DateKey(c.now().In(c.loc))
}

// Load returns today's session count. Absent or unparsable records read as 0.
func (c *Counter) Load() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(c.TodayKey())
}

func (c *Counter) load(key string) int {
	value, ok, err := c.active().Get(key)
	if err != nil {
		c.degrade("read usage record", err)
		value, ok, _ = c.active().Get(key)
	}
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Increment adds one session to today's count and returns the new value.
func (c *Counter) Increment() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.TodayKey()
	n := c.load(key) + 1
	if err := c.active().Put(key, strconv.Itoa(n)); err != nil {
		c.degrade("write usage record", err)
		_ = c.active().Put(key, strconv.Itoa(n))
	}
	return n
}

// SweepStale deletes every counter record whose date key is not today's.
// Meant to run once when a device first touches the counter; cross-day
// correctness of Load depends on it having completed.
func (c *Counter) SweepStale() {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.active().Keys()
	if err != nil {
		c.degrade("list usage records", err)
		return
	}
	today := c.TodayKey()
	for _, key := range keys {
		if !strings.HasPrefix(key, KeyPrefix) || key == today {
			continue
		}
		if err := c.active().Delete(key); err != nil {
			c.logger.Warn("sweep usage record", "key", key, "error", err)
		}
	}
}

// Degraded reports whether the counter has fallen back to in-memory records.
func (c *Counter) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Fallback returns the in-memory store the counter degraded to, or nil while
// the primary store is still in use.
func (c *Counter) Fallback() *MemoryStore {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.degraded {
		return nil
	}
	return c.fallback
}

func (c *Counter) active() Store {
	if c.degraded {
		return c.fallback
	}
	return c.store
}

func (c *Counter) degrade(op string, err error) {
	if c.degraded {
		return
	}
	c.logger.Warn("usage store unavailable, counting in memory", "op", op, "error", err)
	if c.fallback == nil {
		c.fallback = NewMemoryStore()
	}
	c.degraded = true
}
