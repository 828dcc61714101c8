package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getresett/resett/internal/entitlement"
	"github.com/getresett/resett/internal/store"
	"github.com/getresett/resett/internal/usage"
	"github.com/getresett/resett/internal/websocket"
)

// UsageHandler exposes the entitlement decision to the UI: how many sessions
// the device has used today, whether another may start, and when the count
// resets. Both endpoints work for anonymous visitors; a session cookie only
// adds the subscription and allow-list dimensions.
type UsageHandler struct {
	usageStore *store.UsageStore
	accounts   *store.AccountStore
	resolver   *entitlement.Resolver
	engine     *entitlement.Engine
	hub        *websocket.Hub
	logger     *slog.Logger

	// fallbacks holds the in-memory records of devices whose counter has
	// degraded, so the count keeps accumulating across requests while the
	// store is down instead of restarting at zero every request.
	mu        sync.Mutex
	fallbacks map[string]*usage.MemoryStore
}

func NewUsageHandler(
	us *store.UsageStore,
	as *store.AccountStore,
	resolver *entitlement.Resolver,
	engine *entitlement.Engine,
	hub *websocket.Hub,
	logger *slog.Logger,
) *UsageHandler {
	return &UsageHandler{
		usageStore: us,
		accounts:   as,
		resolver:   resolver,
		engine:     engine,
		hub:        hub,
		logger:     logger,
		fallbacks:  make(map[string]*usage.MemoryStore),
	}
}

// Status returns the current access decision for the requesting device.
// Stale records from previous days are swept before the count is read, so a
// day-old record never leaks into today's decision.
func (h *UsageHandler) Status(w http.ResponseWriter, r *http.Request) {
	device, ok := DeviceFromContext(r.Context())
	if !ok {
		http.Error(w, "unknown device", http.StatusBadRequest)
		return
	}

	counter := h.counter(device)
	counter.SweepStale()
	count := counter.Load()
	h.keepFallback(device, counter)
	decision := h.evaluate(r, device, count)

	writeJSON(w, http.StatusOK, decision)
}

// Increment records one completed session for the device and returns the
// refreshed decision. Other open tabs of the same device are notified over
// the websocket hub, since they can't observe the write directly.
func (h *UsageHandler) Increment(w http.ResponseWriter, r *http.Request) {
	device, ok := DeviceFromContext(r.Context())
	if !ok {
		http.Error(w, "unknown device", http.StatusBadRequest)
		return
	}

	counter := h.counter(device)
	newCount := counter.Increment()
	h.keepFallback(device, counter)
	decision := h.evaluate(r, device, newCount)

	if h.hub != nil {
		h.hub.Broadcast(device.ID, websocket.Message{Type: "usage_updated", Data: decision})
	}

	writeJSON(w, http.StatusOK, decision)
}

func (h *UsageHandler) counter(device Device) *usage.Counter {
	opts := []usage.Option{}
	h.mu.Lock()
	if fb, ok := h.fallbacks[device.ID]; ok {
		opts = append(opts, usage.WithFallback(fb))
	}
	h.mu.Unlock()
	return usage.NewCounter(usage.NewDeviceStore(h.usageStore, device.ID), device.Location, h.logger, opts...)
}

// keepFallback pins a degraded counter's in-memory records so the device's
// next request continues from the same count. Entries are kept even if the
// store later recovers; a flapping store must not reopen the quota gate.
func (h *UsageHandler) keepFallback(device Device, c *usage.Counter) {
	fb := c.Fallback()
	if fb == nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.fallbacks[device.ID]; !ok {
		h.fallbacks[device.ID] = fb
	}
	h.mu.Unlock()
}

func (h *UsageHandler) evaluate(r *http.Request, device Device, count int) entitlement.Decision {
	identity := h.identity(r)
	subscribed := h.resolver.Resolve(AccountIDFromContext(r.Context()))
	return h.engine.Evaluate(identity, count, subscribed, time.Now().In(device.Location))
}

func (h *UsageHandler) identity(r *http.Request) entitlement.Identity {
	accountID := AccountIDFromContext(r.Context())
	if accountID == 0 {
		return entitlement.Identity{}
	}
	account, err := h.accounts.GetByID(accountID)
	if err != nil {
		h.logger.Warn("load account for identity", "account_id", accountID, "error", err)
		return entitlement.Identity{}
	}
	if account == nil {
		return entitlement.Identity{}
	}
	return entitlement.Identity{Email: account.Email}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
