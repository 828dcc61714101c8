// Package server wires the stores, handlers, and middleware into one router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/getresett/resett/internal/config"
	"github.com/getresett/resett/internal/email"
	"github.com/getresett/resett/internal/entitlement"
	"github.com/getresett/resett/internal/handler"
	"github.com/getresett/resett/internal/middleware"
	"github.com/getresett/resett/internal/push"
	"github.com/getresett/resett/internal/store"
	resettstripe "github.com/getresett/resett/internal/stripe"
	"github.com/getresett/resett/internal/websocket"
)

type Server struct {
	db     *sql.DB
	cfg    config.Config
	logger *slog.Logger

	accountStore      *store.AccountStore
	subscriptionStore *store.SubscriptionStore
	sessionStore      *store.SessionStore
	leadStore         *store.LeadStore
	usageStore        *store.UsageStore
	pushStore         *store.PushStore

	hub         *websocket.Hub
	pushService *push.Service
	rateLimiter *middleware.RateLimiter

	usageH    *handler.UsageHandler
	authH     *handler.AuthHandler
	accountH  *handler.AccountHandler
	leadH     *handler.LeadHandler
	resetH    *handler.ResetHandler
	pushH     *handler.PushHandler
	webhookH  *handler.WebhookHandler
	checkoutH *handler.CheckoutHandler
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	accountStore := store.NewAccountStore(db)
	subscriptionStore := store.NewSubscriptionStore(db)
	sessionStore := store.NewSessionStore(db)
	leadStore := store.NewLeadStore(db)
	usageStore := store.NewUsageStore(db)
	pushStore := store.NewPushStore(db)

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL)
	hub := websocket.NewHub(logger.With("component", "ws"))

	engine := entitlement.NewEngine(entitlement.NewAllowList(cfg.AllowList...))
	resolver := entitlement.NewResolver(subscriptionStore, logger.With("component", "entitlement"))

	s := &Server{
		db:                db,
		cfg:               cfg,
		logger:            logger,
		accountStore:      accountStore,
		subscriptionStore: subscriptionStore,
		sessionStore:      sessionStore,
		leadStore:         leadStore,
		usageStore:        usageStore,
		pushStore:         pushStore,
		hub:               hub,
		rateLimiter:       middleware.NewRateLimiter(),
	}

	s.usageH = handler.NewUsageHandler(usageStore, accountStore, resolver, engine, hub, logger.With("component", "usage"))
	s.authH = handler.NewAuthHandler(accountStore, sessionStore, emailClient, logger.With("component", "auth"))
	s.accountH = handler.NewAccountHandler(accountStore, subscriptionStore, logger.With("component", "account"))
	s.leadH = handler.NewLeadHandler(leadStore, emailClient, logger.With("component", "lead"))
	s.resetH = handler.NewResetHandler()

	if cfg.Stripe.SecretKey != "" {
		stripeClient := resettstripe.NewClient(cfg.Stripe, cfg.BaseURL)
		s.webhookH = handler.NewWebhookHandler(stripeClient, accountStore, subscriptionStore, logger.With("component", "webhook"))
		s.checkoutH = handler.NewCheckoutHandler(stripeClient, accountStore)
	}

	if cfg.PushEnabled() {
		s.pushService = push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		s.pushH = handler.NewPushHandler(pushStore, s.pushService, logger.With("component", "push"))
	}

	return s
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// UsageStore returns the usage store for cleanup tasks.
func (s *Server) UsageStore() *store.UsageStore {
	return s.usageStore
}

// PushStore returns the push subscription store.
func (s *Server) PushStore() *store.PushStore {
	return s.pushStore
}

// PushService returns the web push sender, or nil when push is not configured.
func (s *Server) PushService() *push.Service {
	return s.pushService
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// Lead capture and login are the abuse magnets; both are rate-limited
	// by client IP.
	mux.HandleFunc("POST /api/leads", s.rateLimited(s.leadH.Capture))
	mux.HandleFunc("POST /auth/login", s.rateLimited(s.authH.Login))
	mux.HandleFunc("GET /auth/verify", s.authH.Verify)
	mux.HandleFunc("POST /auth/logout", s.authH.Logout)

	if s.webhookH != nil {
		mux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)
	}

	// Usage endpoints serve signed-out visitors too, so auth is optional but
	// device identity is required.
	deviceMw := middleware.DeviceIdentity
	optionalAuth := middleware.OptionalAuth(s.sessionStore)
	mux.Handle("GET /api/usage", deviceMw(optionalAuth(http.HandlerFunc(s.usageH.Status))))
	mux.Handle("POST /api/usage/increment", deviceMw(optionalAuth(http.HandlerFunc(s.usageH.Increment))))

	mux.HandleFunc("GET /api/resets", s.resetH.Catalog)
	mux.HandleFunc("GET /api/resets/{state}", s.resetH.ByState)

	mux.Handle("GET /ws", deviceMw(handler.HandleWebSocket(s.hub, s.logger.With("component", "ws"))))

	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.Handle("POST /api/push/subscribe", deviceMw(http.HandlerFunc(s.pushH.Subscribe)))
		mux.Handle("POST /api/push/unsubscribe", deviceMw(http.HandlerFunc(s.pushH.Unsubscribe)))
	}

	requireAuth := middleware.RequireAuth(s.sessionStore)
	mux.Handle("GET /api/me", requireAuth(http.HandlerFunc(s.accountH.Me)))
	if s.checkoutH != nil {
		mux.Handle("POST /api/checkout", requireAuth(http.HandlerFunc(s.checkoutH.CreateCheckoutSession)))
		mux.Handle("POST /api/billing-portal", requireAuth(http.HandlerFunc(s.checkoutH.BillingPortal)))
	}

	return middleware.RequestLogger(s.logger)(mux)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
