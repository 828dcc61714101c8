package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v84"

	"github.com/getresett/resett/internal/model"
	"github.com/getresett/resett/internal/store"
	resettstripe "github.com/getresett/resett/internal/stripe"
)

// WebhookHandler keeps the subscriptions table in sync with Stripe. It is the
// only writer of subscription status; the entitlement resolver just reads it.
type WebhookHandler struct {
	stripeClient      *resettstripe.Client
	accountStore      *store.AccountStore
	subscriptionStore *store.SubscriptionStore
	logger            *slog.Logger
}

func NewWebhookHandler(
	sc *resettstripe.Client,
	as *store.AccountStore,
	ss *store.SubscriptionStore,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		stripeClient:      sc,
		accountStore:      as,
		subscriptionStore: ss,
		logger:            logger,
	}
}

func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.stripeClient.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "invoice.paid":
		h.handleInvoicePaid(event)
	case "invoice.payment_failed":
		h.handleInvoicePaymentFailed(event)
	case "customer.subscription.updated":
		h.handleSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("unmarshal checkout session", "error", err)
		return
	}

	var email string
	if sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		h.logger.Error("checkout session missing email")
		return
	}

	account, err := h.accountStore.GetByEmail(email)
	if err != nil {
		h.logger.Error("get account by email", "error", err)
		return
	}
	if account == nil {
		account, err = h.accountStore.Create(email)
		if err != nil {
			h.logger.Error("create account", "error", err)
			return
		}
	}

	if sess.Customer != nil {
		if err := h.accountStore.UpdateStripeCustomerID(account.ID, sess.Customer.ID); err != nil {
			h.logger.Error("update stripe customer id", "error", err)
		}
	}

	plan := sess.Metadata["plan"]
	if plan == "" {
		plan = "monthly"
	}

	sub, err := h.subscriptionStore.Create(account.ID, plan)
	if err != nil {
		h.logger.Error("create subscription", "error", err)
		return
	}

	if sess.Subscription != nil {
		if err := h.subscriptionStore.UpdateStripeID(sub.ID, sess.Subscription.ID); err != nil {
			h.logger.Error("update stripe subscription id", "error", err)
		}
	}

	h.logger.Info("checkout completed", "email", email)
}

// subscriptionIDFromInvoice extracts the subscription ID from an invoice's parent.
func subscriptionIDFromInvoice(invoice stripe.Invoice) string {
	if invoice.Parent != nil &&
		invoice.Parent.SubscriptionDetails != nil &&
		invoice.Parent.SubscriptionDetails.Subscription != nil {
		return invoice.Parent.SubscriptionDetails.Subscription.ID
	}
	return ""
}

func (h *WebhookHandler) handleInvoicePaid(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("unmarshal invoice", "error", err)
		return
	}

	subID := subscriptionIDFromInvoice(invoice)
	if subID == "" {
		return
	}

	sub, err := h.subscriptionStore.GetByStripeID(subID)
	if err != nil || sub == nil {
		h.logger.Error("get subscription for invoice.paid", "error", err)
		return
	}

	if err := h.subscriptionStore.UpdateStatus(sub.ID, model.SubscriptionStatusActive); err != nil {
		h.logger.Error("update subscription status", "error", err)
	}

	periodEnd := sql.NullTime{Time: time.Unix(invoice.PeriodEnd, 0).UTC(), Valid: invoice.PeriodEnd > 0}
	if err := h.subscriptionStore.UpdatePeriodEnd(sub.ID, &periodEnd); err != nil {
		h.logger.Error("update period end", "error", err)
	}
}

func (h *WebhookHandler) handleInvoicePaymentFailed(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("unmarshal invoice", "error", err)
		return
	}

	subID := subscriptionIDFromInvoice(invoice)
	if subID == "" {
		return
	}

	sub, err := h.subscriptionStore.GetByStripeID(subID)
	if err != nil || sub == nil {
		return
	}

	if err := h.subscriptionStore.UpdateStatus(sub.ID, model.SubscriptionStatusPastDue); err != nil {
		h.logger.Error("update subscription status to past_due", "error", err)
	}
}

func (h *WebhookHandler) handleSubscriptionUpdated(event stripe.Event) {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		h.logger.Error("unmarshal subscription", "error", err)
		return
	}

	sub, err := h.subscriptionStore.GetByStripeID(stripeSub.ID)
	if err != nil || sub == nil {
		return
	}

	// Stripe's status strings are stored as-is; the entitlement layer only
	// honors active and trialing.
	if err := h.subscriptionStore.UpdateStatus(sub.ID, string(stripeSub.Status)); err != nil {
		h.logger.Error("update subscription status", "error", err)
	}

	if err := h.subscriptionStore.SetCancelAtPeriodEnd(sub.ID, stripeSub.CancelAtPeriodEnd); err != nil {
		h.logger.Error("set cancel at period end", "error", err)
	}
}

func (h *WebhookHandler) handleSubscriptionDeleted(event stripe.Event) {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		h.logger.Error("unmarshal subscription", "error", err)
		return
	}

	sub, err := h.subscriptionStore.GetByStripeID(stripeSub.ID)
	if err != nil || sub == nil {
		return
	}

	if err := h.subscriptionStore.UpdateStatus(sub.ID, model.SubscriptionStatusCanceled); err != nil {
		h.logger.Error("update subscription status to canceled", "error", err)
	}
}
