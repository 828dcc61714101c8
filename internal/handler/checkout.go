package handler

import (
	"encoding/json"
	"net/http"

	"github.com/getresett/resett/internal/store"
	resettstripe "github.com/getresett/resett/internal/stripe"
)

type CheckoutHandler struct {
	stripeClient *resettstripe.Client
	accountStore *store.AccountStore
}

func NewCheckoutHandler(sc *resettstripe.Client, as *store.AccountStore) *CheckoutHandler {
	return &CheckoutHandler{
		stripeClient: sc,
		accountStore: as,
	}
}

// CreateCheckoutSession creates a Stripe checkout session and returns the URL.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Plan == "" {
		req.Plan = "monthly"
	}

	account, err := h.accountStore.GetByID(accountID)
	if err != nil || account == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}

	// Ensure Stripe customer exists
	customerID := ""
	if account.StripeCustomerID != nil {
		customerID = *account.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = h.stripeClient.CreateCustomer(account.Email)
		if err != nil {
			http.Error(w, "failed to create customer", http.StatusInternalServerError)
			return
		}
		h.accountStore.UpdateStripeCustomerID(account.ID, customerID)
	}

	priceID := h.stripeClient.PriceIDForPlan(req.Plan)
	url, err := h.stripeClient.CreateCheckoutSession(customerID, priceID, req.Plan)
	if err != nil {
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// BillingPortal creates a Stripe billing portal session and returns the URL.
func (h *CheckoutHandler) BillingPortal(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	account, err := h.accountStore.GetByID(accountID)
	if err != nil || account == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}

	if account.StripeCustomerID == nil {
		http.Error(w, "no billing account", http.StatusBadRequest)
		return
	}

	returnURL := r.Header.Get("Referer")
	if returnURL == "" {
		returnURL = "/account"
	}

	url, err := h.stripeClient.CreateBillingPortalSession(*account.StripeCustomerID, returnURL)
	if err != nil {
		http.Error(w, "failed to create portal session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
