package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/stripe"
)

type BillingHandler struct {
	accounts *store.AccountStore
	stripe   *stripe.Client
}

func NewBillingHandler(as *store.AccountStore, sc *stripe.Client) *BillingHandler {
	return &BillingHandler{accounts: as, stripe: sc}
}

// Checkout starts a Stripe checkout for the authenticated account holder.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !ac.IsAccountAuth() {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "only the account holder can manage billing"})
		return
	}

	var req struct {
		PlanType string `json:"plan_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.PlanType != model.PlanSubscription && req.PlanType != model.PlanLifetime {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "plan_type must be subscription or lifetime"})
		return
	}

	account, err := h.accounts.GetByID(ac.PrincipalID)
	if err != nil || account == nil {
		log.Printf("failed to load account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start checkout"})
		return
	}

	var customerID string
	if account.StripeCustomerID != nil {
		customerID = *account.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = h.stripe.CreateCustomer(account.Email)
		if err != nil {
			log.Printf("failed to create stripe customer: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start checkout"})
			return
		}
		if err := h.accounts.UpdateStripeCustomerID(account.ID, customerID); err != nil {
			log.Printf("failed to save stripe customer id: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start checkout"})
			return
		}
	}

	url, err := h.stripe.CreateCheckoutSession(customerID, req.PlanType)
	if err != nil {
		log.Printf("failed to create checkout session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start checkout"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Portal returns a billing portal URL for managing an existing subscription.
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if !ac.IsAccountAuth() {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "only the account holder can manage billing"})
		return
	}

	var req struct {
		ReturnURL string `json:"return_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	account, err := h.accounts.GetByID(ac.PrincipalID)
	if err != nil || account == nil || account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no billing profile on file"})
		return
	}

	url, err := h.stripe.CreateBillingPortalSession(*account.StripeCustomerID, req.ReturnURL)
	if err != nil {
		log.Printf("failed to create portal session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to open billing portal"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
