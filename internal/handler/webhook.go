package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	stripesdk "github.com/stripe/stripe-go/v82"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/stripe"
)

// renewalGrace pads the plan expiry past the Stripe billing period so a
// slow renewal invoice doesn't briefly lock the family out of writes.
const renewalGrace = 3 * 24 * time.Hour

type WebhookHandler struct {
	stripeClient *stripe.Client
	accounts     *store.AccountStore
}

func NewWebhookHandler(sc *stripe.Client, as *store.AccountStore) *WebhookHandler {
	return &WebhookHandler{stripeClient: sc, accounts: as}
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
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) accountForCustomer(customerID string) *model.Account {
	if customerID == "" {
		return nil
	}
	account, err := h.accounts.GetByStripeCustomerID(customerID)
	if err != nil {
		log.Printf("webhook: get account by customer id: %v", err)
		return nil
	}
	if account == nil {
		log.Printf("webhook: no account for stripe customer %s", customerID)
	}
	return account
}

func (h *WebhookHandler) handleCheckoutCompleted(event stripesdk.Event) {
	var sess stripesdk.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Printf("webhook: unmarshal checkout session: %v", err)
		return
	}
	if sess.Customer == nil {
		log.Printf("webhook: checkout session missing customer")
		return
	}

	account := h.accountForCustomer(sess.Customer.ID)
	if account == nil {
		return
	}

	if sess.Mode == stripesdk.CheckoutSessionModePayment {
		// Lifetime purchase; no expiry to track.
		if err := h.accounts.UpdatePlan(account.ID, model.PlanLifetime, nil); err != nil {
			log.Printf("webhook: set lifetime plan: %v", err)
		}
		return
	}

	// Subscription checkout. invoice.paid refines the expiry; until then a
	// buffered expiry keeps the account active.
	expires := time.Now().UTC().AddDate(0, 1, 0).Add(renewalGrace)
	if err := h.accounts.UpdatePlan(account.ID, model.PlanSubscription, &expires); err != nil {
		log.Printf("webhook: set subscription plan: %v", err)
	}
}

func (h *WebhookHandler) handleInvoicePaid(event stripesdk.Event) {
	var invoice stripesdk.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		log.Printf("webhook: unmarshal invoice: %v", err)
		return
	}
	if invoice.Customer == nil {
		return
	}

	account := h.accountForCustomer(invoice.Customer.ID)
	if account == nil {
		return
	}
	if account.PlanType == model.PlanLifetime {
		return
	}

	expires := time.Unix(invoice.PeriodEnd, 0).UTC().Add(renewalGrace)
	if err := h.accounts.UpdatePlan(account.ID, model.PlanSubscription, &expires); err != nil {
		log.Printf("webhook: extend subscription expiry: %v", err)
	}
}

func (h *WebhookHandler) handleSubscriptionDeleted(event stripesdk.Event) {
	var stripeSub stripesdk.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		log.Printf("webhook: unmarshal subscription: %v", err)
		return
	}
	if stripeSub.Customer == nil {
		return
	}

	account := h.accountForCustomer(stripeSub.Customer.ID)
	if account == nil {
		return
	}
	if account.PlanType == model.PlanLifetime {
		return
	}

	// Expiration is soft: reads keep working, writes stop once this
	// timestamp passes.
	expiry := time.Now().UTC()
	if stripeSub.CancelAt > 0 {
		expiry = time.Unix(stripeSub.CancelAt, 0).UTC()
	}
	if err := h.accounts.UpdatePlan(account.ID, model.PlanSubscription, &expiry); err != nil {
		log.Printf("webhook: expire subscription: %v", err)
	}
}
