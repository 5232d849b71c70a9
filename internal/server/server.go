// Package server wires stores, services, and handlers into the HTTP API.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/config"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/handler"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/lockout"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/middleware"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/push"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/stripe"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/token"
	ws "github.com/Oak-and-Sprout/sprout-track-sub002/internal/websocket"
)

type Server struct {
	db          *sql.DB
	cfg         *config.Config
	hub         *ws.Hub
	tokens      *token.Service
	authH       *handler.AuthHandler
	childH      *handler.ChildHandler
	feedH       *handler.FeedHandler
	sleepH      *handler.SleepHandler
	diaperH     *handler.DiaperHandler
	medicineH   *handler.MedicineHandler
	noteH       *handler.NoteHandler
	eventH      *handler.CalendarEventHandler
	caretakerH  *handler.CaretakerHandler
	settingsH   *handler.SettingsHandler
	pushH       *handler.PushHandler
	billingH    *handler.BillingHandler
	webhookH    *handler.WebhookHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, ledger lockout.Ledger, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	accountStore := store.NewAccountStore(db)
	familyStore := store.NewFamilyStore(db)
	caretakerStore := store.NewCaretakerStore(db)
	settingsStore := store.NewSettingsStore(db)
	childStore := store.NewChildStore(db)
	feedStore := store.NewFeedStore(db)
	sleepStore := store.NewSleepStore(db)
	diaperStore := store.NewDiaperStore(db)
	medicineStore := store.NewMedicineStore(db)
	noteStore := store.NewNoteStore(db)
	eventStore := store.NewCalendarEventStore(db)
	pushStore := store.NewPushStore(db)

	tokens := token.NewService(cfg.SessionSecret, cfg.SessionLifetime)

	authenticator := auth.NewAuthenticator(
		accountStore, familyStore, caretakerStore, settingsStore,
		ledger,
		auth.Config{Hosted: cfg.Hosted(), AdminPassword: cfg.AdminPassword},
		logger,
	)

	var pushH *handler.PushHandler
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
		pushH = handler.NewPushHandler(pushStore, pushSvc)
	}

	var billingH *handler.BillingHandler
	var webhookH *handler.WebhookHandler
	if cfg.Hosted() && cfg.StripeSecretKey != "" {
		stripeClient := stripe.NewClient(stripe.Config{
			SecretKey:           cfg.StripeSecretKey,
			WebhookSecret:       cfg.StripeWebhookSecret,
			SubscriptionPriceID: cfg.StripeSubscriptionPriceID,
			LifetimePriceID:     cfg.StripeLifetimePriceID,
			SuccessURL:          cfg.BaseURL + "/billing/success",
			CancelURL:           cfg.BaseURL + "/billing/cancel",
		})
		billingH = handler.NewBillingHandler(accountStore, stripeClient)
		webhookH = handler.NewWebhookHandler(stripeClient, accountStore)
	}

	return &Server{
		db:          db,
		cfg:         cfg,
		hub:         hub,
		tokens:      tokens,
		authH:       handler.NewAuthHandler(authenticator, tokens, accountStore, familyStore, cfg.TrialDays, cfg.Hosted()),
		childH:      handler.NewChildHandler(childStore, hub),
		feedH:       handler.NewFeedHandler(feedStore, childStore, hub),
		sleepH:      handler.NewSleepHandler(sleepStore, childStore, hub),
		diaperH:     handler.NewDiaperHandler(diaperStore, childStore, hub),
		medicineH:   handler.NewMedicineHandler(medicineStore, childStore, hub),
		noteH:       handler.NewNoteHandler(noteStore, hub),
		eventH:      handler.NewCalendarEventHandler(eventStore, hub),
		caretakerH:  handler.NewCaretakerHandler(caretakerStore),
		settingsH:   handler.NewSettingsHandler(settingsStore, caretakerStore),
		pushH:       pushH,
		billingH:    billingH,
		webhookH:    webhookH,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	if s.cfg.Hosted() {
		outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	}
	if s.webhookH != nil {
		outerMux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)
	}
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	sessionMiddleware := middleware.RequireSession(s.tokens, nil)
	outerMux.Handle("/api/", sessionMiddleware(protectedMux))
	outerMux.Handle("GET /ws", sessionMiddleware(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

// writable wraps a mutation with the entitlement gate.
func (s *Server) writable(h http.HandlerFunc) http.Handler {
	return middleware.RequireWritable(s.cfg.Hosted(), nil)(h)
}

// admin restricts a route to family admins; mutations also pass the gate.
func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(s.writable(h))
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/status", s.authH.Status)
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Children
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.Handle("POST /api/children", s.writable(s.childH.Create))
	mux.Handle("PUT /api/children/{id}", s.writable(s.childH.Update))
	mux.Handle("DELETE /api/children/{id}", s.writable(s.childH.Delete))

	// Feeds
	mux.HandleFunc("GET /api/feeds", s.feedH.List)
	mux.HandleFunc("GET /api/feeds/{id}", s.feedH.Get)
	mux.Handle("POST /api/feeds", s.writable(s.feedH.Create))
	mux.Handle("PUT /api/feeds/{id}", s.writable(s.feedH.Update))
	mux.Handle("DELETE /api/feeds/{id}", s.writable(s.feedH.Delete))

	// Sleep
	mux.HandleFunc("GET /api/sleep", s.sleepH.List)
	mux.Handle("POST /api/sleep", s.writable(s.sleepH.Start))
	mux.Handle("POST /api/sleep/{id}/end", s.writable(s.sleepH.End))
	mux.Handle("PUT /api/sleep/{id}", s.writable(s.sleepH.Update))
	mux.Handle("DELETE /api/sleep/{id}", s.writable(s.sleepH.Delete))

	// Diapers
	mux.HandleFunc("GET /api/diapers", s.diaperH.List)
	mux.Handle("POST /api/diapers", s.writable(s.diaperH.Create))
	mux.Handle("PUT /api/diapers/{id}", s.writable(s.diaperH.Update))
	mux.Handle("DELETE /api/diapers/{id}", s.writable(s.diaperH.Delete))

	// Medicine
	mux.HandleFunc("GET /api/medicine", s.medicineH.List)
	mux.Handle("POST /api/medicine", s.writable(s.medicineH.Create))
	mux.Handle("PUT /api/medicine/{id}", s.writable(s.medicineH.Update))
	mux.Handle("DELETE /api/medicine/{id}", s.writable(s.medicineH.Delete))

	// Notes
	mux.HandleFunc("GET /api/notes", s.noteH.List)
	mux.Handle("POST /api/notes", s.writable(s.noteH.Create))
	mux.Handle("PUT /api/notes/{id}", s.writable(s.noteH.Update))
	mux.Handle("POST /api/notes/{id}/pin", s.writable(s.noteH.TogglePinned))
	mux.Handle("DELETE /api/notes/{id}", s.writable(s.noteH.Delete))

	// Calendar
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.Handle("POST /api/events", s.writable(s.eventH.Create))
	mux.Handle("PUT /api/events/{id}", s.writable(s.eventH.Update))
	mux.Handle("DELETE /api/events/{id}", s.writable(s.eventH.Delete))

	// Caretaker management (admin)
	mux.HandleFunc("GET /api/caretakers", s.caretakerH.List)
	mux.Handle("POST /api/caretakers", s.admin(s.caretakerH.Create))
	mux.Handle("PUT /api/caretakers/{id}", s.admin(s.caretakerH.Update))
	mux.Handle("POST /api/caretakers/{id}/pin", s.admin(s.caretakerH.SetPIN))
	mux.Handle("POST /api/caretakers/{id}/active", s.admin(s.caretakerH.SetActive))
	mux.Handle("DELETE /api/caretakers/{id}", s.admin(s.caretakerH.Delete))

	// Family settings (admin)
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.Handle("PUT /api/settings/system-pin", s.admin(s.settingsH.SetSystemPIN))
	mux.Handle("PUT /api/settings/auth-type", s.admin(s.settingsH.SetAuthType))

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
		mux.HandleFunc("POST /api/push/test", s.pushH.Test)
	}

	// Billing (account holder, hosted only). The billing routes stay open
	// to expired accounts; renewal is how they recover.
	if s.billingH != nil {
		mux.HandleFunc("POST /api/checkout", s.billingH.Checkout)
		mux.HandleFunc("POST /api/billing-portal", s.billingH.Portal)
	}
}
