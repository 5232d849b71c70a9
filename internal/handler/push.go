package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/push"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
)

type PushHandler struct {
	subs    *store.PushStore
	service *push.Service
}

func NewPushHandler(ps *store.PushStore, service *push.Service) *PushHandler {
	return &PushHandler{subs: ps, service: service}
}

// VAPIDKey exposes the public key for client-side subscription.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	familyID := auth.FamilyID(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint, p256dh, and auth are required"})
		return
	}

	var caretakerID *int64
	if ac.Kind == auth.KindCaretaker || ac.Kind == auth.KindSystemCaretaker {
		caretakerID = &ac.PrincipalID
	}

	sub, err := h.subs.Upsert(familyID, caretakerID, req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		log.Printf("failed to save subscription: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save subscription"})
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint is required"})
		return
	}

	if err := h.subs.DeleteByEndpoint(req.Endpoint); err != nil {
		log.Printf("failed to delete subscription: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete subscription"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Test sends a test notification to every device in the family and prunes
// subscriptions the push service reports as gone.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	subs, err := h.subs.ListByFamily(familyID)
	if err != nil {
		log.Printf("failed to list subscriptions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send test"})
		return
	}

	sent := 0
	for i := range subs {
		err := h.service.Send(r.Context(), &subs[i], push.Payload{
			Title: "Sprout Track",
			Body:  "Push notifications are working.",
			Tag:   "test",
		})
		if errors.Is(err, push.ErrExpired) {
			if err := h.subs.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				log.Printf("failed to prune subscription: %v", err)
			}
			continue
		}
		if err != nil {
			log.Printf("failed to send test push: %v", err)
			continue
		}
		sent++
	}

	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
