package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
)

type SettingsHandler struct {
	settings   *store.SettingsStore
	caretakers *store.CaretakerStore
}

func NewSettingsHandler(ss *store.SettingsStore, cs *store.CaretakerStore) *SettingsHandler {
	return &SettingsHandler{settings: ss, caretakers: cs}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	settings, err := h.settings.Ensure(familyID)
	if err != nil {
		log.Printf("failed to get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get settings"})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) SetSystemPIN(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !validPIN(req.PIN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pin must be 6-10 digits"})
		return
	}

	if _, err := h.settings.Ensure(familyID); err != nil {
		log.Printf("failed to ensure settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set system pin"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash pin: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set system pin"})
		return
	}

	if err := h.settings.SetSystemPIN(familyID, string(hash)); err != nil {
		log.Printf("failed to set system pin: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set system pin"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "system pin updated"})
}

// SetAuthType lets an admin override the detected auth mode. Switching to
// CARETAKER requires at least one regular caretaker with a PIN, otherwise
// the family would lock itself out.
func (h *SettingsHandler) SetAuthType(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req struct {
		AuthType string `json:"auth_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.AuthType != model.AuthTypeSystem && req.AuthType != model.AuthTypeCaretaker {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "auth_type must be SYSTEM or CARETAKER"})
		return
	}

	if req.AuthType == model.AuthTypeCaretaker {
		n, err := h.caretakers.CountRegular(familyID)
		if err != nil {
			log.Printf("failed to count caretakers: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set auth type"})
			return
		}
		if n == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "add a caretaker before switching to CARETAKER mode"})
			return
		}
	}

	if _, err := h.settings.Ensure(familyID); err != nil {
		log.Printf("failed to ensure settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set auth type"})
		return
	}
	if err := h.settings.SetAuthType(familyID, req.AuthType); err != nil {
		log.Printf("failed to set auth type: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set auth type"})
		return
	}

	settings, err := h.settings.Get(familyID)
	if err != nil {
		log.Printf("failed to get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set auth type"})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
