package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
)

type CaretakerHandler struct {
	caretakers *store.CaretakerStore
}

func NewCaretakerHandler(cs *store.CaretakerStore) *CaretakerHandler {
	return &CaretakerHandler{caretakers: cs}
}

type caretakerRequest struct {
	LoginID string `json:"login_id"`
	Name    string `json:"name"`
	PIN     string `json:"pin"`
	Role    string `json:"role"`
}

func validPIN(pin string) bool {
	return len(pin) >= 6 && len(pin) <= 10 && isDigits(pin)
}

func (h *CaretakerHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req caretakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if len(req.LoginID) != 2 || !isDigits(req.LoginID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "login_id must be exactly 2 digits"})
		return
	}
	if req.LoginID == auth.SystemLoginID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "login_id 00 is reserved"})
		return
	}
	if !validPIN(req.PIN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pin must be 6-10 digits"})
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be USER or ADMIN"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash pin: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create caretaker"})
		return
	}

	caretaker, err := h.caretakers.Create(familyID, req.LoginID, req.Name, string(hash), req.Role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "login_id is already in use"})
			return
		}
		log.Printf("failed to create caretaker: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create caretaker"})
		return
	}

	writeJSON(w, http.StatusCreated, caretaker)
}

func (h *CaretakerHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	caretakers, err := h.caretakers.List(familyID)
	if err != nil {
		log.Printf("failed to list caretakers: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list caretakers"})
		return
	}
	writeJSON(w, http.StatusOK, caretakers)
}

func (h *CaretakerHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req caretakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be USER or ADMIN"})
		return
	}

	caretaker, err := h.caretakers.Update(id, familyID, req.Name, req.Role)
	if err != nil {
		log.Printf("failed to update caretaker: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update caretaker"})
		return
	}
	if caretaker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "caretaker not found"})
		return
	}
	writeJSON(w, http.StatusOK, caretaker)
}

func (h *CaretakerHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

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

	caretaker, err := h.caretakers.GetByID(id, familyID)
	if err != nil {
		log.Printf("failed to get caretaker: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set pin"})
		return
	}
	if caretaker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "caretaker not found"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash pin: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set pin"})
		return
	}

	if err := h.caretakers.SetPIN(id, familyID, string(hash)); err != nil {
		log.Printf("failed to set pin: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set pin"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin updated"})
}

func (h *CaretakerHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.caretakers.SetActive(id, familyID, req.Active); err != nil {
		log.Printf("failed to set active: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update caretaker"})
		return
	}

	caretaker, err := h.caretakers.GetByID(id, familyID)
	if err != nil || caretaker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "caretaker not found"})
		return
	}
	writeJSON(w, http.StatusOK, caretaker)
}

func (h *CaretakerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.caretakers.SoftDelete(id, familyID); err != nil {
		log.Printf("failed to delete caretaker: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete caretaker"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
