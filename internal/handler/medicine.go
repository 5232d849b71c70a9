package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/websocket"
)

type MedicineHandler struct {
	doses    *store.MedicineStore
	children *store.ChildStore
	hub      *websocket.Hub
}

func NewMedicineHandler(ms *store.MedicineStore, cs *store.ChildStore, hub *websocket.Hub) *MedicineHandler {
	return &MedicineHandler{doses: ms, children: cs, hub: hub}
}

func (h *MedicineHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type medicineRequest struct {
	ChildID int64     `json:"child_id"`
	Name    string    `json:"name"`
	Dose    *float64  `json:"dose"`
	Unit    string    `json:"unit"`
	Notes   string    `json:"notes"`
	GivenAt time.Time `json:"given_at"`
}

func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req medicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.GivenAt.IsZero() {
		req.GivenAt = time.Now()
	}

	child, err := h.children.GetByID(req.ChildID, familyID)
	if err != nil {
		log.Printf("failed to check child: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record dose"})
		return
	}
	if child == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "child not found"})
		return
	}

	dose, err := h.doses.Create(familyID, req.ChildID, req.Name, req.Dose, req.Unit, req.Notes, req.GivenAt)
	if err != nil {
		log.Printf("failed to record dose: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record dose"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("medicine", "created", dose.ID, nil))
	writeJSON(w, http.StatusCreated, dose)
}

func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := childIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid child_id"})
		return
	}

	doses, err := h.doses.List(familyID, childID, listLimit(r))
	if err != nil {
		log.Printf("failed to list doses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list doses"})
		return
	}
	writeJSON(w, http.StatusOK, doses)
}

func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req medicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.GivenAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "given_at is required"})
		return
	}

	dose, err := h.doses.Update(id, familyID, req.Name, req.Dose, req.Unit, req.Notes, req.GivenAt)
	if err != nil {
		log.Printf("failed to update dose: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update dose"})
		return
	}
	if dose == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dose not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("medicine", "updated", dose.ID, nil))
	writeJSON(w, http.StatusOK, dose)
}

func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.doses.Delete(id, familyID); err != nil {
		log.Printf("failed to delete dose: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete dose"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("medicine", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
