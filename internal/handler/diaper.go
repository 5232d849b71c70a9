package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/websocket"
)

var validDiaperKinds = map[string]bool{
	"wet":   true,
	"dirty": true,
	"both":  true,
	"dry":   true,
}

type DiaperHandler struct {
	diapers  *store.DiaperStore
	children *store.ChildStore
	hub      *websocket.Hub
}

func NewDiaperHandler(ds *store.DiaperStore, cs *store.ChildStore, hub *websocket.Hub) *DiaperHandler {
	return &DiaperHandler{diapers: ds, children: cs, hub: hub}
}

func (h *DiaperHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type diaperRequest struct {
	ChildID   int64     `json:"child_id"`
	Kind      string    `json:"kind"`
	Notes     string    `json:"notes"`
	ChangedAt time.Time `json:"changed_at"`
}

func (h *DiaperHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req diaperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if !validDiaperKinds[req.Kind] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be wet, dirty, both, or dry"})
		return
	}
	if req.ChangedAt.IsZero() {
		req.ChangedAt = time.Now()
	}

	child, err := h.children.GetByID(req.ChildID, familyID)
	if err != nil {
		log.Printf("failed to check child: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create diaper change"})
		return
	}
	if child == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "child not found"})
		return
	}

	change, err := h.diapers.Create(familyID, req.ChildID, req.Kind, req.Notes, req.ChangedAt)
	if err != nil {
		log.Printf("failed to create diaper change: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create diaper change"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("diaper", "created", change.ID, nil))
	writeJSON(w, http.StatusCreated, change)
}

func (h *DiaperHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := childIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid child_id"})
		return
	}

	changes, err := h.diapers.List(familyID, childID, listLimit(r))
	if err != nil {
		log.Printf("failed to list diaper changes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list diaper changes"})
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

func (h *DiaperHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req diaperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !validDiaperKinds[req.Kind] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be wet, dirty, both, or dry"})
		return
	}
	if req.ChangedAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "changed_at is required"})
		return
	}

	change, err := h.diapers.Update(id, familyID, req.Kind, req.Notes, req.ChangedAt)
	if err != nil {
		log.Printf("failed to update diaper change: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update diaper change"})
		return
	}
	if change == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "diaper change not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("diaper", "updated", change.ID, nil))
	writeJSON(w, http.StatusOK, change)
}

func (h *DiaperHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.diapers.Delete(id, familyID); err != nil {
		log.Printf("failed to delete diaper change: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete diaper change"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("diaper", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
