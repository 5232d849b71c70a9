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

type ChildHandler struct {
	children *store.ChildStore
	hub      *websocket.Hub
}

func NewChildHandler(cs *store.ChildStore, hub *websocket.Hub) *ChildHandler {
	return &ChildHandler{children: cs, hub: hub}
}

func (h *ChildHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type childRequest struct {
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date"`
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	child, err := h.children.Create(familyID, req.Name, req.BirthDate)
	if err != nil {
		log.Printf("failed to create child: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create child"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("child", "created", child.ID, nil))
	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	children, err := h.children.List(familyID)
	if err != nil {
		log.Printf("failed to list children: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list children"})
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	child, err := h.children.GetByID(id, familyID)
	if err != nil {
		log.Printf("failed to get child: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get child"})
		return
	}
	if child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	child, err := h.children.Update(id, familyID, req.Name, req.BirthDate)
	if err != nil {
		log.Printf("failed to update child: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update child"})
		return
	}
	if child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("child", "updated", child.ID, nil))
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.children.Delete(id, familyID); err != nil {
		log.Printf("failed to delete child: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete child"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("child", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
