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

type SleepHandler struct {
	sleeps   *store.SleepStore
	children *store.ChildStore
	hub      *websocket.Hub
}

func NewSleepHandler(ss *store.SleepStore, cs *store.ChildStore, hub *websocket.Hub) *SleepHandler {
	return &SleepHandler{sleeps: ss, children: cs, hub: hub}
}

func (h *SleepHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type sleepRequest struct {
	ChildID   int64      `json:"child_id"`
	Location  string     `json:"location"`
	Notes     string     `json:"notes"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// Start opens a sleep session. Only one open session per child is allowed;
// a second start while one is open is rejected.
func (h *SleepHandler) Start(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req sleepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	child, err := h.children.GetByID(req.ChildID, familyID)
	if err != nil {
		log.Printf("failed to check child: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start sleep"})
		return
	}
	if child == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "child not found"})
		return
	}

	open, err := h.sleeps.GetOpen(familyID, req.ChildID)
	if err != nil {
		log.Printf("failed to check open sleep: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start sleep"})
		return
	}
	if open != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a sleep session is already in progress"})
		return
	}

	if req.StartedAt.IsZero() {
		req.StartedAt = time.Now()
	}

	session, err := h.sleeps.Create(familyID, req.ChildID, req.Location, req.Notes, req.StartedAt)
	if err != nil {
		log.Printf("failed to start sleep: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start sleep"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("sleep", "started", session.ID, nil))
	writeJSON(w, http.StatusCreated, session)
}

// End closes a sleep session by id.
func (h *SleepHandler) End(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		EndedAt *time.Time `json:"ended_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	endedAt := time.Now()
	if req.EndedAt != nil {
		endedAt = *req.EndedAt
	}

	session, err := h.sleeps.End(id, familyID, endedAt)
	if err != nil {
		log.Printf("failed to end sleep: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to end sleep"})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "sleep session not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("sleep", "ended", session.ID, nil))
	writeJSON(w, http.StatusOK, session)
}

func (h *SleepHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := childIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid child_id"})
		return
	}

	sessions, err := h.sleeps.List(familyID, childID, listLimit(r))
	if err != nil {
		log.Printf("failed to list sleep sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list sleep sessions"})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SleepHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req sleepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.StartedAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "started_at is required"})
		return
	}

	session, err := h.sleeps.Update(id, familyID, req.Location, req.Notes, req.StartedAt, req.EndedAt)
	if err != nil {
		log.Printf("failed to update sleep session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update sleep session"})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "sleep session not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("sleep", "updated", session.ID, nil))
	writeJSON(w, http.StatusOK, session)
}

func (h *SleepHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.sleeps.Delete(id, familyID); err != nil {
		log.Printf("failed to delete sleep session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete sleep session"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("sleep", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
