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

type CalendarEventHandler struct {
	events *store.CalendarEventStore
	hub    *websocket.Hub
}

func NewCalendarEventHandler(es *store.CalendarEventStore, hub *websocket.Hub) *CalendarEventHandler {
	return &CalendarEventHandler{events: es, hub: hub}
}

func (h *CalendarEventHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type eventRequest struct {
	ChildID  *int64     `json:"child_id"`
	Title    string     `json:"title"`
	Notes    string     `json:"notes"`
	AllDay   bool       `json:"all_day"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

func (req *eventRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.StartsAt.IsZero() {
		return "starts_at is required"
	}
	if req.EndsAt != nil && !req.StartsAt.Before(*req.EndsAt) {
		return "starts_at must be before ends_at"
	}
	return ""
}

func (h *CalendarEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	event, err := h.events.Create(familyID, req.ChildID, req.Title, req.Notes, req.AllDay, req.StartsAt, req.EndsAt)
	if err != nil {
		log.Printf("failed to create event: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create event"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("event", "created", event.ID, nil))
	writeJSON(w, http.StatusCreated, event)
}

// List expects start and end query parameters in RFC3339 format.
func (h *CalendarEventHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start and end query parameters are required"})
		return
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be RFC3339 format"})
		return
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must be RFC3339 format"})
		return
	}

	events, err := h.events.ListRange(familyID, start, end)
	if err != nil {
		log.Printf("failed to list events: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list events"})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *CalendarEventHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	event, err := h.events.Update(id, familyID, req.ChildID, req.Title, req.Notes, req.AllDay, req.StartsAt, req.EndsAt)
	if err != nil {
		log.Printf("failed to update event: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update event"})
		return
	}
	if event == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("event", "updated", event.ID, nil))
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.events.Delete(id, familyID); err != nil {
		log.Printf("failed to delete event: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete event"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("event", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
