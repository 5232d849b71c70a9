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

var validFeedMethods = map[string]bool{
	"bottle":  true,
	"breast":  true,
	"solids":  true,
	"formula": true,
}

type FeedHandler struct {
	feeds    *store.FeedStore
	children *store.ChildStore
	hub      *websocket.Hub
}

func NewFeedHandler(fs *store.FeedStore, cs *store.ChildStore, hub *websocket.Hub) *FeedHandler {
	return &FeedHandler{feeds: fs, children: cs, hub: hub}
}

func (h *FeedHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type feedRequest struct {
	ChildID   int64      `json:"child_id"`
	Method    string     `json:"method"`
	Amount    *float64   `json:"amount"`
	Unit      string     `json:"unit"`
	Side      string     `json:"side"`
	Notes     string     `json:"notes"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

func (h *FeedHandler) validate(familyID int64, req *feedRequest) (string, error) {
	if !validFeedMethods[req.Method] {
		return "method must be bottle, breast, solids, or formula", nil
	}
	if req.StartedAt.IsZero() {
		return "started_at is required", nil
	}
	child, err := h.children.GetByID(req.ChildID, familyID)
	if err != nil {
		return "", err
	}
	if child == nil {
		return "child not found", nil
	}
	return "", nil
}

func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	msg, err := h.validate(familyID, &req)
	if err != nil {
		log.Printf("failed to validate feed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create feed"})
		return
	}
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	feed, err := h.feeds.Create(familyID, req.ChildID, req.Method, req.Amount, req.Unit, req.Side, req.Notes, req.StartedAt, req.EndedAt)
	if err != nil {
		log.Printf("failed to create feed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create feed"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("feed", "created", feed.ID, nil))
	writeJSON(w, http.StatusCreated, feed)
}

func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	childID, err := childIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid child_id"})
		return
	}

	feeds, err := h.feeds.List(familyID, childID, listLimit(r))
	if err != nil {
		log.Printf("failed to list feeds: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list feeds"})
		return
	}
	writeJSON(w, http.StatusOK, feeds)
}

func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	feed, err := h.feeds.GetByID(id, familyID)
	if err != nil {
		log.Printf("failed to get feed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get feed"})
		return
	}
	if feed == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "feed not found"})
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (h *FeedHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if !validFeedMethods[req.Method] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "method must be bottle, breast, solids, or formula"})
		return
	}
	if req.StartedAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "started_at is required"})
		return
	}

	feed, err := h.feeds.Update(id, familyID, req.Method, req.Amount, req.Unit, req.Side, req.Notes, req.StartedAt, req.EndedAt)
	if err != nil {
		log.Printf("failed to update feed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update feed"})
		return
	}
	if feed == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "feed not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("feed", "updated", feed.ID, nil))
	writeJSON(w, http.StatusOK, feed)
}

func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.feeds.Delete(id, familyID); err != nil {
		log.Printf("failed to delete feed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete feed"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("feed", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
