package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/store"
	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/websocket"
)

type NoteHandler struct {
	notes *store.NoteStore
	hub   *websocket.Hub
}

func NewNoteHandler(ns *store.NoteStore, hub *websocket.Hub) *NoteHandler {
	return &NoteHandler{notes: ns, hub: hub}
}

func (h *NoteHandler) broadcast(familyID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(familyID, msg)
	}
}

type noteRequest struct {
	ChildID *int64 `json:"child_id"`
	Body    string `json:"body"`
	Pinned  bool   `json:"pinned"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is required"})
		return
	}

	note, err := h.notes.Create(familyID, req.ChildID, req.Body, req.Pinned)
	if err != nil {
		log.Printf("failed to create note: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create note"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("note", "created", note.ID, nil))
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	notes, err := h.notes.List(familyID)
	if err != nil {
		log.Printf("failed to list notes: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list notes"})
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is required"})
		return
	}

	note, err := h.notes.Update(id, familyID, req.ChildID, req.Body, req.Pinned)
	if err != nil {
		log.Printf("failed to update note: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update note"})
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("note", "updated", note.ID, nil))
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) TogglePinned(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	note, err := h.notes.TogglePinned(id, familyID)
	if err != nil {
		log.Printf("failed to toggle pinned: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle pinned"})
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "note not found"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("note", "updated", note.ID, nil))
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.notes.Delete(id, familyID); err != nil {
		log.Printf("failed to delete note: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete note"})
		return
	}

	h.broadcast(familyID, websocket.NewMessage("note", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
