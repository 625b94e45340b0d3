package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"mistakebook/internal/model"
	"mistakebook/internal/notebook"
	"mistakebook/internal/store"
	"mistakebook/internal/validation"
)

type MistakeHandler struct {
	controller *notebook.Controller
}

func NewMistakeHandler(controller *notebook.Controller) *MistakeHandler {
	return &MistakeHandler{controller: controller}
}

// List returns the active collection, newest first, with per-record sync
// status.
func (h *MistakeHandler) List(w http.ResponseWriter, r *http.Request) {
	err := h.controller.EnsureLoaded(r.Context())
	if err != nil {
		slog.Error("failed to load mistakes", "error", err)
		writeError(w, http.StatusBadGateway, "failed to load mistakes")
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Active())
}

// ListTrash returns the trash, newest-deleted first.
func (h *MistakeHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	err := h.controller.EnsureLoaded(r.Context())
	if err != nil {
		slog.Error("failed to load trash", "error", err)
		writeError(w, http.StatusBadGateway, "failed to load trash")
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Trashed())
}

// Reload re-runs the full load from the storage mirror. This is the manual
// recovery path after a failed background write.
func (h *MistakeHandler) Reload(w http.ResponseWriter, r *http.Request) {
	err := h.controller.Reload(r.Context())
	if err != nil {
		slog.Error("reload failed", "error", err)
		writeError(w, http.StatusBadGateway, "reload failed")
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Active())
}

// SyncStates reports every record whose durable write is pending or failed.
func (h *MistakeHandler) SyncStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.SyncStates())
}

func decodeMistake(r *http.Request) (*model.Mistake, error) {
	var m model.Mistake
	err := json.NewDecoder(r.Body).Decode(&m)
	if err != nil {
		return nil, errors.New("invalid request body")
	}

	if !model.ValidSubject(m.Subject) {
		return nil, errors.New("unknown subject")
	}

	if store.IsInline(m.ImageURL) {
		img, err := store.ParseInline(m.ImageURL)
		if err != nil {
			return nil, err
		}
		err = validation.ValidateInlineImage(img.MIMEType, int64(len(img.Data)))
		if err != nil {
			return nil, err
		}
	}

	return &m, nil
}

// Create adds a record optimistically: the response carries the in-memory
// record (sync status pending) while the durable write runs in the
// background.
func (h *MistakeHandler) Create(w http.ResponseWriter, r *http.Request) {
	err := h.controller.EnsureLoaded(r.Context())
	if err != nil {
		slog.Error("failed to load mistakes", "error", err)
		writeError(w, http.StatusBadGateway, "failed to load mistakes")
		return
	}

	m, err := decodeMistake(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, _ := h.controller.Create(r.Context(), m)
	writeJSON(w, http.StatusCreated, notebook.Record{Mistake: created, SyncStatus: model.SyncPending})
}

// Update edits a record optimistically.
func (h *MistakeHandler) Update(w http.ResponseWriter, r *http.Request) {
	m, err := decodeMistake(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m.ID = r.PathValue("id")

	updated, _, err := h.controller.Edit(r.Context(), m)
	if err != nil {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	writeJSON(w, http.StatusOK, notebook.Record{Mistake: updated, SyncStatus: model.SyncPending})
}

type tagRequest struct {
	Tag string `json:"tag"`
}

// AddTag appends a tag; adding an existing tag is a no-op.
func (h *MistakeHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Tag == "" {
		writeError(w, http.StatusBadRequest, "tag is required")
		return
	}

	updated, _, err := h.controller.AddTag(r.Context(), r.PathValue("id"), req.Tag)
	if err != nil {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Trash soft-deletes a record.
func (h *MistakeHandler) Trash(w http.ResponseWriter, r *http.Request) {
	_, err := h.controller.Trash(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Restore returns a trashed record to the main collection.
func (h *MistakeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	_, err := h.controller.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "mistake not found in trash")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Purge permanently deletes a trashed record. Safe to call twice.
func (h *MistakeHandler) Purge(w http.ResponseWriter, r *http.Request) {
	h.controller.Purge(r.Context(), r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// EmptyTrash permanently deletes everything in the trash.
func (h *MistakeHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	h.controller.EmptyTrash(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
