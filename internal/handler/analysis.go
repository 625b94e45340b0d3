package handler

import (
	"log/slog"
	"net/http"

	"mistakebook/internal/ai"
	"mistakebook/internal/markdown"
	"mistakebook/internal/notebook"
	"mistakebook/internal/settings"
)

type AnalysisHandler struct {
	controller *notebook.Controller
	gateway    *ai.Gateway
	settings   *settings.Store
}

func NewAnalysisHandler(controller *notebook.Controller, gateway *ai.Gateway, st *settings.Store) *AnalysisHandler {
	return &AnalysisHandler{controller: controller, gateway: gateway, settings: st}
}

// Analyze asks the configured AI provider for the three-section explanation
// and stores it on the record. AI failures are surfaced per action and never
// touch the record.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	err := h.controller.EnsureLoaded(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load mistakes")
		return
	}

	id := r.PathValue("id")
	record, ok := h.controller.ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}

	resolved := h.settings.Resolve()
	analysis, err := h.gateway.Analyze(r.Context(), record.Mistake, resolved)
	if err != nil {
		slog.Error("analysis failed", "error", err, "id", id, "model", resolved.AIModel)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	record.AIAnalysis = analysis
	updated, _, err := h.controller.Edit(r.Context(), record.Mistake)
	if err != nil {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// AnalysisHTML renders the stored analysis markdown to HTML.
func (h *AnalysisHandler) AnalysisHTML(w http.ResponseWriter, r *http.Request) {
	err := h.controller.EnsureLoaded(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load mistakes")
		return
	}

	record, ok := h.controller.ByID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "mistake not found")
		return
	}
	if record.AIAnalysis == "" {
		writeError(w, http.StatusNotFound, "no analysis yet")
		return
	}

	html, err := markdown.Render(record.AIAnalysis)
	if err != nil {
		slog.Error("failed to render analysis", "error", err, "id", record.ID)
		writeError(w, http.StatusInternalServerError, "failed to render analysis")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
