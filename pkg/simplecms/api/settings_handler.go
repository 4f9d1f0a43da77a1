package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get settings", err)
		return
	}
	settings.Related = settings.Related.ActiveView()
	render.JSON(w, r, settings)
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings simplecms.PageSettings
	if err := render.DecodeJSON(r.Body, &settings); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	saved, err := h.service.SaveSettings(r.Context(), chi.URLParam(r, "name"), settings)
	if err != nil {
		writeError(w, r, h.logger, "Failed to save settings", err)
		return
	}
	saved.Related = saved.Related.ActiveView()
	render.JSON(w, r, saved)
}

// ListSnapshots returns the stored snapshot names, optionally filtered by ?prefix=
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.SnapshotNames(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to list snapshots", err)
		return
	}
	render.JSON(w, r, map[string][]string{"names": names})
}

// GetSnapshot returns one stored snapshot as written
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.RawSnapshot(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get snapshot", err)
		return
	}
	render.JSON(w, r, json.RawMessage(data))
}
