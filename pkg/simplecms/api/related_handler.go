package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// ResolvedResponse maps each active section type to its resolved candidates
type ResolvedResponse struct {
	SectionTypes []simplecms.SectionType                       `json:"sectionTypes"`
	Items        map[simplecms.SectionType][]simplecms.Candidate `json:"items"`
}

// GetRelated returns the active view of a record's related-content document
func (h *Handler) GetRelated(w http.ResponseWriter, r *http.Request) {
	sel, err := h.service.Related(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get related content", err)
		return
	}
	render.JSON(w, r, sel.ActiveView())
}

// SaveRelated replaces a record's related-content document. A selection with
// more than two section types is rejected with 422 and nothing is stored.
func (h *Handler) SaveRelated(w http.ResponseWriter, r *http.Request) {
	var sel simplecms.RelatedContentSelection
	if err := render.DecodeJSON(r.Body, &sel); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	saved, err := h.service.SaveRelated(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "id"), sel)
	if err != nil {
		writeError(w, r, h.logger, "Failed to save related content", err)
		return
	}
	render.JSON(w, r, saved.ActiveView())
}

// ResolveRelated returns the candidates behind the active ids of a record's selection
func (h *Handler) ResolveRelated(w http.ResponseWriter, r *http.Request) {
	sel, err := h.service.Related(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get related content", err)
		return
	}
	resolved, err := h.service.ResolveRelated(r.Context(), sel)
	if err != nil {
		writeError(w, r, h.logger, "Failed to resolve related content", err)
		return
	}
	render.JSON(w, r, ResolvedResponse{SectionTypes: sel.ActiveTypes(), Items: resolved})
}

func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	t, err := simplecms.ParseSectionType(chi.URLParam(r, "section"))
	if err != nil {
		writeError(w, r, h.logger, "Invalid section type", err)
		return
	}
	candidates, err := h.service.Candidates(r.Context(), t)
	if err != nil {
		writeError(w, r, h.logger, "Failed to list candidates", err)
		return
	}
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		filtered := make([]simplecms.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c.Title), q) {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	render.JSON(w, r, candidates)
}

// RefreshCandidates rebuilds the projects pool from the current products
func (h *Handler) RefreshCandidates(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshCandidates(r.Context()); err != nil {
		writeError(w, r, h.logger, "Failed to refresh candidates", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
