package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// EntryRequest is the request body for creating or updating a part or case study
type EntryRequest struct {
	Title       string                            `json:"title"`
	Client      string                            `json:"client"`
	Description string                            `json:"description"`
	Image       string                            `json:"image"`
	Related     simplecms.RelatedContentSelection `json:"related"`
}

// EntryResponse is the response body for a part or case study
type EntryResponse struct {
	ID          string                            `json:"id"`
	Title       string                            `json:"title"`
	Client      string                            `json:"client,omitempty"`
	Description string                            `json:"description"`
	Image       string                            `json:"image"`
	Related     simplecms.RelatedContentSelection `json:"related"`
	CreatedAt   time.Time                         `json:"created_at"`
	UpdatedAt   time.Time                         `json:"updated_at"`
}

func partResponse(p *simplecms.Part) EntryResponse {
	return EntryResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		Related:     p.Related.ActiveView(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func caseStudyResponse(c *simplecms.CaseStudy) EntryResponse {
	return EntryResponse{
		ID:          c.ID,
		Title:       c.Title,
		Client:      c.Client,
		Description: c.Description,
		Image:       c.Image,
		Related:     c.Related.ActiveView(),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func decodeEntry(r *http.Request, id string) (simplecms.SaveEntryRequest, error) {
	var req EntryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		return simplecms.SaveEntryRequest{}, err
	}
	return simplecms.SaveEntryRequest{
		ID:          id,
		Title:       req.Title,
		Client:      req.Client,
		Description: req.Description,
		Image:       req.Image,
		Related:     req.Related,
	}, nil
}

// Parts

func (h *Handler) ListParts(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, "Invalid list options", err)
		return
	}
	page, err := h.service.ListParts(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, "Failed to list parts", err)
		return
	}
	render.JSON(w, r, toPage(page, partResponse))
}

func (h *Handler) GetPart(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get part", err)
		return
	}
	render.JSON(w, r, partResponse(p))
}

func (h *Handler) CreatePart(w http.ResponseWriter, r *http.Request) {
	h.savePart(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdatePart(w http.ResponseWriter, r *http.Request) {
	h.savePart(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) savePart(w http.ResponseWriter, r *http.Request, id string, status int) {
	req, err := decodeEntry(r, id)
	if err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	p, err := h.service.SavePart(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, "Failed to save part", err)
		return
	}
	render.Status(r, status)
	render.JSON(w, r, partResponse(p))
}

func (h *Handler) DeletePart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePart(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, "Failed to delete part", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Case studies

func (h *Handler) ListCaseStudies(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, "Invalid list options", err)
		return
	}
	page, err := h.service.ListCaseStudies(r.Context(), opts)
	if err != nil {
		writeError(w, r, h.logger, "Failed to list case studies", err)
		return
	}
	render.JSON(w, r, toPage(page, caseStudyResponse))
}

func (h *Handler) GetCaseStudy(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCaseStudy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get case study", err)
		return
	}
	render.JSON(w, r, caseStudyResponse(c))
}

func (h *Handler) CreateCaseStudy(w http.ResponseWriter, r *http.Request) {
	h.saveCaseStudy(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateCaseStudy(w http.ResponseWriter, r *http.Request) {
	h.saveCaseStudy(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveCaseStudy(w http.ResponseWriter, r *http.Request, id string, status int) {
	req, err := decodeEntry(r, id)
	if err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	c, err := h.service.SaveCaseStudy(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, "Failed to save case study", err)
		return
	}
	render.Status(r, status)
	render.JSON(w, r, caseStudyResponse(c))
}

func (h *Handler) DeleteCaseStudy(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCaseStudy(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, "Failed to delete case study", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
