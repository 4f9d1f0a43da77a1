package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

type kindKey struct{}

// kindCtx resolves {kind} once for every route below it
func (h *Handler) kindCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind, err := simplecms.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			writeError(w, r, h.logger, "Invalid kind", err)
			return
		}
		ctx := context.WithValue(r.Context(), kindKey{}, kind)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func kindFrom(r *http.Request) simplecms.Kind {
	kind, _ := r.Context().Value(kindKey{}).(simplecms.Kind)
	return kind
}

// CategoryRequest is the request body for creating or updating a category
type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CategoryResponse is the response body for a category
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCategoryResponse(c *simplecms.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Image:       c.Image,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// MembersRequest is the checked set submitted from the membership dialog
type MembersRequest struct {
	IDs []string `json:"ids"`
}

// MembersResponse is the preselected checklist for a category
type MembersResponse struct {
	CategoryID string   `json:"category_id"`
	IDs        []string `json:"ids"`
}

// AssignRequest moves one item to a category; an empty category unassigns it
type AssignRequest struct {
	CategoryID string `json:"category_id"`
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, "Invalid list options", err)
		return
	}
	page, err := h.service.ListCategories(r.Context(), kindFrom(r), opts)
	if err != nil {
		writeError(w, r, h.logger, "Failed to list categories", err)
		return
	}
	render.JSON(w, r, toPage(page, toCategoryResponse))
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCategory(r.Context(), kindFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get category", err)
		return
	}
	render.JSON(w, r, toCategoryResponse(c))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveCategory(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req CategoryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	c, err := h.service.SaveCategory(r.Context(), kindFrom(r), simplecms.SaveCategoryRequest{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		writeError(w, r, h.logger, "Failed to save category", err)
		return
	}
	render.Status(r, status)
	render.JSON(w, r, toCategoryResponse(c))
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), kindFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMembers returns the checklist preselected with the category's current members
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	kind := kindFrom(r)
	categoryID := chi.URLParam(r, "id")
	if _, err := h.service.GetCategory(r.Context(), kind, categoryID); err != nil {
		writeError(w, r, h.logger, "Failed to open membership", err)
		return
	}
	cl, err := h.service.OpenMembership(r.Context(), kind, categoryID)
	if err != nil {
		writeError(w, r, h.logger, "Failed to open membership", err)
		return
	}
	render.JSON(w, r, MembersResponse{CategoryID: cl.CategoryID(), IDs: cl.IDs()})
}

// CommitMembers reconciles the item collection against the submitted checked set
func (h *Handler) CommitMembers(w http.ResponseWriter, r *http.Request) {
	var req MembersRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	kind := kindFrom(r)
	categoryID := chi.URLParam(r, "id")
	if _, err := h.service.GetCategory(r.Context(), kind, categoryID); err != nil {
		writeError(w, r, h.logger, "Failed to commit membership", err)
		return
	}

	result, err := h.service.CommitMembership(r.Context(), kind, simplecms.NewChecklist(categoryID, req.IDs...))
	if err != nil {
		writeError(w, r, h.logger, "Failed to commit membership", err)
		return
	}
	render.JSON(w, r, result)
}

func (h *Handler) AssignItemCategory(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	kind := kindFrom(r)
	id := chi.URLParam(r, "id")
	if err := h.service.AssignCategory(r.Context(), kind, id, req.CategoryID); err != nil {
		writeError(w, r, h.logger, "Failed to assign category", err)
		return
	}
	item, err := h.getItem(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, h.logger, "Failed to get item", err)
		return
	}
	render.JSON(w, r, item)
}

func (h *Handler) ListOrphans(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Orphans(r.Context(), kindFrom(r))
	if err != nil {
		writeError(w, r, h.logger, "Failed to list orphans", err)
		return
	}
	render.JSON(w, r, map[string][]string{"ids": ids})
}
