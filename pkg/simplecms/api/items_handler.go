package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// ItemRequest is the request body for creating or updating a product or service
type ItemRequest struct {
	Name        string                            `json:"name"`
	Slug        string                            `json:"slug"`
	Description string                            `json:"description"`
	Image       string                            `json:"image"`
	CategoryID  string                            `json:"category_id"`
	Related     simplecms.RelatedContentSelection `json:"related"`
}

// ItemResponse is the response body for a product or service
type ItemResponse struct {
	ID            string                            `json:"id"`
	Name          string                            `json:"name"`
	Slug          string                            `json:"slug"`
	Description   string                            `json:"description"`
	Image         string                            `json:"image"`
	CategoryID    string                            `json:"category_id"`
	CategoryLabel string                            `json:"category_label"`
	Related       simplecms.RelatedContentSelection `json:"related"`
	CreatedAt     time.Time                         `json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`
}

func productResponse(p *simplecms.Product, categories []*simplecms.Category) ItemResponse {
	return ItemResponse{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Image:         p.Image,
		CategoryID:    p.CategoryID,
		CategoryLabel: simplecms.CategoryLabel(categories, p.CategoryID),
		Related:       p.Related.ActiveView(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func serviceResponse(s *simplecms.ServiceItem, categories []*simplecms.Category) ItemResponse {
	return ItemResponse{
		ID:            s.ID,
		Name:          s.Name,
		Slug:          s.Slug,
		Description:   s.Description,
		Image:         s.Image,
		CategoryID:    s.CategoryID,
		CategoryLabel: simplecms.CategoryLabel(categories, s.CategoryID),
		Related:       s.Related.ActiveView(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, "Invalid list options", err)
		return
	}
	kind := kindFrom(r)
	categories, err := h.service.Categories(r.Context(), kind)
	if err != nil {
		writeError(w, r, h.logger, "Failed to load categories", err)
		return
	}

	switch kind {
	case simplecms.KindProducts:
		page, err := h.service.ListProducts(r.Context(), opts)
		if err != nil {
			writeError(w, r, h.logger, "Failed to list products", err)
			return
		}
		render.JSON(w, r, toPage(page, func(p *simplecms.Product) ItemResponse { return productResponse(p, categories) }))
	default:
		page, err := h.service.ListServices(r.Context(), opts)
		if err != nil {
			writeError(w, r, h.logger, "Failed to list services", err)
			return
		}
		render.JSON(w, r, toPage(page, func(s *simplecms.ServiceItem) ItemResponse { return serviceResponse(s, categories) }))
	}
}

func (h *Handler) getItem(ctx context.Context, kind simplecms.Kind, id string) (ItemResponse, error) {
	categories, err := h.service.Categories(ctx, kind)
	if err != nil {
		return ItemResponse{}, err
	}
	if kind == simplecms.KindProducts {
		p, err := h.service.GetProduct(ctx, id)
		if err != nil {
			return ItemResponse{}, err
		}
		return productResponse(p, categories), nil
	}
	s, err := h.service.GetService(ctx, id)
	if err != nil {
		return ItemResponse{}, err
	}
	return serviceResponse(s, categories), nil
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.getItem(r.Context(), kindFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Failed to get item", err)
		return
	}
	render.JSON(w, r, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	h.saveItem(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	h.saveItem(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) saveItem(w http.ResponseWriter, r *http.Request, id string, status int) {
	var req ItemRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	save := simplecms.SaveItemRequest{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Image:       req.Image,
		CategoryID:  req.CategoryID,
		Related:     req.Related,
	}

	kind := kindFrom(r)
	var savedID string
	if kind == simplecms.KindProducts {
		p, err := h.service.SaveProduct(r.Context(), save)
		if err != nil {
			writeError(w, r, h.logger, "Failed to save product", err)
			return
		}
		savedID = p.ID
	} else {
		s, err := h.service.SaveService(r.Context(), save)
		if err != nil {
			writeError(w, r, h.logger, "Failed to save service", err)
			return
		}
		savedID = s.ID
	}

	item, err := h.getItem(r.Context(), kind, savedID)
	if err != nil {
		writeError(w, r, h.logger, "Failed to get item", err)
		return
	}
	render.Status(r, status)
	render.JSON(w, r, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var err error
	if kindFrom(r) == simplecms.KindProducts {
		err = h.service.DeleteProduct(r.Context(), id)
	} else {
		err = h.service.DeleteService(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, h.logger, "Failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
