package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Handler serves the admin API on top of a simplecms.Service
type Handler struct {
	service      simplecms.Service
	logger       *slog.Logger
	maxBodyBytes int64
}

// NewHandler creates a new API handler
func NewHandler(service simplecms.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger, maxBodyBytes: DefaultMaxBodyBytes}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes
func (h *Handler) WithMaxBodyBytes(n int64) *Handler {
	if n > 0 {
		h.maxBodyBytes = n
	}
	return h
}

// Routes returns the admin routes. Mount them under /api/v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(LimitBody(h.maxBodyBytes))

	r.Route("/related/{owner}/{id}", func(r chi.Router) {
		r.Get("/", h.GetRelated)
		r.Put("/", h.SaveRelated)
		r.Get("/resolved", h.ResolveRelated)
	})
	r.Get("/candidates/{section}", h.ListCandidates)
	r.Post("/candidates/refresh", h.RefreshCandidates)

	r.Get("/settings/{name}", h.GetSettings)
	r.Put("/settings/{name}", h.SaveSettings)

	r.Get("/snapshots", h.ListSnapshots)
	r.Get("/snapshots/{name}", h.GetSnapshot)

	r.Route("/parts", func(r chi.Router) {
		r.Get("/", h.ListParts)
		r.Post("/", h.CreatePart)
		r.Get("/{id}", h.GetPart)
		r.Put("/{id}", h.UpdatePart)
		r.Delete("/{id}", h.DeletePart)
	})
	r.Route("/case-studies", func(r chi.Router) {
		r.Get("/", h.ListCaseStudies)
		r.Post("/", h.CreateCaseStudy)
		r.Get("/{id}", h.GetCaseStudy)
		r.Put("/{id}", h.UpdateCaseStudy)
		r.Delete("/{id}", h.DeleteCaseStudy)
	})

	r.Route("/{kind}", func(r chi.Router) {
		r.Use(h.kindCtx)

		r.Get("/categories", h.ListCategories)
		r.Post("/categories", h.CreateCategory)
		r.Get("/categories/{id}", h.GetCategory)
		r.Put("/categories/{id}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)
		r.Get("/categories/{id}/members", h.GetMembers)
		r.Put("/categories/{id}/members", h.CommitMembers)

		r.Get("/items", h.ListItems)
		r.Post("/items", h.CreateItem)
		r.Get("/items/{id}", h.GetItem)
		r.Put("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.DeleteItem)
		r.Put("/items/{id}/category", h.AssignItemCategory)

		r.Get("/orphans", h.ListOrphans)
	})

	return r
}

// listOptions reads q, page and page_size from the query string
func listOptions(r *http.Request) (simplecms.ListOptions, error) {
	q := r.URL.Query()
	opts := simplecms.ListOptions{Query: q.Get("q")}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return opts, &simplecms.ValidationError{Field: "page", Message: "must be a positive integer"}
		}
		opts.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return opts, &simplecms.ValidationError{Field: "page_size", Message: "must be a positive integer"}
		}
		opts.PageSize = size
	}
	return opts, nil
}

// PageResponse wraps one page of list results
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func toPage[S, T any](p simplecms.Page[S], convert func(S) T) PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, convert(item))
	}
	return PageResponse[T]{Items: items, Total: p.Total, Page: p.Page, PageSize: p.PageSize}
}
