package simplecms

import (
	"strings"
	"time"
)

// SaveCategoryRequest creates a category (empty ID) or replaces one.
type SaveCategoryRequest struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Image       string
}

// SaveItemRequest creates a product or service (empty ID) or replaces one.
type SaveItemRequest struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Image       string
	CategoryID  string
	Related     RelatedContentSelection
}

// SaveEntryRequest creates a part or case study (empty ID) or replaces one.
type SaveEntryRequest struct {
	ID          string
	Title       string
	Client      string
	Description string
	Image       string
	Related     RelatedContentSelection
}

// ValidateSelection checks the section type cap and type names of sel.
func ValidateSelection(sel RelatedContentSelection) error {
	distinct := make([]SectionType, 0, len(sel.SectionTypes))
	for _, t := range sel.SectionTypes {
		if !t.IsValid() {
			return ErrInvalidSectionType
		}
		if !containsSection(distinct, t) {
			distinct = append(distinct, t)
		}
	}
	if len(distinct) > MaxSectionTypes {
		return &TooManySectionsError{Requested: distinct, Max: MaxSectionTypes}
	}
	return nil
}

// normalizeSelection removes duplicate section types; call after ValidateSelection.
func normalizeSelection(sel RelatedContentSelection) RelatedContentSelection {
	out := sel.Clone()
	distinct := make([]SectionType, 0, len(out.SectionTypes))
	for _, t := range out.SectionTypes {
		if !containsSection(distinct, t) {
			distinct = append(distinct, t)
		}
	}
	out.SectionTypes = distinct
	return out
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (r SaveItemRequest) slug() string {
	if r.Slug != "" {
		return r.Slug
	}
	return slugify(r.Name)
}

func (c *Category) apply(req SaveCategoryRequest, now time.Time) {
	c.Name = strings.TrimSpace(req.Name)
	c.Slug = req.Slug
	if c.Slug == "" {
		c.Slug = slugify(req.Name)
	}
	c.Description = req.Description
	c.Image = req.Image
	c.UpdatedAt = now
}

func (p *Product) apply(req SaveItemRequest, now time.Time) {
	p.Name = strings.TrimSpace(req.Name)
	p.Slug = req.slug()
	p.Description = req.Description
	p.Image = req.Image
	p.CategoryID = req.CategoryID
	p.Related = normalizeSelection(req.Related)
	p.UpdatedAt = now
}

func (s *ServiceItem) apply(req SaveItemRequest, now time.Time) {
	s.Name = strings.TrimSpace(req.Name)
	s.Slug = req.slug()
	s.Description = req.Description
	s.Image = req.Image
	s.CategoryID = req.CategoryID
	s.Related = normalizeSelection(req.Related)
	s.UpdatedAt = now
}

func (p *Part) apply(req SaveEntryRequest, now time.Time) {
	p.Title = strings.TrimSpace(req.Title)
	p.Description = req.Description
	p.Image = req.Image
	p.Related = normalizeSelection(req.Related)
	p.UpdatedAt = now
}

func (c *CaseStudy) apply(req SaveEntryRequest, now time.Time) {
	c.Title = strings.TrimSpace(req.Title)
	c.Client = req.Client
	c.Description = req.Description
	c.Image = req.Image
	c.Related = normalizeSelection(req.Related)
	c.UpdatedAt = now
}
