package simplecms

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SectionType is one of the auxiliary content types eligible for cross-linking.
type SectionType string

// Section type constants (typed).
const (
	SectionBlogs    SectionType = "blogs"
	SectionServices SectionType = "services"
	SectionParts    SectionType = "parts"
	SectionProjects SectionType = "projects"
)

// MaxSectionTypes is the number of section types that may be active at once.
const MaxSectionTypes = 2

// AllSectionTypes lists the section types in display order.
var AllSectionTypes = []SectionType{SectionBlogs, SectionServices, SectionParts, SectionProjects}

// IsValid reports whether t is a known section type.
func (t SectionType) IsValid() bool {
	switch t {
	case SectionBlogs, SectionServices, SectionParts, SectionProjects:
		return true
	}
	return false
}

// ParseSectionType converts a string into a SectionType.
func ParseSectionType(s string) (SectionType, error) {
	t := SectionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidSectionType
	}
	return t, nil
}

// RelatedContentSelection is embedded in every ownable record. Id lists for
// types absent from SectionTypes are inert: they may be kept but are never
// surfaced by ActiveView or Active.
type RelatedContentSelection struct {
	SectionTypes    []SectionType `json:"sectionTypes"`
	RelatedBlogs    []string      `json:"relatedBlogs,omitempty"`
	RelatedServices []string      `json:"relatedServices,omitempty"`
	RelatedParts    []string      `json:"relatedParts,omitempty"`
	RelatedProjects []string      `json:"relatedProjects,omitempty"`
}

// ActiveTypes returns SectionTypes with unknown and repeated types dropped,
// cut to MaxSectionTypes. Stored data that predates the cap reads through it.
func (s RelatedContentSelection) ActiveTypes() []SectionType {
	types := make([]SectionType, 0, MaxSectionTypes)
	for _, t := range s.SectionTypes {
		if !t.IsValid() || containsSection(types, t) {
			continue
		}
		if len(types) == MaxSectionTypes {
			break
		}
		types = append(types, t)
	}
	return types
}

// IsActive reports whether t is currently selected.
func (s RelatedContentSelection) IsActive(t SectionType) bool {
	return containsSection(s.ActiveTypes(), t)
}

// Items returns the stored ids for t regardless of whether t is active.
func (s RelatedContentSelection) Items(t SectionType) []string {
	switch t {
	case SectionBlogs:
		return s.RelatedBlogs
	case SectionServices:
		return s.RelatedServices
	case SectionParts:
		return s.RelatedParts
	case SectionProjects:
		return s.RelatedProjects
	}
	return nil
}

// Active returns the ids for t only when t is active.
func (s RelatedContentSelection) Active(t SectionType) []string {
	if !s.IsActive(t) {
		return nil
	}
	return cloneStrings(s.Items(t))
}

// ActiveView returns a copy with the lists of inactive types cleared.
func (s RelatedContentSelection) ActiveView() RelatedContentSelection {
	view := RelatedContentSelection{SectionTypes: s.ActiveTypes()}
	for _, t := range view.SectionTypes {
		view.setItems(t, cloneStrings(s.Items(t)))
	}
	return view
}

// Clone returns a deep copy.
func (s RelatedContentSelection) Clone() RelatedContentSelection {
	return RelatedContentSelection{
		SectionTypes:    cloneSections(s.SectionTypes),
		RelatedBlogs:    cloneStrings(s.RelatedBlogs),
		RelatedServices: cloneStrings(s.RelatedServices),
		RelatedParts:    cloneStrings(s.RelatedParts),
		RelatedProjects: cloneStrings(s.RelatedProjects),
	}
}

func (s *RelatedContentSelection) setItems(t SectionType, ids []string) {
	switch t {
	case SectionBlogs:
		s.RelatedBlogs = ids
	case SectionServices:
		s.RelatedServices = ids
	case SectionParts:
		s.RelatedParts = ids
	case SectionProjects:
		s.RelatedProjects = ids
	}
}

// Record is anything stored in a Collection.
type Record interface {
	GetID() string
}

// LeafItem is a record that belongs to at most one category.
type LeafItem interface {
	Record
	CategoryRef() string
	SetCategoryRef(categoryID string)
}

// Searchable records expose the text matched by list search.
type Searchable interface {
	SearchText() string
}

// Category groups leaf items. Membership is not stored on the category; it is
// derived from the items' CategoryID.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Category) GetID() string      { return c.ID }
func (c *Category) SearchText() string { return c.Name + " " + c.Slug + " " + c.Description }

// Product is a leaf item listed under a product category.
type Product struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Slug        string                  `json:"slug,omitempty"`
	Description string                  `json:"description,omitempty"`
	Image       string                  `json:"image,omitempty"`
	CategoryID  string                  `json:"categoryId"`
	Related     RelatedContentSelection `json:"related"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func (p *Product) GetID() string                    { return p.ID }
func (p *Product) CategoryRef() string              { return p.CategoryID }
func (p *Product) SetCategoryRef(categoryID string) { p.CategoryID = categoryID }
func (p *Product) SearchText() string               { return p.Name + " " + p.Slug + " " + p.Description }

// ServiceItem is a leaf item listed under a service category.
type ServiceItem struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Slug        string                  `json:"slug,omitempty"`
	Description string                  `json:"description,omitempty"`
	Image       string                  `json:"image,omitempty"`
	CategoryID  string                  `json:"categoryId"`
	Related     RelatedContentSelection `json:"related"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func (s *ServiceItem) GetID() string                    { return s.ID }
func (s *ServiceItem) CategoryRef() string              { return s.CategoryID }
func (s *ServiceItem) SetCategoryRef(categoryID string) { s.CategoryID = categoryID }
func (s *ServiceItem) SearchText() string               { return s.Name + " " + s.Slug + " " + s.Description }

// Part is an ownable record without a category.
type Part struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Image       string                  `json:"image,omitempty"`
	Related     RelatedContentSelection `json:"related"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func (p *Part) GetID() string      { return p.ID }
func (p *Part) SearchText() string { return p.Title + " " + p.Description }

// CaseStudy is an ownable record without a category.
type CaseStudy struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Client      string                  `json:"client,omitempty"`
	Description string                  `json:"description,omitempty"`
	Image       string                  `json:"image,omitempty"`
	Related     RelatedContentSelection `json:"related"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func (c *CaseStudy) GetID() string      { return c.ID }
func (c *CaseStudy) SearchText() string { return c.Title + " " + c.Client + " " + c.Description }

// Feature is one heading/description pair on a settings page. Older data used
// label/value; see the v1 migration.
type Feature struct {
	Heading     string `json:"heading"`
	Description string `json:"description"`
}

// PageSettings is the page-config record shared by landing and home sections.
type PageSettings struct {
	Heading     string                  `json:"heading,omitempty"`
	Subheading  string                  `json:"subheading,omitempty"`
	Description string                  `json:"description,omitempty"`
	Image       string                  `json:"image,omitempty"`
	Features    []Feature               `json:"features,omitempty"`
	Related     RelatedContentSelection `json:"related"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// Candidate is one selectable item in a related-content pool.
type Candidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CommitResult describes the outcome of a membership commit.
type CommitResult struct {
	CategoryID string   `json:"category_id"`
	Assigned   []string `json:"assigned"`
	Moved      []string `json:"moved"`
	Unassigned []string `json:"unassigned"`
	Members    []string `json:"members"`
}

// ListOptions controls search and pagination for collection listing.
type ListOptions struct {
	Query    string
	Page     int
	PageSize int
}

// Page is one page of list results.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewID returns a time-ordered record identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneSections(in []SectionType) []SectionType {
	if in == nil {
		return nil
	}
	out := make([]SectionType, len(in))
	copy(out, in)
	return out
}
