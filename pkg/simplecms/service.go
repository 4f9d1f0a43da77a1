package simplecms

import (
	"context"
)

// Service is the main interface for the content admin. It owns every named
// collection of one SnapshotStore.
type Service interface {
	// Category operations
	ListCategories(ctx context.Context, kind Kind, opts ListOptions) (Page[*Category], error)
	Categories(ctx context.Context, kind Kind) ([]*Category, error)
	GetCategory(ctx context.Context, kind Kind, id string) (*Category, error)
	SaveCategory(ctx context.Context, kind Kind, req SaveCategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, kind Kind, id string) error
	CategoryLabel(ctx context.Context, kind Kind, categoryID string) (string, error)

	// Membership operations
	OpenMembership(ctx context.Context, kind Kind, categoryID string) (*Checklist, error)
	CommitMembership(ctx context.Context, kind Kind, checklist *Checklist) (CommitResult, error)
	AssignCategory(ctx context.Context, kind Kind, itemID, categoryID string) error
	Orphans(ctx context.Context, kind Kind) ([]string, error)

	// Product operations
	ListProducts(ctx context.Context, opts ListOptions) (Page[*Product], error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	SaveProduct(ctx context.Context, req SaveItemRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Service item operations
	ListServices(ctx context.Context, opts ListOptions) (Page[*ServiceItem], error)
	GetService(ctx context.Context, id string) (*ServiceItem, error)
	SaveService(ctx context.Context, req SaveItemRequest) (*ServiceItem, error)
	DeleteService(ctx context.Context, id string) error

	// Part and case study operations
	ListParts(ctx context.Context, opts ListOptions) (Page[*Part], error)
	GetPart(ctx context.Context, id string) (*Part, error)
	SavePart(ctx context.Context, req SaveEntryRequest) (*Part, error)
	DeletePart(ctx context.Context, id string) error
	ListCaseStudies(ctx context.Context, opts ListOptions) (Page[*CaseStudy], error)
	GetCaseStudy(ctx context.Context, id string) (*CaseStudy, error)
	SaveCaseStudy(ctx context.Context, req SaveEntryRequest) (*CaseStudy, error)
	DeleteCaseStudy(ctx context.Context, id string) error

	// Related-content operations
	Related(ctx context.Context, owner, id string) (RelatedContentSelection, error)
	SaveRelated(ctx context.Context, owner, id string, selection RelatedContentSelection) (RelatedContentSelection, error)
	NewSelector(ctx context.Context, owner, id string, onChange func(RelatedContentSelection)) (*Selector, error)
	Candidates(ctx context.Context, t SectionType) ([]Candidate, error)
	ResolveRelated(ctx context.Context, selection RelatedContentSelection) (map[SectionType][]Candidate, error)
	RefreshCandidates(ctx context.Context) error

	// Page settings operations
	Settings(ctx context.Context, name string) (PageSettings, error)
	SaveSettings(ctx context.Context, name string, settings PageSettings) (PageSettings, error)

	// Raw snapshot access for administration
	SnapshotNames(ctx context.Context, prefix string) ([]string, error)
	RawSnapshot(ctx context.Context, name string) ([]byte, error)
}
