package simplecms

import (
	"context"
	"fmt"
)

// CandidatePools holds the selectable items for each section type. The
// projects pool is copied from the product collection once, when the pools
// are built; later product edits are not reflected until they are rebuilt.
type CandidatePools struct {
	pools map[SectionType][]Candidate
}

// NewCandidatePools builds pools from static catalogs plus a projects pool.
func NewCandidatePools(catalog map[SectionType][]Candidate, projects []Candidate) *CandidatePools {
	pools := make(map[SectionType][]Candidate, len(AllSectionTypes))
	for t, items := range catalog {
		pools[t] = append([]Candidate(nil), items...)
	}
	pools[SectionProjects] = append([]Candidate(nil), projects...)
	return &CandidatePools{pools: pools}
}

// LoadCandidatePools reads the product collection once and builds the pools.
func LoadCandidatePools(ctx context.Context, catalog map[SectionType][]Candidate, products *Collection[*Product]) (*CandidatePools, error) {
	items, err := products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load project candidates: %w", err)
	}
	return NewCandidatePools(catalog, ProjectCandidates(items)), nil
}

// ProjectCandidates turns products into project candidates.
func ProjectCandidates(products []*Product) []Candidate {
	out := make([]Candidate, 0, len(products))
	for _, p := range products {
		out = append(out, Candidate{ID: p.ID, Title: p.Name})
	}
	return out
}

// Candidates returns a copy of the pool for t.
func (p *CandidatePools) Candidates(t SectionType) []Candidate {
	return append([]Candidate{}, p.pools[t]...)
}

// Resolve maps the active ids of sel to candidates, skipping ids that are not
// in the pool.
func (p *CandidatePools) Resolve(sel RelatedContentSelection) map[SectionType][]Candidate {
	types := sel.ActiveTypes()
	out := make(map[SectionType][]Candidate, len(types))
	for _, t := range types {
		byID := make(map[string]Candidate, len(p.pools[t]))
		for _, c := range p.pools[t] {
			byID[c.ID] = c
		}
		resolved := []Candidate{}
		for _, id := range sel.Active(t) {
			if c, ok := byID[id]; ok {
				resolved = append(resolved, c)
			}
		}
		out[t] = resolved
	}
	return out
}

// DefaultCatalog is the built-in catalog for the static section types.
func DefaultCatalog() map[SectionType][]Candidate {
	return map[SectionType][]Candidate{
		SectionBlogs: {
			{ID: "blog-1", Title: "Choosing the Right Industrial Pump"},
			{ID: "blog-2", Title: "Preventive Maintenance Checklist"},
			{ID: "blog-3", Title: "Reducing Downtime with Spare Parts Planning"},
			{ID: "blog-4", Title: "Energy Efficiency in Fluid Systems"},
		},
		SectionServices: {
			{ID: "service-1", Title: "Installation & Commissioning"},
			{ID: "service-2", Title: "Repair & Overhaul"},
			{ID: "service-3", Title: "Field Service"},
			{ID: "service-4", Title: "Training"},
		},
		SectionParts: {
			{ID: "part-1", Title: "Mechanical Seals"},
			{ID: "part-2", Title: "Impellers"},
			{ID: "part-3", Title: "Bearings"},
			{ID: "part-4", Title: "Gaskets & O-Rings"},
		},
	}
}
