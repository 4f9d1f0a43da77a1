package simplecms_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/store/memory"
)

func newTestService(t *testing.T, opts ...simplecms.Option) (simplecms.Service, *memory.Backend) {
	t.Helper()
	store := memory.New()
	base := []simplecms.Option{
		simplecms.WithStore(store),
		simplecms.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	svc, err := simplecms.New(append(base, opts...)...)
	require.NoError(t, err)
	return svc, store
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []simplecms.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []simplecms.Option{},
			expectError: true,
		},
		{
			name:        "with store should succeed",
			options:     []simplecms.Option{simplecms.WithStore(memory.New())},
			expectError: false,
		},
		{
			name: "with store and event sink should succeed",
			options: []simplecms.Option{
				simplecms.WithStore(memory.New()),
				simplecms.WithEventSink(simplecms.NewLogEventSink(slog.New(slog.NewTextHandler(io.Discard, nil)))),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simplecms.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestServiceCategories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cat, err := svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{Name: "Industrial Pumps"})
	require.NoError(t, err)
	assert.NotEmpty(t, cat.ID)
	assert.Equal(t, "industrial-pumps", cat.Slug)
	assert.False(t, cat.CreatedAt.IsZero())

	updated, err := svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{ID: cat.ID, Name: "Pumps", Slug: "pumps"})
	require.NoError(t, err)
	assert.Equal(t, cat.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Pumps", updated.Name)

	_, err = svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{Name: "  "})
	assert.ErrorIs(t, err, simplecms.ErrValidation)
	_, err = svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{ID: "missing", Name: "x"})
	assert.ErrorIs(t, err, simplecms.ErrCategoryNotFound)
	_, err = svc.SaveCategory(ctx, "blogs", simplecms.SaveCategoryRequest{Name: "x"})
	assert.ErrorIs(t, err, simplecms.ErrInvalidKind)

	// Product and service categories are separate collections
	page, err := svc.ListCategories(ctx, simplecms.KindServices, simplecms.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	got, err := svc.GetCategory(ctx, simplecms.KindProducts, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pumps", got.Name)

	require.NoError(t, svc.DeleteCategory(ctx, simplecms.KindProducts, cat.ID))
	_, err = svc.GetCategory(ctx, simplecms.KindProducts, cat.ID)
	assert.ErrorIs(t, err, simplecms.ErrCategoryNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, simplecms.KindProducts, cat.ID), simplecms.ErrCategoryNotFound)
}

func TestServiceDeletedCategoryReadsUnassigned(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cat, err := svc.SaveCategory(ctx, simplecms.KindServices, simplecms.SaveCategoryRequest{Name: "Repair"})
	require.NoError(t, err)
	item, err := svc.SaveService(ctx, simplecms.SaveItemRequest{Name: "Pump Overhaul", CategoryID: cat.ID})
	require.NoError(t, err)

	label, err := svc.CategoryLabel(ctx, simplecms.KindServices, item.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Repair", label)

	require.NoError(t, svc.DeleteCategory(ctx, simplecms.KindServices, cat.ID))

	// The item keeps the dangling id
	got, err := svc.GetService(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, got.CategoryID)

	label, err = svc.CategoryLabel(ctx, simplecms.KindServices, got.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, simplecms.UnassignedLabel, label)

	orphans, err := svc.Orphans(ctx, simplecms.KindServices)
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID}, orphans)
}

func TestServiceMembership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	pumps, err := svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{Name: "Pumps"})
	require.NoError(t, err)
	valves, err := svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{Name: "Valves"})
	require.NoError(t, err)

	a, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "A", CategoryID: pumps.ID})
	require.NoError(t, err)
	b, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "B", CategoryID: valves.ID})
	require.NoError(t, err)
	c, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "C"})
	require.NoError(t, err)

	cl, err := svc.OpenMembership(ctx, simplecms.KindProducts, pumps.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, cl.IDs())

	cl.Toggle(a.ID)
	cl.Toggle(b.ID)
	cl.Toggle(c.ID)
	result, err := svc.CommitMembership(ctx, simplecms.KindProducts, cl)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{b.ID, c.ID}, result.Members)
	assert.Equal(t, []string{a.ID}, result.Unassigned)

	got, err := svc.GetProduct(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, pumps.ID, got.CategoryID)

	// An item belongs to at most one category: b left valves
	cl, err = svc.OpenMembership(ctx, simplecms.KindProducts, valves.ID)
	require.NoError(t, err)
	assert.Empty(t, cl.IDs())

	require.NoError(t, svc.AssignCategory(ctx, simplecms.KindProducts, a.ID, valves.ID))
	got, err = svc.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, valves.ID, got.CategoryID)

	_, err = svc.CommitMembership(ctx, "blogs", cl)
	assert.ErrorIs(t, err, simplecms.ErrInvalidKind)
}

func TestServiceMembershipFailedSaveKeepsState(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	cat, err := svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{Name: "Pumps"})
	require.NoError(t, err)
	p, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "A"})
	require.NoError(t, err)

	cl, err := svc.OpenMembership(ctx, simplecms.KindProducts, cat.ID)
	require.NoError(t, err)
	cl.Toggle(p.ID)

	store.FailPuts(errors.New("quota exceeded"))
	_, err = svc.CommitMembership(ctx, simplecms.KindProducts, cl)
	require.Error(t, err)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CategoryID)
}

func TestServiceStrictCategories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, simplecms.WithStrictCategories(true))

	_, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "A", CategoryID: "missing"})
	assert.ErrorIs(t, err, simplecms.ErrCategoryNotFound)

	p, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "A"})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.AssignCategory(ctx, simplecms.KindProducts, p.ID, "missing"), simplecms.ErrCategoryNotFound)
	_, err = svc.CommitMembership(ctx, simplecms.KindProducts, simplecms.NewChecklist("missing", p.ID))
	assert.ErrorIs(t, err, simplecms.ErrCategoryNotFound)
}

func TestServiceItemSelectionCap(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{
		Name: "A",
		Related: simplecms.RelatedContentSelection{
			SectionTypes: []simplecms.SectionType{simplecms.SectionBlogs, simplecms.SectionParts, simplecms.SectionServices},
		},
	})
	assert.ErrorIs(t, err, simplecms.ErrTooManySections)

	_, err = store.Get(ctx, simplecms.NameProducts)
	assert.ErrorIs(t, err, simplecms.ErrSnapshotNotFound)

	part, err := svc.SavePart(ctx, simplecms.SaveEntryRequest{
		Title: "Seal",
		Related: simplecms.RelatedContentSelection{
			SectionTypes: []simplecms.SectionType{simplecms.SectionBlogs, simplecms.SectionBlogs},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []simplecms.SectionType{simplecms.SectionBlogs}, part.Related.SectionTypes)
}

func TestServiceRelated(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	part, err := svc.SavePart(ctx, simplecms.SaveEntryRequest{Title: "Seal"})
	require.NoError(t, err)

	empty, err := svc.Related(ctx, simplecms.OwnerPart, part.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.SectionTypes)

	sel := simplecms.RelatedContentSelection{
		SectionTypes: []simplecms.SectionType{simplecms.SectionBlogs},
		RelatedBlogs: []string{"blog-1"},
		RelatedParts: []string{"part-2"},
	}
	saved, err := svc.SaveRelated(ctx, simplecms.OwnerPart, part.ID, sel)
	require.NoError(t, err)
	assert.Equal(t, sel, saved)

	loaded, err := svc.Related(ctx, simplecms.OwnerPart, part.ID)
	require.NoError(t, err)
	assert.Equal(t, sel, loaded)

	_, err = svc.SaveRelated(ctx, simplecms.OwnerPart, part.ID, simplecms.RelatedContentSelection{
		SectionTypes: []simplecms.SectionType{simplecms.SectionBlogs, simplecms.SectionParts, simplecms.SectionProjects},
	})
	assert.ErrorIs(t, err, simplecms.ErrTooManySections)
	loaded, err = svc.Related(ctx, simplecms.OwnerPart, part.ID)
	require.NoError(t, err)
	assert.Equal(t, sel, loaded)

	_, err = svc.Related(ctx, "blog", part.ID)
	assert.ErrorIs(t, err, simplecms.ErrValidation)

	// Deleting the owner drops its document
	require.NoError(t, svc.DeletePart(ctx, part.ID))
	_, err = store.Get(ctx, simplecms.RelatedName(simplecms.OwnerPart, part.ID))
	assert.ErrorIs(t, err, simplecms.ErrSnapshotNotFound)
}

func TestServiceSelectorPolicies(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var productUpdates, partUpdates int
	productSel, err := svc.NewSelector(ctx, simplecms.OwnerProduct, "p1", func(simplecms.RelatedContentSelection) { productUpdates++ })
	require.NoError(t, err)
	partSel, err := svc.NewSelector(ctx, simplecms.OwnerPart, "part-1", func(simplecms.RelatedContentSelection) { partUpdates++ })
	require.NoError(t, err)

	require.NoError(t, productSel.ToggleSectionType(simplecms.SectionBlogs))
	require.NoError(t, partSel.ToggleSectionType(simplecms.SectionBlogs))
	assert.Equal(t, 1, productUpdates)
	assert.Equal(t, 0, partUpdates)

	partSel.Save()
	assert.Equal(t, 1, partUpdates)
}

func TestServiceCandidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, simplecms.WithCatalog(map[simplecms.SectionType][]simplecms.Candidate{
		simplecms.SectionBlogs: {{ID: "b1", Title: "Pump Basics"}, {ID: "b2", Title: "Seals"}},
	}))

	blogs, err := svc.Candidates(ctx, simplecms.SectionBlogs)
	require.NoError(t, err)
	assert.Len(t, blogs, 2)

	projects, err := svc.Candidates(ctx, simplecms.SectionProjects)
	require.NoError(t, err)
	assert.Empty(t, projects)

	p, err := svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "Booster Station"})
	require.NoError(t, err)

	projects, err = svc.Candidates(ctx, simplecms.SectionProjects)
	require.NoError(t, err)
	assert.Equal(t, []simplecms.Candidate{{ID: p.ID, Title: "Booster Station"}}, projects)

	resolved, err := svc.ResolveRelated(ctx, simplecms.RelatedContentSelection{
		SectionTypes:    []simplecms.SectionType{simplecms.SectionBlogs, simplecms.SectionProjects},
		RelatedBlogs:    []string{"b2", "unknown"},
		RelatedProjects: []string{p.ID},
		RelatedParts:    []string{"part-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[simplecms.SectionType][]simplecms.Candidate{
		simplecms.SectionBlogs:    {{ID: "b2", Title: "Seals"}},
		simplecms.SectionProjects: {{ID: p.ID, Title: "Booster Station"}},
	}, resolved)

	_, err = svc.Candidates(ctx, "videos")
	assert.ErrorIs(t, err, simplecms.ErrInvalidSectionType)
	require.NoError(t, svc.RefreshCandidates(ctx))
}

func TestServiceSettings(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Settings(ctx, "unknown-page")
	assert.ErrorIs(t, err, simplecms.ErrUnknownDocument)

	name := simplecms.HomeSectionName("hero")
	saved, err := svc.SaveSettings(ctx, name, simplecms.PageSettings{
		Heading: "Welcome",
		Related: simplecms.RelatedContentSelection{SectionTypes: []simplecms.SectionType{simplecms.SectionServices}},
	})
	require.NoError(t, err)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := svc.Settings(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got.Heading)
	assert.Equal(t, []simplecms.SectionType{simplecms.SectionServices}, got.Related.SectionTypes)

	names, err := svc.SnapshotNames(ctx, "home_")
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)

	raw, err := svc.RawSnapshot(ctx, name)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"schemaVersion":1`)
}

func TestServiceLegacySettingsMigrated(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	name := simplecms.SettingsPartsLanding
	require.NoError(t, store.Put(ctx, name, []byte(`{"heading":"Parts","features":[{"label":"Stock","value":"5000 parts"}]}`)))

	got, err := svc.Settings(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []simplecms.Feature{{Heading: "Stock", Description: "5000 parts"}}, got.Features)
}

var _ simplecms.LeafItem = (*simplecms.ServiceItem)(nil)

func TestServiceItemsListAndMembership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cat, err := svc.SaveCategory(ctx, simplecms.KindServices, simplecms.SaveCategoryRequest{Name: "Repair"})
	require.NoError(t, err)
	a, err := svc.SaveService(ctx, simplecms.SaveItemRequest{Name: "Valve repair"})
	require.NoError(t, err)
	_, err = svc.SaveService(ctx, simplecms.SaveItemRequest{Name: "Site survey"})
	require.NoError(t, err)

	page, err := svc.ListServices(ctx, simplecms.ListOptions{Query: "valve"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, a.ID, page.Items[0].ID)

	require.NoError(t, svc.AssignCategory(ctx, simplecms.KindServices, a.ID, cat.ID))
	cats, err := svc.Categories(ctx, simplecms.KindServices)
	require.NoError(t, err)
	got, err := svc.GetService(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Repair", simplecms.CategoryLabel(cats, got.CategoryID))
}
