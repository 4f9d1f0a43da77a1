package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/store/memory"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := simplecms.New(
		simplecms.WithStore(memory.New()),
		simplecms.WithLogger(logger),
	)
	require.NoError(t, err)
	return NewHandler(svc, logger).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func createCategory(t *testing.T, h http.Handler, kind, name string) CategoryResponse {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/"+kind+"/categories", CategoryRequest{Name: name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[CategoryResponse](t, rr)
}

func createItem(t *testing.T, h http.Handler, kind, name, categoryID string) ItemResponse {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/"+kind+"/items", ItemRequest{Name: name, CategoryID: categoryID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[ItemResponse](t, rr)
}

func TestCategoriesAndItems(t *testing.T) {
	h := newTestHandler(t)

	pumps := createCategory(t, h, "products", "Pumps")
	assert.NotEmpty(t, pumps.ID)
	assert.Equal(t, "pumps", pumps.Slug)

	item := createItem(t, h, "products", "Centrifugal pump", pumps.ID)
	assert.Equal(t, pumps.ID, item.CategoryID)
	assert.Equal(t, "Pumps", item.CategoryLabel)

	rr := doJSON(t, h, http.MethodGet, "/products/items?q=centrifugal", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[PageResponse[ItemResponse]](t, rr)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, item.ID, page.Items[0].ID)

	// Deleting the category leaves the item pointing at a missing id
	rr = doJSON(t, h, http.MethodDelete, "/products/categories/"+pumps.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/products/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[ItemResponse](t, rr)
	assert.Equal(t, pumps.ID, got.CategoryID)
	assert.Equal(t, simplecms.UnassignedLabel, got.CategoryLabel)

	rr = doJSON(t, h, http.MethodGet, "/products/orphans", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{item.ID}, decode[map[string][]string](t, rr)["ids"])

	// Kinds do not share categories
	rr = doJSON(t, h, http.MethodGet, "/services/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[PageResponse[CategoryResponse]](t, rr).Total)
}

func TestItemNotFoundAndValidation(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/services/items/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/services/items", ItemRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "name", decode[ErrorResponse](t, rr).Field)

	rr = doJSON(t, h, http.MethodGet, "/widgets/items", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/products/items?page=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMembershipCommit(t *testing.T) {
	h := newTestHandler(t)

	a := createCategory(t, h, "products", "A")
	b := createCategory(t, h, "products", "B")
	p1 := createItem(t, h, "products", "P1", a.ID)
	p2 := createItem(t, h, "products", "P2", "")
	p3 := createItem(t, h, "products", "P3", b.ID)

	rr := doJSON(t, h, http.MethodGet, "/products/categories/"+a.ID+"/members", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	members := decode[MembersResponse](t, rr)
	assert.Equal(t, []string{p1.ID}, members.IDs)

	rr = doJSON(t, h, http.MethodPut, "/products/categories/"+a.ID+"/members", MembersRequest{IDs: []string{p2.ID, p3.ID}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[simplecms.CommitResult](t, rr)
	assert.Equal(t, []string{p2.ID}, result.Assigned)
	assert.Equal(t, []string{p3.ID}, result.Moved)
	assert.Equal(t, []string{p1.ID}, result.Unassigned)

	labels := map[string]string{}
	rr = doJSON(t, h, http.MethodGet, "/products/items", nil)
	for _, item := range decode[PageResponse[ItemResponse]](t, rr).Items {
		labels[item.ID] = item.CategoryLabel
	}
	assert.Equal(t, simplecms.UnassignedLabel, labels[p1.ID])
	assert.Equal(t, "A", labels[p2.ID])
	assert.Equal(t, "A", labels[p3.ID])

	rr = doJSON(t, h, http.MethodGet, "/products/categories/missing/members", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAssignItemCategory(t *testing.T) {
	h := newTestHandler(t)

	c := createCategory(t, h, "services", "Consulting")
	s := createItem(t, h, "services", "Audit", "")

	rr := doJSON(t, h, http.MethodPut, "/services/items/"+s.ID+"/category", AssignRequest{CategoryID: c.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Consulting", decode[ItemResponse](t, rr).CategoryLabel)

	rr = doJSON(t, h, http.MethodPut, "/services/items/"+s.ID+"/category", AssignRequest{})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, simplecms.UnassignedLabel, decode[ItemResponse](t, rr).CategoryLabel)
}

func TestRelatedCapAndActiveView(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/related/part/p1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[simplecms.RelatedContentSelection](t, rr).SectionTypes)

	rr = doJSON(t, h, http.MethodPut, "/related/part/p1", simplecms.RelatedContentSelection{
		SectionTypes: []simplecms.SectionType{simplecms.SectionBlogs},
		RelatedBlogs: []string{"blog-1"},
		RelatedParts: []string{"part-2"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved := decode[simplecms.RelatedContentSelection](t, rr)
	assert.Equal(t, []string{"blog-1"}, saved.RelatedBlogs)
	assert.Empty(t, saved.RelatedParts)

	rr = doJSON(t, h, http.MethodPut, "/related/part/p1", simplecms.RelatedContentSelection{
		SectionTypes: []simplecms.SectionType{simplecms.SectionBlogs, simplecms.SectionParts, simplecms.SectionProjects},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	errResp := decode[ErrorResponse](t, rr)
	assert.Equal(t, "too_many_sections", errResp.Code)
	assert.Equal(t, simplecms.MaxSectionTypes, errResp.Max)

	// The rejected update stored nothing
	rr = doJSON(t, h, http.MethodGet, "/related/part/p1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[simplecms.RelatedContentSelection](t, rr)
	assert.Equal(t, []simplecms.SectionType{simplecms.SectionBlogs}, got.SectionTypes)

	// A new selection replaces the document
	rr = doJSON(t, h, http.MethodPut, "/related/part/p1", simplecms.RelatedContentSelection{
		SectionTypes: []simplecms.SectionType{simplecms.SectionParts},
		RelatedParts: []string{"part-2"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"part-2"}, decode[simplecms.RelatedContentSelection](t, rr).RelatedParts)

	rr = doJSON(t, h, http.MethodGet, "/related/widget/p1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCandidatesAndResolve(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/candidates/projects", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]simplecms.Candidate](t, rr))

	p := createItem(t, h, "products", "Harbor crane", "")

	rr = doJSON(t, h, http.MethodGet, "/candidates/projects", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []simplecms.Candidate{{ID: p.ID, Title: "Harbor crane"}}, decode[[]simplecms.Candidate](t, rr))

	rr = doJSON(t, h, http.MethodPut, "/related/casestudy/c1", simplecms.RelatedContentSelection{
		SectionTypes:    []simplecms.SectionType{simplecms.SectionProjects},
		RelatedProjects: []string{p.ID, "gone"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/related/casestudy/c1/resolved", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resolved := decode[ResolvedResponse](t, rr)
	assert.Equal(t, []simplecms.Candidate{{ID: p.ID, Title: "Harbor crane"}}, resolved.Items[simplecms.SectionProjects])

	rr = doJSON(t, h, http.MethodGet, "/candidates/videos", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSettings(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodGet, "/settings/unknown-page", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodPut, "/settings/home_hero_data", simplecms.PageSettings{
		Heading:  "Welcome",
		Features: []simplecms.Feature{{Heading: "Fast", Description: "Ships in a day"}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/settings/home_hero_data", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[simplecms.PageSettings](t, rr)
	assert.Equal(t, "Welcome", got.Heading)
	assert.Equal(t, "Fast", got.Features[0].Heading)

	rr = doJSON(t, h, http.MethodGet, "/snapshots?prefix=home_", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"home_hero_data"}, decode[map[string][]string](t, rr)["names"])

	rr = doJSON(t, h, http.MethodGet, "/snapshots/home_hero_data", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"schemaVersion"`)

	rr = doJSON(t, h, http.MethodGet, "/snapshots/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPartsAndCaseStudies(t *testing.T) {
	h := newTestHandler(t)

	rr := doJSON(t, h, http.MethodPost, "/parts", EntryRequest{Title: "Valve"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	part := decode[EntryResponse](t, rr)

	rr = doJSON(t, h, http.MethodPut, "/parts/"+part.ID, EntryRequest{Title: "Valve v2"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Valve v2", decode[EntryResponse](t, rr).Title)

	rr = doJSON(t, h, http.MethodPost, "/case-studies", EntryRequest{
		Title:  "Port retrofit",
		Client: "Harbor Co",
		Related: simplecms.RelatedContentSelection{
			SectionTypes: []simplecms.SectionType{simplecms.SectionBlogs, simplecms.SectionParts, simplecms.SectionServices},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/parts/"+part.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = doJSON(t, h, http.MethodGet, "/parts/"+part.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRelatedLegacyOverCapDocument(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	svc, err := simplecms.New(simplecms.WithStore(store), simplecms.WithLogger(logger))
	require.NoError(t, err)
	h := NewHandler(svc, logger).Routes()

	// Written before the two-type limit existed
	legacy := `{"sectionTypes":["blogs","services","parts"],"relatedBlogs":["blog-1"],"relatedParts":["part-1"]}`
	require.NoError(t, store.Put(context.Background(), simplecms.RelatedName("part", "p1"), []byte(legacy)))

	rr := doJSON(t, h, http.MethodGet, "/related/part/p1", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[simplecms.RelatedContentSelection](t, rr)
	assert.Equal(t, []simplecms.SectionType{simplecms.SectionBlogs, simplecms.SectionServices}, got.SectionTypes)
	assert.Equal(t, []string{"blog-1"}, got.RelatedBlogs)
	assert.Empty(t, got.RelatedParts)

	rr = doJSON(t, h, http.MethodGet, "/related/part/p1/resolved", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resolved := decode[ResolvedResponse](t, rr)
	assert.Len(t, resolved.SectionTypes, simplecms.MaxSectionTypes)
	assert.NotContains(t, resolved.Items, simplecms.SectionParts)
}

func TestListHugePage(t *testing.T) {
	h := newTestHandler(t)
	createItem(t, h, "products", "Gear pump", "")

	rr := doJSON(t, h, http.MethodGet, "/products/items?page=922337203685477581&page_size=20", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decode[PageResponse[ItemResponse]](t, rr)
	assert.Equal(t, 1, page.Total)
	assert.Empty(t, page.Items)
}

type countingStore struct {
	*memory.Backend
	mu    sync.Mutex
	reads map[string]int
}

func (s *countingStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	s.reads[name]++
	s.mu.Unlock()
	return s.Backend.Get(ctx, name)
}

func (s *countingStore) readsOf(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[name]
}

func TestListItemsReadsCategoriesOnce(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &countingStore{Backend: memory.New(), reads: map[string]int{}}
	svc, err := simplecms.New(simplecms.WithStore(store), simplecms.WithLogger(logger))
	require.NoError(t, err)
	h := NewHandler(svc, logger).Routes()

	var last *simplecms.Category
	for i := 0; i < 150; i++ {
		last, err = svc.SaveCategory(ctx, simplecms.KindProducts, simplecms.SaveCategoryRequest{Name: fmt.Sprintf("Category %03d", i)})
		require.NoError(t, err)
	}
	_, err = svc.SaveProduct(ctx, simplecms.SaveItemRequest{Name: "Gear pump", CategoryID: last.ID})
	require.NoError(t, err)

	before := store.readsOf(simplecms.NameProductCategories)
	rr := doJSON(t, h, http.MethodGet, "/products/items", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	page := decode[PageResponse[ItemResponse]](t, rr)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Category 149", page.Items[0].CategoryLabel)
	assert.Equal(t, 1, store.readsOf(simplecms.NameProductCategories)-before)
}
