package simplecms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// service implements the Service interface
type service struct {
	store            SnapshotStore
	logger           *slog.Logger
	eventSink        EventSink
	migrator         *Migrator
	settingsMigrator *Migrator
	locker           *Locker
	catalog          map[SectionType][]Candidate
	strictCategories bool
	selectorConfigs  map[string]SelectorConfig

	productCategories *Collection[*Category]
	serviceCategories *Collection[*Category]
	products          *Collection[*Product]
	services          *Collection[*ServiceItem]
	parts             *Collection[*Part]
	caseStudies       *Collection[*CaseStudy]
	productMembers    *Reconciler[*Product]
	serviceMembers    *Reconciler[*ServiceItem]

	poolsMu sync.Mutex
	pools   *CandidatePools
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithStore sets the snapshot store for the service
func WithStore(store SnapshotStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithSchemaMigrator replaces the default migration chain
func WithSchemaMigrator(m *Migrator) Option {
	return func(s *service) {
		s.migrator = m
	}
}

// WithSettingsMigrator replaces the migration chain of page settings documents
func WithSettingsMigrator(m *Migrator) Option {
	return func(s *service) {
		s.settingsMigrator = m
	}
}

// WithCatalog sets the static candidate catalogs for blogs, services and parts
func WithCatalog(catalog map[SectionType][]Candidate) Option {
	return func(s *service) {
		s.catalog = catalog
	}
}

// WithStrictCategories rejects category ids that do not exist
func WithStrictCategories(strict bool) Option {
	return func(s *service) {
		s.strictCategories = strict
	}
}

// WithSelectorConfig sets the selector policy for one owner type
func WithSelectorConfig(owner string, cfg SelectorConfig) Option {
	return func(s *service) {
		if s.selectorConfigs == nil {
			s.selectorConfigs = make(map[string]SelectorConfig)
		}
		s.selectorConfigs[owner] = cfg
	}
}

// DefaultSelectorConfigs returns the per-owner selector policies: parts and
// case studies publish on submit, products and services on every change.
func DefaultSelectorConfigs() map[string]SelectorConfig {
	return map[string]SelectorConfig{
		OwnerProduct:   {Propagation: PropagateImmediate},
		OwnerService:   {Propagation: PropagateImmediate},
		OwnerPart:      {Propagation: PropagateOnSubmit},
		OwnerCaseStudy: {Propagation: PropagateOnSubmit},
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		selectorConfigs: DefaultSelectorConfigs(),
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.migrator == nil {
		s.migrator = DefaultMigrator()
	}
	if s.settingsMigrator == nil {
		s.settingsMigrator = SettingsMigrator()
	}
	if s.catalog == nil {
		s.catalog = DefaultCatalog()
	}
	s.locker = NewLocker()

	snapOpts := s.snapshotOptions()
	s.productCategories = NewCollection[*Category](s.store, NameProductCategories, snapOpts...)
	s.serviceCategories = NewCollection[*Category](s.store, NameServiceCategories, snapOpts...)
	s.products = NewCollection[*Product](s.store, NameProducts, snapOpts...)
	s.services = NewCollection[*ServiceItem](s.store, NameServices, snapOpts...)
	s.parts = NewCollection[*Part](s.store, NameParts, snapOpts...)
	s.caseStudies = NewCollection[*CaseStudy](s.store, NameCaseStudies, snapOpts...)

	productOpts := []ReconcilerOption{WithReconcilerEvents(s.eventSink), WithReconcilerLogger(s.logger)}
	serviceOpts := []ReconcilerOption{WithReconcilerEvents(s.eventSink), WithReconcilerLogger(s.logger)}
	if s.strictCategories {
		productOpts = append(productOpts, WithCategoryCheck(s.productCategories))
		serviceOpts = append(serviceOpts, WithCategoryCheck(s.serviceCategories))
	}
	s.productMembers = NewReconciler(s.products, productOpts...)
	s.serviceMembers = NewReconciler(s.services, serviceOpts...)

	return s, nil
}

func (s *service) snapshotOptions() []SnapshotOption {
	return []SnapshotOption{
		WithMigrator(s.migrator),
		WithLocker(s.locker),
		WithSnapshotEvents(s.eventSink),
		WithSnapshotLogger(s.logger),
	}
}

func (s *service) categories(kind Kind) (*Collection[*Category], error) {
	switch kind {
	case KindProducts:
		return s.productCategories, nil
	case KindServices:
		return s.serviceCategories, nil
	}
	return nil, ErrInvalidKind
}

// Category operations

func (s *service) ListCategories(ctx context.Context, kind Kind, opts ListOptions) (Page[*Category], error) {
	col, err := s.categories(kind)
	if err != nil {
		return Page[*Category]{}, err
	}
	return col.List(ctx, opts)
}

func (s *service) GetCategory(ctx context.Context, kind Kind, id string) (*Category, error) {
	col, err := s.categories(kind)
	if err != nil {
		return nil, err
	}
	c, err := col.Get(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

func (s *service) SaveCategory(ctx context.Context, kind Kind, req SaveCategoryRequest) (*Category, error) {
	col, err := s.categories(kind)
	if err != nil {
		return nil, err
	}
	if err := requireField("name", req.Name); err != nil {
		return nil, err
	}
	c, err := saveRecord(ctx, col, req.ID, req,
		func(id string, now time.Time) *Category { return &Category{ID: id, CreatedAt: now} },
		(*Category).apply)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Category saved", "kind", kind, "category_id", c.ID)
	return c, nil
}

// DeleteCategory removes the category only. Items that still reference it
// keep the dangling id and read back as UnassignedLabel.
func (s *service) DeleteCategory(ctx context.Context, kind Kind, id string) error {
	col, err := s.categories(kind)
	if err != nil {
		return err
	}
	if err := col.Remove(ctx, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	members, err := s.memberIDs(ctx, kind, id)
	if err != nil {
		s.logger.Warn("Failed to count members of deleted category", "kind", kind, "category_id", id, "error", err)
		return nil
	}
	if len(members) > 0 {
		s.logger.Warn("Category deleted while items still reference it",
			"kind", kind, "category_id", id, "items", len(members))
	}
	s.logger.Info("Category deleted", "kind", kind, "category_id", id)
	return nil
}

// Categories returns every category of kind from one snapshot read.
func (s *service) Categories(ctx context.Context, kind Kind) ([]*Category, error) {
	col, err := s.categories(kind)
	if err != nil {
		return nil, err
	}
	return col.Load(ctx)
}

func (s *service) CategoryLabel(ctx context.Context, kind Kind, categoryID string) (string, error) {
	cats, err := s.Categories(ctx, kind)
	if err != nil {
		return "", err
	}
	return CategoryLabel(cats, categoryID), nil
}

// Membership operations

func (s *service) OpenMembership(ctx context.Context, kind Kind, categoryID string) (*Checklist, error) {
	switch kind {
	case KindProducts:
		return s.productMembers.OpenFor(ctx, categoryID)
	case KindServices:
		return s.serviceMembers.OpenFor(ctx, categoryID)
	}
	return nil, ErrInvalidKind
}

func (s *service) CommitMembership(ctx context.Context, kind Kind, checklist *Checklist) (CommitResult, error) {
	switch kind {
	case KindProducts:
		return s.productMembers.Commit(ctx, checklist)
	case KindServices:
		return s.serviceMembers.Commit(ctx, checklist)
	}
	return CommitResult{}, ErrInvalidKind
}

func (s *service) AssignCategory(ctx context.Context, kind Kind, itemID, categoryID string) error {
	switch kind {
	case KindProducts:
		return s.productMembers.Assign(ctx, itemID, categoryID)
	case KindServices:
		return s.serviceMembers.Assign(ctx, itemID, categoryID)
	}
	return ErrInvalidKind
}

func (s *service) Orphans(ctx context.Context, kind Kind) ([]string, error) {
	col, err := s.categories(kind)
	if err != nil {
		return nil, err
	}
	cats, err := col.Load(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	switch kind {
	case KindProducts:
		items, err := s.products.Load(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range FindOrphans(items, cats) {
			ids = append(ids, item.ID)
		}
	case KindServices:
		items, err := s.services.Load(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range FindOrphans(items, cats) {
			ids = append(ids, item.ID)
		}
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *service) memberIDs(ctx context.Context, kind Kind, categoryID string) ([]string, error) {
	cl, err := s.OpenMembership(ctx, kind, categoryID)
	if err != nil {
		return nil, err
	}
	return cl.IDs(), nil
}

func (s *service) checkCategoryRef(ctx context.Context, kind Kind, categoryID string) error {
	if !s.strictCategories || categoryID == "" {
		return nil
	}
	_, err := s.GetCategory(ctx, kind, categoryID)
	return err
}

// Product operations

func (s *service) ListProducts(ctx context.Context, opts ListOptions) (Page[*Product], error) {
	return s.products.List(ctx, opts)
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.products.Get(ctx, id)
}

func (s *service) SaveProduct(ctx context.Context, req SaveItemRequest) (*Product, error) {
	if err := s.validateItem(ctx, KindProducts, req); err != nil {
		return nil, err
	}
	p, err := saveRecord(ctx, s.products, req.ID, req,
		func(id string, now time.Time) *Product { return &Product{ID: id, CreatedAt: now} },
		(*Product).apply)
	if err != nil {
		return nil, err
	}
	s.resetCandidates()
	s.logger.Info("Product saved", "product_id", p.ID, "category_id", p.CategoryID)
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Remove(ctx, id); err != nil {
		return err
	}
	s.resetCandidates()
	s.dropRelated(ctx, OwnerProduct, id)
	return nil
}

// Service item operations

func (s *service) ListServices(ctx context.Context, opts ListOptions) (Page[*ServiceItem], error) {
	return s.services.List(ctx, opts)
}

func (s *service) GetService(ctx context.Context, id string) (*ServiceItem, error) {
	return s.services.Get(ctx, id)
}

func (s *service) SaveService(ctx context.Context, req SaveItemRequest) (*ServiceItem, error) {
	if err := s.validateItem(ctx, KindServices, req); err != nil {
		return nil, err
	}
	svc, err := saveRecord(ctx, s.services, req.ID, req,
		func(id string, now time.Time) *ServiceItem { return &ServiceItem{ID: id, CreatedAt: now} },
		(*ServiceItem).apply)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Service saved", "service_id", svc.ID, "category_id", svc.CategoryID)
	return svc, nil
}

func (s *service) DeleteService(ctx context.Context, id string) error {
	if err := s.services.Remove(ctx, id); err != nil {
		return err
	}
	s.dropRelated(ctx, OwnerService, id)
	return nil
}

func (s *service) validateItem(ctx context.Context, kind Kind, req SaveItemRequest) error {
	if err := requireField("name", req.Name); err != nil {
		return err
	}
	if err := ValidateSelection(req.Related); err != nil {
		return err
	}
	return s.checkCategoryRef(ctx, kind, req.CategoryID)
}

// Part and case study operations

func (s *service) ListParts(ctx context.Context, opts ListOptions) (Page[*Part], error) {
	return s.parts.List(ctx, opts)
}

func (s *service) GetPart(ctx context.Context, id string) (*Part, error) {
	return s.parts.Get(ctx, id)
}

func (s *service) SavePart(ctx context.Context, req SaveEntryRequest) (*Part, error) {
	if err := validateEntry(req); err != nil {
		return nil, err
	}
	p, err := saveRecord(ctx, s.parts, req.ID, req,
		func(id string, now time.Time) *Part { return &Part{ID: id, CreatedAt: now} },
		(*Part).apply)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Part saved", "part_id", p.ID)
	return p, nil
}

func (s *service) DeletePart(ctx context.Context, id string) error {
	if err := s.parts.Remove(ctx, id); err != nil {
		return err
	}
	s.dropRelated(ctx, OwnerPart, id)
	return nil
}

func (s *service) ListCaseStudies(ctx context.Context, opts ListOptions) (Page[*CaseStudy], error) {
	return s.caseStudies.List(ctx, opts)
}

func (s *service) GetCaseStudy(ctx context.Context, id string) (*CaseStudy, error) {
	return s.caseStudies.Get(ctx, id)
}

func (s *service) SaveCaseStudy(ctx context.Context, req SaveEntryRequest) (*CaseStudy, error) {
	if err := validateEntry(req); err != nil {
		return nil, err
	}
	c, err := saveRecord(ctx, s.caseStudies, req.ID, req,
		func(id string, now time.Time) *CaseStudy { return &CaseStudy{ID: id, CreatedAt: now} },
		(*CaseStudy).apply)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Case study saved", "case_study_id", c.ID)
	return c, nil
}

func (s *service) DeleteCaseStudy(ctx context.Context, id string) error {
	if err := s.caseStudies.Remove(ctx, id); err != nil {
		return err
	}
	s.dropRelated(ctx, OwnerCaseStudy, id)
	return nil
}

func validateEntry(req SaveEntryRequest) error {
	if err := requireField("title", req.Title); err != nil {
		return err
	}
	return ValidateSelection(req.Related)
}

// Related-content operations

func (s *service) relatedDoc(owner, id string) (*Document[RelatedContentSelection], error) {
	if !IsRelatedOwner(owner) {
		return nil, fmt.Errorf("%w: owner %q", ErrValidation, owner)
	}
	if err := requireField("id", id); err != nil {
		return nil, err
	}
	return NewDocument[RelatedContentSelection](s.store, RelatedName(owner, id), s.snapshotOptions()...), nil
}

func (s *service) Related(ctx context.Context, owner, id string) (RelatedContentSelection, error) {
	doc, err := s.relatedDoc(owner, id)
	if err != nil {
		return RelatedContentSelection{}, err
	}
	return doc.Load(ctx)
}

func (s *service) SaveRelated(ctx context.Context, owner, id string, selection RelatedContentSelection) (RelatedContentSelection, error) {
	doc, err := s.relatedDoc(owner, id)
	if err != nil {
		return RelatedContentSelection{}, err
	}
	if err := ValidateSelection(selection); err != nil {
		return RelatedContentSelection{}, err
	}
	selection = normalizeSelection(selection)
	if err := doc.Save(ctx, selection); err != nil {
		return RelatedContentSelection{}, err
	}
	if err := s.eventSink.RelatedSaved(ctx, doc.Name(), selection); err != nil {
		s.logger.Warn("Event sink failed", "event", "related_saved", "name", doc.Name(), "error", err)
	}
	return selection, nil
}

func (s *service) NewSelector(ctx context.Context, owner, id string, onChange func(RelatedContentSelection)) (*Selector, error) {
	current, err := s.Related(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	cfg := s.selectorConfigs[owner]
	cfg.OnChange = onChange
	return NewSelector(current, cfg), nil
}

func (s *service) candidatePools(ctx context.Context) (*CandidatePools, error) {
	s.poolsMu.Lock()
	defer s.poolsMu.Unlock()
	if s.pools != nil {
		return s.pools, nil
	}
	pools, err := LoadCandidatePools(ctx, s.catalog, s.products)
	if err != nil {
		return nil, err
	}
	s.pools = pools
	return pools, nil
}

func (s *service) resetCandidates() {
	s.poolsMu.Lock()
	s.pools = nil
	s.poolsMu.Unlock()
}

func (s *service) Candidates(ctx context.Context, t SectionType) ([]Candidate, error) {
	if !t.IsValid() {
		return nil, ErrInvalidSectionType
	}
	pools, err := s.candidatePools(ctx)
	if err != nil {
		return nil, err
	}
	return pools.Candidates(t), nil
}

func (s *service) ResolveRelated(ctx context.Context, selection RelatedContentSelection) (map[SectionType][]Candidate, error) {
	pools, err := s.candidatePools(ctx)
	if err != nil {
		return nil, err
	}
	return pools.Resolve(selection), nil
}

func (s *service) RefreshCandidates(ctx context.Context) error {
	s.resetCandidates()
	_, err := s.candidatePools(ctx)
	return err
}

func (s *service) dropRelated(ctx context.Context, owner, id string) {
	doc, err := s.relatedDoc(owner, id)
	if err != nil {
		return
	}
	if err := doc.Delete(ctx); err != nil {
		s.logger.Warn("Failed to delete related content", "name", doc.Name(), "error", err)
	}
}

// Page settings operations

func (s *service) settingsDoc(name string) (*Document[PageSettings], error) {
	if !IsSettingsName(name) {
		return nil, ErrUnknownDocument
	}
	opts := append(s.snapshotOptions(), WithMigrator(s.settingsMigrator))
	return NewDocument[PageSettings](s.store, name, opts...), nil
}

func (s *service) Settings(ctx context.Context, name string) (PageSettings, error) {
	doc, err := s.settingsDoc(name)
	if err != nil {
		return PageSettings{}, err
	}
	return doc.Load(ctx)
}

func (s *service) SaveSettings(ctx context.Context, name string, settings PageSettings) (PageSettings, error) {
	doc, err := s.settingsDoc(name)
	if err != nil {
		return PageSettings{}, err
	}
	if err := ValidateSelection(settings.Related); err != nil {
		return PageSettings{}, err
	}
	settings.Related = normalizeSelection(settings.Related)
	settings.UpdatedAt = time.Now().UTC()
	if err := doc.Save(ctx, settings); err != nil {
		return PageSettings{}, err
	}
	return settings, nil
}

// Raw snapshot access

func (s *service) SnapshotNames(ctx context.Context, prefix string) ([]string, error) {
	return s.store.List(ctx, prefix)
}

func (s *service) RawSnapshot(ctx context.Context, name string) ([]byte, error) {
	return s.store.Get(ctx, name)
}

// saveRecord creates (empty id) or updates a record inside one collection update.
func saveRecord[T Record, R any](ctx context.Context, col *Collection[T], id string, req R,
	newRecord func(id string, now time.Time) T, apply func(T, R, time.Time)) (T, error) {
	now := time.Now().UTC()
	var saved T
	_, err := col.Update(ctx, func(items []T) ([]T, error) {
		if id == "" {
			rec := newRecord(NewID(), now)
			apply(rec, req, now)
			saved = rec
			return append(items, rec), nil
		}
		for _, item := range items {
			if item.GetID() == id {
				apply(item, req, now)
				saved = item
				return items, nil
			}
		}
		return nil, ErrRecordNotFound
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return saved, nil
}
