package simplecms

import (
	"context"
	"errors"
	"log/slog"
	"sort"
)

// UnassignedLabel is shown for items without a (live) category.
const UnassignedLabel = "Unassigned"

// Checklist is the pending checked set of a membership dialog.
type Checklist struct {
	categoryID string
	initial    map[string]struct{}
	checked    map[string]struct{}
}

// NewChecklist creates a checklist for categoryID with ids checked.
func NewChecklist(categoryID string, ids ...string) *Checklist {
	cl := &Checklist{
		categoryID: categoryID,
		initial:    make(map[string]struct{}, len(ids)),
		checked:    make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		cl.initial[id] = struct{}{}
		cl.checked[id] = struct{}{}
	}
	return cl
}

// CategoryID returns the category the checklist was opened for.
func (c *Checklist) CategoryID() string {
	return c.categoryID
}

// Toggle flips id in the checked set.
func (c *Checklist) Toggle(id string) {
	if _, ok := c.checked[id]; ok {
		delete(c.checked, id)
		return
	}
	c.checked[id] = struct{}{}
}

// Set checks or unchecks id.
func (c *Checklist) Set(id string, checked bool) {
	if checked {
		c.checked[id] = struct{}{}
		return
	}
	delete(c.checked, id)
}

// Checked reports whether id is checked.
func (c *Checklist) Checked(id string) bool {
	_, ok := c.checked[id]
	return ok
}

// IDs returns the checked ids, sorted.
func (c *Checklist) IDs() []string {
	return sortedKeys(c.checked)
}

// Changed reports whether the checked set differs from the one at open.
func (c *Checklist) Changed() bool {
	if len(c.initial) != len(c.checked) {
		return true
	}
	for id := range c.initial {
		if _, ok := c.checked[id]; !ok {
			return true
		}
	}
	return false
}

// ApplyMembership applies the checklist rule to every item in place:
// checked items move to categoryID, unchecked members are unassigned, all
// others are left alone. Each item is decided on its own, so the outcome does
// not depend on item order.
func ApplyMembership[T LeafItem](items []T, categoryID string, checked map[string]struct{}) CommitResult {
	result := CommitResult{
		CategoryID: categoryID,
		Assigned:   []string{},
		Moved:      []string{},
		Unassigned: []string{},
		Members:    []string{},
	}
	for _, item := range items {
		current := item.CategoryRef()
		_, isChecked := checked[item.GetID()]
		switch {
		case isChecked:
			if current == "" {
				result.Assigned = append(result.Assigned, item.GetID())
			} else if current != categoryID {
				result.Moved = append(result.Moved, item.GetID())
			}
			item.SetCategoryRef(categoryID)
			result.Members = append(result.Members, item.GetID())
		case current == categoryID:
			item.SetCategoryRef("")
			result.Unassigned = append(result.Unassigned, item.GetID())
		}
	}
	sort.Strings(result.Assigned)
	sort.Strings(result.Moved)
	sort.Strings(result.Unassigned)
	sort.Strings(result.Members)
	return result
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*reconcilerConfig)

type reconcilerConfig struct {
	categories *Collection[*Category]
	events     EventSink
	logger     *slog.Logger
}

// WithCategoryCheck makes Commit and Assign fail with ErrCategoryNotFound when
// the target category is not in categories. Without it dangling references
// are accepted.
func WithCategoryCheck(categories *Collection[*Category]) ReconcilerOption {
	return func(c *reconcilerConfig) {
		c.categories = categories
	}
}

// WithReconcilerEvents sets the event sink.
func WithReconcilerEvents(sink EventSink) ReconcilerOption {
	return func(c *reconcilerConfig) {
		c.events = sink
	}
}

// WithReconcilerLogger sets the logger.
func WithReconcilerLogger(logger *slog.Logger) ReconcilerOption {
	return func(c *reconcilerConfig) {
		c.logger = logger
	}
}

// Reconciler maintains the category membership of one leaf collection.
type Reconciler[T LeafItem] struct {
	items *Collection[T]
	cfg   reconcilerConfig
}

// NewReconciler creates a reconciler over items.
func NewReconciler[T LeafItem](items *Collection[T], opts ...ReconcilerOption) *Reconciler[T] {
	cfg := reconcilerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.events == nil {
		cfg.events = NewNoopEventSink()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Reconciler[T]{items: items, cfg: cfg}
}

// OpenFor reads the collection and returns a checklist with the current
// members of categoryID checked.
func (r *Reconciler[T]) OpenFor(ctx context.Context, categoryID string) (*Checklist, error) {
	items, err := r.items.Load(ctx)
	if err != nil {
		return nil, err
	}
	var members []string
	for _, item := range items {
		if categoryID != "" && item.CategoryRef() == categoryID {
			members = append(members, item.GetID())
		}
	}
	return NewChecklist(categoryID, members...), nil
}

// Commit applies the checklist to one fresh snapshot of the collection and
// writes it back in a single save.
func (r *Reconciler[T]) Commit(ctx context.Context, checklist *Checklist) (CommitResult, error) {
	categoryID := checklist.CategoryID()
	if categoryID == "" {
		return CommitResult{}, &ValidationError{Field: "categoryId", Message: "is required"}
	}
	if err := r.checkCategory(ctx, categoryID); err != nil {
		return CommitResult{}, err
	}

	var result CommitResult
	_, err := r.items.Update(ctx, func(items []T) ([]T, error) {
		result = ApplyMembership(items, categoryID, checklist.checked)
		return items, nil
	})
	if err != nil {
		return CommitResult{}, err
	}

	r.cfg.logger.Info("Membership committed",
		"collection", r.items.Name(),
		"category_id", categoryID,
		"members", len(result.Members),
		"assigned", len(result.Assigned),
		"moved", len(result.Moved),
		"unassigned", len(result.Unassigned))
	if err := r.cfg.events.MembershipCommitted(ctx, r.items.Name(), result); err != nil {
		r.cfg.logger.Warn("Event sink failed", "event", "membership_committed", "error", err)
	}
	return result, nil
}

// Assign sets the category of a single item; an empty categoryID unassigns it.
func (r *Reconciler[T]) Assign(ctx context.Context, itemID, categoryID string) error {
	if categoryID != "" {
		if err := r.checkCategory(ctx, categoryID); err != nil {
			return err
		}
	}
	_, err := r.items.Update(ctx, func(items []T) ([]T, error) {
		found := false
		for _, item := range items {
			if item.GetID() == itemID {
				item.SetCategoryRef(categoryID)
				found = true
			}
		}
		if !found {
			return nil, ErrRecordNotFound
		}
		return items, nil
	})
	return err
}

// Members returns the items currently in categoryID.
func (r *Reconciler[T]) Members(ctx context.Context, categoryID string) ([]T, error) {
	items, err := r.items.Load(ctx)
	if err != nil {
		return nil, err
	}
	members := []T{}
	for _, item := range items {
		if categoryID != "" && item.CategoryRef() == categoryID {
			members = append(members, item)
		}
	}
	return members, nil
}

func (r *Reconciler[T]) checkCategory(ctx context.Context, categoryID string) error {
	if r.cfg.categories == nil {
		return nil
	}
	if _, err := r.cfg.categories.Get(ctx, categoryID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

// CategoryLabel returns the name of category id, or UnassignedLabel when id is
// empty or refers to a category that no longer exists.
func CategoryLabel(categories []*Category, id string) string {
	if id == "" {
		return UnassignedLabel
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return UnassignedLabel
}

// FindOrphans returns the items whose category id does not match any category.
func FindOrphans[T LeafItem](items []T, categories []*Category) []T {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c.ID] = struct{}{}
	}
	orphans := []T{}
	for _, item := range items {
		ref := item.CategoryRef()
		if ref == "" {
			continue
		}
		if _, ok := known[ref]; !ok {
			orphans = append(orphans, item)
		}
	}
	return orphans
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
