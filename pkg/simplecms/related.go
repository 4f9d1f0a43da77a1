package simplecms

// Propagation controls when a Selector publishes its selection to the owner.
type Propagation int

const (
	// PropagateImmediate publishes after every accepted change.
	PropagateImmediate Propagation = iota
	// PropagateOnSubmit publishes only from Save.
	PropagateOnSubmit
)

// InactiveItemsPolicy controls SetItemsForType for a type that is not selected.
type InactiveItemsPolicy int

const (
	// InactiveItemsAllow stores the ids; they stay hidden until the type is selected.
	InactiveItemsAllow InactiveItemsPolicy = iota
	// InactiveItemsBlock rejects the call with ErrSectionInactive.
	InactiveItemsBlock
)

// SelectorConfig configures a Selector for one use site.
type SelectorConfig struct {
	Propagation   Propagation
	InactiveItems InactiveItemsPolicy
	// OnChange receives a copy of the selection whenever it is published.
	OnChange func(RelatedContentSelection)
}

// Selector edits the related-content selection of one record. At most
// MaxSectionTypes section types are ever active; the cap is enforced here
// rather than left to the form.
type Selector struct {
	cfg     SelectorConfig
	current RelatedContentSelection
	dirty   bool
}

// NewSelector starts from initial. Unknown and duplicate types are dropped
// and the list is cut to MaxSectionTypes, so stored data that predates the
// cap still loads.
func NewSelector(initial RelatedContentSelection, cfg SelectorConfig) *Selector {
	sel := initial.Clone()
	sel.SectionTypes = initial.ActiveTypes()
	return &Selector{cfg: cfg, current: sel}
}

// SetSectionTypes replaces the active section types. More than
// MaxSectionTypes distinct types is rejected with a *TooManySectionsError and
// the previous selection is kept. Repeating a type is harmless. Clearing the
// types leaves the stored id lists in place.
func (s *Selector) SetSectionTypes(types ...SectionType) error {
	distinct := make([]SectionType, 0, len(types))
	for _, t := range types {
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
	if sameSections(distinct, s.current.SectionTypes) {
		return nil
	}
	s.current.SectionTypes = distinct
	s.changed()
	return nil
}

// ToggleSectionType adds t if absent and removes it if present, subject to
// the same cap as SetSectionTypes.
func (s *Selector) ToggleSectionType(t SectionType) error {
	if !t.IsValid() {
		return ErrInvalidSectionType
	}
	if s.current.IsActive(t) {
		next := make([]SectionType, 0, len(s.current.SectionTypes))
		for _, st := range s.current.SectionTypes {
			if st != t {
				next = append(next, st)
			}
		}
		return s.SetSectionTypes(next...)
	}
	return s.SetSectionTypes(append(cloneSections(s.current.SectionTypes), t)...)
}

// CanAdd reports whether another section type may be selected.
func (s *Selector) CanAdd() bool {
	return len(s.current.SectionTypes) < MaxSectionTypes
}

// SetItemsForType replaces the linked ids for t. Empty and repeated ids are
// dropped, keeping first occurrence order.
func (s *Selector) SetItemsForType(t SectionType, ids []string) error {
	if !t.IsValid() {
		return ErrInvalidSectionType
	}
	if s.cfg.InactiveItems == InactiveItemsBlock && !s.current.IsActive(t) {
		return ErrSectionInactive
	}

	seen := make(map[string]struct{}, len(ids))
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	s.current.setItems(t, cleaned)
	s.changed()
	return nil
}

// RemoveItem unlinks id from t. Removing an id that is not linked is a no-op.
func (s *Selector) RemoveItem(t SectionType, id string) error {
	if !t.IsValid() {
		return ErrInvalidSectionType
	}
	items := s.current.Items(t)
	kept := make([]string, 0, len(items))
	for _, existing := range items {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	s.current.setItems(t, kept)
	s.changed()
	return nil
}

// Selection returns a copy of the current selection, inactive lists included.
func (s *Selector) Selection() RelatedContentSelection {
	return s.current.Clone()
}

// Dirty reports whether there are changes since the last Save.
func (s *Selector) Dirty() bool {
	return s.dirty
}

// Save publishes the selection to the owner and returns it.
func (s *Selector) Save() RelatedContentSelection {
	s.dirty = false
	s.publish()
	return s.current.Clone()
}

func (s *Selector) changed() {
	s.dirty = true
	if s.cfg.Propagation == PropagateImmediate {
		s.publish()
	}
}

func (s *Selector) publish() {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(s.current.Clone())
	}
}

func containsSection(types []SectionType, t SectionType) bool {
	for _, st := range types {
		if st == t {
			return true
		}
	}
	return false
}

func sameSections(a, b []SectionType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
