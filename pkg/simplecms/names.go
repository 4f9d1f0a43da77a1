package simplecms

import (
	"regexp"
	"strings"
)

// Snapshot names used by the admin.
const (
	NameProducts          = "category-products"
	NameServices          = "category-services"
	NameProductCategories = "product-categories"
	NameServiceCategories = "service-categories"
	NameParts             = "parts"
	NameCaseStudies       = "case-studies"
)

// Kind selects one of the two category/leaf item families.
type Kind string

const (
	KindProducts Kind = "products"
	KindServices Kind = "services"
)

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindProducts:
		return KindProducts, nil
	case KindServices:
		return KindServices, nil
	}
	return "", ErrInvalidKind
}

// ItemsName returns the snapshot name of the leaf collection for k.
func (k Kind) ItemsName() string {
	if k == KindServices {
		return NameServices
	}
	return NameProducts
}

// CategoriesName returns the snapshot name of the category collection for k.
func (k Kind) CategoriesName() string {
	if k == KindServices {
		return NameServiceCategories
	}
	return NameProductCategories
}

// Owner types that carry a per-entity related-content document.
const (
	OwnerProduct   = "product"
	OwnerService   = "service"
	OwnerPart      = "part"
	OwnerCaseStudy = "casestudy"
)

// RelatedOwners lists the owner types accepted by RelatedName.
var RelatedOwners = []string{OwnerProduct, OwnerService, OwnerPart, OwnerCaseStudy}

// IsRelatedOwner reports whether owner is a known owner type.
func IsRelatedOwner(owner string) bool {
	for _, o := range RelatedOwners {
		if o == owner {
			return true
		}
	}
	return false
}

// RelatedName returns the snapshot name of the related-content document of
// one record, e.g. "product-related-<id>".
func RelatedName(owner, id string) string {
	return owner + "-related-" + id
}

// Fixed page settings documents.
const (
	SettingsProductLanding   = "product-landing-settings"
	SettingsPartsLanding     = "parts-landing"
	SettingsPartsDetail      = "parts-detail"
	SettingsPartDescription  = "part-description"
	SettingsCaseStudyLanding = "casestudy-landing"
)

var (
	settingsNames = map[string]struct{}{
		SettingsProductLanding:   {},
		SettingsPartsLanding:     {},
		SettingsPartsDetail:      {},
		SettingsPartDescription:  {},
		SettingsCaseStudyLanding: {},
	}
	homeSectionName = regexp.MustCompile(`^home_[a-z0-9]+(_[a-z0-9]+)*_data$`)
)

// IsSettingsName reports whether name is a page settings document: one of the
// fixed landing pages or a home section ("home_<section>_data").
func IsSettingsName(name string) bool {
	if _, ok := settingsNames[name]; ok {
		return true
	}
	return homeSectionName.MatchString(name)
}

// HomeSectionName returns the settings document name for a home page section.
func HomeSectionName(section string) string {
	return "home_" + section + "_data"
}
