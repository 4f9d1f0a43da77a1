package simplecms

import "strings"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Search keeps the records whose search text contains query, ignoring case.
// Records that are not Searchable are matched on their id.
func Search[T Record](items []T, query string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	var out []T
	for _, item := range items {
		text := item.GetID()
		if s, ok := any(item).(Searchable); ok {
			text = s.SearchText()
		}
		if strings.Contains(strings.ToLower(text), query) {
			out = append(out, item)
		}
	}
	return out
}

// Paginate slices items into 1-based pages. Out-of-range pages are empty.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page <= 0 {
		page = 1
	}

	result := Page[T]{Items: []T{}, Total: len(items), Page: page, PageSize: pageSize}
	// page-1 is compared before multiplying so huge pages cannot overflow
	if page-1 >= (len(items)+pageSize-1)/pageSize {
		return result
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	result.Items = items[start:end]
	return result
}
