package models

// PaginatedResult is one page of a larger collection. Page is 1-indexed and
// len(Items) never exceeds PageSize.
type PaginatedResult[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices an already-fetched collection into a single page without
// any further round trip: items[(page-1)*pageSize : page*pageSize), clamped
// to the collection bounds. A page below 1 is treated as 1; a page past the
// end yields an empty Items.
func Paginate[T any](items []T, page, pageSize int) PaginatedResult[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return PaginatedResult[T]{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
