package models

// PageRequest selects one page of a listing. Page is 1-based.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// PageMeta mirrors the pagination block of the feed responses.
type PageMeta struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalItems      int64 `json:"totalItems"`
	ItemsPerPage    int   `json:"itemsPerPage"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// Page is one page of results.
type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// NewPage assembles a page and computes its metadata.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items: items,
		Meta: PageMeta{
			CurrentPage:     req.Page,
			TotalPages:      totalPages,
			TotalItems:      total,
			ItemsPerPage:    req.Size,
			HasNextPage:     req.Page < totalPages,
			HasPreviousPage: req.Page > 1,
		},
	}
}
