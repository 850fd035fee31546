package models

const (
	// DefaultPerPage matches the page size of the user and micropost listings.
	DefaultPerPage = 30
	// MaxPage bounds requested page numbers so offsets cannot overflow.
	MaxPage = 1_000_000
)

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T `json:"items"`
	Number  int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
}

// NormalizePage clamps a requested page number into [1, MaxPage].
func NormalizePage(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxPage:
		return MaxPage
	}
	return n
}

// Offset is the number of rows preceding this page.
func (p Page[T]) Offset() int {
	return (NormalizePage(p.Number) - 1) * p.PerPage
}

// TotalPages is never less than 1, so an empty listing still has a first page.
func (p Page[T]) TotalPages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }

func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages() }
