package shared

import "math"

// DefaultPerPage is the page size used when the caller supplies none or an
// unrecognized value.
const DefaultPerPage = 10

// PerPageChoices are the only page sizes the listing surfaces accept.
var PerPageChoices = []int{10, 25, 50, 100}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata. Unrecognized per-page values
// fall back to DefaultPerPage rather than erroring.
func NewPagination(page, perPage, total int) Pagination {
	perPage = NormalizePerPage(perPage)
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// HasNext reports whether a further page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NormalizePerPage maps any value outside PerPageChoices to DefaultPerPage.
func NormalizePerPage(perPage int) int {
	for _, c := range PerPageChoices {
		if perPage == c {
			return perPage
		}
	}
	return DefaultPerPage
}
