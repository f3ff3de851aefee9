// Package pagination provides skip/limit math and response metadata
// for list endpoints.
package pagination

type Params struct {
	Page  int
	Limit int
	Skip  int
}

type Meta struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// New clamps page and limit to sane minimums and computes the skip
// offset. Page numbering is 1-based.
func New(page, limit int) Params {
	if limit < 1 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	return Params{
		Page:  page,
		Limit: limit,
		Skip:  (page - 1) * limit,
	}
}

// MetaFor builds response metadata for a total count under the given
// params. The reported current page never exceeds the last page.
func MetaFor(totalItems int64, p Params) Meta {
	totalPages := int((totalItems + int64(p.Limit) - 1) / int64(p.Limit))
	current := p.Page
	if current > totalPages {
		current = totalPages
	}
	return Meta{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: current,
		PageSize:    p.Limit,
		HasNext:     current < totalPages,
		HasPrev:     current > 1,
	}
}
