package pagination

import "strconv"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 100000
)

// Page is an offset-based page request.
type Page struct {
	Page  int
	Limit int
}

// Parse reads page/limit query values, falling back to defaults on bad input.
func Parse(page, limit string) Page {
	p, _ := strconv.Atoi(page)
	l, _ := strconv.Atoi(limit)
	return Page{Page: p, Limit: l}.Normalize()
}

// Normalize clamps page to 1..MaxPage and limit to 1..MaxLimit.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Info is the pagination block returned with list responses.
type Info struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalItems   int64 `json:"total_items"`
	ItemsPerPage int   `json:"items_per_page"`
}

func NewInfo(p Page, total int64) Info {
	p = p.Normalize()
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Info{CurrentPage: p.Page, TotalPages: pages, TotalItems: total, ItemsPerPage: p.Limit}
}
