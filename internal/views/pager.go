package views

import (
	"fmt"

	"github.com/isdelr/sample-app/internal/models"
)

// PageLink is one entry in a pagination bar. A Gap entry stands for a run
// of skipped pages and carries no number.
type PageLink struct {
	Number  int
	URL     string
	Current bool
	Gap     bool
}

const (
	innerWindow = 4 // pages either side of the current one
	outerWindow = 1 // extra pages kept next to the first and last
)

// Pager describes a pagination bar for a listing at Path.
type Pager struct {
	Path       string
	Number     int
	TotalPages int
}

// NewPager builds a pager for page of a listing served at path.
func NewPager[T any](path string, page models.Page[T]) Pager {
	return Pager{Path: path, Number: page.Number, TotalPages: page.TotalPages()}
}

// Show reports whether there is more than one page.
func (p Pager) Show() bool { return p.TotalPages > 1 }

func (p Pager) HasPrev() bool { return p.Number > 1 }

func (p Pager) HasNext() bool { return p.Number < p.TotalPages }

func (p Pager) PrevURL() string { return p.URL(p.Number - 1) }

func (p Pager) NextURL() string { return p.URL(p.Number + 1) }

// URL links to page n of the listing.
func (p Pager) URL(n int) string {
	return fmt.Sprintf("%s?page=%d", p.Path, n)
}

// Links returns the first and last pages plus a window around the current
// page, with gaps where pages are skipped. A gap never hides a single page.
func (p Pager) Links() []PageLink {
	from, to := p.Number-innerWindow, p.Number+innerWindow
	if to > p.TotalPages {
		from -= to - p.TotalPages
		to = p.TotalPages
	}
	if from < 1 {
		to += 1 - from
		from = 1
		if to > p.TotalPages {
			to = p.TotalPages
		}
	}

	var links []PageLink
	add := func(lo, hi int) {
		for n := lo; n <= hi; n++ {
			links = append(links, PageLink{Number: n, URL: p.URL(n), Current: n == p.Number})
		}
	}

	if from > outerWindow+3 {
		add(1, outerWindow+1)
		links = append(links, PageLink{Gap: true})
	} else {
		add(1, from-1)
	}
	add(from, to)
	if to < p.TotalPages-outerWindow-2 {
		links = append(links, PageLink{Gap: true})
		add(p.TotalPages-outerWindow, p.TotalPages)
	} else {
		add(to+1, p.TotalPages)
	}
	return links
}
