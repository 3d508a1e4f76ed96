// Package query filters, orders and paginates the in-memory anime catalog.
package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/example/anipi/services/catalog/internal/store"
)

var ErrNotFound = errors.New("anime not found")

// Page is one window of a query result.
type Page struct {
	Items      []store.Anime
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
}

func (p Page) HasPrevious() bool { return p.Page > 1 }
func (p Page) HasNext() bool     { return p.Page < p.TotalPages }

type entry struct {
	rec   *store.Anime
	title string // case-folded, only set when sorting by title
}

type compareFunc func(a, b entry) int

var comparators = map[SortKey]compareFunc{
	SortTitle: func(a, b entry) int { return strings.Compare(a.title, b.title) },
	SortScore: func(a, b entry) int { return cmp.Compare(a.rec.MeanScore(), b.rec.MeanScore()) },
	SortYear:  func(a, b entry) int { return cmp.Compare(a.rec.Year(), b.rec.Year()) },
}

// Run applies spec to records. Filters are conjunctive and run before the
// stable sort; the page window is cut last. records is never modified.
// spec is expected to come from NewSpec.
func Run(records []store.Anime, spec Spec) Page {
	spec = spec.normalize()
	fold := cases.Fold()
	m := newMatcher(spec, fold)

	matched := make([]entry, 0, len(records))
	for i := range records {
		rec := &records[i]
		if !m.match(rec) {
			continue
		}
		e := entry{rec: rec}
		if spec.SortBy == SortTitle {
			e.title = fold.String(rec.Title)
		}
		matched = append(matched, e)
	}

	compare, ok := comparators[spec.SortBy]
	if !ok {
		compare = comparators[SortTitle]
	}
	if spec.SortDescending {
		asc := compare
		compare = func(a, b entry) int { return asc(b, a) }
	}
	slices.SortStableFunc(matched, compare)

	total := len(matched)
	page := Page{
		Items:      []store.Anime{},
		Page:       spec.Page,
		PageSize:   spec.PageSize,
		TotalCount: total,
		TotalPages: (total + spec.PageSize - 1) / spec.PageSize,
	}

	start := (spec.Page - 1) * spec.PageSize
	if start >= total {
		return page
	}
	end := min(start+spec.PageSize, total)
	page.Items = make([]store.Anime, 0, end-start)
	for _, e := range matched[start:end] {
		page.Items = append(page.Items, *e.rec)
	}
	return page
}

// FindBySource returns the first record listing url among its sources.
func FindBySource(records []store.Anime, url string) (store.Anime, error) {
	for _, rec := range records {
		if slices.Contains(rec.Sources, url) {
			return rec, nil
		}
	}
	return store.Anime{}, fmt.Errorf("source %q: %w", url, ErrNotFound)
}

type matcher struct {
	fold   cases.Caser
	title  string
	typ    string
	status string
	season string
	tag    string
	year   *int
}

func newMatcher(spec Spec, fold cases.Caser) matcher {
	return matcher{
		fold:   fold,
		title:  fold.String(spec.Title),
		typ:    fold.String(spec.Type),
		status: fold.String(spec.Status),
		season: fold.String(spec.Season),
		tag:    fold.String(spec.Tag),
		year:   spec.Year,
	}
}

func (m matcher) match(a *store.Anime) bool {
	if m.title != "" && (a.Title == "" || !strings.Contains(m.fold.String(a.Title), m.title)) {
		return false
	}
	if m.typ != "" && !m.equal(a.Type, m.typ) {
		return false
	}
	if m.status != "" && !m.equal(a.Status, m.status) {
		return false
	}
	if m.season != "" && !m.equal(a.SeasonName(), m.season) {
		return false
	}
	if m.year != nil && (a.AnimeSeason == nil || a.AnimeSeason.Year == nil || *a.AnimeSeason.Year != *m.year) {
		return false
	}
	if m.tag != "" && !m.anyTag(a.Tags) {
		return false
	}
	return true
}

func (m matcher) equal(v, folded string) bool {
	return v != "" && m.fold.String(v) == folded
}

func (m matcher) anyTag(tags []string) bool {
	for _, t := range tags {
		if strings.Contains(m.fold.String(t), m.tag) {
			return true
		}
	}
	return false
}
