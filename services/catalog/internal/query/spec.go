package query

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortKey selects the ordering of query results.
type SortKey int

const (
	SortTitle SortKey = iota
	SortScore
	SortYear
)

// ParseSortKey maps a request value to a SortKey. Unknown and empty values
// fall back to SortTitle.
func ParseSortKey(v string) SortKey {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "score":
		return SortScore
	case "year":
		return SortYear
	default:
		return SortTitle
	}
}

func (k SortKey) String() string {
	switch k {
	case SortScore:
		return "score"
	case SortYear:
		return "year"
	default:
		return "title"
	}
}

// Params carries caller-supplied query values before normalization.
// Nil pointers mean the value was not supplied.
type Params struct {
	Page           *int
	PageSize       *int
	Title          string
	Type           string
	Status         string
	Season         string
	Year           *int
	Tag            string
	SortBy         string
	SortDescending bool
}

// Spec is a normalized query: filters, ordering and the page window.
type Spec struct {
	Page     int
	PageSize int

	Title  string
	Type   string
	Status string
	Season string
	Year   *int
	Tag    string

	SortBy         SortKey
	SortDescending bool
}

// NewSpec builds a Spec from raw params, applying defaults and clamping.
// Page values below 1 become 1. A missing page size becomes DefaultPageSize,
// values below 1 become 1 and values above MaxPageSize become MaxPageSize.
func NewSpec(p Params) Spec {
	s := Spec{
		Page:           DefaultPage,
		PageSize:       DefaultPageSize,
		Title:          strings.TrimSpace(p.Title),
		Type:           strings.TrimSpace(p.Type),
		Status:         strings.TrimSpace(p.Status),
		Season:         strings.TrimSpace(p.Season),
		Year:           p.Year,
		Tag:            strings.TrimSpace(p.Tag),
		SortBy:         ParseSortKey(p.SortBy),
		SortDescending: p.SortDescending,
	}
	if p.Page != nil {
		s.Page = *p.Page
	}
	if p.PageSize != nil {
		s.PageSize = *p.PageSize
	}
	return s.normalize()
}

func (s Spec) normalize() Spec {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = 1
	}
	if s.PageSize > MaxPageSize {
		s.PageSize = MaxPageSize
	}
	return s
}

// Key is a canonical string for the spec, suitable as a cache key. Filter
// values are case-folded the way Run matches them and escaped, so distinct
// queries never share a key.
func (s Spec) Key() string {
	fold := cases.Fold()
	year := ""
	if s.Year != nil {
		year = strconv.Itoa(*s.Year)
	}
	v := url.Values{
		"p":      {strconv.Itoa(s.Page)},
		"ps":     {strconv.Itoa(s.PageSize)},
		"title":  {fold.String(s.Title)},
		"type":   {fold.String(s.Type)},
		"status": {fold.String(s.Status)},
		"season": {fold.String(s.Season)},
		"year":   {year},
		"tag":    {fold.String(s.Tag)},
		"sort":   {s.SortBy.String()},
		"desc":   {strconv.FormatBool(s.SortDescending)},
	}
	return v.Encode()
}
