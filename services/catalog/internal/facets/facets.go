// Package facets derives distinct-value summaries from the anime catalog.
// Every function is pure and returns a non-nil, possibly empty, slice.
package facets

import (
	"cmp"
	"slices"

	"github.com/example/anipi/services/catalog/internal/store"
)

// MaxTags is the number of tags returned by TopTags when no limit is given.
const MaxTags = 100

// TagCount is a tag and the number of records carrying it.
type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

func Types(records []store.Anime) []string {
	return distinctSorted(records, func(a *store.Anime) string { return a.Type })
}

func Statuses(records []store.Anime) []string {
	return distinctSorted(records, func(a *store.Anime) string { return a.Status })
}

func Seasons(records []store.Anime) []string {
	return distinctSorted(records, func(a *store.Anime) string { return a.SeasonName() })
}

// Years lists the distinct season years, most recent first.
func Years(records []store.Anime) []int {
	seen := make(map[int]struct{})
	out := []int{}
	for i := range records {
		s := records[i].AnimeSeason
		if s == nil || s.Year == nil {
			continue
		}
		if _, ok := seen[*s.Year]; ok {
			continue
		}
		seen[*s.Year] = struct{}{}
		out = append(out, *s.Year)
	}
	slices.SortFunc(out, func(a, b int) int { return cmp.Compare(b, a) })
	return out
}

// TopTags returns up to limit tags ordered by how many records carry them.
// Ties keep the order in which tags were first seen. limit <= 0 means MaxTags.
func TopTags(records []store.Anime, limit int) []TagCount {
	if limit <= 0 {
		limit = MaxTags
	}

	index := make(map[string]int)
	counts := []TagCount{}
	inRecord := make(map[string]struct{})
	for i := range records {
		clear(inRecord)
		for _, tag := range records[i].Tags {
			// a record counts once per tag
			if _, dup := inRecord[tag]; dup {
				continue
			}
			inRecord[tag] = struct{}{}
			pos, ok := index[tag]
			if !ok {
				pos = len(counts)
				index[tag] = pos
				counts = append(counts, TagCount{Tag: tag})
			}
			counts[pos].Count++
		}
	}

	slices.SortStableFunc(counts, func(a, b TagCount) int { return cmp.Compare(b.Count, a.Count) })
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// TagNames projects the tag strings of counts.
func TagNames(counts []TagCount) []string {
	out := make([]string, 0, len(counts))
	for _, c := range counts {
		out = append(out, c.Tag)
	}
	return out
}

func distinctSorted(records []store.Anime, field func(*store.Anime) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for i := range records {
		v := field(&records[i])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
