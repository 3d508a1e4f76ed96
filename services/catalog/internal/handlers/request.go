package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/example/anipi/services/catalog/internal/query"
)

// queryValues gives case-insensitive access to URL query parameters;
// the first value wins.
type queryValues map[string]string

func newQueryValues(v url.Values) queryValues {
	out := make(queryValues, len(v))
	for k, vals := range v {
		if len(vals) == 0 {
			continue
		}
		lk := strings.ToLower(k)
		if _, ok := out[lk]; !ok {
			out[lk] = vals[0]
		}
	}
	return out
}

func (q queryValues) get(key string) string {
	return strings.TrimSpace(q[strings.ToLower(key)])
}

// optInt returns nil for missing or unparseable values.
func (q queryValues) optInt(key string) *int {
	v := q.get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func (q queryValues) boolean(key string) bool {
	b, err := strconv.ParseBool(q.get(key))
	return err == nil && b
}

// parseAnimeQuery maps GET /api/v1/anime parameters to query params.
func parseAnimeQuery(v url.Values) query.Params {
	q := newQueryValues(v)
	return query.Params{
		Page:           q.optInt("page"),
		PageSize:       q.optInt("pageSize"),
		Title:          q.get("title"),
		Type:           q.get("type"),
		Status:         q.get("status"),
		Season:         q.get("season"),
		Year:           q.optInt("year"),
		Tag:            q.get("tag"),
		SortBy:         q.get("sortBy"),
		SortDescending: q.boolean("sortDescending"),
	}
}
