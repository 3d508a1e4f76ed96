package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/anipi/internal/platform/api"
	"github.com/example/anipi/services/catalog/internal/facets"
	"github.com/example/anipi/services/catalog/internal/store"
)

type stubLoader struct {
	mu    sync.Mutex
	db    *store.Database
	err   error
	calls int
}

func (s *stubLoader) Load(_ context.Context) (*store.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.db, s.err
}

type recordedEvent struct {
	subject string
	name    string
	props   map[string]any
}

type captureEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (c *captureEmitter) Publish(subject, name, _ string, props map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, recordedEvent{subject: subject, name: name, props: props})
}

type envelope[T any] struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       T               `json:"data"`
	Pagination *api.Pagination `json:"pagination"`
}

func intp(v int) *int { return &v }

func sampleDB() *store.Database {
	return &store.Database{
		LastUpdate: "2025-01-01",
		Data: []store.Anime{
			{Title: "A", Type: "TV", Status: "FINISHED", AnimeSeason: &store.Season{Year: intp(2020), Season: "SPRING"}, Tags: []string{"Action"}, Sources: []string{"https://myanimelist.net/anime/1"}},
			{Title: "B", Type: "OVA", Status: "ONGOING", AnimeSeason: &store.Season{Year: intp(2021), Season: "FALL"}, Tags: []string{"Action", "Comedy"}, Sources: []string{"https://anidb.net/anime/2", "https://kitsu.app/anime/2"}},
		},
	}
}

func newRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	Register(r, deps)
	return r
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v (body %q)", err, rr.Body.String())
	}
	return env
}

func animeTitles(items []store.Anime) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.Title)
	}
	return out
}

func TestListAnime_Filters(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}})

	cases := []struct {
		url  string
		want []string
	}{
		{"/api/v1/anime?type=tv", []string{"A"}},
		{"/api/v1/anime?tag=comedy", []string{"B"}},
		{"/api/v1/anime?sortBy=year&sortDescending=true", []string{"B", "A"}},
		{"/api/v1/anime?SORTBY=Year&SortDescending=TRUE", []string{"B", "A"}},
		{"/api/v1/anime?year=2020", []string{"A"}},
		{"/api/v1/anime?year=abc", []string{"A", "B"}},
		{"/api/v1/anime?status=ongoing&season=fall", []string{"B"}},
		{"/api/v1/anime?title=zzz", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			rr := get(t, r, tc.url)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			env := decode[[]store.Anime](t, rr)
			if !env.Success || env.Message != "Success" {
				t.Fatalf("unexpected envelope: %+v", env)
			}
			got := animeTitles(env.Data)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
			if env.Pagination == nil || env.Pagination.TotalCount != len(tc.want) {
				t.Fatalf("unexpected pagination: %+v", env.Pagination)
			}
		})
	}
}

func TestListAnime_PaginationClamping(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}})

	env := decode[[]store.Anime](t, get(t, r, "/api/v1/anime?pageSize=500"))
	if env.Pagination.PageSize != 100 || env.Pagination.Page != 1 || env.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}

	env = decode[[]store.Anime](t, get(t, r, "/api/v1/anime?pageSize=0&page=-4"))
	if env.Pagination.PageSize != 1 || env.Pagination.Page != 1 || env.Pagination.TotalPages != 2 || !env.Pagination.HasNext {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}
	if len(env.Data) != 1 {
		t.Fatalf("expected 1 item, got %d", len(env.Data))
	}

	env = decode[[]store.Anime](t, get(t, r, "/api/v1/anime?pageSize=notanumber"))
	if env.Pagination.PageSize != 20 {
		t.Fatalf("expected default page size, got %d", env.Pagination.PageSize)
	}
}

func TestListAnime_PageBeyondLast(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}})

	rr := get(t, r, "/api/v1/anime?page=9")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	env := decode[[]store.Anime](t, rr)
	if env.Data == nil || len(env.Data) != 0 {
		t.Fatalf("expected empty list, got %v", env.Data)
	}
	p := env.Pagination
	if p.Page != 9 || p.TotalCount != 2 || p.TotalPages != 1 || !p.HasPrevious || p.HasNext {
		t.Fatalf("unexpected pagination: %+v", p)
	}
}

func TestListAnime_EmptyCatalog(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: &store.Database{Data: []store.Anime{}}}})

	rr := get(t, r, "/api/v1/anime")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	env := decode[[]store.Anime](t, rr)
	if !env.Success || env.Data == nil || len(env.Data) != 0 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Pagination.TotalCount != 0 || env.Pagination.TotalPages != 0 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}
}

func TestListAnime_DatabaseUnavailable(t *testing.T) {
	loader := &stubLoader{err: &store.LoadError{Kind: store.KindNotFound, Source: "file:missing.json"}}
	r := newRouter(Deps{Catalog: loader})

	for _, url := range []string{"/api/v1/anime", "/api/v1/types", "/api/v1/tags", "/api/v1/anime/source?url=x", "/v1/anime"} {
		rr := get(t, r, url)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", url, rr.Code)
		}
		env := decode[any](t, rr)
		if env.Success || env.Message != msgDatabaseUnavailable || env.Data != nil {
			t.Fatalf("%s: unexpected envelope: %+v", url, env)
		}
	}
}

func TestListAnime_CachedResponse(t *testing.T) {
	loader := &stubLoader{db: sampleDB()}
	r := newRouter(Deps{Catalog: loader, Cache: NewTTLCache(time.Minute)})

	first := get(t, r, "/api/v1/anime?type=TV").Body.String()
	loader.err = errors.New("should not be called")
	second := get(t, r, "/api/v1/anime?type=tv")

	if second.Code != http.StatusOK || second.Body.String() != first {
		t.Fatalf("expected cached body, got %d %s", second.Code, second.Body.String())
	}
	if loader.calls != 1 {
		t.Fatalf("expected one load, got %d", loader.calls)
	}
}

func TestListAnime_EmitsEvent(t *testing.T) {
	events := &captureEmitter{}
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}, Events: events})

	get(t, r, "/api/v1/anime?sortBy=score")

	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.name != "catalog_queried" || ev.props["sort_by"] != "score" || ev.props["total_count"] != 2 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestGetAnimeBySource(t *testing.T) {
	events := &captureEmitter{}
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}, Events: events})

	rr := get(t, r, "/api/v1/anime/source?url=https://kitsu.app/anime/2")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	env := decode[store.Anime](t, rr)
	if env.Data.Title != "B" || env.Pagination != nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(events.events) != 1 || events.events[0].name != "anime_viewed" {
		t.Fatalf("unexpected events: %+v", events.events)
	}
}

func TestGetAnimeBySource_MissingURL(t *testing.T) {
	loader := &stubLoader{db: sampleDB()}
	r := newRouter(Deps{Catalog: loader})

	rr := get(t, r, "/api/v1/anime/source?url=%20")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if env := decode[any](t, rr); env.Success || env.Message != "Source URL is required" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if loader.calls != 0 {
		t.Fatal("expected no catalog load for invalid request")
	}
}

func TestGetAnimeBySource_NotFound(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}})

	rr := get(t, r, "/api/v1/anime/source?url=https://myanimelist.net/anime/404")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	env := decode[any](t, rr)
	if env.Success || env.Message != "Anime with source URL https://myanimelist.net/anime/404 not found" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestFacets(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}, Cache: NewTTLCache(time.Minute)})

	assertStrings := func(url string, want ...string) {
		t.Helper()
		rr := get(t, r, url)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", url, rr.Code)
		}
		env := decode[[]string](t, rr)
		if len(env.Data) != len(want) {
			t.Fatalf("%s: expected %v, got %v", url, want, env.Data)
		}
		for i := range want {
			if env.Data[i] != want[i] {
				t.Fatalf("%s: expected %v, got %v", url, want, env.Data)
			}
		}
	}

	assertStrings("/api/v1/types", "OVA", "TV")
	assertStrings("/api/v1/statuses", "FINISHED", "ONGOING")
	assertStrings("/api/v1/seasons", "FALL", "SPRING")
	assertStrings("/api/v1/tags", "Action", "Comedy")

	years := decode[[]int](t, get(t, r, "/api/v1/years"))
	if len(years.Data) != 2 || years.Data[0] != 2021 || years.Data[1] != 2020 {
		t.Fatalf("unexpected years: %v", years.Data)
	}

	counts := decode[[]facets.TagCount](t, get(t, r, "/api/v1/tags?counts=true"))
	if len(counts.Data) != 2 || counts.Data[0] != (facets.TagCount{Tag: "Action", Count: 2}) {
		t.Fatalf("unexpected tag counts: %v", counts.Data)
	}
}

func TestFacets_EmptyCatalog(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: &store.Database{}}})

	for _, url := range []string{"/api/v1/types", "/api/v1/statuses", "/api/v1/seasons", "/api/v1/years", "/api/v1/tags"} {
		rr := get(t, r, url)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", url, rr.Code)
		}
		env := decode[[]any](t, rr)
		if !env.Success || env.Data == nil || len(env.Data) != 0 {
			t.Fatalf("%s: unexpected envelope: %+v", url, env)
		}
	}
}

func TestAPIInfoAndLegacy(t *testing.T) {
	r := newRouter(Deps{Catalog: &stubLoader{db: sampleDB()}})

	info := decode[apiInfo](t, get(t, r, "/api"))
	if len(info.Data.Versions) != 1 || info.Data.Versions[0].BaseURL != "/api/v1" {
		t.Fatalf("unexpected info: %+v", info.Data)
	}

	rr := get(t, r, "/v1")
	var version map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&version); err != nil {
		t.Fatal(err)
	}
	if version["href"] != "/api/v1/anime" {
		t.Fatalf("unexpected legacy version body: %v", version)
	}

	rr = get(t, r, "/v1/anime")
	var db store.Database
	if err := json.NewDecoder(rr.Body).Decode(&db); err != nil {
		t.Fatal(err)
	}
	if len(db.Data) != 2 || db.LastUpdate != "2025-01-01" {
		t.Fatalf("unexpected legacy database: %+v", db)
	}
}
