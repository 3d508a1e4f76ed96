package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/anipi/internal/platform/analytics"
	"github.com/example/anipi/internal/platform/api"
	"github.com/example/anipi/internal/platform/httpserver"
	"github.com/example/anipi/services/catalog/internal/facets"
	"github.com/example/anipi/services/catalog/internal/query"
	"github.com/example/anipi/services/catalog/internal/store"
)

const msgDatabaseUnavailable = "Failed to load anime database"

// Loader returns the catalog snapshot; *store.Store implements it.
type Loader interface {
	Load(ctx context.Context) (*store.Database, error)
}

// Deps are the collaborators shared by all catalog handlers.
type Deps struct {
	Catalog Loader
	Cache   Cache
	Events  analytics.Emitter
	Log     *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = noCache{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

func (d Deps) emit(subject, name, rid string, props map[string]any) {
	if d.Events != nil {
		d.Events.Publish(subject, name, rid, props)
	}
}

// database loads the snapshot or answers 503 and returns nil.
func (d Deps) database(w http.ResponseWriter, r *http.Request, rid string) *store.Database {
	db, err := d.Catalog.Load(r.Context())
	if err != nil {
		d.Log.Warn("anime database unavailable",
			zap.String("request_id", rid),
			zap.Bool("not_found", errors.Is(err, store.ErrNotFound)),
			zap.Bool("malformed", errors.Is(err, store.ErrMalformed)),
			zap.Error(err),
		)
		api.Unavailable(w, msgDatabaseUnavailable, rid)
		return nil
	}
	return db
}

// Register mounts the catalog API on r.
func Register(r chi.Router, deps Deps) {
	deps = deps.withDefaults()

	r.Get("/api", APIInfo())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/anime", ListAnime(deps))
		r.Get("/anime/source", GetAnimeBySource(deps))
		r.Get("/types", Facet(deps, "types", func(rs []store.Anime) any { return facets.Types(rs) }))
		r.Get("/statuses", Facet(deps, "statuses", func(rs []store.Anime) any { return facets.Statuses(rs) }))
		r.Get("/seasons", Facet(deps, "seasons", func(rs []store.Anime) any { return facets.Seasons(rs) }))
		r.Get("/years", Facet(deps, "years", func(rs []store.Anime) any { return facets.Years(rs) }))
		r.Get("/tags", Tags(deps))
	})

	// Legacy endpoints kept for older clients.
	r.Get("/v1/anime", LegacyDatabase(deps))
	r.Get("/v1", LegacyVersion())
}

// ListAnime handles GET /api/v1/anime
func ListAnime(deps Deps) http.HandlerFunc {
	deps = deps.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		spec := query.NewSpec(parseAnimeQuery(r.URL.Query()))

		key := "anime:" + spec.Key()
		if cached, ok := deps.Cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		db := deps.database(w, r, rid)
		if db == nil {
			return
		}

		page := query.Run(db.Records(), spec)
		resp := api.Paginated(page.Items, api.NewPagination(page.Page, page.PageSize, page.TotalCount, page.TotalPages))
		deps.Cache.Set(key, resp)
		deps.emit(analytics.SubjectCatalogQueried, "catalog_queried", rid, map[string]any{
			"sort_by":     spec.SortBy.String(),
			"descending":  spec.SortDescending,
			"page":        spec.Page,
			"total_count": page.TotalCount,
		})
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// GetAnimeBySource handles GET /api/v1/anime/source?url=
func GetAnimeBySource(deps Deps) http.HandlerFunc {
	deps = deps.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		sourceURL := strings.TrimSpace(newQueryValues(r.URL.Query()).get("url"))
		if sourceURL == "" {
			api.BadRequest(w, "Source URL is required", rid)
			return
		}

		db := deps.database(w, r, rid)
		if db == nil {
			return
		}

		anime, err := query.FindBySource(db.Records(), sourceURL)
		if errors.Is(err, query.ErrNotFound) {
			api.NotFound(w, fmt.Sprintf("Anime with source URL %s not found", sourceURL), rid)
			return
		}
		if err != nil {
			deps.Log.Error("find anime by source", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}

		deps.emit(analytics.SubjectCatalogAnimeViewed, "anime_viewed", rid, map[string]any{"source": sourceURL})
		api.WriteJSON(w, http.StatusOK, api.OK(anime))
	}
}

// Facet serves one distinct-value list computed by extract.
func Facet(deps Deps, name string, extract func([]store.Anime) any) http.HandlerFunc {
	deps = deps.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		key := "facet:" + name
		if cached, ok := deps.Cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		db := deps.database(w, r, rid)
		if db == nil {
			return
		}

		resp := api.OK(extract(db.Records()))
		deps.Cache.Set(key, resp)
		deps.emit(analytics.SubjectCatalogFacetViewed, "facet_viewed", rid, map[string]any{"facet": name})
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// Tags handles GET /api/v1/tags. By default only tag names are returned;
// counts=true returns {tag, count} objects.
func Tags(deps Deps) http.HandlerFunc {
	deps = deps.withDefaults()
	names := Facet(deps, "tags", func(rs []store.Anime) any {
		return facets.TagNames(facets.TopTags(rs, facets.MaxTags))
	})
	withCounts := Facet(deps, "tags:counts", func(rs []store.Anime) any {
		return facets.TopTags(rs, facets.MaxTags)
	})
	return func(w http.ResponseWriter, r *http.Request) {
		if newQueryValues(r.URL.Query()).boolean("counts") {
			withCounts(w, r)
			return
		}
		names(w, r)
	}
}
