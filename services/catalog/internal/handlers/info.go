package handlers

import (
	"net/http"

	"github.com/example/anipi/internal/platform/api"
	"github.com/example/anipi/internal/platform/httpserver"
)

type apiVersion struct {
	Version string `json:"version"`
	Status  string `json:"status"`
	BaseURL string `json:"baseUrl"`
}

type apiInfo struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Versions    []apiVersion `json:"versions"`
}

// APIInfo handles GET /api
func APIInfo() http.HandlerFunc {
	info := api.OK(apiInfo{
		Name:        "Anipi - Professional Anime API",
		Description: "A comprehensive API for anime information",
		Versions:    []apiVersion{{Version: "v1", Status: "stable", BaseURL: "/api/v1"}},
	})
	return func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, info)
	}
}

// LegacyDatabase handles GET /v1/anime and returns the whole dataset document.
func LegacyDatabase(deps Deps) http.HandlerFunc {
	deps = deps.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		db := deps.database(w, r, rid)
		if db == nil {
			return
		}
		api.WriteJSON(w, http.StatusOK, db)
	}
}

// LegacyVersion handles GET /v1
func LegacyVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{
			"version": "v1",
			"href":    "/api/v1/anime",
			"message": "This endpoint is deprecated. Please use /api/v1 instead.",
		})
	}
}
