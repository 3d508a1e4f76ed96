package store

import (
	"context"
)

// Anime is a single entry of the offline anime database.
type Anime struct {
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Type        string    `json:"type,omitempty" yaml:"type,omitempty"`
	Episodes    *int      `json:"episodes,omitempty" yaml:"episodes,omitempty"`
	Status      string    `json:"status,omitempty" yaml:"status,omitempty"`
	AnimeSeason *Season   `json:"animeSeason,omitempty" yaml:"animeSeason,omitempty"`
	Picture     string    `json:"picture,omitempty" yaml:"picture,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Synonyms    []string  `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	Relations   []string  `json:"relations,omitempty" yaml:"relations,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Sources     []string  `json:"sources,omitempty" yaml:"sources,omitempty"`
	Score       *Score    `json:"score,omitempty" yaml:"score,omitempty"`
	Duration    *Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Season is the airing season of an entry. Either field may be absent.
type Season struct {
	Year   *int   `json:"year,omitempty" yaml:"year,omitempty"`
	Season string `json:"season,omitempty" yaml:"season,omitempty"`
}

type Score struct {
	ArithmeticMean          *float64 `json:"arithmeticMean,omitempty" yaml:"arithmeticMean,omitempty"`
	ArithmeticGeometricMean *float64 `json:"arithmeticGeometricMean,omitempty" yaml:"arithmeticGeometricMean,omitempty"`
	Median                  *float64 `json:"median,omitempty" yaml:"median,omitempty"`
}

type Duration struct {
	Value *int   `json:"value,omitempty" yaml:"value,omitempty"`
	Unit  string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Year returns the season year, or 0 when unknown.
func (a Anime) Year() int {
	if a.AnimeSeason == nil || a.AnimeSeason.Year == nil {
		return 0
	}
	return *a.AnimeSeason.Year
}

// SeasonName returns the season name, or "" when unknown.
func (a Anime) SeasonName() string {
	if a.AnimeSeason == nil {
		return ""
	}
	return a.AnimeSeason.Season
}

// MeanScore returns the arithmetic mean score, or 0 when unscored.
func (a Anime) MeanScore() float64 {
	if a.Score == nil || a.Score.ArithmeticMean == nil {
		return 0
	}
	return *a.Score.ArithmeticMean
}

// Database is the full dataset document as published upstream.
type Database struct {
	Schema     string      `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	License    *License    `json:"license,omitempty" yaml:"license,omitempty"`
	Repository string      `json:"repository,omitempty" yaml:"repository,omitempty"`
	ScoreRange *ScoreRange `json:"scoreRange,omitempty" yaml:"scoreRange,omitempty"`
	LastUpdate string      `json:"lastUpdate,omitempty" yaml:"lastUpdate,omitempty"`
	Data       []Anime     `json:"data" yaml:"data"`
}

type License struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

type ScoreRange struct {
	MinInclusive float64 `json:"minInclusive" yaml:"minInclusive"`
	MaxInclusive float64 `json:"maxInclusive" yaml:"maxInclusive"`
}

// Records returns the catalog entries. Callers must not modify the slice.
func (d *Database) Records() []Anime {
	if d == nil {
		return nil
	}
	return d.Data
}

// Source produces a parsed dataset. Implementations are called at most once per
// successful Store load.
type Source interface {
	Load(ctx context.Context) (*Database, error)
	// Name identifies the source in logs and errors.
	Name() string
}
