package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

type CatalogConfig struct {
	DatasetSource string `validate:"oneof=file postgres"`
	DataFile      string `validate:"required_if=DatasetSource file"`
	DatabaseURL   string `validate:"required_if=DatasetSource postgres"`

	GRPCAddr string `validate:"required"`

	CacheTTL               time.Duration `validate:"gte=0"`
	NATSURL                string
	CacheInvalidateSubject string
	AnalyticsEnabled       bool

	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=0"`
}

var validate = validator.New()

// LoadCatalog reads catalog settings from the environment.
func LoadCatalog() (CatalogConfig, error) {
	cfg := CatalogConfig{
		DatasetSource:          strings.ToLower(env("DATASET_SOURCE", SourceFile)),
		DataFile:               env("DATA_FILE", "data/anime-offline-database.json"),
		DatabaseURL:            env("DATABASE_URL", ""),
		GRPCAddr:               env("GRPC_ADDR", ":9092"),
		NATSURL:                env("NATS_URL", ""),
		CacheInvalidateSubject: env("CACHE_INVALIDATE_SUBJECT", "catalog.cache.invalidate"),
	}

	ttl, err := envInt("CACHE_TTL_SEC", 300)
	if err != nil {
		return CatalogConfig{}, err
	}
	cfg.CacheTTL = time.Duration(ttl) * time.Second
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", 20); err != nil {
		return CatalogConfig{}, err
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(env("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return CatalogConfig{}, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.AnalyticsEnabled, err = strconv.ParseBool(env("ANALYTICS_ENABLED", "true")); err != nil {
		return CatalogConfig{}, fmt.Errorf("ANALYTICS_ENABLED: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return CatalogConfig{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports the first offending variable.
func (c CatalogConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", envName[fe.Field()], fe.Tag()))
	}
	return errors.New("invalid catalog config: " + strings.Join(msgs, "; "))
}

var envName = map[string]string{
	"DatasetSource":  "DATASET_SOURCE",
	"DataFile":       "DATA_FILE",
	"DatabaseURL":    "DATABASE_URL",
	"GRPCAddr":       "GRPC_ADDR",
	"CacheTTL":       "CACHE_TTL_SEC",
	"RateLimitRPS":   "RATE_LIMIT_RPS",
	"RateLimitBurst": "RATE_LIMIT_BURST",
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
