package config

import (
	"errors"
	"os"
	"strings"
)

type HTTPConfig struct {
	Addr string
	// CORSAllowedOrigins is the raw comma-separated CORS_ALLOWED_ORIGINS value.
	CORSAllowedOrigins string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
}

// Load reads the settings shared by every service. defaultName is used when
// SERVICE_NAME is unset; an empty defaultName makes SERVICE_NAME required.
func Load(defaultName string) (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Addr:               strings.TrimSpace(os.Getenv("HTTP_ADDR")),
			CORSAllowedOrigins: strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultName
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
