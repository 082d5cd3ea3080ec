package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DataDir         string
	LogLevel        string
	CacheType       string
	CacheMaxEntries int
	DownloadBaseURL string
	DownloadTimeout time.Duration
	RenderWidth     int
	RenderHeight    int
	MaxRenderPixels int
	VipsMaxCacheMB  int
	VipsConcurrency int
	AllowedOrigin   string
	WarmupOverlays  []string
	WarmupWorkers   int
}

// Load reads the configuration from the environment. Variables from a .env
// file in the working directory fill in anything not already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnvInt("PORT", 8080),
		DataDir:         getEnv("CNO_DATA", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CacheType:       strings.ToLower(getEnv("CACHE", "memory")),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 256),
		DownloadBaseURL: getEnv("DOWNLOAD_BASE_URL", ""),
		DownloadTimeout: getEnvDuration("DOWNLOAD_TIMEOUT", 0),
		RenderWidth:     getEnvInt("RENDER_WIDTH", 800),
		RenderHeight:    getEnvInt("RENDER_HEIGHT", 400),
		MaxRenderPixels: getEnvInt("MAX_RENDER_PIXELS", 16*1024*1024),
		VipsMaxCacheMB:  getEnvInt("VIPS_MAX_CACHE_MB", 64),
		VipsConcurrency: getEnvInt("VIPS_CONCURRENCY", 1),
		AllowedOrigin:   getEnv("ALLOWED_ORIGIN", ""),
		WarmupOverlays:  getEnvList("WARMUP_OVERLAYS"),
		WarmupWorkers:   getEnvInt("WARMUP_WORKERS", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") and plain seconds ("30").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
