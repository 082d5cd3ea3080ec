package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cshum/vipsgen/vips"
	"go.uber.org/zap"

	"cnoview/internal/cache"
	"cnoview/internal/catalog"
	"cnoview/internal/config"
	httphandlers "cnoview/internal/http"
	"cnoview/internal/locator"
	"cnoview/internal/logger"
	"cnoview/internal/overlay_renderer"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	vipsConfig := &vips.Config{
		ConcurrencyLevel: cfg.VipsConcurrency,
		MaxCacheMem:      cfg.VipsMaxCacheMB * 1024 * 1024,
		MaxCacheFiles:    0,
		MaxCacheSize:     0,
		ReportLeaks:      false,
		CacheTrace:       false,
		VectorEnabled:    true,
	}

	vips.SetLogging(func(domain string, level vips.LogLevel, message string) {
		if level >= vips.LogLevelError {
			log.Error("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		} else if level >= vips.LogLevelWarning {
			log.Warn("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		}
	}, vips.LogLevelError)

	vips.Startup(vipsConfig)
	defer vips.Shutdown()

	dataDir := locator.DataDir(cfg.DataDir, log)

	log.Info("Starting cnoview server",
		zap.Int("port", cfg.Port),
		zap.String("data_dir", dataDir),
	)

	cat, err := catalog.New(cfg.DownloadBaseURL)
	if err != nil {
		log.Fatal("Invalid download catalog", zap.Error(err))
	}

	loc := locator.New(dataDir, cat, log,
		locator.WithHTTPClient(&http.Client{Timeout: cfg.DownloadTimeout}),
		locator.WithoutDirectPaths(),
	)

	overlayCache, err := cache.NewCache(cfg.CacheType, cfg.CacheMaxEntries, log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	renderer := overlay_renderer.New(loc, overlayCache, log)

	handlers := httphandlers.New(cfg, log, loc, renderer)

	if len(cfg.WarmupOverlays) > 0 {
		go warmupOverlays(cfg.WarmupOverlays, cfg.WarmupWorkers, renderer, log)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handlers.Routes(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.Int("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

// warmupOverlays loads the named overlays into the cache in their raw
// lon/lat form, downloading catalog overlays that are missing.
func warmupOverlays(names []string, workerLimit int, renderer *overlay_renderer.Renderer, log *zap.Logger) {
	log.Info("Starting overlay warmup", zap.Int("overlays", len(names)))

	// Worker pool size configured via env (defaults to 1)
	if workerLimit <= 0 {
		workerLimit = 1
	}

	workerChan := make(chan struct{}, workerLimit)
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		workerChan <- struct{}{} // Acquire worker slot

		go func(name string) {
			defer wg.Done()
			defer func() { <-workerChan }() // Release worker slot

			g, err := renderer.Geometry(context.Background(), overlay_renderer.Request{Name: name})
			if err != nil {
				log.Warn("Warmup overlay failed", zap.String("overlay", name), zap.Error(err))
				return
			}
			log.Debug("Warmed up overlay", zap.String("overlay", name), zap.Int("parts", g.NumParts()))
		}(name)
	}

	wg.Wait()
	log.Info("Overlay warmup completed")
}
