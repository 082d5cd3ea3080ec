package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"cnoview/internal/cno"
	"cnoview/internal/config"
	"cnoview/internal/locator"
	"cnoview/internal/metrics"
	"cnoview/internal/overlay_renderer"
	"cnoview/internal/projection"
	"cnoview/internal/raster"
)

// Canvas is a raster surface that can be exported as PNG.
type Canvas interface {
	overlay_renderer.Surface
	PNG() ([]byte, error)
	Close()
}

// CanvasFactory creates a blank canvas of the given size.
type CanvasFactory func(width, height int) (Canvas, error)

// OverlayLister enumerates the overlays the service can draw.
type OverlayLister interface {
	List() ([]locator.OverlayInfo, error)
}

type Handlers struct {
	config    *config.Config
	logger    *zap.Logger
	overlays  OverlayLister
	renderer  *overlay_renderer.Renderer
	newCanvas CanvasFactory
}

func New(config *config.Config, logger *zap.Logger, overlays OverlayLister, renderer *overlay_renderer.Renderer) *Handlers {
	return &Handlers{
		config:    config,
		logger:    logger,
		overlays:  overlays,
		renderer:  renderer,
		newCanvas: newRasterCanvas,
	}
}

// WithCanvasFactory replaces the PNG canvas constructor.
func (h *Handlers) WithCanvasFactory(f CanvasFactory) *Handlers {
	h.newCanvas = f
	return h
}

func newRasterCanvas(width, height int) (Canvas, error) {
	c, err := raster.NewCanvas(width, height, raster.Black, raster.White)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Routes registers every endpoint on a new mux.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/overlays", h.HandleOverlays)
	mux.HandleFunc("/api/overlays/", h.HandleOverlayRoutes)
	mux.HandleFunc("/api/cache", h.HandleCacheStats)
	mux.HandleFunc("/api/cache/clear", h.HandleCacheClear)
	mux.HandleFunc("/healthz", h.HandleHealthz)
	mux.Handle("/metrics", metrics.Handler())

	return h.CORSMiddleware(h.RequestLoggingMiddleware(mux))
}

func (h *Handlers) RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		start := time.Now()

		ip := h.extractIP(r)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapped.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		bytes := wrapped.bytesWritten

		h.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("ip", ip),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", wrapped.statusCode),
			zap.Int64("bytes", bytes),
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

func (h *Handlers) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigin := ""

		if h.config.AllowedOrigin != "" {
			allowedOrigin = h.config.AllowedOrigin
		} else {
			host := r.Host
			if origin != "" && (strings.HasPrefix(origin, "http://"+host) || strings.HasPrefix(origin, "https://"+host)) {
				allowedOrigin = origin
			} else if origin == "" {
				allowedOrigin = "*"
			}
		}

		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) HandleOverlays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	overlays, err := h.overlays.List()
	if err != nil {
		h.logger.Error("Failed to list overlays", zap.Error(err))
		http.Error(w, "Failed to list overlays", http.StatusInternalServerError)
		return
	}

	writeJSON(w, "application/json", overlays)
}

func (h *Handlers) HandleOverlayRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/overlays/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	name := parts[0]
	if name != filepath.Base(name) || name == ".." {
		http.Error(w, "Invalid overlay name", http.StatusBadRequest)
		return
	}
	// Only overlay files are served, whatever else the data directory holds.
	if cno.FormatFromPath(name) == cno.FormatUnknown {
		http.NotFound(w, r)
		return
	}

	switch parts[1] {
	case "geojson":
		h.handleGeoJSON(w, r, name)
	case "render.png":
		h.handlePNG(w, r, name)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handlers) handleGeoJSON(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseRequest(name, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	surface := overlay_renderer.NewGeoJSONSurface()
	if err := h.renderer.Draw(r.Context(), req, surface); err != nil {
		h.writeError(w, name, err)
		return
	}
	metrics.RenderDurationMs.WithLabelValues("geojson").Observe(metrics.Milliseconds(time.Since(start)))

	writeJSON(w, "application/geo+json", surface)
}

func (h *Handlers) handlePNG(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseRequest(name, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	width, err := queryInt(query.Get("width"), h.config.RenderWidth)
	if err != nil {
		http.Error(w, "Invalid width", http.StatusBadRequest)
		return
	}
	height, err := queryInt(query.Get("height"), h.config.RenderHeight)
	if err != nil {
		http.Error(w, "Invalid height", http.StatusBadRequest)
		return
	}
	if width <= 0 || height <= 0 || width*height > h.config.MaxRenderPixels {
		http.Error(w, "Image size out of range", http.StatusBadRequest)
		return
	}

	start := time.Now()
	g, err := h.renderer.Geometry(r.Context(), req)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	canvas, err := h.newCanvas(width, height)
	if err != nil {
		h.logger.Error("Failed to create canvas", zap.Error(err))
		http.Error(w, "Failed to render", http.StatusInternalServerError)
		return
	}
	defer canvas.Close()

	overlay_renderer.Render(g, canvas, req.Extent)
	data, err := canvas.PNG()
	if err != nil {
		h.logger.Error("Failed to render overlay", zap.String("overlay", name), zap.Error(err))
		http.Error(w, "Failed to render", http.StatusInternalServerError)
		return
	}
	metrics.RenderDurationMs.WithLabelValues("png").Observe(metrics.Milliseconds(time.Since(start)))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}

func (h *Handlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, "application/json", h.renderer.CacheStats())
}

func (h *Handlers) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.renderer.ClearCache()
	writeJSON(w, "application/json", map[string]interface{}{
		"cleared": true,
		"stats":   h.renderer.CacheStats(),
	})
}

func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// writeError maps pipeline errors onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, name string, err error) {
	var (
		notFound   *locator.NotFoundError
		retrieval  *locator.RetrievalError
		format     *cno.FormatError
		empty      *cno.EmptyInputError
		definition *projection.DefinitionError
		projErr    *projection.Error
	)

	status, message := http.StatusInternalServerError, "Failed to draw overlay"
	switch {
	case errors.As(err, &notFound):
		status, message = http.StatusNotFound, "Overlay not found"
	case errors.As(err, &retrieval):
		status, message = http.StatusBadGateway, "Failed to retrieve overlay"
	case errors.As(err, &format), errors.As(err, &empty):
		status, message = http.StatusUnprocessableEntity, "Overlay file is not a valid CNO or CNOB file"
	case errors.As(err, &projErr):
		status, message = http.StatusUnprocessableEntity, "Overlay cannot be projected"
	case errors.As(err, &definition):
		// The definition came from the request itself.
		status, message = http.StatusBadRequest, definition.Error()
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Failed to draw overlay", zap.String("overlay", name), zap.Error(err))
	} else {
		h.logger.Warn("Overlay request failed", zap.String("overlay", name), zap.Int("status", status), zap.Error(err))
	}
	http.Error(w, message, status)
}

// parseRequest reads the projection and viewport from the query string:
// proj is a proj4 definition, xmin/xmax/ymin/ymax are all given or none.
func parseRequest(name string, r *http.Request) (overlay_renderer.Request, error) {
	query := r.URL.Query()
	req := overlay_renderer.Request{Name: name}

	if def := strings.TrimSpace(query.Get("proj")); def != "" {
		p, err := projection.Parse(def)
		if err != nil {
			return req, err
		}
		req.Projection = p
	}

	keys := []string{"xmin", "xmax", "ymin", "ymax"}
	var values [4]float64
	given := 0
	for i, key := range keys {
		raw := query.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("invalid %s: %q", key, raw)
		}
		values[i] = v
		given++
	}
	switch given {
	case 0:
	case len(keys):
		if values[0] >= values[1] || values[2] >= values[3] {
			return req, errors.New("extent must satisfy xmin < xmax and ymin < ymax")
		}
		req.Extent = orb.Bound{
			Min: orb.Point{values[0], values[2]},
			Max: orb.Point{values[1], values[3]},
		}
	default:
		return req, errors.New("extent needs all of xmin, xmax, ymin and ymax")
	}

	return req, nil
}

func queryInt(raw string, defaultValue int) (int, error) {
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, contentType string, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	json.NewEncoder(w).Encode(v)
}

// Not for real production use due to potential spoofing
// but it's fine for a demo
func (h *Handlers) extractIP(r *http.Request) string {
	ip := r.Header.Get("X-Real-Ip")
	if ip != "" {
		return strings.Split(ip, ":")[0]
	}

	addr := r.RemoteAddr
	if addr != "" {
		return strings.Split(addr, ":")[0]
	}

	return "unknown"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
