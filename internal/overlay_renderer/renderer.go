package overlay_renderer

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"go.uber.org/zap"

	"cnoview/internal/cache"
	"cnoview/internal/catalog"
	"cnoview/internal/cno"
	"cnoview/internal/geometry"
	"cnoview/internal/locator"
	"cnoview/internal/metrics"
	"cnoview/internal/projection"
)

// Surface receives the visible lines of an overlay together with the
// viewport they were clipped to. Lines may share memory with cached
// geometry and must not be modified.
type Surface interface {
	DrawLines(lines orb.MultiLineString, extent orb.Bound)
}

// Resolver locates overlay files by name.
type Resolver interface {
	Resolve(ctx context.Context, name string) (locator.Source, error)
}

// Decoder reads a located overlay into raw lon/lat geometry.
type Decoder func(src locator.Source) (*geometry.Geometry, error)

// DecodeSource is the default Decoder.
func DecodeSource(src locator.Source) (*geometry.Geometry, error) {
	return cno.DecodeFile(src.Path, src.Format)
}

// Request selects an overlay, the projection to draw it with and the
// viewport. A zero Extent draws everything.
type Request struct {
	Name       string
	Projection projection.Projection
	Extent     orb.Bound
}

type Renderer struct {
	locator Resolver
	cache   cache.Cache
	decode  Decoder
	logger  *zap.Logger
}

type Option func(*Renderer)

// WithDecoder replaces the decoder used on cache misses.
func WithDecoder(d Decoder) Option {
	return func(r *Renderer) { r.decode = d }
}

func New(loc Resolver, overlayCache cache.Cache, logger *zap.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		locator: loc,
		cache:   overlayCache,
		decode:  DecodeSource,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Geometry locates, decodes and projects the requested overlay. Results are
// cached per source and projection, and per extent for projections that
// depend on it.
func (r *Renderer) Geometry(ctx context.Context, req Request) (*geometry.Geometry, error) {
	name := req.Name
	if name == "" {
		name = catalog.DefaultOverlay
	}

	src, err := r.locator.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	key := cache.NewKey(
		src.Path,
		src.Format,
		projection.ID(req.Projection),
		req.Extent,
		projection.IsExtentDependent(req.Projection),
	)
	return r.cache.GetOrCompute(key, func() (*geometry.Geometry, error) {
		return r.compute(src, req.Projection)
	})
}

func (r *Renderer) compute(src locator.Source, p projection.Projection) (*geometry.Geometry, error) {
	start := time.Now()
	raw, err := r.decode(src)
	metrics.DecodesTotal.WithLabelValues(src.Format.String(), metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.DecodeDurationMs.WithLabelValues(src.Format.String()).Observe(metrics.Milliseconds(time.Since(start)))
	r.logger.Debug("Decoded overlay",
		zap.String("path", src.Path),
		zap.Stringer("format", src.Format),
		zap.Int("parts", raw.NumParts()),
		zap.Int("points", raw.NumPoints()),
		zap.Duration("duration", time.Since(start)))

	if projection.IsIdentity(p) {
		return raw, nil
	}

	start = time.Now()
	projected, err := projection.Project(raw, p)
	metrics.ProjectionsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Projected overlay",
		zap.String("path", src.Path),
		zap.String("projection", projection.ID(p)),
		zap.Duration("duration", time.Since(start)))
	return projected, nil
}

// Draw fetches the requested overlay and renders it onto surface.
func (r *Renderer) Draw(ctx context.Context, req Request, surface Surface) error {
	g, err := r.Geometry(ctx, req)
	if err != nil {
		return err
	}
	Render(g, surface, req.Extent)
	return nil
}

// DrawCoastlines draws the MWDB coastlines at resolution res (1 or 3).
func (r *Renderer) DrawCoastlines(ctx context.Context, p projection.Projection, extent orb.Bound, res int, surface Surface) error {
	return r.Draw(ctx, Request{Name: catalog.Coastlines(res), Projection: p, Extent: extent}, surface)
}

// DrawCountries draws the MWDB coastlines and country borders.
func (r *Renderer) DrawCountries(ctx context.Context, p projection.Projection, extent orb.Bound, res int, surface Surface) error {
	return r.Draw(ctx, Request{Name: catalog.Countries(res), Projection: p, Extent: extent}, surface)
}

// DrawStates draws the North American coastlines, countries and states.
func (r *Renderer) DrawStates(ctx context.Context, p projection.Projection, extent orb.Bound, res int, surface Surface) error {
	return r.Draw(ctx, Request{Name: catalog.States(res), Projection: p, Extent: extent}, surface)
}

// ClearCache drops every cached overlay.
func (r *Renderer) ClearCache() {
	r.cache.Clear()
	r.logger.Info("Overlay cache cleared")
}

// CacheStats reports usage of the overlay cache.
func (r *Renderer) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// Render hands the parts of g that are visible in extent to surface, in part
// order. Parts are broken at non-finite points and clipped to extent, so one
// part may become several lines. A zero extent disables clipping and the
// surface receives the bound of the drawn lines instead.
func Render(g *geometry.Geometry, surface Surface, extent orb.Bound) {
	clipping := !extent.IsZero()

	var parts []int
	if clipping {
		parts = g.PartsIntersecting(extent)
	} else {
		parts = make([]int, len(g.Parts))
		for i := range parts {
			parts[i] = i
		}
	}

	var lines orb.MultiLineString
	for _, i := range parts {
		runs := geometry.SplitFinite(g.Parts[i])
		if clipping {
			runs = clip.MultiLineString(extent, runs)
		}
		for _, run := range runs {
			if len(run) >= 2 {
				lines = append(lines, run)
			}
		}
	}

	if !clipping {
		extent = lines.Bound()
	}
	surface.DrawLines(lines, extent)
}
