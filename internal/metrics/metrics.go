package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DecodesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cnoview_decodes_total",
		Help: "Overlay files decoded, by format and result",
	}, []string{"format", "result"})
	DecodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cnoview_decode_duration_ms",
		Help:    "Overlay decode duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"format"})
	ProjectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cnoview_projections_total",
		Help: "Overlay projections run, by result",
	}, []string{"result"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cnoview_cache_hits_total",
		Help: "Geometry cache hits",
	}, []string{"backend"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cnoview_cache_misses_total",
		Help: "Geometry cache misses",
	}, []string{"backend"})
	DownloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cnoview_downloads_total",
		Help: "Overlay downloads, by result",
	}, []string{"result"})
	DownloadBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cnoview_download_bytes_total",
		Help: "Bytes written by successful overlay downloads",
	})
	RenderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cnoview_render_duration_ms",
		Help:    "Overlay render duration in milliseconds, by surface",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"surface"})
)

func init() {
	prometheus.MustRegister(DecodesTotal)
	prometheus.MustRegister(DecodeDurationMs)
	prometheus.MustRegister(ProjectionsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(DownloadsTotal)
	prometheus.MustRegister(DownloadBytesTotal)
	prometheus.MustRegister(RenderDurationMs)
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Milliseconds converts d for the *_duration_ms histograms, keeping
// sub-millisecond precision.
func Milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
