// Package locator finds overlay files on disk and downloads catalog
// overlays that are not present yet.
package locator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cnoview/internal/catalog"
	"cnoview/internal/cno"
)

// Source is a located overlay file.
type Source struct {
	Path   string
	Format cno.Format
}

// OverlayInfo describes an overlay available to the service.
type OverlayInfo struct {
	Name         string `json:"name"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes,omitempty"`
	Local        bool   `json:"local"`
	Downloadable bool   `json:"downloadable"`
}

type Locator struct {
	dataDir     string
	catalog     *catalog.Catalog
	client      *http.Client
	logger      *zap.Logger
	group       singleflight.Group
	directPaths bool
}

type Option func(*Locator)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Locator) { l.client = c }
}

// WithoutDirectPaths restricts Resolve to the data directory and the
// catalog. Names are then never looked up relative to the working directory.
func WithoutDirectPaths() Option {
	return func(l *Locator) { l.directPaths = false }
}

// New creates a locator over dataDir. A nil catalog disables downloads.
func New(dataDir string, cat *catalog.Catalog, logger *zap.Logger, opts ...Option) *Locator {
	if cat == nil {
		cat = catalog.FromEntries(nil)
	}
	l := &Locator{
		dataDir:     dataDir,
		catalog:     cat,
		client:      http.DefaultClient,
		logger:      logger,
		directPaths: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DataDir picks the overlay directory: configured if set, else $HOME/.cno.
// A directory that does not exist falls back to the working directory.
func DataDir(configured string, logger *zap.Logger) string {
	dir := configured
	if dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, ".cno")
		}
	}
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	logger.Warn("Overlay directory does not exist, using working directory", zap.String("path", dir))
	return "."
}

func (l *Locator) DataDir() string {
	return l.dataDir
}

// Resolve finds name as a direct path, then inside the data directory, and
// finally downloads it into the data directory if the catalog knows it.
// Concurrent resolves of one catalog overlay share a single download, which
// is not cancelled when the caller that started it goes away; every caller
// still returns as soon as its own ctx is done.
func (l *Locator) Resolve(ctx context.Context, name string) (Source, error) {
	tested := l.candidates(name)
	for _, path := range tested {
		if isFile(path) {
			return newSource(path)
		}
	}

	url, ok := l.catalog.URL(name)
	if !ok {
		return Source{}, &NotFoundError{Name: name, Tested: tested}
	}

	target := filepath.Join(l.dataDir, name)
	ch := l.group.DoChan(target, func() (any, error) {
		// A concurrent resolve may have completed the download already.
		if isFile(target) {
			return target, nil
		}
		return target, l.download(context.WithoutCancel(ctx), url, target)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Source{}, &RetrievalError{Name: name, URL: url, Err: res.Err}
		}
		return newSource(res.Val.(string))
	case <-ctx.Done():
		return Source{}, &RetrievalError{Name: name, URL: url, Err: ctx.Err()}
	}
}

func (l *Locator) candidates(name string) []string {
	var paths []string
	if l.directPaths {
		paths = append(paths, name)
	} else if !filepath.IsLocal(name) {
		return nil
	}
	if !filepath.IsAbs(name) {
		paths = append(paths, filepath.Join(l.dataDir, name))
	}
	return paths
}

// List returns the overlays found in the data directory together with the
// downloadable catalog, sorted by name.
func (l *Locator) List() ([]OverlayInfo, error) {
	overlays := make(map[string]*OverlayInfo)

	entries, err := os.ReadDir(l.dataDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		format := cno.FormatFromPath(entry.Name())
		if format == cno.FormatUnknown {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			l.logger.Warn("Error getting file info", zap.String("path", l.getFilePath(entry.Name())), zap.Error(err))
			continue
		}

		overlays[entry.Name()] = &OverlayInfo{
			Name:   entry.Name(),
			Format: format.String(),
			Bytes:  info.Size(),
			Local:  true,
		}
	}

	for _, name := range l.catalog.Names() {
		if o, ok := overlays[name]; ok {
			o.Downloadable = true
			continue
		}
		overlays[name] = &OverlayInfo{
			Name:         name,
			Format:       cno.FormatFromPath(name).String(),
			Downloadable: true,
		}
	}

	result := make([]OverlayInfo, 0, len(overlays))
	for _, o := range overlays {
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

func (l *Locator) getFilePath(filename string) string {
	return filepath.Join(l.dataDir, filename)
}

func newSource(path string) (Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to resolve overlay path: %w", err)
	}
	format, err := cno.DetectFormat(abs)
	if err != nil {
		return Source{}, fmt.Errorf("failed to detect overlay format: %w", err)
	}
	return Source{Path: abs, Format: format}, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
