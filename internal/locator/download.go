package locator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cnoview/internal/metrics"
)

// download fetches url into target. The body is written to a uniquely named
// part file next to target and renamed into place once complete, so target
// either does not exist or holds the whole file.
func (l *Locator) download(ctx context.Context, url, target string) (err error) {
	start := time.Now()
	l.logger.Warn("Downloading overlay", zap.String("url", url), zap.String("path", target))
	defer func() {
		metrics.DownloadsTotal.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			l.logger.Error("Overlay download failed", zap.String("url", url), zap.Error(err))
		}
	}()

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	partPath := fmt.Sprintf("%s.%s.part", target, uuid.New().String())
	f, err := os.OpenFile(partPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create part file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(partPath)
		}
	}()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync overlay: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close overlay: %w", err)
	}
	if err = os.Rename(partPath, target); err != nil {
		return fmt.Errorf("failed to move overlay into place: %w", err)
	}

	metrics.DownloadBytesTotal.Add(float64(n))
	l.logger.Info("Downloaded overlay",
		zap.String("path", target),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)))
	return nil
}
