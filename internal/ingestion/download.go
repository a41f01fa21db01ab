package ingestion

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Corner324/spimexpulse/internal/logger"
)

// downloadTimeout bounds one bulletin download end to end.
const downloadTimeout = 10 * time.Second

// Retry knobs, package vars so tests can shrink the delay.
var (
	downloadRetries    = 3
	downloadRetryDelay = 2 * time.Second
)

// downloadClient is an indirection so tests can point downloads at a local
// server or stub the transport.
var downloadClient = &http.Client{Timeout: downloadTimeout}

// downloadBulletin ensures the bulletin content is available at path.
//
// Behavior:
//   - If a file already exists at path, reports success without a request
//     (downloads are idempotent by path).
//   - Otherwise issues a GET and writes the body to a sibling .tmp file,
//     renaming it into place only after the full body is on disk.
//   - Network errors and non-200 responses are retried up to downloadRetries
//     times with a fixed delay between attempts.
//   - Exhausted retries and I/O errors are logged and reported as false; they
//     never propagate as errors. Callers treat a missing bulletin as "no
//     data", not as a fatal condition.
func downloadBulletin(ctx context.Context, url, path string) bool {
	started := time.Now()

	if _, err := os.Stat(path); err == nil {
		logger.L().Info().Str("path", path).Msg("bulletin already on disk, skipping download")
		return true
	}

	resp, ok := fetchBulletin(ctx, url)
	if !ok {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		logger.L().Error().Str("path", tmp).Err(err).Msg("creating bulletin file failed")
		return false
	}

	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil || closeErr != nil {
		_ = os.Remove(tmp)
		logger.L().Error().Str("path", tmp).AnErr("copy", err).AnErr("close", closeErr).Msg("writing bulletin failed")
		return false
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		logger.L().Error().Str("path", path).Err(err).Msg("renaming bulletin into place failed")
		return false
	}

	logger.L().Info().
		Str("path", path).
		Int64("bytes", written).
		Dur("elapsed", time.Since(started)).
		Msg("bulletin downloaded")
	return true
}

// fetchBulletin issues the GET with bounded retries and returns the first
// 200 response. The caller owns the response body.
func fetchBulletin(ctx context.Context, url string) (*http.Response, bool) {
	for attempt := 1; attempt <= downloadRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			logger.L().Error().Str("url", url).Err(err).Msg("building bulletin request failed")
			return nil, false
		}

		resp, err := downloadClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, true
		}
		if err == nil {
			_ = resp.Body.Close()
			logger.L().Warn().Str("url", url).Int("status", resp.StatusCode).Int("attempt", attempt).Msg("bulletin download rejected")
		} else {
			logger.L().Warn().Str("url", url).Int("attempt", attempt).Err(err).Msg("bulletin download attempt failed")
		}

		if attempt < downloadRetries {
			time.Sleep(downloadRetryDelay)
		}
	}
	logger.L().Error().Str("url", url).Int("retries", downloadRetries).Msg("bulletin unavailable after retries")
	return nil, false
}
