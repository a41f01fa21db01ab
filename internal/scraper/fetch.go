package scraper

import (
	"io"
	"net/http"
	"time"

	"github.com/Corner324/spimexpulse/internal/logger"
)

// Retry/pacing knobs. Package vars so tests can shrink the delays.
var (
	fetchRetries = 3
	retryDelay   = 2 * time.Second
	pacingDelay  = 500 * time.Millisecond
)

// Browser-like headers; the exchange serves a stripped page to unknown agents.
const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

// fetchPage downloads one listing page with bounded retries.
//
// Behavior:
//   - Up to fetchRetries attempts with a fixed retryDelay between them.
//   - After every successful fetch, sleeps pacingDelay to avoid tripping the
//     exchange's rate limiting.
//   - Exhausted retries degrade to ("", false); failures never propagate as
//     errors, the page simply yields no links.
func (s *Scraper) fetchPage(pageURL string) (string, bool) {
	for attempt := 1; attempt <= fetchRetries; attempt++ {
		body, err := s.doGet(pageURL)
		if err == nil {
			time.Sleep(pacingDelay)
			return body, true
		}
		logger.L().Warn().Str("url", pageURL).Int("attempt", attempt).Err(err).Msg("page fetch attempt failed")
		if attempt < fetchRetries {
			time.Sleep(retryDelay)
		}
	}
	logger.L().Error().Str("url", pageURL).Int("retries", fetchRetries).Msg("page unavailable after retries")
	return "", false
}

func (s *Scraper) doGet(pageURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{url: pageURL, status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type statusError struct {
	url    string
	status int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + " from " + e.url
}
