package scraper

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/Corner324/spimexpulse/internal/domain/models"
	"github.com/Corner324/spimexpulse/internal/logger"
)

// pageFetchConcurrency caps the number of listing pages in flight at once.
const pageFetchConcurrency = 10

const (
	paginationSelector = "div.bx-pagination-container li"
	nextPageSelector   = "div.bx-pagination-container li.bx-pag-next a"
)

// historyCutoff marks the earliest trade date the system of record covers.
// Listings are sorted newest first, so a page whose earliest date precedes
// the cutoff means every later page is out of range too.
var historyCutoff = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// Scraper discovers bulletin links across the paginated SPIMEX listing.
type Scraper struct {
	baseURL string
	client  *http.Client
}

// New constructs a Scraper for the given listing URL.
//
// Parameters:
//   - baseURL: the trading-results listing page.
//   - client: HTTP client to use; nil selects a default with a 10s timeout.
func New(baseURL string, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Scraper{baseURL: baseURL, client: client}
}

// pageResult holds everything the merge step needs from one listing page.
type pageResult struct {
	links   []models.BulletinReference
	hasNext bool
	ok      bool
}

// CollectBulletinURLs returns every bulletin reference whose trade date falls
// within [start, end] inclusive, walking the listing pagination.
//
// Behavior:
//   - The first request determines the page count from the pagination control
//     (absent control means exactly one page).
//   - Pages are fetched concurrently, at most pageFetchConcurrency in flight,
//     and their links extracted in the fetch goroutine.
//   - Results merge in page order; the walk stops early once a page's earliest
//     in-range date precedes the historical cutoff, or a page has no enabled
//     "next" control.
//   - A failed page contributes no links; total failure to reach the site
//     yields an empty set, never an error.
func (s *Scraper) CollectBulletinURLs(start, end time.Time) []models.BulletinReference {
	started := time.Now()
	maxPages := s.maxPages()

	results := make([]pageResult, maxPages)

	var g errgroup.Group
	sem := make(chan struct{}, pageFetchConcurrency)

	for page := 1; page <= maxPages; page++ {
		p := page
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			results[p-1] = s.processPage(p, start, end)
			return nil
		})
	}
	_ = g.Wait()

	var refs []models.BulletinReference
	for i, res := range results {
		if !res.ok {
			continue
		}
		refs = append(refs, res.links...)

		if earliest, found := earliestTradeDate(res.links); found && earliest.Before(historyCutoff) {
			logger.L().Info().Int("page", i+1).Msg("reached pages older than the coverage cutoff, stopping")
			break
		}
		if !res.hasNext {
			logger.L().Info().Int("page", i+1).Msg("reached the last listing page")
			break
		}
	}

	logger.L().Info().
		Int("bulletins", len(refs)).
		Dur("elapsed", time.Since(started)).
		Msg("bulletin discovery finished")
	return refs
}

// processPage fetches and parses a single listing page.
func (s *Scraper) processPage(page int, start, end time.Time) pageResult {
	pageURL := s.pageURL(page)
	logger.L().Debug().Int("page", page).Str("url", pageURL).Msg("processing listing page")

	content, ok := s.fetchPage(pageURL)
	if !ok {
		return pageResult{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		logger.L().Error().Int("page", page).Err(err).Msg("listing page is not parseable HTML")
		return pageResult{}
	}

	return pageResult{
		links:   extractBulletinLinks(doc, start, end),
		hasNext: doc.Find(nextPageSelector).Length() > 0,
		ok:      true,
	}
}

// pageURL builds the URL for a given listing page. Page 1 is the bare base
// URL; later pages use the page query parameter.
func (s *Scraper) pageURL(page int) string {
	if page <= 1 {
		return s.baseURL
	}
	return fmt.Sprintf("%s?page=page-%d", s.baseURL, page)
}

// maxPages determines the total number of listing pages from the pagination
// control of the first page. No control, an empty list, or a fetch failure
// all mean a single page.
func (s *Scraper) maxPages() int {
	content, ok := s.fetchPage(s.baseURL)
	if !ok {
		return 1
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		logger.L().Error().Err(err).Msg("first listing page is not parseable HTML")
		return 1
	}

	items := doc.Find(paginationSelector)
	if items.Length() < 2 {
		logger.L().Info().Msg("no pagination control found, assuming one page")
		return 1
	}

	// The last item is the "next" arrow; the page number precedes it.
	last := strings.TrimSpace(items.Eq(items.Length() - 2).Text())
	n, err := strconv.Atoi(last)
	if err != nil || n < 1 {
		logger.L().Warn().Str("value", last).Msg("pagination control has no numeric last page")
		return 1
	}
	logger.L().Info().Int("pages", n).Msg("pagination resolved")
	return n
}

// earliestTradeDate returns the smallest trade date among refs.
func earliestTradeDate(refs []models.BulletinReference) (time.Time, bool) {
	if len(refs) == 0 {
		return time.Time{}, false
	}
	earliest := refs[0].TradeDate
	for _, r := range refs[1:] {
		if r.TradeDate.Before(earliest) {
			earliest = r.TradeDate
		}
	}
	return earliest, true
}
