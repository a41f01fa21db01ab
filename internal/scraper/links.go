package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Corner324/spimexpulse/internal/domain/models"
	"github.com/Corner324/spimexpulse/internal/logger"
)

const (
	// siteRoot resolves relative bulletin hrefs published by the exchange.
	siteRoot = "https://spimex.com"

	// reportPathMarker identifies hrefs pointing at oil bulletin files.
	reportPathMarker = "/upload/reports/oil_xls/oil_xls_"

	// dateTokenMarker precedes the 8-digit trade date embedded in the href.
	dateTokenMarker = "oil_xls_"

	// dateTokenLayout parses the embedded date token (e.g. "20240115").
	dateTokenLayout = "20060102"

	bulletinExt = ".xls"

	linkSelector = "a.accordeon-inner__item-title.link.xls"
)

// extractBulletinLinks walks one parsed listing page and returns a
// BulletinReference for every anchor whose href matches the bulletin path
// pattern and whose embedded date token falls inside [start, end] inclusive.
//
// This is a best-effort extraction over uncontrolled HTML: hrefs that fail
// the pattern or carry a malformed date token are skipped with a log entry,
// never an error.
func extractBulletinLinks(doc *goquery.Document, start, end time.Time) []models.BulletinReference {
	var refs []models.BulletinReference

	doc.Find(linkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			logger.L().Debug().Msg("skipping bulletin anchor without href")
			return
		}

		// Strip the query string; the exchange appends tracking parameters.
		if i := strings.Index(href, "?"); i >= 0 {
			href = href[:i]
		}

		if !strings.Contains(href, reportPathMarker) || !strings.HasSuffix(href, bulletinExt) {
			logger.L().Debug().Str("href", href).Msg("skipping link: not a bulletin file")
			return
		}

		tradeDate, err := parseDateToken(href)
		if err != nil {
			logger.L().Warn().Str("href", href).Err(err).Msg("could not extract trade date from link")
			return
		}

		if tradeDate.Before(start) || tradeDate.After(end) {
			logger.L().Debug().Str("href", href).Time("trade_date", tradeDate).Msg("link outside requested date range")
			return
		}

		fullURL := href
		if !strings.HasPrefix(href, "http") {
			fullURL = siteRoot + href
		}

		refs = append(refs, models.BulletinReference{URL: fullURL, TradeDate: tradeDate})
	})

	return refs
}

// parseDateToken extracts the 8-digit date immediately following the
// dateTokenMarker in a bulletin href.
func parseDateToken(href string) (time.Time, error) {
	_, after, found := strings.Cut(href, dateTokenMarker)
	if !found || len(after) < 8 {
		return time.Time{}, &tokenError{href: href}
	}
	return time.Parse(dateTokenLayout, after[:8])
}

type tokenError struct {
	href string
}

func (e *tokenError) Error() string {
	return "no date token after " + dateTokenMarker + " in " + e.href
}
