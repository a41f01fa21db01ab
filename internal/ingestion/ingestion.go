package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Corner324/spimexpulse/internal/domain/models"
	"github.com/Corner324/spimexpulse/internal/logger"
	"github.com/Corner324/spimexpulse/internal/storage"
)

const (
	// downloadConcurrency caps in-flight bulletin downloads. Independent of
	// the listing-page semaphore inside the scraper.
	downloadConcurrency = 10

	// bulletinFileLayout names downloaded bulletins deterministically from
	// their trade date so repeated runs skip the download.
	bulletinFileLayout = "20060102"
)

// BulletinSource discovers bulletin references for a date window.
// *scraper.Scraper satisfies it; tests substitute fakes.
type BulletinSource interface {
	CollectBulletinURLs(start, end time.Time) []models.BulletinReference
}

// parseBulletin is an indirection over ParseBulletin for orchestrator tests.
var parseBulletin = ParseBulletin

// Processor runs one ingestion pass: discover bulletin links, download and
// parse them with bounded concurrency, and persist the validated rows.
type Processor struct {
	source BulletinSource
	repo   storage.TradingRepository
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(source BulletinSource, repo storage.TradingRepository) *Processor {
	return &Processor{source: source, repo: repo}
}

// Run ingests every bulletin whose trade date falls within [start, end].
//
// Behavior:
//   - An end date in the future is silently clamped to today.
//   - Zero discovered bulletins is a successful no-op, not an error.
//   - Each bulletin is downloaded and parsed in its own goroutine, at most
//     downloadConcurrency in flight; a failed download contributes zero rows
//     and never fails the run.
//   - All rows are flattened and persisted in one transaction; a persistence
//     failure is the only error Run surfaces.
//
// Returns:
//   - int: number of rows handed to the persister.
//   - error: persistence failure, or output-directory setup failure.
func (p *Processor) Run(ctx context.Context, start, end time.Time, outputDir string) (int, error) {
	started := time.Now()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir %s: %w", outputDir, err)
	}

	end = clampEndDate(end, time.Now())

	refs := p.source.CollectBulletinURLs(start, end)
	if len(refs) == 0 {
		logger.L().Info().Msg("no bulletins found for the requested range")
		return 0, nil
	}

	logger.L().Info().Int("bulletins", len(refs)).Str("dir", outputDir).Msg("ingestion start")

	// Each goroutine owns its slot; no shared mutation until the merge below.
	perBulletin := make([][]models.TradingResult, len(refs))

	var g errgroup.Group
	sem := make(chan struct{}, downloadConcurrency)

	for i, ref := range refs {
		idx, r := i, ref
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			path := filepath.Join(outputDir, fmt.Sprintf("oil_xls_%s.xls", r.TradeDate.Format(bulletinFileLayout)))
			if downloadBulletin(ctx, r.URL, path) {
				perBulletin[idx] = parseBulletin(path, r.TradeDate)
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []models.TradingResult
	for _, rows := range perBulletin {
		all = append(all, rows...)
	}

	if len(all) == 0 {
		logger.L().Info().Msg("no rows to persist")
		return 0, nil
	}

	if err := p.repo.SaveTradingResults(ctx, all); err != nil {
		logger.L().Error().Int("rows", len(all)).Err(err).Msg("persisting trading results failed")
		return 0, err
	}

	logger.L().Info().
		Int("rows", len(all)).
		Dur("elapsed", time.Since(started)).
		Msg("ingestion finished")
	return len(all), nil
}

// clampEndDate lowers a future end date to the current date.
func clampEndDate(end, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if end.After(today) {
		logger.L().Warn().Time("end", end).Time("clamped", today).Msg("end date is in the future, clamping to today")
		return today
	}
	return end
}
