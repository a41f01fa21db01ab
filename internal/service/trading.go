package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Corner324/spimexpulse/internal/cache"
	"github.com/Corner324/spimexpulse/internal/domain/models"
	"github.com/Corner324/spimexpulse/internal/storage"
)

const dateLayout = "2006-01-02"

// Ingestor runs a full acquisition pass: discover bulletins, download,
// parse, and persist.
type Ingestor interface {
	Run(ctx context.Context, start, end time.Time, outputDir string) (int, error)
}

// TradingService defines business logic for the trading-results API.
//
// Read operations go through the Redis cache when it is available; the
// cache TTL always ends at the next daily bulletin publication, so all
// consumers see fresh data shortly after SPIMEX posts a new file.
type TradingService interface {
	LastTradingDates(ctx context.Context, count int) ([]string, error)
	Dynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error)
	TradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error)
	RunIngestion(ctx context.Context, start, end time.Time, outputDir string) (int, error)
}

type tradingService struct {
	repo     storage.TradingRepository
	cache    *cache.Client
	ingestor Ingestor
}

// NewTradingService wires the repository, cache, and ingestion pipeline
// into a single service. The cache client may be nil; reads then always
// hit Postgres.
func NewTradingService(repo storage.TradingRepository, c *cache.Client, ingestor Ingestor) TradingService {
	return &tradingService{repo: repo, cache: c, ingestor: ingestor}
}

// LastTradingDates returns the most recent distinct trading dates,
// newest first, formatted as YYYY-MM-DD.
func (s *tradingService) LastTradingDates(ctx context.Context, count int) ([]string, error) {
	key := fmt.Sprintf("trading:last_dates:%d", count)
	return cache.Through(ctx, s.cache, key, func(ctx context.Context) ([]string, error) {
		dates, err := s.repo.LastTradingDates(ctx, count)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(dates))
		for _, d := range dates {
			out = append(out, d.Format(dateLayout))
		}
		return out, nil
	})
}

// Dynamics returns trading results inside [start, end], oldest first,
// optionally narrowed by product filters.
func (s *tradingService) Dynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error) {
	key := fmt.Sprintf("trading:dynamics:%s:%s:%s:%s:%s",
		start.Format(dateLayout), end.Format(dateLayout),
		filter.OilID, filter.DeliveryTypeID, filter.DeliveryBasisID)
	return cache.Through(ctx, s.cache, key, func(ctx context.Context) ([]models.TradingResult, error) {
		return s.repo.GetDynamics(ctx, start, end, filter)
	})
}

// TradingResults returns the latest results matching the filter,
// newest first, up to limit rows.
func (s *tradingService) TradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error) {
	key := fmt.Sprintf("trading:results:%s:%s:%s:%d",
		filter.OilID, filter.DeliveryTypeID, filter.DeliveryBasisID, limit)
	return cache.Through(ctx, s.cache, key, func(ctx context.Context) ([]models.TradingResult, error) {
		return s.repo.GetTradingResults(ctx, filter, limit)
	})
}

// RunIngestion executes the acquisition pipeline and invalidates the
// API cache when new rows were persisted.
func (s *tradingService) RunIngestion(ctx context.Context, start, end time.Time, outputDir string) (int, error) {
	n, err := s.ingestor.Run(ctx, start, end, outputDir)
	if err != nil {
		return n, err
	}
	if n > 0 {
		_ = s.cache.DeletePattern(ctx, "trading:*")
	}
	return n, nil
}
