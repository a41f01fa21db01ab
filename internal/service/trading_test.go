package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Corner324/spimexpulse/internal/domain/models"
)

type stubRepo struct {
	dates   []time.Time
	results []models.TradingResult
	err     error

	gotFilter models.TradingFilter
	gotLimit  int
}

func (s *stubRepo) SaveTradingResults(_ context.Context, _ []models.TradingResult) error {
	return s.err
}

func (s *stubRepo) LastTradingDates(_ context.Context, limit int) ([]time.Time, error) {
	s.gotLimit = limit
	return s.dates, s.err
}

func (s *stubRepo) GetDynamics(_ context.Context, _, _ time.Time, filter models.TradingFilter) ([]models.TradingResult, error) {
	s.gotFilter = filter
	return s.results, s.err
}

func (s *stubRepo) GetTradingResults(_ context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error) {
	s.gotFilter = filter
	s.gotLimit = limit
	return s.results, s.err
}

type stubIngestor struct {
	n   int
	err error

	gotStart time.Time
	gotEnd   time.Time
	gotDir   string
}

func (s *stubIngestor) Run(_ context.Context, start, end time.Time, outputDir string) (int, error) {
	s.gotStart, s.gotEnd, s.gotDir = start, end, outputDir
	return s.n, s.err
}

func TestLastTradingDates_FormatsDates(t *testing.T) {
	repo := &stubRepo{dates: []time.Time{
		time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}}
	svc := NewTradingService(repo, nil, &stubIngestor{})

	got, err := svc.LastTradingDates(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if repo.gotLimit != 10 {
		t.Fatalf("limit not forwarded: %d", repo.gotLimit)
	}
	if len(got) != 2 || got[0] != "2024-01-16" || got[1] != "2024-01-15" {
		t.Fatalf("unexpected dates: %v", got)
	}
}

func TestLastTradingDates_RepoError(t *testing.T) {
	svc := NewTradingService(&stubRepo{err: errors.New("boom")}, nil, &stubIngestor{})

	if _, err := svc.LastTradingDates(context.Background(), 5); err == nil {
		t.Fatal("expected error")
	}
}

func TestDynamics_ForwardsFilter(t *testing.T) {
	repo := &stubRepo{results: []models.TradingResult{{ExchangeProductID: "A100ANK060F"}}}
	svc := NewTradingService(repo, nil, &stubIngestor{})

	filter := models.TradingFilter{OilID: "A100", DeliveryTypeID: "F", DeliveryBasisID: "ANK"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	got, err := svc.Dynamics(context.Background(), start, end, filter)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if repo.gotFilter != filter {
		t.Fatalf("filter not forwarded: %+v", repo.gotFilter)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestTradingResults_ForwardsLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := NewTradingService(repo, nil, &stubIngestor{})

	if _, err := svc.TradingResults(context.Background(), models.TradingFilter{}, 100); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if repo.gotLimit != 100 {
		t.Fatalf("limit not forwarded: %d", repo.gotLimit)
	}
}

func TestRunIngestion(t *testing.T) {
	cases := []struct {
		name     string
		ingestor *stubIngestor
		wantN    int
		wantErr  bool
	}{
		{name: "success", ingestor: &stubIngestor{n: 42}, wantN: 42},
		{name: "failure", ingestor: &stubIngestor{err: errors.New("boom")}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewTradingService(&stubRepo{}, nil, tc.ingestor)

			start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
			n, err := svc.RunIngestion(context.Background(), start, end, "/tmp/bulletins")

			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil || n != tc.wantN {
				t.Fatalf("n=%d err=%v", n, err)
			}
			if tc.ingestor.gotDir != "/tmp/bulletins" {
				t.Fatalf("output dir not forwarded: %q", tc.ingestor.gotDir)
			}
		})
	}
}
