package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Corner324/spimexpulse/internal/domain/models"
)

type fakeSource struct {
	refs     []models.BulletinReference
	gotStart time.Time
	gotEnd   time.Time
}

func (f *fakeSource) CollectBulletinURLs(start, end time.Time) []models.BulletinReference {
	f.gotStart, f.gotEnd = start, end
	return f.refs
}

type fakeRepo struct {
	saved []models.TradingResult
	err   error
	calls int
}

func (f *fakeRepo) SaveTradingResults(_ context.Context, results []models.TradingResult) error {
	f.calls++
	f.saved = append(f.saved, results...)
	return f.err
}
func (f *fakeRepo) LastTradingDates(context.Context, int) ([]time.Time, error) { return nil, nil }
func (f *fakeRepo) GetDynamics(context.Context, time.Time, time.Time, models.TradingFilter) ([]models.TradingResult, error) {
	return nil, nil
}
func (f *fakeRepo) GetTradingResults(context.Context, models.TradingFilter, int) ([]models.TradingResult, error) {
	return nil, nil
}

func stubParse(t *testing.T, fn func(path string, tradeDate time.Time) []models.TradingResult) {
	t.Helper()
	orig := parseBulletin
	parseBulletin = fn
	t.Cleanup(func() { parseBulletin = orig })
}

func mustResult(t *testing.T, day time.Time) models.TradingResult {
	t.Helper()
	r, err := models.NewTradingResult("A100ANK060F", "Бензин", "базис", 10, 100, 1, day, day)
	if err != nil {
		t.Fatalf("build result: %v", err)
	}
	return r
}

func TestRun_FailedDownloadContributesZeroRows(t *testing.T) {
	quickDownloadDelay(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/bad") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("xls-bytes"))
	}))
	defer srv.Close()

	goodDay := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	badDay := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)

	src := &fakeSource{refs: []models.BulletinReference{
		{URL: srv.URL + "/good.xls", TradeDate: goodDay},
		{URL: srv.URL + "/bad.xls", TradeDate: badDay},
	}}
	repo := &fakeRepo{}

	stubParse(t, func(path string, tradeDate time.Time) []models.TradingResult {
		if !strings.Contains(path, "oil_xls_20240115.xls") {
			t.Errorf("unexpected parse path %q", path)
		}
		return []models.TradingResult{mustResult(t, tradeDate), mustResult(t, tradeDate)}
	})

	p := NewProcessor(src, repo)
	n, err := p.Run(context.Background(), goodDay, badDay, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 2 || len(repo.saved) != 2 {
		t.Fatalf("rows: n=%d saved=%d", n, len(repo.saved))
	}
}

func TestRun_ZeroBulletinsIsNoOp(t *testing.T) {
	repo := &fakeRepo{}
	p := NewProcessor(&fakeSource{}, repo)

	n, err := p.Run(context.Background(), time.Now().AddDate(0, 0, -7), time.Now(), t.TempDir())
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if repo.calls != 0 {
		t.Fatalf("repository must not be touched")
	}
}

func TestRun_NoRowsSkipsPersistence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("xls-bytes"))
	}))
	defer srv.Close()

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{refs: []models.BulletinReference{{URL: srv.URL, TradeDate: day}}}
	repo := &fakeRepo{}

	stubParse(t, func(string, time.Time) []models.TradingResult { return nil })

	p := NewProcessor(src, repo)
	n, err := p.Run(context.Background(), day, day, t.TempDir())
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if repo.calls != 0 {
		t.Fatalf("repository must not be touched with no rows")
	}
}

func TestRun_PersistFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("xls-bytes"))
	}))
	defer srv.Close()

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{refs: []models.BulletinReference{{URL: srv.URL, TradeDate: day}}}
	repo := &fakeRepo{err: errDummy{}}

	stubParse(t, func(_ string, d time.Time) []models.TradingResult {
		return []models.TradingResult{mustResult(t, d)}
	})

	p := NewProcessor(src, repo)
	if _, err := p.Run(context.Background(), day, day, t.TempDir()); err == nil {
		t.Fatalf("expected persistence error")
	}
}

func TestRun_ClampsFutureEndDate(t *testing.T) {
	src := &fakeSource{}
	p := NewProcessor(src, &fakeRepo{})

	start := time.Now().AddDate(0, 0, -3)
	future := time.Now().AddDate(0, 0, 2)
	if _, err := p.Run(context.Background(), start, future, t.TempDir()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if src.gotEnd.After(today) {
		t.Fatalf("end date not clamped: %v", src.gotEnd)
	}
}

func TestClampEndDate(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)
	today := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	past := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if got := clampEndDate(past, now); !got.Equal(past) {
		t.Fatalf("past end changed: %v", got)
	}
	if got := clampEndDate(today, now); !got.Equal(today) {
		t.Fatalf("today end changed: %v", got)
	}
	future := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := clampEndDate(future, now); !got.Equal(today) {
		t.Fatalf("future end not clamped: %v", got)
	}
}

type errDummy struct{}

func (errDummy) Error() string { return "dummy" }
