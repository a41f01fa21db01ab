package scraper

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const mixedLinksPage = `
<div class="accordeon-inner">
  <a class="accordeon-inner__item-title link xls" href="/upload/reports/oil_xls/oil_xls_20240101162000.xls?r=123">Бюллетень 01.01.2024</a>
  <a class="accordeon-inner__item-title link xls" href="/upload/reports/oil_xls/oil_xls_20231231162000.xls">Бюллетень 31.12.2023</a>
  <a class="accordeon-inner__item-title link xls" href="/upload/reports/oil_xls/oil_xls_20240101.pdf">Не xls</a>
  <a class="accordeon-inner__item-title link xls" href="/upload/reports/oil_xls/oil_xls_badtoken.xls">Битая дата</a>
</div>`

func TestExtractBulletinLinks_PatternAndRange(t *testing.T) {
	doc := mustDoc(t, mixedLinksPage)

	// Only the 2024-01-01 link matches both the pattern and the range.
	refs := extractBulletinLinks(doc, day(2024, 1, 1), day(2024, 1, 1))
	if len(refs) != 1 {
		t.Fatalf("refs: want 1 got %d (%+v)", len(refs), refs)
	}
	if refs[0].URL != "https://spimex.com/upload/reports/oil_xls/oil_xls_20240101162000.xls" {
		t.Fatalf("url: got %q", refs[0].URL)
	}
	if !refs[0].TradeDate.Equal(day(2024, 1, 1)) {
		t.Fatalf("trade date: got %v", refs[0].TradeDate)
	}
}

func TestExtractBulletinLinks_BoundaryDatesIncluded(t *testing.T) {
	doc := mustDoc(t, mixedLinksPage)

	refs := extractBulletinLinks(doc, day(2023, 12, 31), day(2024, 1, 1))
	if len(refs) != 2 {
		t.Fatalf("refs: want 2 got %d", len(refs))
	}
}

func TestExtractBulletinLinks_OutOfRangeExcluded(t *testing.T) {
	doc := mustDoc(t, mixedLinksPage)

	refs := extractBulletinLinks(doc, day(2024, 2, 1), day(2024, 2, 28))
	if len(refs) != 0 {
		t.Fatalf("refs: want 0 got %d", len(refs))
	}
}

func TestExtractBulletinLinks_AbsoluteHrefKept(t *testing.T) {
	doc := mustDoc(t, `<a class="accordeon-inner__item-title link xls"
		href="https://spimex.com/upload/reports/oil_xls/oil_xls_20240115162000.xls">b</a>`)

	refs := extractBulletinLinks(doc, day(2024, 1, 1), day(2024, 1, 31))
	if len(refs) != 1 {
		t.Fatalf("refs: want 1 got %d", len(refs))
	}
	if !strings.HasPrefix(refs[0].URL, "https://spimex.com/upload") {
		t.Fatalf("url: got %q", refs[0].URL)
	}
}

func TestExtractBulletinLinks_EmptyAndForeignAnchors(t *testing.T) {
	doc := mustDoc(t, `
		<a class="accordeon-inner__item-title link xls">no href</a>
		<a class="other" href="/upload/reports/oil_xls/oil_xls_20240115162000.xls">wrong class</a>
		<a class="accordeon-inner__item-title link xls" href="/somewhere/else.xls">wrong path</a>`)

	refs := extractBulletinLinks(doc, day(2024, 1, 1), day(2024, 1, 31))
	if len(refs) != 0 {
		t.Fatalf("refs: want 0 got %d", len(refs))
	}
}

func TestParseDateToken(t *testing.T) {
	cases := []struct {
		name    string
		href    string
		wantErr bool
		want    time.Time
	}{
		{name: "valid", href: "/upload/reports/oil_xls/oil_xls_20240115162000.xls", want: day(2024, 1, 15)},
		{name: "token too short", href: "/upload/reports/oil_xls/oil_xls_2024.xls", wantErr: true},
		{name: "non-numeric token", href: "/upload/reports/oil_xls/oil_xls_abcdefgh.xls", wantErr: true},
		{name: "invalid calendar date", href: "/upload/reports/oil_xls/oil_xls_20241345.xls", wantErr: true},
		{name: "marker missing", href: "/upload/reports/other_20240115.xls", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDateToken(tc.href)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("date: want %v got %v", tc.want, got)
			}
		})
	}
}
