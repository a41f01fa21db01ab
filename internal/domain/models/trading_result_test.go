package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewTradingResult_Derivations(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 16, 10, 30, 0, 0, time.UTC)

	r, err := NewTradingResult("A100ANK060F", "Бензин АИ-100", "ст. Аникеевка", 120.5, 9_500_000, 3, day, now)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if r.OilID != "A100" {
		t.Fatalf("oil id: want A100 got %q", r.OilID)
	}
	if r.DeliveryBasisID != "ANK" {
		t.Fatalf("delivery basis id: want ANK got %q", r.DeliveryBasisID)
	}
	if r.DeliveryTypeID != "F" {
		t.Fatalf("delivery type id: want F got %q", r.DeliveryTypeID)
	}
	if !r.Date.Equal(day) {
		t.Fatalf("date: want %v got %v", day, r.Date)
	}
	if !r.CreatedOn.Equal(now) || !r.UpdatedOn.Equal(now) {
		t.Fatalf("timestamps: created=%v updated=%v want %v", r.CreatedOn, r.UpdatedOn, now)
	}
}

func TestNewTradingResult_Validation(t *testing.T) {
	day := time.Now()

	cases := []struct {
		name      string
		productID string
		prodName  string
		volume    float64
		total     float64
		count     int64
		wantField string
	}{
		{name: "empty code", productID: "", prodName: "x", count: 1, wantField: "exchange_product_id"},
		{name: "short code", productID: "A100", prodName: "x", count: 1, wantField: "exchange_product_id"},
		{name: "empty name", productID: "A100ANK060F", prodName: "", count: 1, wantField: "exchange_product_name"},
		{name: "negative volume", productID: "A100ANK060F", prodName: "x", volume: -1, count: 1, wantField: "volume"},
		{name: "negative total", productID: "A100ANK060F", prodName: "x", total: -0.5, count: 1, wantField: "total"},
		{name: "zero count", productID: "A100ANK060F", prodName: "x", count: 0, wantField: "count"},
		{name: "negative count", productID: "A100ANK060F", prodName: "x", count: -3, wantField: "count"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTradingResult(tc.productID, tc.prodName, "basis", tc.volume, tc.total, tc.count, day, day)
			if err == nil {
				t.Fatalf("expected error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tc.wantField {
				t.Fatalf("field: want %q got %q", tc.wantField, verr.Field)
			}
		})
	}
}

func TestNewTradingResult_MinLengthBoundary(t *testing.T) {
	day := time.Now()
	// Exactly 8 characters is the shortest code the derivations accept.
	r, err := NewTradingResult("A100ANKF", "product", "basis", 0, 0, 1, day, day)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.OilID != "A100" || r.DeliveryBasisID != "ANK" || r.DeliveryTypeID != "F" {
		t.Fatalf("derivations: %+v", r)
	}
}
