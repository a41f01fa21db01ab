package models

import (
	"fmt"
	"time"
)

// TradingResult represents one row of one day's SPIMEX bulletin for one
// instrument, matching the spimex_trading_results table.
//
// Derived fields are sliced out of ExchangeProductID:
//   - OilID: first 4 characters.
//   - DeliveryBasisID: characters 5-7.
//   - DeliveryTypeID: last character.
type TradingResult struct {
	ID                  int64     `json:"id"`
	ExchangeProductID   string    `json:"exchange_product_id"`
	ExchangeProductName string    `json:"exchange_product_name"`
	OilID               string    `json:"oil_id"`
	DeliveryBasisID     string    `json:"delivery_basis_id"`
	DeliveryBasisName   string    `json:"delivery_basis_name"`
	DeliveryTypeID      string    `json:"delivery_type_id"`
	Volume              float64   `json:"volume"`
	Total               float64   `json:"total"`
	Count               int64     `json:"count"`
	Date                time.Time `json:"date"`
	CreatedOn           time.Time `json:"created_on"`
	UpdatedOn           time.Time `json:"updated_on"`
}

// BulletinReference is an ephemeral (url, trade date) pair discovered during
// listing traversal and consumed once by the download step. Never persisted.
type BulletinReference struct {
	URL       string
	TradeDate time.Time
}

// TradingFilter carries the optional query filters shared by the read
// endpoints. Empty fields are not applied.
type TradingFilter struct {
	OilID           string
	DeliveryTypeID  string
	DeliveryBasisID string
}

// ValidationError describes why a raw bulletin row could not be mapped onto
// TradingResult. It is a plain value; the parser treats it as "corrupt file".
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// minProductIDLen is the shortest exchange product code from which the three
// derived identifiers can still be sliced positionally.
const minProductIDLen = 8

// NewTradingResult builds a validated TradingResult from the raw cell values
// of one bulletin row.
//
// Behavior:
//   - Requires a non-empty product code of at least 8 characters so that
//     OilID, DeliveryBasisID and DeliveryTypeID can be derived.
//   - Requires a non-empty product name.
//   - Rejects negative volume/total and non-positive count.
//   - Stamps Date with the bulletin's trade date and CreatedOn/UpdatedOn with
//     the given ingestion instant.
//
// Returns:
//   - TradingResult: the validated, fully derived row.
//   - error: a *ValidationError describing the first failed field.
func NewTradingResult(
	productID, productName, basisName string,
	volume, total float64,
	count int64,
	tradeDate, ingestedAt time.Time,
) (TradingResult, error) {
	var zero TradingResult

	if productID == "" {
		return zero, &ValidationError{Field: "exchange_product_id", Reason: "empty"}
	}
	if len(productID) < minProductIDLen {
		return zero, &ValidationError{
			Field:  "exchange_product_id",
			Reason: fmt.Sprintf("too short: %q (need at least %d characters)", productID, minProductIDLen),
		}
	}
	if productName == "" {
		return zero, &ValidationError{Field: "exchange_product_name", Reason: "empty"}
	}
	if volume < 0 {
		return zero, &ValidationError{Field: "volume", Reason: fmt.Sprintf("negative: %v", volume)}
	}
	if total < 0 {
		return zero, &ValidationError{Field: "total", Reason: fmt.Sprintf("negative: %v", total)}
	}
	if count <= 0 {
		return zero, &ValidationError{Field: "count", Reason: fmt.Sprintf("non-positive: %d", count)}
	}

	return TradingResult{
		ExchangeProductID:   productID,
		ExchangeProductName: productName,
		OilID:               productID[:4],
		DeliveryBasisID:     productID[4:7],
		DeliveryBasisName:   basisName,
		DeliveryTypeID:      productID[len(productID)-1:],
		Volume:              volume,
		Total:               total,
		Count:               count,
		Date:                tradeDate,
		CreatedOn:           ingestedAt,
		UpdatedOn:           ingestedAt,
	}, nil
}
