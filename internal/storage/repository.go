package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Corner324/spimexpulse/internal/domain/models"
	"github.com/Corner324/spimexpulse/internal/logger"
)

// insertBatchSize is the number of rows per conflict-ignoring insert.
const insertBatchSize = 1000

// TradingRepository defines the contract for DB operations.
type TradingRepository interface {
	SaveTradingResults(ctx context.Context, results []models.TradingResult) error
	LastTradingDates(ctx context.Context, limit int) ([]time.Time, error)
	GetDynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error)
	GetTradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error)
}

type tradingRepository struct {
	db *sql.DB
}

func NewTradingRepository(db *sql.DB) TradingRepository {
	return &tradingRepository{db: db}
}

// resultColumns is the insert/select column list, in order.
var resultColumns = []string{
	"exchange_product_id",
	"exchange_product_name",
	"oil_id",
	"delivery_basis_id",
	"delivery_basis_name",
	"delivery_type_id",
	"volume",
	"total",
	`"count"`,
	`"date"`,
	"created_on",
	"updated_on",
}

// SaveTradingResults persists all rows inside one transaction.
//
// The rows are partitioned into batches of insertBatchSize and every batch is
// issued concurrently over the same transaction (database/sql serializes
// statements on the Tx connection). Each batch is a single multi-row INSERT
// with ON CONFLICT DO NOTHING, so re-ingesting overlapping date ranges is
// idempotent. Any batch failure rolls the whole transaction back; the commit
// happens once, after all batches acknowledge.
func (r *tradingRepository) SaveTradingResults(ctx context.Context, results []models.TradingResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for begin := 0; begin < len(results); begin += insertBatchSize {
		stop := begin + insertBatchSize
		if stop > len(results) {
			stop = len(results)
		}
		batch := results[begin:stop]
		g.Go(func() error {
			return insertBatch(gctx, tx, batch)
		})
	}

	if err := g.Wait(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert batches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.L().Info().
		Int("rows", len(results)).
		Int("batches", (len(results)+insertBatchSize-1)/insertBatchSize).
		Msg("trading results saved")
	return nil
}

// insertBatch issues one multi-row conflict-ignoring insert.
func insertBatch(ctx context.Context, tx *sql.Tx, batch []models.TradingResult) error {
	placeholders := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*len(resultColumns))

	for i, rec := range batch {
		base := i * len(resultColumns)
		nums := make([]string, len(resultColumns))
		for j := range resultColumns {
			nums[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(nums, ", ")+")")

		args = append(args,
			rec.ExchangeProductID,
			rec.ExchangeProductName,
			rec.OilID,
			rec.DeliveryBasisID,
			rec.DeliveryBasisName,
			rec.DeliveryTypeID,
			rec.Volume,
			rec.Total,
			rec.Count,
			rec.Date,
			rec.CreatedOn,
			rec.UpdatedOn,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO spimex_trading_results (%s) VALUES %s ON CONFLICT DO NOTHING",
		strings.Join(resultColumns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch of %d rows: %w", len(batch), err)
	}
	return nil
}

// LastTradingDates returns the most recent distinct trade dates, newest first.
func (r *tradingRepository) LastTradingDates(ctx context.Context, limit int) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT "date" FROM spimex_trading_results ORDER BY "date" DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// GetDynamics returns trading results within [start, end], optionally
// filtered, ordered by trade date ascending.
func (r *tradingRepository) GetDynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error) {
	conditions := `"date" >= $1 AND "date" <= $2`
	args := []interface{}{start, end}
	conditions, args = applyFilter(conditions, args, filter)

	query := fmt.Sprintf(
		`SELECT id, %s FROM spimex_trading_results WHERE %s ORDER BY "date"`,
		strings.Join(resultColumns, ", "), conditions,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTradingResults(rows)
}

// GetTradingResults returns the latest trading results, optionally filtered,
// ordered by trade date descending and limited.
func (r *tradingRepository) GetTradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error) {
	conditions := "TRUE"
	args := []interface{}{}
	conditions, args = applyFilter(conditions, args, filter)

	args = append(args, limit)
	query := fmt.Sprintf(
		`SELECT id, %s FROM spimex_trading_results WHERE %s ORDER BY "date" DESC LIMIT $%d`,
		strings.Join(resultColumns, ", "), conditions, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanTradingResults(rows)
}

// applyFilter appends positional conditions for each non-empty filter field.
func applyFilter(conditions string, args []interface{}, filter models.TradingFilter) (string, []interface{}) {
	if filter.OilID != "" {
		args = append(args, filter.OilID)
		conditions += fmt.Sprintf(" AND oil_id = $%d", len(args))
	}
	if filter.DeliveryTypeID != "" {
		args = append(args, filter.DeliveryTypeID)
		conditions += fmt.Sprintf(" AND delivery_type_id = $%d", len(args))
	}
	if filter.DeliveryBasisID != "" {
		args = append(args, filter.DeliveryBasisID)
		conditions += fmt.Sprintf(" AND delivery_basis_id = $%d", len(args))
	}
	return conditions, args
}

func scanTradingResults(rows *sql.Rows) ([]models.TradingResult, error) {
	var out []models.TradingResult
	for rows.Next() {
		var t models.TradingResult
		if err := rows.Scan(
			&t.ID,
			&t.ExchangeProductID,
			&t.ExchangeProductName,
			&t.OilID,
			&t.DeliveryBasisID,
			&t.DeliveryBasisName,
			&t.DeliveryTypeID,
			&t.Volume,
			&t.Total,
			&t.Count,
			&t.Date,
			&t.CreatedOn,
			&t.UpdatedOn,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
