package storage

import (
	"database/sql"
	"fmt"
)

// Schema bootstrap statements. The unique index is the natural key behind the
// ON CONFLICT DO NOTHING upserts: one row per instrument per trade date.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS spimex_trading_results (
		id                    BIGSERIAL PRIMARY KEY,
		exchange_product_id   TEXT             NOT NULL,
		exchange_product_name TEXT             NOT NULL,
		oil_id                TEXT             NOT NULL,
		delivery_basis_id     TEXT             NOT NULL,
		delivery_basis_name   TEXT             NOT NULL,
		delivery_type_id      TEXT             NOT NULL,
		volume                DOUBLE PRECISION NOT NULL,
		total                 DOUBLE PRECISION NOT NULL,
		"count"               BIGINT           NOT NULL,
		"date"                DATE             NOT NULL,
		created_on            TIMESTAMP        NOT NULL,
		updated_on            TIMESTAMP        NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_trading_results_product_date
		ON spimex_trading_results (exchange_product_id, "date")`,
	`CREATE INDEX IF NOT EXISTS ix_trading_results_date
		ON spimex_trading_results ("date")`,
}

// EnsureSchema creates the trading results table and its indexes if they do
// not exist. Runs over the synchronous connection at startup, before any
// ingestion or query traffic.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
