// Package postgres provides the Postgres-backed warehouse source, for
// deployments where the sales tables are replicated into Postgres
// instead of ClickHouse.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"product-map/internal/entities"
	"product-map/internal/source"
	"product-map/pkg/model"
	"product-map/pkg/platform"
)

// Config holds the DSN and the table names the queries are built against.
type Config struct {
	DSN string

	OrderLinesTable string
	OrdersTable     string
	ItemsTable      string
	MartTable       string
}

// DefaultConfig returns development defaults, overridable via env.
func DefaultConfig() *Config {
	return &Config{
		DSN:             platform.GetEnv("POSTGRES_DSN", "postgres://localhost:5432/sales?sslmode=disable"),
		OrderLinesTable: platform.GetEnv("TBL_SALES_LINES", "sales_order_lines"),
		OrdersTable:     platform.GetEnv("TBL_SALES_ORDER", "sales_orders"),
		ItemsTable:      platform.GetEnv("TBL_SALES_ITEM", "sales_items"),
		MartTable:       platform.GetEnv("TBL_MART", "sales_mart"),
	}
}

// Store implements source.Warehouse over Postgres.
type Store struct {
	db  *sql.DB
	cfg *Config
}

var _ source.Warehouse = (*Store)(nil)

// NewStore opens the connection and verifies it with a ping.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("Postgres ping failed: %w", err)
	}
	return &Store{db: db, cfg: cfg}, nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Close() error {
	return s.db.Close()
}

// CompanyCodes resolves supported entity display names to company codes,
// matching on a name normalized in SQL the same way entities.Normalize
// does in Go.
func (s *Store) CompanyCodes(ctx context.Context, names []string) ([]string, error) {
	norms := make([]string, 0, len(names))
	for norm := range entities.NormalizedSet(names) {
		norms = append(norms, norm)
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT company_code::text
		FROM %s
		WHERE regexp_replace(lower(btrim(company_name)), '[^a-z0-9]', '', 'g') = ANY($1)
		ORDER BY company_code
	`, s.cfg.MartTable)

	rows, err := s.db.QueryContext(ctx, query, pq.Array(norms))
	if err != nil {
		return nil, fmt.Errorf("failed to query company names: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan company code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("company name scan aborted: %w", err)
	}
	if len(codes) == 0 {
		return nil, source.ErrNoCompanyCodes
	}
	return codes, nil
}

// OrderLines fetches one row per sales order line.
func (s *Store) OrderLines(ctx context.Context, f source.Filter) ([]model.OrderLine, error) {
	query := fmt.Sprintf(`
		SELECT
			sol.company_code,
			sol.order_number,
			sol.line_number,
			si.sales_item_id,
			sol.quantity,
			sol.unit_price,
			so.order_entry_date
		FROM %s sol
		JOIN %s so
			ON so.company_code = sol.company_code
			AND so.sales_order_number = sol.order_number
		JOIN %s si
			ON si.object_id = sol.sales_item
			AND si.company_code = sol.company_code
		WHERE sol.company_code = ANY($1)
			AND sol.order_number <> ''
			AND so.order_entry_date >= $2
		ORDER BY sol.company_code, sol.order_number, sol.line_number
	`, s.cfg.OrderLinesTable, s.cfg.OrdersTable, s.cfg.ItemsTable)

	rows, err := s.db.QueryContext(ctx, query, pq.Array(f.CompanyCodes), f.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		if err := rows.Scan(
			&line.CompanyCode, &line.OrderID, &line.LineItem,
			&line.ProductSKU, &line.Quantity, &line.Price, &line.OrderDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order line scan aborted: %w", err)
	}
	return lines, nil
}

// Observations joins order-line keys against the mart for family labels.
func (s *Store) Observations(ctx context.Context, f source.Filter) ([]model.FamilyObservation, error) {
	query := fmt.Sprintf(`
		WITH line_keys AS (
			SELECT DISTINCT
				sol.company_code,
				sol.order_number,
				sol.line_number,
				si.sales_item_id
			FROM %s sol
			JOIN %s so
				ON so.company_code = sol.company_code
				AND so.sales_order_number = sol.order_number
			JOIN %s si
				ON si.object_id = sol.sales_item
				AND si.company_code = sol.company_code
			WHERE sol.company_code = ANY($1)
				AND sol.order_number <> ''
				AND so.order_entry_date >= $2
		)
		SELECT
			lk.company_code,
			lk.order_number,
			lk.line_number,
			lk.sales_item_id,
			m.product_family
		FROM line_keys lk
		JOIN %s m
			ON m.company_code::text = lk.company_code
			AND m.order_number::text = lk.order_number
			AND m.order_line = lk.line_number
		WHERE m.product_family IS NOT NULL AND m.product_family <> ''
		ORDER BY lk.company_code, lk.order_number, lk.line_number
	`, s.cfg.OrderLinesTable, s.cfg.OrdersTable, s.cfg.ItemsTable, s.cfg.MartTable)

	rows, err := s.db.QueryContext(ctx, query, pq.Array(f.CompanyCodes), f.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to query family observations: %w", err)
	}
	defer rows.Close()

	var observations []model.FamilyObservation
	for rows.Next() {
		var obs model.FamilyObservation
		if err := rows.Scan(
			&obs.CompanyCode, &obs.OrderID, &obs.LineItem,
			&obs.ProductSKU, &obs.FamilyName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("observation scan aborted: %w", err)
	}
	return observations, nil
}
