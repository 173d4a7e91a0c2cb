// Package clickhouse provides the ClickHouse-backed warehouse source.
// Reads are scoped to company codes and an order-entry-date lower bound;
// nothing here writes to the warehouse.
package clickhouse

import (
	"context"
	"fmt"
	"sort"

	"github.com/ClickHouse/clickhouse-go/v2"

	"product-map/internal/entities"
	"product-map/internal/source"
	"product-map/pkg/model"
	"product-map/pkg/platform"
)

// Config holds ClickHouse connection configuration plus the table names
// the queries are built against.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool

	// Source-side sales tables
	OrderLinesTable string
	OrdersTable     string
	ItemsTable      string
	// Mart table carrying company names and family labels
	MartTable string
}

// DefaultConfig returns development defaults, overridable via env.
func DefaultConfig() *Config {
	return &Config{
		Host:            platform.GetEnv("CLICKHOUSE_HOST", "localhost"),
		Port:            platform.GetEnvInt("CLICKHOUSE_PORT", 9000),
		Database:        platform.GetEnv("CLICKHOUSE_DATABASE", "sales"),
		Username:        platform.GetEnv("CLICKHOUSE_USER", "default"),
		Password:        platform.GetEnv("CLICKHOUSE_PASSWORD", ""),
		Debug:           platform.GetEnvBool("CLICKHOUSE_DEBUG", false),
		OrderLinesTable: platform.GetEnv("TBL_SALES_LINES", "sales_order_lines"),
		OrdersTable:     platform.GetEnv("TBL_SALES_ORDER", "sales_orders"),
		ItemsTable:      platform.GetEnv("TBL_SALES_ITEM", "sales_items"),
		MartTable:       platform.GetEnv("TBL_MART", "sales_mart"),
	}
}

// Store implements source.Warehouse over ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

var _ source.Warehouse = (*Store)(nil)

// NewStore opens a native-protocol connection and verifies it with a
// ping, so auth and connectivity problems surface before any query runs.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ClickHouse ping failed: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

func (s *Store) Name() string { return "clickhouse" }

func (s *Store) Close() error {
	return s.conn.Close()
}

// CompanyCodes resolves supported entity display names to the company
// codes stored in the mart. Both sides are matched on a normalized name
// (lowercased, non-alphanumerics stripped).
func (s *Store) CompanyCodes(ctx context.Context, names []string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT
			toString(company_code) AS company_code,
			replaceRegexpAll(lowerUTF8(trimBoth(company_name)), '[^a-z0-9]', '') AS name_norm
		FROM %s
	`, s.cfg.MartTable)

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query company names: %w", err)
	}
	defer rows.Close()

	supported := entities.NormalizedSet(names)
	seen := make(map[string]struct{})
	var codes []string
	for rows.Next() {
		var code, nameNorm string
		if err := rows.Scan(&code, &nameNorm); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		if _, ok := supported[nameNorm]; !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("company name scan aborted: %w", err)
	}
	if len(codes) == 0 {
		return nil, source.ErrNoCompanyCodes
	}
	sort.Strings(codes)
	return codes, nil
}

// OrderLines fetches one row per sales order line, joined to the order
// header for the entry date and to the item table for the SKU.
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
		FROM %s AS sol
		JOIN %s AS so
			ON so.company_code = sol.company_code
			AND so.sales_order_number = sol.order_number
		JOIN %s AS si
			ON si.object_id = sol.sales_item
			AND si.company_code = sol.company_code
		WHERE sol.company_code IN (?)
			AND sol.order_number != ''
			AND so.order_entry_date >= ?
		ORDER BY sol.company_code, sol.order_number, sol.line_number
	`, s.cfg.OrderLinesTable, s.cfg.OrdersTable, s.cfg.ItemsTable)

	rows, err := s.conn.Query(ctx, query, f.CompanyCodes, f.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var line model.OrderLine
		var lineNumber int32
		var quantity int32
		if err := rows.Scan(
			&line.CompanyCode, &line.OrderID, &lineNumber,
			&line.ProductSKU, &quantity, &line.Price, &line.OrderDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		line.LineItem = int(lineNumber)
		line.Quantity = int(quantity)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order line scan aborted: %w", err)
	}
	return lines, nil
}

// Observations joins order-line keys against the mart and yields the
// family label the mart carries for each line. Lines without a label are
// dropped here; the dominant pick happens in the mapping layer.
func (s *Store) Observations(ctx context.Context, f source.Filter) ([]model.FamilyObservation, error) {
	query := fmt.Sprintf(`
		WITH line_keys AS (
			SELECT DISTINCT
				sol.company_code AS company_code,
				sol.order_number AS order_number,
				sol.line_number  AS line_number,
				si.sales_item_id AS sales_item_id
			FROM %s AS sol
			JOIN %s AS so
				ON so.company_code = sol.company_code
				AND so.sales_order_number = sol.order_number
			JOIN %s AS si
				ON si.object_id = sol.sales_item
				AND si.company_code = sol.company_code
			WHERE sol.company_code IN (?)
				AND sol.order_number != ''
				AND so.order_entry_date >= ?
		)
		SELECT
			lk.company_code,
			lk.order_number,
			lk.line_number,
			lk.sales_item_id,
			m.product_family AS family_name
		FROM line_keys AS lk
		JOIN %s AS m
			ON toString(m.company_code) = lk.company_code
			AND toString(m.order_number) = lk.order_number
			AND toInt32OrZero(toString(m.order_line)) = lk.line_number
		WHERE m.product_family != ''
		ORDER BY lk.company_code, lk.order_number, lk.line_number
	`, s.cfg.OrderLinesTable, s.cfg.OrdersTable, s.cfg.ItemsTable, s.cfg.MartTable)

	rows, err := s.conn.Query(ctx, query, f.CompanyCodes, f.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to query family observations: %w", err)
	}
	defer rows.Close()

	var observations []model.FamilyObservation
	for rows.Next() {
		var obs model.FamilyObservation
		var lineNumber int32
		if err := rows.Scan(
			&obs.CompanyCode, &obs.OrderID, &lineNumber,
			&obs.ProductSKU, &obs.FamilyName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.LineItem = int(lineNumber)
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("observation scan aborted: %w", err)
	}
	return observations, nil
}
