// Package export writes run outputs as timestamped tabular files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"product-map/pkg/model"
)

// Format selects the output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format string from the CLI.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv or json)", s)
	}
}

// Writer writes output files into a directory, one timestamped file per
// artifact, creating the directory on first use.
type Writer struct {
	dir    string
	format Format
	now    func() time.Time
}

func NewWriter(dir string, format Format) *Writer {
	return &Writer{dir: dir, format: format, now: time.Now}
}

// WriteFamilyMap writes the resolved product-family map, one row per
// (company, SKU). Returns the path written.
func (w *Writer) WriteFamilyMap(entries []model.FamilyEntry) (string, error) {
	if w.format == FormatJSON {
		return w.writeJSON("product_map", entries)
	}
	header := []string{"company_code", "product_sku", "family_name"}
	return w.writeCSV("product_map", header, len(entries), func(i int) []string {
		e := entries[i]
		return []string{e.CompanyCode, e.ProductSKU, e.FamilyName}
	})
}

// WriteAnnotatedLines writes the annotated order lines in input order.
func (w *Writer) WriteAnnotatedLines(lines []model.AnnotatedOrderLine) (string, error) {
	if w.format == FormatJSON {
		return w.writeJSON("annotated_lines", lines)
	}
	header := []string{
		"company_code", "order_id", "line_item_id", "product_sku",
		"quantity", "price", "order_date", "family_name",
	}
	return w.writeCSV("annotated_lines", header, len(lines), func(i int) []string {
		l := lines[i]
		return []string{
			l.CompanyCode,
			l.OrderID,
			strconv.Itoa(l.LineItem),
			l.ProductSKU,
			strconv.Itoa(l.Quantity),
			l.Price.StringFixed(2),
			l.OrderDate.Format("2006-01-02"),
			l.FamilyName,
		}
	})
}

func (w *Writer) path(stem string, ext Format) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.%s", stem, w.now().Format("20060102_150405"), ext)
	return filepath.Join(w.dir, name), nil
}

func (w *Writer) writeCSV(stem string, header []string, n int, row func(int) []string) (string, error) {
	path, err := w.path(stem, FormatCSV)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) writeJSON(stem string, v interface{}) (string, error) {
	path, err := w.path(stem, FormatJSON)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", stem, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
