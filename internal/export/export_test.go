package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"product-map/pkg/model"
)

func fixedWriter(dir string, format Format) *Writer {
	w := NewWriter(dir, format)
	w.now = func() time.Time {
		return time.Date(2025, time.June, 2, 14, 30, 5, 0, time.UTC)
	}
	return w
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}

func TestWriteFamilyMapCSV(t *testing.T) {
	dir := t.TempDir()
	w := fixedWriter(dir, FormatCSV)

	path, err := w.WriteFamilyMap([]model.FamilyEntry{
		{CompanyCode: "C01", ProductSKU: "0040-R01", FamilyName: "040 - Roller Blinds"},
		{CompanyCode: "C02", ProductSKU: "0010-R01", FamilyName: "010 - Venetian Blinds"},
	})
	if err != nil {
		t.Fatalf("WriteFamilyMap: %v", err)
	}
	if filepath.Base(path) != "product_map_20250602_143005.csv" {
		t.Fatalf("unexpected file name: %s", path)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "company_code" || records[0][2] != "family_name" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][2] != "040 - Roller Blinds" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
}

func TestWriteAnnotatedLinesCSV(t *testing.T) {
	dir := t.TempDir()
	w := fixedWriter(dir, FormatCSV)

	path, err := w.WriteAnnotatedLines([]model.AnnotatedOrderLine{
		{
			OrderLine: model.OrderLine{
				CompanyCode: "C01",
				OrderID:     "25-000001",
				LineItem:    2,
				ProductSKU:  "0040-R01",
				Quantity:    3,
				Price:       decimal.New(1250, -2),
				OrderDate:   time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
			},
			FamilyName: "040 - Roller Blinds",
		},
	})
	if err != nil {
		t.Fatalf("WriteAnnotatedLines: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	want := []string{"C01", "25-000001", "2", "0040-R01", "3", "12.50", "2025-03-14", "040 - Roller Blinds"}
	for i, cell := range want {
		if records[1][i] != cell {
			t.Fatalf("cell %d = %q, want %q (row %v)", i, records[1][i], cell, records[1])
		}
	}
}

func TestWriteFamilyMapJSON(t *testing.T) {
	dir := t.TempDir()
	w := fixedWriter(dir, FormatJSON)

	entries := []model.FamilyEntry{
		{CompanyCode: "C01", ProductSKU: "A1", FamilyName: "Widgets"},
	}
	path, err := w.WriteFamilyMap(entries)
	if err != nil {
		t.Fatalf("WriteFamilyMap: %v", err)
	}
	if filepath.Ext(path) != ".json" {
		t.Fatalf("expected .json file, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var got []model.FamilyEntry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0] != entries[0] {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestWriterCreatesExportDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "nested")
	w := fixedWriter(dir, FormatCSV)

	if _, err := w.WriteFamilyMap(nil); err != nil {
		t.Fatalf("WriteFamilyMap: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("export dir not created: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("csv"); err != nil {
		t.Fatalf("csv should parse: %v", err)
	}
	if _, err := ParseFormat("json"); err != nil {
		t.Fatalf("json should parse: %v", err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
