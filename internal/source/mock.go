package source

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"product-map/pkg/model"
)

// DefaultMockSeed keeps repeated mock runs byte-identical.
const DefaultMockSeed = 7

const mockLineCount = 3000

var mockCompanies = []string{"C01", "C02", "C03"}

var mockItems = []string{
	"0010-R01", "0015-R01", "0020-R01", "0030-R01", "0032-R01",
	"0040-R01", "0042-R01", "0088-R01", "1870140", "1870156",
	"3410-1036", "3440-1034", "3432-1015", "390010060",
}

var mockFamilyOfItem = map[string]string{
	"0010-R01":  "010 - Venetian Blinds",
	"0015-R01":  "015 - Wood Blinds",
	"0020-R01":  "020 - Vertical Blinds",
	"0030-R01":  "030 - Pleated Blinds",
	"0032-R01":  "032 - Duette Blinds",
	"0040-R01":  "040 - Roller Blinds",
	"0042-R01":  "042 - Roman Shades",
	"0088-R01":  "088 - Insect Screens",
	"1870140":   "040 - Roller Blinds",
	"1870156":   "098 - Undefined/Various",
	"3410-1036": "010 - Venetian Blinds",
	"3440-1034": "040 - Roller Blinds",
	"3432-1015": "032 - Duette Blinds",
	"390010060": "094 - Order Surcharges",
}

// noiseRate is the fraction of observations flipped to a different
// family, simulating the label ambiguity seen in the real mart.
const noiseRate = 0.08

// MockSource generates a fixed synthetic order book. The same seed
// produces the same rows on every invocation, so offline runs are
// reproducible. It cannot fail.
type MockSource struct {
	seed int64
}

func NewMockSource(seed int64) *MockSource {
	return &MockSource{seed: seed}
}

func (s *MockSource) Name() string { return "mock" }

func (s *MockSource) Close() error { return nil }

// CompanyCodes ignores the supplied names; the mock universe always has
// the same three companies.
func (s *MockSource) CompanyCodes(_ context.Context, _ []string) ([]string, error) {
	codes := make([]string, len(mockCompanies))
	copy(codes, mockCompanies)
	return codes, nil
}

func (s *MockSource) OrderLines(_ context.Context, f Filter) ([]model.OrderLine, error) {
	lines := s.generateLines()
	out := lines[:0:0]
	for _, line := range lines {
		if f.Matches(line.CompanyCode) && f.InRange(line.OrderDate) {
			out = append(out, line)
		}
	}
	return out, nil
}

// Observations derives one family sighting per generated line, flipping
// a small fraction to a wrong family. The noise stream is seeded
// independently of the line stream so both stay reproducible.
func (s *MockSource) Observations(_ context.Context, f Filter) ([]model.FamilyObservation, error) {
	lines := s.generateLines()
	rng := rand.New(rand.NewSource(s.seed + 1))

	families := distinctFamilies()
	out := make([]model.FamilyObservation, 0, len(lines))
	for _, line := range lines {
		family := mockFamilyOfItem[line.ProductSKU]
		if rng.Float64() < noiseRate {
			family = otherFamily(rng, families, family)
		}
		if !f.Matches(line.CompanyCode) || !f.InRange(line.OrderDate) {
			continue
		}
		out = append(out, model.FamilyObservation{
			CompanyCode: line.CompanyCode,
			OrderID:     line.OrderID,
			LineItem:    line.LineItem,
			ProductSKU:  line.ProductSKU,
			FamilyName:  family,
		})
	}
	return out, nil
}

func (s *MockSource) generateLines() []model.OrderLine {
	rng := rand.New(rand.NewSource(s.seed))
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	lines := make([]model.OrderLine, 0, mockLineCount)
	for i := 0; i < mockLineCount; i++ {
		company := mockCompanies[rng.Intn(len(mockCompanies))]
		item := mockItems[rng.Intn(len(mockItems))]
		lines = append(lines, model.OrderLine{
			CompanyCode: company,
			OrderID:     fmt.Sprintf("25-%06d", i),
			LineItem:    1 + rng.Intn(4),
			ProductSKU:  item,
			Quantity:    1 + rng.Intn(5),
			Price:       decimal.New(int64(995+rng.Intn(20000)), -2),
			OrderDate:   base.AddDate(0, 0, rng.Intn(180)),
		})
	}
	return lines
}

func distinctFamilies() []string {
	seen := make(map[string]struct{}, len(mockFamilyOfItem))
	for _, family := range mockFamilyOfItem {
		seen[family] = struct{}{}
	}
	families := make([]string, 0, len(seen))
	for family := range seen {
		families = append(families, family)
	}
	sort.Strings(families)
	return families
}

func otherFamily(rng *rand.Rand, families []string, not string) string {
	for {
		if f := families[rng.Intn(len(families))]; f != not {
			return f
		}
	}
}
