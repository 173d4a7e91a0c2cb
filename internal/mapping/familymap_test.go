package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-map/pkg/model"
)

func obs(company, sku, family string) model.FamilyObservation {
	return model.FamilyObservation{
		CompanyCode: company,
		ProductSKU:  sku,
		FamilyName:  family,
	}
}

func TestBuildDominantPicksMostFrequentFamily(t *testing.T) {
	fm := BuildDominant([]model.FamilyObservation{
		obs("C01", "0040-R01", "040 - Roller Blinds"),
		obs("C01", "0040-R01", "040 - Roller Blinds"),
		obs("C01", "0040-R01", "010 - Venetian Blinds"),
	})

	family, ok := fm.Lookup("C01", "0040-R01")
	require.True(t, ok)
	assert.Equal(t, "040 - Roller Blinds", family)
}

func TestBuildDominantTieBreaksLexicographically(t *testing.T) {
	fm := BuildDominant([]model.FamilyObservation{
		obs("C01", "X1", "B Family"),
		obs("C01", "X1", "A Family"),
	})

	family, ok := fm.Lookup("C01", "X1")
	require.True(t, ok)
	assert.Equal(t, "A Family", family)
}

func TestBuildDominantScopesPerCompany(t *testing.T) {
	fm := BuildDominant([]model.FamilyObservation{
		obs("C01", "X1", "Blinds"),
		obs("C02", "X1", "Screens"),
	})

	f1, ok := fm.Lookup("C01", "X1")
	require.True(t, ok)
	f2, ok := fm.Lookup("C02", "X1")
	require.True(t, ok)
	assert.Equal(t, "Blinds", f1)
	assert.Equal(t, "Screens", f2)

	_, ok = fm.Lookup("C03", "X1")
	assert.False(t, ok, "derived entries must not leak across companies")
}

func TestBuildDominantSkipsEmptyLabels(t *testing.T) {
	fm := BuildDominant([]model.FamilyObservation{
		obs("C01", "X1", ""),
	})
	assert.Zero(t, fm.Len())
}

func TestEntriesSortedByCompanyThenSKU(t *testing.T) {
	fm := New()
	fm.Put("C02", "B2", "Gadgets")
	fm.Put("C01", "B2", "Gadgets")
	fm.Put("C01", "A1", "Widgets")

	entries := fm.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, model.FamilyEntry{CompanyCode: "C01", ProductSKU: "A1", FamilyName: "Widgets"}, entries[0])
	assert.Equal(t, model.FamilyEntry{CompanyCode: "C01", ProductSKU: "B2", FamilyName: "Gadgets"}, entries[1])
	assert.Equal(t, model.FamilyEntry{CompanyCode: "C02", ProductSKU: "B2", FamilyName: "Gadgets"}, entries[2])
}

func TestLoadReferenceAndMergeOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.json")
	payload := `[
		{"product_sku": "A1", "family_name": "Widgets Override"},
		{"company_code": "C02", "product_sku": "B2", "family_name": "Gadgets"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	reference, err := LoadReference(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reference.Len())

	derived := New()
	derived.Put("", "A1", "Widgets")
	derived.Merge(reference)

	family, ok := derived.Lookup("C01", "A1")
	require.True(t, ok)
	assert.Equal(t, "Widgets Override", family)
}

func TestLoadReferenceRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"product_sku": "A1"}]`), 0o644))

	_, err := LoadReference(path)
	assert.Error(t, err)
}

func TestLoadReferenceMissingFile(t *testing.T) {
	_, err := LoadReference(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
