// Package mapping derives the product-family map and applies it to
// order lines.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"product-map/pkg/model"
)

// Unmapped is the family assigned to SKUs with no map entry.
const Unmapped = "unmapped"

type mapKey struct {
	company string
	sku     string
}

// FamilyMap is an exact-match lookup from product SKU to family name.
// Entries are scoped to a company code; an entry with an empty company
// code matches any company.
type FamilyMap struct {
	entries map[mapKey]string
}

func New() *FamilyMap {
	return &FamilyMap{entries: make(map[mapKey]string)}
}

// Put registers a family for a SKU. company may be empty for a
// company-agnostic entry.
func (m *FamilyMap) Put(company, sku, family string) {
	m.entries[mapKey{company: company, sku: sku}] = family
}

// Lookup resolves a SKU for a company. Company-scoped entries take
// precedence over company-agnostic ones.
func (m *FamilyMap) Lookup(company, sku string) (string, bool) {
	if family, ok := m.entries[mapKey{company: company, sku: sku}]; ok {
		return family, true
	}
	family, ok := m.entries[mapKey{sku: sku}]
	return family, ok
}

func (m *FamilyMap) Len() int {
	return len(m.entries)
}

// Merge copies all entries from other into m, overriding on conflict.
func (m *FamilyMap) Merge(other *FamilyMap) {
	for k, v := range other.entries {
		m.entries[k] = v
	}
}

// Entries returns the map rows sorted by company code then SKU.
func (m *FamilyMap) Entries() []model.FamilyEntry {
	out := make([]model.FamilyEntry, 0, len(m.entries))
	for k, family := range m.entries {
		out = append(out, model.FamilyEntry{
			CompanyCode: k.company,
			ProductSKU:  k.sku,
			FamilyName:  family,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompanyCode != out[j].CompanyCode {
			return out[i].CompanyCode < out[j].CompanyCode
		}
		return out[i].ProductSKU < out[j].ProductSKU
	})
	return out
}

// BuildDominant resolves family observations into a map by picking the
// most frequent family per (company, SKU). Ties break on the
// lexicographically smaller family name so repeated runs agree.
func BuildDominant(observations []model.FamilyObservation) *FamilyMap {
	type count struct {
		family string
		n      int
	}
	counts := make(map[mapKey]map[string]int)
	for _, obs := range observations {
		if obs.FamilyName == "" {
			continue
		}
		k := mapKey{company: obs.CompanyCode, sku: obs.ProductSKU}
		if counts[k] == nil {
			counts[k] = make(map[string]int)
		}
		counts[k][obs.FamilyName]++
	}

	m := New()
	for k, families := range counts {
		best := count{}
		for family, n := range families {
			if n > best.n || (n == best.n && family < best.family) {
				best = count{family: family, n: n}
			}
		}
		m.entries[k] = best.family
	}
	return m
}

// LoadReference reads a JSON array of family entries from path. Entries
// may omit company_code to apply to all companies; such entries only
// cover SKUs that have no company-scoped entry.
func LoadReference(path string) (*FamilyMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference map: %w", err)
	}
	var entries []model.FamilyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse reference map %s: %w", path, err)
	}
	m := New()
	for _, e := range entries {
		if e.ProductSKU == "" || e.FamilyName == "" {
			return nil, fmt.Errorf("reference map %s: entry missing product_sku or family_name", path)
		}
		m.Put(e.CompanyCode, e.ProductSKU, e.FamilyName)
	}
	return m, nil
}
