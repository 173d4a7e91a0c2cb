// Package source selects where order-line data comes from: a live
// warehouse or a synthetic in-memory set.
package source

import (
	"context"
	"errors"
	"time"

	"product-map/pkg/model"
)

// ErrNoCompanyCodes indicates none of the supported entity names matched
// a company in the warehouse, so the run would be empty.
var ErrNoCompanyCodes = errors.New("no company codes resolved from supported entities")

// Filter scopes a fetch to a set of company codes and an order-entry-date
// lower bound. An empty company list means all companies.
type Filter struct {
	CompanyCodes []string
	Since        time.Time
}

// Matches reports whether a company code passes the filter.
func (f Filter) Matches(companyCode string) bool {
	if len(f.CompanyCodes) == 0 {
		return true
	}
	for _, c := range f.CompanyCodes {
		if c == companyCode {
			return true
		}
	}
	return false
}

// InRange reports whether an order-entry date passes the Since bound.
func (f Filter) InRange(t time.Time) bool {
	return f.Since.IsZero() || !t.Before(f.Since)
}

// Source yields order-line rows and the family observations the mapping
// is derived from.
type Source interface {
	Name() string
	OrderLines(ctx context.Context, f Filter) ([]model.OrderLine, error)
	Observations(ctx context.Context, f Filter) ([]model.FamilyObservation, error)
	Close() error
}

// Warehouse is a Source that can also resolve supported entity display
// names to the company codes stored in the mart.
type Warehouse interface {
	Source
	CompanyCodes(ctx context.Context, names []string) ([]string, error)
}
