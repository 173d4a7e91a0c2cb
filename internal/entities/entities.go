// Package entities resolves the set of sales entities a run is scoped to.
// Entity display names live in a JSON file; a gitignored private file
// overrides the checked-in sample.
package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	PrivateFile = "entities.private.json"
	SampleFile  = "entities.sample.json"
)

// ErrNoEntities indicates the entities file was present but empty.
var ErrNoEntities = errors.New("no supported entities configured")

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// Normalize collapses an entity display name into a join key: lowercased,
// trimmed, non-alphanumerics stripped. Warehouse-side company names are
// normalized the same way before matching.
func Normalize(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}

// Load reads the supported entity names from dir, preferring the private
// file over the sample.
func Load(dir string) ([]string, error) {
	path := filepath.Join(dir, PrivateFile)
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(dir, SampleFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entities file: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse entities file %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, ErrNoEntities
	}
	return names, nil
}

// NormalizedSet returns the normalized keys of names for membership checks.
func NormalizedSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if key := Normalize(n); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}
