// Package pipeline wires one mapping run end to end: fetch rows, derive
// the family map, annotate, export.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"product-map/internal/export"
	"product-map/internal/mapping"
	"product-map/internal/source"
)

// Options configures a run.
type Options struct {
	Filter source.Filter
	// ReferencePath optionally points at a JSON family map whose entries
	// override the derived ones.
	ReferencePath string
	Writer        *export.Writer
	Logger        zerolog.Logger
}

// Result summarizes a completed run.
type Result struct {
	RunID    uuid.UUID
	Source   string
	Lines    int
	Mapped   int
	Unmapped int
	Families int
	Duration time.Duration

	FamilyMapPath string
	LinesPath     string
}

// Run executes one mapping run against src. Live-source failures abort
// the run; unmapped SKUs do not.
func Run(ctx context.Context, src source.Source, opts Options) (*Result, error) {
	started := time.Now()
	result := &Result{
		RunID:  uuid.New(),
		Source: src.Name(),
	}
	logger := opts.Logger.With().Stringer("run_id", result.RunID).Str("source", src.Name()).Logger()

	observations, err := src.Observations(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch family observations: %w", err)
	}
	familyMap := mapping.BuildDominant(observations)
	logger.Debug().
		Int("observations", len(observations)).
		Int("entries", familyMap.Len()).
		Msg("derived family map")

	if opts.ReferencePath != "" {
		reference, err := mapping.LoadReference(opts.ReferencePath)
		if err != nil {
			return nil, err
		}
		familyMap.Merge(reference)
		logger.Debug().Int("entries", reference.Len()).Msg("applied reference overrides")
	}
	result.Families = familyMap.Len()

	lines, err := src.OrderLines(ctx, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order lines: %w", err)
	}
	result.Lines = len(lines)

	annotated := mapping.Annotate(lines, familyMap)
	for _, line := range annotated {
		if line.FamilyName == mapping.Unmapped {
			result.Unmapped++
		}
	}
	result.Mapped = result.Lines - result.Unmapped

	if result.FamilyMapPath, err = opts.Writer.WriteFamilyMap(familyMap.Entries()); err != nil {
		return nil, err
	}
	if result.LinesPath, err = opts.Writer.WriteAnnotatedLines(annotated); err != nil {
		return nil, err
	}
	result.Duration = time.Since(started)

	logger.Info().
		Int("lines", result.Lines).
		Int("mapped", result.Mapped).
		Int("unmapped", result.Unmapped).
		Int("families", result.Families).
		Dur("duration", result.Duration).
		Str("family_map", result.FamilyMapPath).
		Str("annotated_lines", result.LinesPath).
		Msg("run complete")
	return result, nil
}
