// Package ingestion loads crawled datasets into the relational store.
package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/singerliu226/AI-resipe/internal/normalize"
	"github.com/singerliu226/AI-resipe/internal/types"
)

// IngredientStore receives nutrition rows keyed by name. Implemented by db.DB.
type IngredientStore interface {
	UpsertIngredient(ctx context.Context, rec types.NutritionRecord) error
}

// ImportSummary counts what an import did.
type ImportSummary struct {
	Read     int
	Imported int
	Skipped  int
	Failed   int
}

// HeaderError is returned when the CSV lacks a required column.
type HeaderError struct {
	Column string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("nutrition CSV is missing required column %q", e.Column)
}

// ReadNutritionCSV parses a nutrition table written by the crawler. Columns
// are matched by header name, so their order does not matter; unknown
// columns are ignored. Empty lines are skipped.
func ReadNutritionCSV(r io.Reader) ([]types.NutritionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, &HeaderError{Column: "name"}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	num := func(row []string, col string) *float64 {
		return normalize.Text(cell(row, col))
	}

	var records []types.NutritionRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		records = append(records, types.NutritionRecord{
			ID:         cell(row, "id"),
			Name:       cell(row, "name"),
			EnergyKcal: num(row, "energy_kcal"),
			ProteinG:   num(row, "protein_g"),
			FatG:       num(row, "fat_g"),
			CarbG:      num(row, "carb_g"),
			FiberG:     num(row, "fiber_g"),
			CalciumMg:  num(row, "calcium_mg"),
			SodiumMg:   num(row, "sodium_mg"),
		})
	}
	return records, nil
}

// ImportFoods upserts every named row of the nutrition CSV at path into store.
// A row that fails to upsert is logged and counted; the import continues.
func ImportFoods(ctx context.Context, path string, store IngredientStore, logger *slog.Logger) (*ImportSummary, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ReadNutritionCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("importing ingredients", "file", path, "rows", len(records))

	summary := &ImportSummary{Read: len(records)}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if rec.Name == "" {
			summary.Skipped++
			logger.Warn("row without name skipped", "row", i+2)
			continue
		}
		if err := store.UpsertIngredient(ctx, rec); err != nil {
			summary.Failed++
			logger.Warn("failed to upsert ingredient", "name", rec.Name, "error", err)
			continue
		}
		summary.Imported++
	}

	logger.Info("ingredients imported",
		"imported", summary.Imported, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}
