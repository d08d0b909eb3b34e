package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/singerliu226/AI-resipe/internal/types"
)

// ErrEmptyIngredientName is returned when an upsert has no name to key on.
var ErrEmptyIngredientName = errors.New("ingredient name is empty")

// UpsertIngredient inserts or updates the ingredient keyed by its trimmed name.
// Absent nutrients are stored as NULL.
func (db *DB) UpsertIngredient(ctx context.Context, rec types.NutritionRecord) error {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return ErrEmptyIngredientName
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO ingredients (name, energy_kcal, protein_g, fat_g, carb_g, fiber_g, calcium_mg, sodium_mg)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (name) DO UPDATE SET
			energy_kcal = EXCLUDED.energy_kcal,
			protein_g = EXCLUDED.protein_g,
			fat_g = EXCLUDED.fat_g,
			carb_g = EXCLUDED.carb_g,
			fiber_g = EXCLUDED.fiber_g,
			calcium_mg = EXCLUDED.calcium_mg,
			sodium_mg = EXCLUDED.sodium_mg,
			updated_at = NOW()`,
		name, rec.EnergyKcal, rec.ProteinG, rec.FatG, rec.CarbG, rec.FiberG, rec.CalciumMg, rec.SodiumMg,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ingredient %s: %w", name, err)
	}
	return nil
}

// GetIngredient retrieves an ingredient by name. It returns nil, nil when absent.
func (db *DB) GetIngredient(ctx context.Context, name string) (*Ingredient, error) {
	var ing Ingredient
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, energy_kcal, protein_g, fat_g, carb_g, fiber_g, calcium_mg, sodium_mg, updated_at
		 FROM ingredients WHERE name = $1`,
		strings.TrimSpace(name),
	).Scan(&ing.ID, &ing.Name, &ing.EnergyKcal, &ing.ProteinG, &ing.FatG, &ing.CarbG,
		&ing.FiberG, &ing.CalciumMg, &ing.SodiumMg, &ing.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient %s: %w", name, err)
	}
	return &ing, nil
}

// IngredientReport summarizes what the ingredients table holds.
type IngredientReport struct {
	Total      int
	WithEnergy int
	Sample     []Ingredient
}

// ReportIngredients counts the ingredients, how many carry an energy value,
// and returns the first sample rows by id.
func (db *DB) ReportIngredients(ctx context.Context, sample int) (*IngredientReport, error) {
	if sample < 0 {
		sample = 0
	}

	report := &IngredientReport{}
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(energy_kcal) FROM ingredients`,
	).Scan(&report.Total, &report.WithEnergy)
	if err != nil {
		return nil, fmt.Errorf("failed to count ingredients: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, name, energy_kcal, protein_g, fat_g, carb_g, fiber_g, calcium_mg, sodium_mg, updated_at
		 FROM ingredients ORDER BY id LIMIT $1`,
		sample,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sample ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.EnergyKcal, &ing.ProteinG, &ing.FatG, &ing.CarbG,
			&ing.FiberG, &ing.CalciumMg, &ing.SodiumMg, &ing.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		report.Sample = append(report.Sample, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ingredients: %w", err)
	}
	return report, nil
}
