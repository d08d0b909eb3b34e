package types

// NutritionRecord is the unified nutrition schema every nutrition source maps into.
// Nutrient fields are optional: nil means the source did not report a value.
type NutritionRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	EnergyKcal *float64 `json:"energy_kcal"`
	ProteinG   *float64 `json:"protein_g"`
	FatG       *float64 `json:"fat_g"`
	CarbG      *float64 `json:"carb_g"`
	FiberG     *float64 `json:"fiber_g"`
	CalciumMg  *float64 `json:"calcium_mg"`
	SodiumMg   *float64 `json:"sodium_mg"`
}

var nutritionColumns = []string{
	"id", "name", "energy_kcal", "protein_g", "fat_g", "carb_g", "fiber_g", "calcium_mg", "sodium_mg",
}

// Columns returns the CSV header for nutrition records.
func (r NutritionRecord) Columns() []string {
	return append([]string(nil), nutritionColumns...)
}

// Values returns the cells in Columns order.
func (r NutritionRecord) Values() []string {
	return []string{
		r.ID,
		r.Name,
		formatFloat(r.EnergyKcal),
		formatFloat(r.ProteinG),
		formatFloat(r.FatG),
		formatFloat(r.CarbG),
		formatFloat(r.FiberG),
		formatFloat(r.CalciumMg),
		formatFloat(r.SodiumMg),
	}
}
