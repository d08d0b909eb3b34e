package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/singerliu226/AI-resipe/internal/fetch"
	"github.com/singerliu226/AI-resipe/internal/normalize"
	"github.com/singerliu226/AI-resipe/internal/schemas"
	"github.com/singerliu226/AI-resipe/internal/types"
)

// DefaultFoodwakeURL is the single-file foodwake table (about 1.6k foods).
const DefaultFoodwakeURL = "https://raw.githubusercontent.com/LuckyHookin/foodwake/main/food-table.json"

// Chinese nutrient keys of a foodwake item's info map.
const (
	infoEnergy  = "能量"
	infoProtein = "蛋白质"
	infoFat     = "脂肪"
	infoCarb    = "碳水化合物"
	infoFiber   = "粗纤维"
	infoCalcium = "钙"
	infoSodium  = "钠"
)

// Foodwake reads the foodwake table, whose nutrient values are Chinese
// unit-suffixed strings such as "12.3克".
type Foodwake struct {
	URL string

	getter fetch.Getter
	logger *slog.Logger
}

// NewFoodwake returns the adapter pointed at the default table.
func NewFoodwake(getter fetch.Getter, logger *slog.Logger) *Foodwake {
	return &Foodwake{URL: DefaultFoodwakeURL, getter: getter, logger: orDiscard(logger)}
}

// Name implements Source.
func (s *Foodwake) Name() string { return "foodwake" }

type foodwakeItem struct {
	Name string                     `json:"name"`
	Info map[string]normalize.Value `json:"info"`
}

// Crawl fetches the table. Ids are "fw-<index>" over the table's own order.
func (s *Foodwake) Crawl(ctx context.Context) (*types.Batch[types.NutritionRecord], error) {
	s.logger.Info("fetching foodwake table", "url", s.URL)
	var doc json.RawMessage
	if _, err := fetch.GetJSON(ctx, s.getter, s.URL, nil, &doc); err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "failed to fetch table", Cause: err}
	}
	if err := schemas.Validate(schemas.FoodwakeTable, doc); err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "unexpected table shape", Cause: err}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(doc, &items); err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "failed to decode table", Cause: err}
	}

	batch := &types.Batch[types.NutritionRecord]{Records: make([]types.NutritionRecord, 0, len(items))}
	for idx, raw := range items {
		var item foodwakeItem
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Warn("malformed foodwake item skipped", "index", idx, "error", err)
			continue
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			s.logger.Warn("foodwake item without name skipped", "index", idx)
			continue
		}
		batch.Records = append(batch.Records, types.NutritionRecord{
			ID:         fmt.Sprintf("fw-%d", idx),
			Name:       name,
			EnergyKcal: item.Info[infoEnergy].Float(),
			ProteinG:   item.Info[infoProtein].Float(),
			FatG:       item.Info[infoFat].Float(),
			CarbG:      item.Info[infoCarb].Float(),
			FiberG:     item.Info[infoFiber].Float(),
			CalciumMg:  item.Info[infoCalcium].Float(),
			SodiumMg:   item.Info[infoSodium].Float(),
		})
	}
	return batch, nil
}
