package sources

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/singerliu226/AI-resipe/internal/fetch"
	"github.com/singerliu226/AI-resipe/internal/scheduler"
	"github.com/singerliu226/AI-resipe/internal/schemas"
	"github.com/singerliu226/AI-resipe/internal/types"
)

const (
	// DefaultMealDBURL is TheMealDB's public v1 API with the test key.
	DefaultMealDBURL = "https://www.themealdb.com/api/json/v1/1"
	// DefaultMealDBPartitions are the first letters searched, one request each.
	DefaultMealDBPartitions = "abcdefghijklmnopqrstuvwxyz"
)

// MealDB searches TheMealDB by first letter.
type MealDB struct {
	BaseURL     string
	Partitions  string
	Concurrency int

	getter fetch.Getter
	logger *slog.Logger
}

// NewMealDB returns the adapter for the public API.
func NewMealDB(getter fetch.Getter, logger *slog.Logger) *MealDB {
	return &MealDB{
		BaseURL:     DefaultMealDBURL,
		Partitions:  DefaultMealDBPartitions,
		Concurrency: scheduler.DefaultConcurrency,
		getter:      getter,
		logger:      orDiscard(logger),
	}
}

// Name implements Source.
func (s *MealDB) Name() string { return "themealdb" }

type mealDBSearch struct {
	Meals []json.RawMessage `json:"meals"`
}

type mealDBMeal struct {
	ID           string `json:"idMeal" validate:"required"`
	Name         string `json:"strMeal" validate:"required"`
	Category     string `json:"strCategory"`
	Area         string `json:"strArea"`
	Instructions string `json:"strInstructions"`
	Thumbnail    string `json:"strMealThumb"`
}

// Crawl issues one search per partition. Results keep partition order.
func (s *MealDB) Crawl(ctx context.Context) (*types.Batch[types.APIRecipeRecord], error) {
	tasks := make([]scheduler.Task[[]types.APIRecipeRecord], 0, len(s.Partitions))
	for _, letter := range strings.Split(s.Partitions, "") {
		tasks = append(tasks, scheduler.Task[[]types.APIRecipeRecord]{
			Key: letter,
			Run: func(ctx context.Context) ([]types.APIRecipeRecord, error) {
				return s.search(ctx, letter)
			},
		})
	}

	values, failed := scheduler.Split(scheduler.Run(ctx, tasks, s.Concurrency, s.logger))
	batch := &types.Batch[types.APIRecipeRecord]{Failed: failed}
	for _, records := range values {
		batch.Records = append(batch.Records, records...)
	}
	return batch, nil
}

func (s *MealDB) search(ctx context.Context, letter string) ([]types.APIRecipeRecord, error) {
	searchURL := strings.TrimSuffix(s.BaseURL, "/") + "/search.php?f=" + url.QueryEscape(letter)
	s.logger.Debug("searching meals", "letter", letter, "url", searchURL)

	var doc json.RawMessage
	if _, err := fetch.GetJSON(ctx, s.getter, searchURL, nil, &doc); err != nil {
		return nil, err
	}
	if err := schemas.Validate(schemas.MealDBSearch, doc); err != nil {
		return nil, err
	}

	var page mealDBSearch
	if err := json.Unmarshal(doc, &page); err != nil {
		return nil, err
	}
	if len(page.Meals) == 0 {
		s.logger.Debug("no meals for letter", "letter", letter)
		return nil, nil
	}

	records := make([]types.APIRecipeRecord, 0, len(page.Meals))
	for i, raw := range page.Meals {
		var meal mealDBMeal
		if err := json.Unmarshal(raw, &meal); err != nil {
			s.logger.Warn("malformed meal skipped", "letter", letter, "index", i, "error", err)
			continue
		}
		if err := validate.Struct(meal); err != nil {
			s.logger.Warn("meal without id or name skipped", "letter", letter, "index", i)
			continue
		}
		records = append(records, types.APIRecipeRecord{
			ID:           meal.ID,
			Name:         meal.Name,
			Category:     meal.Category,
			Area:         meal.Area,
			Instructions: types.CollapseLineBreaks(meal.Instructions),
			Thumbnail:    meal.Thumbnail,
		})
	}
	s.logger.Debug("meals fetched", "letter", letter, "records", len(records))
	return records, nil
}
