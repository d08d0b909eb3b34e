package sources

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/singerliu226/AI-resipe/internal/fetch"
	"github.com/singerliu226/AI-resipe/internal/normalize"
	"github.com/singerliu226/AI-resipe/internal/scheduler"
	"github.com/singerliu226/AI-resipe/internal/schemas"
	"github.com/singerliu226/AI-resipe/internal/types"
)

// Default endpoints of the China food composition dataset.
const (
	DefaultNutritionListURL = "https://api.github.com/repos/Sanotsu/china-food-composition-data/contents/json_data"
	DefaultNutritionRawBase = "https://raw.githubusercontent.com/Sanotsu/china-food-composition-data/main/json_data/"
)

// NutritionGit reads a directory of JSON fragments from a GitHub repository.
// Fragments are fetched from the raw endpoint first; on failure the contents
// API is tried with the raw media type and the optional token.
type NutritionGit struct {
	ListURL     string
	RawBase     string
	Token       string
	Concurrency int

	getter fetch.Getter
	logger *slog.Logger
}

// NewNutritionGit returns the adapter pointed at the default dataset.
func NewNutritionGit(getter fetch.Getter, logger *slog.Logger) *NutritionGit {
	return &NutritionGit{
		ListURL:     DefaultNutritionListURL,
		RawBase:     DefaultNutritionRawBase,
		Concurrency: scheduler.DefaultConcurrency,
		getter:      getter,
		logger:      orDiscard(logger),
	}
}

// Name implements Source.
func (s *NutritionGit) Name() string { return "nutrition-git" }

type listingEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// nutritionGitItem is one element of a fragment. Nutrients arrive as either
// numbers or strings depending on the file.
type nutritionGitItem struct {
	FoodCode     string          `json:"foodCode" validate:"required"`
	FoodName     string          `json:"foodName" validate:"required"`
	EnergyKCal   normalize.Value `json:"energyKCal"`
	Protein      normalize.Value `json:"protein"`
	Fat          normalize.Value `json:"fat"`
	CHO          normalize.Value `json:"CHO"`
	DietaryFiber normalize.Value `json:"dietaryFiber"`
	Ca           normalize.Value `json:"Ca"`
	Na           normalize.Value `json:"Na"`
}

func (it nutritionGitItem) record() types.NutritionRecord {
	return types.NutritionRecord{
		ID:         it.FoodCode,
		Name:       it.FoodName,
		EnergyKcal: it.EnergyKCal.Float(),
		ProteinG:   it.Protein.Float(),
		FatG:       it.Fat.Float(),
		CarbG:      it.CHO.Float(),
		FiberG:     it.DietaryFiber.Float(),
		CalciumMg:  it.Ca.Float(),
		SodiumMg:   it.Na.Float(),
	}
}

// Crawl lists the fragments and fetches them concurrently.
func (s *NutritionGit) Crawl(ctx context.Context) (*types.Batch[types.NutritionRecord], error) {
	files, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("nutrition fragments listed", "source", s.Name(), "files", len(files))

	tasks := make([]scheduler.Task[[]types.NutritionRecord], 0, len(files))
	for _, name := range files {
		tasks = append(tasks, scheduler.Task[[]types.NutritionRecord]{
			Key: name,
			Run: func(ctx context.Context) ([]types.NutritionRecord, error) {
				return s.fragment(ctx, name)
			},
		})
	}

	values, failed := scheduler.Split(scheduler.Run(ctx, tasks, s.Concurrency, s.logger))
	batch := &types.Batch[types.NutritionRecord]{Failed: failed}
	for _, records := range values {
		batch.Records = append(batch.Records, records...)
	}
	return batch, nil
}

func (s *NutritionGit) list(ctx context.Context) ([]string, error) {
	var doc json.RawMessage
	if _, err := fetch.GetJSON(ctx, s.getter, s.ListURL, nil, &doc); err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "failed to list fragments", Cause: err}
	}
	if err := schemas.Validate(schemas.GitHubListing, doc); err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "unexpected listing response", Cause: err}
	}

	var entries []listingEntry
	if err := json.Unmarshal(doc, &entries); err != nil {
		return nil, &SourceError{Source: s.Name(), Message: "failed to decode listing", Cause: err}
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == "file" && strings.HasSuffix(e.Name, ".json") {
			files = append(files, e.Name)
		}
	}
	return files, nil
}

func (s *NutritionGit) fragment(ctx context.Context, name string) ([]types.NutritionRecord, error) {
	body, err := s.fetchFile(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.NutritionFragment, body); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			s.logger.Warn("fragment is not an array, skipped", "file", name)
			return nil, nil
		}
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}

	records := make([]types.NutritionRecord, 0, len(items))
	for i, raw := range items {
		var item nutritionGitItem
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Warn("malformed nutrition item skipped", "file", name, "index", i, "error", err)
			continue
		}
		if err := validate.Struct(item); err != nil {
			s.logger.Warn("nutrition item without code or name skipped", "file", name, "index", i)
			continue
		}
		records = append(records, item.record())
	}
	s.logger.Debug("fragment parsed", "file", name, "records", len(records))
	return records, nil
}

// fetchFile returns the fragment as a JSON document. A raw response that is
// not JSON also falls back to the contents API.
func (s *NutritionGit) fetchFile(ctx context.Context, name string) (json.RawMessage, error) {
	escaped := url.PathEscape(name)
	var doc json.RawMessage
	_, rawErr := fetch.GetJSON(ctx, s.getter, s.RawBase+escaped, nil, &doc)
	if rawErr == nil {
		return doc, nil
	}
	s.logger.Debug("raw fetch failed, trying contents API", "file", name, "error", rawErr)

	headers := map[string]string{"Accept": "application/vnd.github.v3.raw"}
	if s.Token != "" {
		headers["Authorization"] = "token " + s.Token
	}
	if _, err := fetch.GetJSON(ctx, s.getter, strings.TrimSuffix(s.ListURL, "/")+"/"+escaped, headers, &doc); err != nil {
		return nil, errors.Join(rawErr, err)
	}
	return doc, nil
}
