package types

import (
	"strings"
)

// RecipeRecord is a recipe scraped from a recipe website.
type RecipeRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	Ingredients string `json:"ingredients"` // "name(amount); name(amount)"
	Steps       string `json:"steps"`       // "step | step"
}

// Columns returns the CSV header for scraped recipes.
func (r RecipeRecord) Columns() []string {
	return []string{"id", "name", "url", "category", "ingredients", "steps"}
}

// Values returns the cells in Columns order.
func (r RecipeRecord) Values() []string {
	return []string{r.ID, r.Name, r.URL, r.Category, r.Ingredients, r.Steps}
}

// Ingredient is one row of a recipe's ingredient table.
type Ingredient struct {
	Name   string
	Amount string
}

// String renders the ingredient as "name(amount)", or just "name" without an amount.
func (i Ingredient) String() string {
	if i.Amount == "" {
		return i.Name
	}
	return i.Name + "(" + i.Amount + ")"
}

// JoinIngredients flattens ingredients into the RecipeRecord.Ingredients form.
// Ingredients without a name are dropped.
func JoinIngredients(ingredients []Ingredient) string {
	parts := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.Name == "" {
			continue
		}
		parts = append(parts, ing.String())
	}
	return strings.Join(parts, "; ")
}

// JoinSteps flattens step texts into the RecipeRecord.Steps form.
func JoinSteps(steps []string) string {
	return strings.Join(steps, " | ")
}

// APIRecipeRecord is a recipe returned by a public recipe API.
type APIRecipeRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Area         string `json:"area"`
	Instructions string `json:"instructions"`
	Thumbnail    string `json:"thumbnail"`
}

// Columns returns the CSV header for API recipes.
func (r APIRecipeRecord) Columns() []string {
	return []string{"id", "name", "category", "area", "instructions", "thumbnail"}
}

// Values returns the cells in Columns order.
func (r APIRecipeRecord) Values() []string {
	return []string{r.ID, r.Name, r.Category, r.Area, r.Instructions, r.Thumbnail}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// CollapseLineBreaks replaces each line break with a single space and trims the result.
func CollapseLineBreaks(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}
