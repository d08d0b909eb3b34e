package crawling

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/singerliu226/AI-resipe/internal/types"
)

var recipeIDPattern = regexp.MustCompile(`recipe/(\d+)`)

// ParseRecipePage extracts a recipe from a detail page.
// It returns nil without error when the page has no title.
func ParseRecipePage(htmlContent, pageURL string) (*types.RecipeRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &PageParseError{URL: pageURL, Cause: err}
	}

	name := strings.TrimSpace(doc.Find("h1.page-title").First().Text())
	if name == "" {
		return nil, nil
	}

	id := name
	if m := recipeIDPattern.FindStringSubmatch(pageURL); m != nil {
		id = m[1]
	}

	category := strings.TrimSpace(doc.Find(".breadcrumb a").Eq(1).Text())

	var ingredients []types.Ingredient
	doc.Find("table.ings tr").Each(func(_ int, tr *goquery.Selection) {
		cell := tr.Find("td.name")
		if link := cell.Find("a"); link.Length() > 0 {
			cell = link
		}
		ingredients = append(ingredients, types.Ingredient{
			Name:   strings.TrimSpace(cell.Text()),
			Amount: strings.TrimSpace(tr.Find("td.unit").Text()),
		})
	})

	var steps []string
	doc.Find("div.steps p.text").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			steps = append(steps, text)
		}
	})

	return &types.RecipeRecord{
		ID:          id,
		Name:        name,
		URL:         pageURL,
		Category:    category,
		Ingredients: types.JoinIngredients(ingredients),
		Steps:       types.JoinSteps(steps),
	}, nil
}
