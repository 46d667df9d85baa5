// Package scraper imports recipes from the web. Sites that publish
// schema.org/Recipe JSON-LD give us structured ingredients and steps; for
// everything else we fall back to the page title plus cleaned body text.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"souschef/sources/psql/models"
	"souschef/utils/logging"
)

const fetchTimeout = 15 * time.Second

type Importer struct {
	client *http.Client
}

func NewImporter() *Importer {
	return &Importer{client: &http.Client{Timeout: fetchTimeout}}
}

// ImportRecipe fetches the page and builds a draft recipe from it.
func (im *Importer) ImportRecipe(ctx context.Context, pageURL string) (*models.Recipe, error) {
	defer logging.LogDuration(ctx, "scraper_import_recipe")()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: bad status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	if recipe := recipeFromJSONLD(doc); recipe != nil {
		recipe.SourceType = "web"
		recipe.SourceURL = pageURL
		return recipe, nil
	}

	// No structured data: keep the title and the cleaned text as a
	// description the user can edit into a real recipe.
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = pageURL
	}
	body, _ := doc.Html()
	text := truncate(ExtractCleanText(body), 2000)
	logging.AppLogger.Info("recipe import fell back to page text",
		zap.String("url", pageURL))
	return &models.Recipe{
		Name:        title,
		Description: text,
		SourceType:  "web",
		SourceURL:   pageURL,
	}, nil
}

// jsonldRecipe matches the subset of schema.org/Recipe we care about.
// recipeInstructions can be strings or HowToStep objects, so it stays raw.
type jsonldRecipe struct {
	Type               interface{}       `json:"@type"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	RecipeCuisine      string            `json:"recipeCuisine"`
	RecipeCategory     string            `json:"recipeCategory"`
	RecipeIngredient   []string          `json:"recipeIngredient"`
	RecipeInstructions []json.RawMessage `json:"recipeInstructions"`
	Graph              []json.RawMessage `json:"@graph"`
}

func recipeFromJSONLD(doc *goquery.Document) *models.Recipe {
	var found *models.Recipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, raw := range candidateObjects(sel.Text()) {
			var jr jsonldRecipe
			if err := json.Unmarshal(raw, &jr); err != nil {
				continue
			}
			if !isRecipeType(jr.Type) {
				// Sites often wrap the recipe inside an @graph array.
				for _, g := range jr.Graph {
					var inner jsonldRecipe
					if err := json.Unmarshal(g, &inner); err == nil && isRecipeType(inner.Type) {
						jr = inner
						break
					}
				}
			}
			if !isRecipeType(jr.Type) || jr.Name == "" {
				continue
			}
			found = buildRecipe(jr)
			return false
		}
		return true
	})
	return found
}

// candidateObjects handles both a single JSON-LD object and a top-level array.
func candidateObjects(text string) []json.RawMessage {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(text), &arr); err == nil {
			return arr
		}
		return nil
	}
	return []json.RawMessage{json.RawMessage(text)}
}

func isRecipeType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func buildRecipe(jr jsonldRecipe) *models.Recipe {
	recipe := &models.Recipe{
		Name:        jr.Name,
		Description: jr.Description,
		Cuisine:     jr.RecipeCuisine,
		Category:    jr.RecipeCategory,
	}
	for i, ing := range jr.RecipeIngredient {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			Name:       strings.TrimSpace(ing),
			OrderIndex: i + 1,
		})
	}
	for i, raw := range jr.RecipeInstructions {
		text := instructionText(raw)
		if text == "" {
			continue
		}
		recipe.Steps = append(recipe.Steps, models.Step{
			Description: text,
			OrderIndex:  i + 1,
		})
	}
	return recipe
}

func instructionText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var step struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &step); err == nil {
		return strings.TrimSpace(step.Text)
	}
	return ""
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// ExtractCleanText parses HTML and returns cleaned text content.
func ExtractCleanText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t + " ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	return strings.TrimSpace(sb.String())
}
