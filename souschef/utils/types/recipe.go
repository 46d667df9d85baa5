// souschef/utils/types/recipe.go
package types

type IngredientInput struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
}

type RecipeInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	SourceType  string            `json:"source_type,omitempty"`
	SourceURL   string            `json:"source_url,omitempty"`
	Cuisine     string            `json:"cuisine,omitempty"`
	Category    string            `json:"category,omitempty"`
	PrepTime    int               `json:"prep_time,omitempty"`
	CookTime    int               `json:"cook_time,omitempty"`
	Servings    int               `json:"servings,omitempty"`
	Ingredients []IngredientInput `json:"ingredients"`
	Steps       []string          `json:"steps"`
}

type ImportRecipeRequest struct {
	URL string `json:"url"`
}
