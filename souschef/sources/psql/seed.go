package psql

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"souschef/sources/psql/dao"
	"souschef/sources/psql/models"
)

type seedIngredient struct {
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity"`
	Unit     string `yaml:"unit"`
}

type seedRecipe struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Cuisine     string           `yaml:"cuisine"`
	Category    string           `yaml:"category"`
	PrepTime    int              `yaml:"prep_time"`
	CookTime    int              `yaml:"cook_time"`
	Servings    int              `yaml:"servings"`
	Ingredients []seedIngredient `yaml:"ingredients"`
	Steps       []string         `yaml:"steps"`
}

type seedFile struct {
	Recipes []seedRecipe `yaml:"recipes"`
}

// ParseSeed reads a recipe seed document.
func ParseSeed(data []byte) ([]models.Recipe, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	recipes := make([]models.Recipe, 0, len(f.Recipes))
	for _, sr := range f.Recipes {
		r := models.Recipe{
			Name:        sr.Name,
			Description: sr.Description,
			SourceType:  "seed",
			Cuisine:     sr.Cuisine,
			Category:    sr.Category,
			PrepTime:    sr.PrepTime,
			CookTime:    sr.CookTime,
			Servings:    sr.Servings,
		}
		for i, ing := range sr.Ingredients {
			r.Ingredients = append(r.Ingredients, models.RecipeIngredient{
				Name:       ing.Name,
				Quantity:   ing.Quantity,
				Unit:       ing.Unit,
				OrderIndex: i + 1,
			})
		}
		for i, step := range sr.Steps {
			r.Steps = append(r.Steps, models.Step{
				Description: step,
				OrderIndex:  i + 1,
			})
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// SeedFromFile inserts seed recipes that are not already present, matching
// by name. Returns the number inserted.
func SeedFromFile(ctx context.Context, recipeDAO *dao.RecipeDAO, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	recipes, err := ParseSeed(data)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for i := range recipes {
		_, err := recipeDAO.GetByName(ctx, recipes[i].Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, dao.ErrRecipeNotFound) {
			return inserted, err
		}
		if err := recipeDAO.Create(ctx, &recipes[i]); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
