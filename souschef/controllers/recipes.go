// souschef/controllers/recipes.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"souschef/services/scraper"
	"souschef/sources/psql/dao"
	"souschef/sources/psql/models"
	"souschef/sources/storage"
	"souschef/utils/types"
)

var ErrNoPhoto = errors.New("recipe has no photo")

type RecipeController struct {
	recipes  *dao.RecipeDAO
	importer *scraper.Importer
	photos   *storage.MinIOClient
}

// NewRecipeController wires the recipe collaborator. photos may be nil when
// no object store is configured; photo endpoints then report an error.
func NewRecipeController(recipes *dao.RecipeDAO, photos *storage.MinIOClient) *RecipeController {
	return &RecipeController{
		recipes:  recipes,
		importer: scraper.NewImporter(),
		photos:   photos,
	}
}

func (c *RecipeController) Create(ctx context.Context, input types.RecipeInput) (*models.Recipe, error) {
	if input.Name == "" {
		return nil, errors.New("recipe name required")
	}
	recipe := &models.Recipe{
		Name:        input.Name,
		Description: input.Description,
		SourceType:  input.SourceType,
		SourceURL:   input.SourceURL,
		Cuisine:     input.Cuisine,
		Category:    input.Category,
		PrepTime:    input.PrepTime,
		CookTime:    input.CookTime,
		Servings:    input.Servings,
	}
	for i, ing := range input.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			Name:       ing.Name,
			Quantity:   ing.Quantity,
			Unit:       ing.Unit,
			OrderIndex: i + 1,
		})
	}
	for i, step := range input.Steps {
		recipe.Steps = append(recipe.Steps, models.Step{
			Description: step,
			OrderIndex:  i + 1,
		})
	}
	if err := c.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (c *RecipeController) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	return c.recipes.GetByID(ctx, id)
}

func (c *RecipeController) List(ctx context.Context) ([]models.Recipe, error) {
	return c.recipes.List(ctx)
}

func (c *RecipeController) Delete(ctx context.Context, id uint) error {
	return c.recipes.Delete(ctx, id)
}

// Import fetches a recipe page, builds a draft recipe from it and persists it.
func (c *RecipeController) Import(ctx context.Context, url string) (*models.Recipe, error) {
	if url == "" {
		return nil, errors.New("url required")
	}
	recipe, err := c.importer.ImportRecipe(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := c.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (c *RecipeController) UploadPhoto(ctx context.Context, id uint, contentType string, r io.Reader, size int64) error {
	if c.photos == nil {
		return errors.New("photo storage not configured")
	}
	if _, err := c.recipes.GetByID(ctx, id); err != nil {
		return err
	}
	key, err := c.photos.UploadPhoto(ctx, id, contentType, r, size)
	if err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}
	return c.recipes.SetPhotoKey(ctx, id, key)
}

func (c *RecipeController) GetPhoto(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	if c.photos == nil {
		return nil, "", errors.New("photo storage not configured")
	}
	recipe, err := c.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if recipe.PhotoKey == "" {
		return nil, "", ErrNoPhoto
	}
	return c.photos.GetPhoto(ctx, recipe.PhotoKey)
}
