package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"souschef/sources/psql/models"
)

var ErrRecipeNotFound = errors.New("recipe not found")

type RecipeDAO struct {
	DB *gorm.DB
}

func NewRecipeDAO(db *gorm.DB) *RecipeDAO {
	return &RecipeDAO{DB: db}
}

func (dao *RecipeDAO) Create(ctx context.Context, recipe *models.Recipe) error {
	return dao.DB.WithContext(ctx).Create(recipe).Error
}

// GetByID loads the full recipe with ingredients and steps in list order.
func (dao *RecipeDAO) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := dao.DB.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// List returns recipe rows without children, newest first.
func (dao *RecipeDAO) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := dao.DB.WithContext(ctx).
		Order("created_at DESC").
		Find(&recipes).Error
	return recipes, err
}

func (dao *RecipeDAO) GetByName(ctx context.Context, name string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := dao.DB.WithContext(ctx).Where("name = ?", name).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (dao *RecipeDAO) Delete(ctx context.Context, id uint) error {
	res := dao.DB.WithContext(ctx).Select("Ingredients", "Steps").Delete(&models.Recipe{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

func (dao *RecipeDAO) SetPhotoKey(ctx context.Context, id uint, key string) error {
	res := dao.DB.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Update("photo_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}
