package models

import "time"

// Recipe is the central domain entity: metadata plus ordered ingredients
// and steps. Children are cascade-deleted with the recipe.
type Recipe struct {
	ID          uint      `json:"recipe_id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	SourceType  string    `json:"source_type" gorm:"type:varchar(100)"`
	SourceURL   string    `json:"source_url" gorm:"type:varchar(500)"`
	Cuisine     string    `json:"cuisine" gorm:"type:varchar(100)"`
	Category    string    `json:"category" gorm:"type:varchar(100)"`
	PrepTime    int       `json:"prep_time"`
	CookTime    int       `json:"cook_time"`
	Servings    int       `json:"servings"`
	PhotoKey    string    `json:"-" gorm:"type:varchar(500)"`
	CreatedAt   time.Time `json:"created_date"`

	Ingredients []RecipeIngredient `json:"ingredients" gorm:"constraint:OnDelete:CASCADE"`
	Steps       []Step             `json:"steps" gorm:"constraint:OnDelete:CASCADE"`
}

// RecipeIngredient keeps quantity as a string so "1/2" and "2-3" survive.
type RecipeIngredient struct {
	ID         uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	RecipeID   uint   `json:"-" gorm:"not null;index"`
	Name       string `json:"name" gorm:"type:varchar(100);not null"`
	Quantity   string `json:"quantity" gorm:"type:varchar(50)"`
	Unit       string `json:"unit" gorm:"type:varchar(50)"`
	OrderIndex int    `json:"order_index" gorm:"not null"`
}

type Step struct {
	ID          uint   `json:"step_id" gorm:"primaryKey;autoIncrement"`
	RecipeID    uint   `json:"-" gorm:"not null;index"`
	Description string `json:"description" gorm:"type:text;not null"`
	OrderIndex  int    `json:"order_index" gorm:"not null"`
}
