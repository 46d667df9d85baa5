// souschef/utils/types/cooking.go
package types

type StartSessionRequest struct {
	RecipeID uint `json:"recipe_id"`
}

type StartSessionResponse struct {
	SessionID        string `json:"session_id"`
	RecipeName       string `json:"recipe_name"`
	TotalIngredients int    `json:"total_ingredients"`
	TotalSteps       int    `json:"total_steps"`
}

type CookingMessage struct {
	Text string `json:"text"`
}

type CookingResponse struct {
	Text string `json:"text"`
}
