package customize

import (
	"recipe-customizer/internal/core/presenter"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
)

// Request POST /api/customize/ 請求
type Request struct {
	RecipeID           string             `json:"recipe_id"`
	DietaryType        string             `json:"dietary_type"`
	Allergens          []string           `json:"allergens"`
	BlockedIngredients []string           `json:"blocked_ingredients"`
	FlavorPreferences  map[string]float64 `json:"flavor_preferences"`
}

// Response POST /api/customize/ 回應
type Response struct {
	Success        bool                        `json:"success"`
	Summary        string                      `json:"summary"`
	Substitutions  []substitution.Substitution `json:"substitutions"`
	ModifiedRecipe recipe.Recipe               `json:"modified_recipe"`
	Display        *presenter.DisplayModel     `json:"display,omitempty"`
	Generation     uint64                      `json:"generation,omitempty"`
	Cached         bool                        `json:"cached,omitempty"`
}
