package client

import (
	"context"

	"recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/core/preference"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/pkg/common"
)

// Resolver 將替換解析交給上游服務，不重試
type Resolver struct {
	client *Client
}

// NewResolver 創建遠端解析器
func NewResolver(c *Client) *Resolver {
	return &Resolver{client: c}
}

// Name 解析器名稱
func (r *Resolver) Name() string {
	return "remote"
}

// Resolve 以食譜 ID 與偏好呼叫上游 /api/customize/
func (r *Resolver) Resolve(ctx context.Context, rec recipe.Recipe, prefs preference.Snapshot) (*substitution.Result, error) {
	req := RequestFromSnapshot(rec.ID, prefs)
	resp, err := r.client.Customize(ctx, "", req, rec.ID)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, common.ErrResolution.WithMessage("upstream could not customize recipe %s", rec.ID)
	}
	return &substitution.Result{
		Summary:        resp.Summary,
		Substitutions:  resp.Substitutions,
		ModifiedRecipe: resp.ModifiedRecipe,
	}, nil
}

// RequestFromSnapshot 將偏好快照轉為請求格式
func RequestFromSnapshot(recipeID string, prefs preference.Snapshot) customize.Request {
	allergens := make([]string, 0)
	for _, a := range prefs.Allergens() {
		allergens = append(allergens, string(a))
	}
	flavors := make(map[string]float64, len(preference.Flavors))
	for f, v := range prefs.Flavors() {
		flavors[string(f)] = v
	}
	return customize.Request{
		RecipeID:           recipeID,
		DietaryType:        string(prefs.DietaryType()),
		Allergens:          allergens,
		BlockedIngredients: prefs.BlockedIngredients(),
		FlavorPreferences:  flavors,
	}
}
