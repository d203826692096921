// Package presenter 將客製化結果轉換為前端顯示模型
package presenter

import (
	"strings"

	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/pkg/common"
)

// Line 單一食材的顯示資料
type Line struct {
	Quantity    string  `json:"quantity"`
	Unit        string  `json:"unit"`
	Name        string  `json:"name"`
	Substituted bool    `json:"substituted"`
	Substitute  string  `json:"substitute,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// DisplayModel 客製化結果的顯示模型
type DisplayModel struct {
	RecipeID     string   `json:"recipe_id"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Lines        []Line   `json:"lines"`
	Instructions []string `json:"instructions"`
}

// Text 原食材文字，例如 "200 g chicken"
func (l Line) Text() string {
	return recipe.Ingredient{Name: l.Name, Quantity: l.Quantity, Unit: l.Unit}.Text()
}

// SubstituteText 替代食材文字；未替換時回傳空字串
func (l Line) SubstituteText() string {
	if !l.Substituted {
		return ""
	}
	return recipe.Ingredient{Name: l.Substitute, Quantity: l.Quantity, Unit: l.Unit}.Text()
}

// Present 依原食譜順序產生顯示模型；替換對不上原食材時回傳 ErrInconsistentResult
func Present(original recipe.Recipe, result substitution.Result) (DisplayModel, error) {
	byName := make(map[string]substitution.Substitution, len(result.Substitutions))
	for _, s := range result.Substitutions {
		if !original.HasIngredient(s.Original) {
			return DisplayModel{}, common.ErrInconsistentResult.Wrap(
				common.ErrInconsistentResult.WithMessage("substitution for %q does not match any ingredient of recipe %s", s.Original, original.ID),
			)
		}
		key := common.NormalizeName(s.Original)
		prev, dup := byName[key]
		if !dup {
			byName[key] = s
			continue
		}
		// 同一食材只能對應一個替代品
		if !common.EqualFold(prev.Substitute, s.Substitute) {
			return DisplayModel{}, common.ErrInconsistentResult.Wrap(
				common.ErrInconsistentResult.WithMessage("ingredient %q has conflicting substitutes %q and %q", s.Original, prev.Substitute, s.Substitute),
			)
		}
	}

	lines := make([]Line, len(original.Ingredients))
	for i, ing := range original.Ingredients {
		line := Line{Quantity: ing.Quantity, Unit: ing.Unit, Name: ing.Name}
		if s, ok := byName[common.NormalizeName(ing.Name)]; ok {
			line.Substituted = true
			line.Substitute = s.Substitute
			line.Reason = s.Reason
			line.Confidence = s.Confidence
		}
		lines[i] = line
	}

	instructions := result.ModifiedRecipe.Instructions
	if len(instructions) == 0 {
		instructions = original.Instructions
	}

	return DisplayModel{
		RecipeID:     original.ID,
		Title:        original.Name,
		Summary:      strings.TrimSpace(result.Summary),
		Lines:        lines,
		Instructions: append([]string{}, instructions...),
	}, nil
}
