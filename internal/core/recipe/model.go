package recipe

import (
	"strings"

	"recipe-customizer/internal/pkg/common"
)

// Ingredient 食材描述
type Ingredient struct {
	Name       string   `json:"name"`
	Quantity   string   `json:"quantity"`
	Unit       string   `json:"unit"`
	Categories []string `json:"categories,omitempty"` // meat、dairy、vegan 等分類
}

// Recipe 食譜；解析後即不可變，衍生食譜一律重新建構
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Cuisine      string       `json:"cuisine"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	DietaryTags  []string     `json:"dietary_tags"`
	PrepTime     *string      `json:"prep_time,omitempty"`
	Servings     *int         `json:"servings,omitempty"`
}

// IngredientNames 回傳食材名稱（依原順序）
func (r Recipe) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// HasIngredient 以不分大小寫的完全比對檢查食材是否存在
func (r Recipe) HasIngredient(name string) bool {
	_, ok := r.IndexOf(name)
	return ok
}

// IndexOf 回傳食材位置
func (r Recipe) IndexOf(name string) (int, bool) {
	key := common.NormalizeName(name)
	for i, ing := range r.Ingredients {
		if common.NormalizeName(ing.Name) == key {
			return i, true
		}
	}
	return -1, false
}

// Clone 深拷貝
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = cloneIngredients(r.Ingredients)
	out.Instructions = cloneStrings(r.Instructions)
	out.DietaryTags = cloneStrings(r.DietaryTags)
	if r.PrepTime != nil {
		p := *r.PrepTime
		out.PrepTime = &p
	}
	if r.Servings != nil {
		s := *r.Servings
		out.Servings = &s
	}
	return out
}

// WithIngredients 以新的食材列表建構衍生食譜
func (r Recipe) WithIngredients(ingredients []Ingredient) Recipe {
	out := r.Clone()
	out.Ingredients = cloneIngredients(ingredients)
	return out
}

// WithInstructions 以新的步驟建構衍生食譜
func (r Recipe) WithInstructions(instructions []string) Recipe {
	out := r.Clone()
	out.Instructions = cloneStrings(instructions)
	return out
}

// Text 食材顯示文字，例如 "200 g chicken"
func (i Ingredient) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.Quantity, i.Unit, i.Name} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func cloneIngredients(in []Ingredient) []Ingredient {
	if in == nil {
		return nil
	}
	out := make([]Ingredient, len(in))
	for i, ing := range in {
		out[i] = ing
		out[i].Categories = cloneStrings(ing.Categories)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
