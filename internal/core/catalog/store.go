// Package catalog 提供食譜查詢的儲存層
package catalog

import (
	"context"
	_ "embed"
	"strings"

	"recipe-customizer/internal/core/recipe"
)

//go:embed data/recipes.json
var seedData []byte

// Store 食譜來源
type Store interface {
	// Get 找不到時回傳 common.ErrNotFound
	Get(ctx context.Context, id string) (recipe.Recipe, error)
	// Search 依名稱前綴搜尋，空查詢回傳全部
	Search(ctx context.Context, query string) ([]recipe.Recipe, error)
}

// SeedRecipes 解析內嵌的種子食譜
func SeedRecipes() ([]recipe.Recipe, error) {
	return recipe.ParseList(seedData)
}

// normalizeQuery 搜尋字串統一為去空白小寫
func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
