package substitution

import (
	"context"
	"fmt"
	"strings"

	"recipe-customizer/internal/core/preference"
	"recipe-customizer/internal/core/recipe"
)

// Substitution 單一食材替換
type Substitution struct {
	Original   string  `json:"original"`
	Substitute string  `json:"substitute"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"` // 僅供顯示
}

// Result 客製化結果
type Result struct {
	Summary        string         `json:"summary"`
	Substitutions  []Substitution `json:"substitutions"`
	ModifiedRecipe recipe.Recipe  `json:"modified_recipe"`
}

// Resolver 依偏好為食譜計算替換
type Resolver interface {
	// Name 用於快取鍵與日誌
	Name() string
	// Resolve 無法滿足限制時回傳 ErrResolution，不回傳部分結果
	Resolve(ctx context.Context, r recipe.Recipe, prefs preference.Snapshot) (*Result, error)
}

// Summarize 產生客製化摘要
func Summarize(subs []Substitution) string {
	if len(subs) == 0 {
		return "No substitutions needed"
	}
	var sb strings.Builder
	noun := "substitutions"
	if len(subs) == 1 {
		noun = "substitution"
	}
	fmt.Fprintf(&sb, "Made %d %s:\n", len(subs), noun)
	for _, s := range subs {
		fmt.Fprintf(&sb, "- %s → %s\n", s.Original, s.Substitute)
	}
	return sb.String()
}
