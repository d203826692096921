package substitution

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"recipe-customizer/internal/core/preference"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/pkg/common"
)

const flavorEpsilon = 1e-9

// dietBlockedCategories 各飲食類型禁止的分類
var dietBlockedCategories = map[preference.DietaryType][]string{
	preference.NonVegetarian: nil,
	preference.Pescatarian:   {"meat", "poultry"},
	preference.Vegetarian:    {"meat", "poultry", "seafood", "shellfish"},
	preference.Vegan:         {"meat", "poultry", "seafood", "shellfish", "dairy", "eggs", "honey", "animal-product"},
}

type violationKind int

const (
	violationDiet violationKind = iota
	violationAllergen
	violationBlocked
)

type violation struct {
	kind  violationKind
	label string // 飲食類型或過敏原
}

// LocalResolver 以內嵌知識庫計算替換
type LocalResolver struct {
	kb *KnowledgeBase
}

// NewLocalResolver 建立本地解析器；kb 為 nil 時使用內嵌知識庫
func NewLocalResolver(kb *KnowledgeBase) (*LocalResolver, error) {
	if kb == nil {
		var err error
		if kb, err = DefaultKnowledgeBase(); err != nil {
			return nil, err
		}
	}
	return &LocalResolver{kb: kb}, nil
}

// Name 解析器名稱
func (l *LocalResolver) Name() string {
	return "local"
}

// Resolve 找出違反偏好的食材並挑選替代品
func (l *LocalResolver) Resolve(ctx context.Context, r recipe.Recipe, prefs preference.Snapshot) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.ErrRequestTimeout.Wrap(err)
	}

	// 食譜中已有的食材
	present := make(map[string]bool, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		present[common.NormalizeName(ing.Name)] = true
	}

	ingredients := make([]recipe.Ingredient, len(r.Ingredients))
	subs := make([]Substitution, 0)
	replacements := make(map[string]string)
	// 同名食材重複出現時沿用第一次的選擇
	chosen := make(map[string]Candidate)

	for i, ing := range r.Ingredients {
		ingredients[i] = ing
		violations := l.violations(ing.Name, ing.Categories, prefs)
		if len(violations) == 0 {
			continue
		}

		key := common.NormalizeName(ing.Name)
		best, ok := chosen[key]
		if !ok {
			if best, ok = l.pick(ing.Name, prefs, present); !ok {
				return nil, resolutionError(ing.Name, violations[0])
			}
			chosen[key] = best
		}

		reason := best.Reason
		if reason == "" {
			reason = deriveReason(violations)
		}
		subs = append(subs, Substitution{
			Original:   ing.Name,
			Substitute: best.Name,
			Reason:     reason,
			Confidence: best.Confidence,
		})

		ingredients[i] = recipe.Ingredient{
			Name:       best.Name,
			Quantity:   ing.Quantity,
			Unit:       ing.Unit,
			Categories: append([]string(nil), best.Categories...),
		}
		replacements[key] = best.Name
		present[best.Name] = true
	}

	// 組合修改後的食譜
	modified := r.WithIngredients(ingredients)
	if len(replacements) > 0 {
		modified = modified.WithInstructions(rewriteInstructions(r.Instructions, replacements))
	}

	return &Result{
		Summary:        Summarize(subs),
		Substitutions:  subs,
		ModifiedRecipe: modified,
	}, nil
}

// violations 依固定順序列出：飲食、過敏原（已排序）、封鎖
func (l *LocalResolver) violations(name string, extra []string, prefs preference.Snapshot) []violation {
	categories := l.kb.Categories(name, extra)
	var out []violation

	if violatesDiet(categories, prefs.DietaryType()) {
		out = append(out, violation{kind: violationDiet, label: string(prefs.DietaryType())})
	}
	for _, a := range prefs.Allergens() {
		if l.kb.IsAllergen(name, categories, string(a)) {
			out = append(out, violation{kind: violationAllergen, label: string(a)})
		}
	}
	if prefs.IsBlocked(name) {
		out = append(out, violation{kind: violationBlocked})
	}
	return out
}

type rankedCandidate struct {
	Candidate
	soft     int
	distance float64
}

// pick 回傳排名最高的可行候選
func (l *LocalResolver) pick(name string, prefs preference.Snapshot, present map[string]bool) (Candidate, bool) {
	var viable []rankedCandidate
	for _, c := range l.kb.Candidates(name) {
		if len(l.violations(c.Name, c.Categories, prefs)) > 0 {
			continue
		}
		soft := 0
		if present[c.Name] {
			soft = 1
		}
		viable = append(viable, rankedCandidate{
			Candidate: c,
			soft:      soft,
			distance:  flavorDistance(prefs, c.Flavor),
		})
	}
	if len(viable) == 0 {
		return Candidate{}, false
	}

	sort.SliceStable(viable, func(i, j int) bool {
		a, b := viable[i], viable[j]
		// 剩餘限制的違反數：與既有食材重複算一次
		if a.soft != b.soft {
			return a.soft < b.soft
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if math.Abs(a.distance-b.distance) > flavorEpsilon {
			return a.distance < b.distance
		}
		return a.Name < b.Name
	})
	return viable[0].Candidate, true
}

func violatesDiet(categories []string, diet preference.DietaryType) bool {
	for _, blocked := range dietBlockedCategories[diet] {
		for _, c := range categories {
			if c == blocked {
				return true
			}
		}
	}
	return false
}

// flavorDistance 偏好強度與候選風味的 L1 距離，缺少的風味視為 0
func flavorDistance(prefs preference.Snapshot, profile map[string]float64) float64 {
	var d float64
	for _, f := range preference.Flavors {
		d += math.Abs(prefs.Flavor(f) - profile[string(f)])
	}
	return d
}

func resolutionError(name string, v violation) error {
	switch v.kind {
	case violationDiet:
		return common.ErrResolution.WithMessage("no %s substitute available for %s", v.label, name)
	case violationAllergen:
		return common.ErrResolution.WithMessage("no %s-free substitute available for %s", v.label, name)
	default:
		return common.ErrResolution.WithMessage("no substitute available for blocked ingredient %s", name)
	}
}

func deriveReason(violations []violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		switch v.kind {
		case violationDiet:
			parts = append(parts, "Common "+v.label+" alternative")
		case violationAllergen:
			parts = append(parts, "Free of "+v.label)
		case violationBlocked:
			parts = append(parts, "Replaces blocked ingredient")
		}
	}
	return strings.Join(parts, "; ")
}

// rewriteInstructions 單次掃描替換整個字詞，較長名稱優先
func rewriteInstructions(steps []string, replacements map[string]string) []string {
	names := make([]string, 0, len(replacements))
	for name := range replacements {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	alts := make([]string, len(names))
	for i, name := range names {
		alts[i] = strings.Join(strings.Fields(regexp.QuoteMeta(name)), `\s+`)
	}
	re := regexp.MustCompile(`(?i)\b(` + strings.Join(alts, "|") + `)\b`)

	out := make([]string, len(steps))
	for i, step := range steps {
		out[i] = re.ReplaceAllStringFunc(step, func(m string) string {
			if sub, ok := replacements[common.NormalizeName(m)]; ok {
				return sub
			}
			return m
		})
	}
	return out
}
