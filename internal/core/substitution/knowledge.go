package substitution

import (
	"embed"
	"encoding/json"
	"io/fs"
	"sort"
	"sync"

	"recipe-customizer/internal/pkg/common"
)

//go:embed knowledge/*.json
var knowledgeFS embed.FS

const (
	ingredientsFile = "knowledge/ingredients.json"
	allergensFile   = "knowledge/allergen_map.json"
	rulesFile       = "knowledge/substitution_rules.json"
)

// IngredientInfo 詞庫中的食材分類與風味
type IngredientInfo struct {
	Categories []string           `json:"categories"`
	Flavor     map[string]float64 `json:"flavor,omitempty"`
}

// Candidate 替代食材候選
type Candidate struct {
	Name       string             `json:"name"`
	Categories []string           `json:"categories"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason,omitempty"`
	Flavor     map[string]float64 `json:"flavor,omitempty"`
}

// KnowledgeData 知識庫原始資料
type KnowledgeData struct {
	Ingredients map[string]IngredientInfo `json:"ingredients"`
	Allergens   map[string][]string       `json:"allergens"`
	Substitutes map[string][]Candidate    `json:"substitutes"`
}

// KnowledgeBase 正規化後的唯讀知識庫，可跨 goroutine 共用
type KnowledgeBase struct {
	ingredients map[string]IngredientInfo
	allergens   map[string]map[string]bool
	substitutes map[string][]Candidate
}

var (
	defaultKB     *KnowledgeBase
	defaultKBErr  error
	defaultKBOnce sync.Once
)

// DefaultKnowledgeBase 回傳內嵌的知識庫
func DefaultKnowledgeBase() (*KnowledgeBase, error) {
	defaultKBOnce.Do(func() {
		defaultKB, defaultKBErr = LoadKnowledgeFS(knowledgeFS)
	})
	return defaultKB, defaultKBErr
}

// LoadKnowledgeFS 從檔案系統讀取三個知識庫檔案
func LoadKnowledgeFS(fsys fs.FS) (*KnowledgeBase, error) {
	var data KnowledgeData
	files := []struct {
		path string
		dst  interface{}
	}{
		{ingredientsFile, &data.Ingredients},
		{allergensFile, &data.Allergens},
		{rulesFile, &data.Substitutes},
	}
	for _, f := range files {
		raw, err := fs.ReadFile(fsys, f.path)
		if err != nil {
			return nil, common.ErrInternalError.WithMessage("read %s", f.path).Wrap(err)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, common.ErrInternalError.WithMessage("decode %s", f.path).Wrap(err)
		}
	}
	return NewKnowledgeBase(data)
}

// NewKnowledgeBase 驗證並正規化知識庫資料
func NewKnowledgeBase(data KnowledgeData) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		ingredients: make(map[string]IngredientInfo, len(data.Ingredients)),
		allergens:   make(map[string]map[string]bool, len(data.Allergens)),
		substitutes: make(map[string][]Candidate, len(data.Substitutes)),
	}

	for name, info := range data.Ingredients {
		key := common.NormalizeName(name)
		if key == "" {
			return nil, common.ErrInternalError.WithMessage("knowledge: empty ingredient name")
		}
		kb.ingredients[key] = IngredientInfo{
			Categories: normalizeSet(info.Categories),
			Flavor:     copyFlavor(info.Flavor),
		}
	}

	for tag, names := range data.Allergens {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			if key := common.NormalizeName(n); key != "" {
				set[key] = true
			}
		}
		kb.allergens[common.NormalizeName(tag)] = set
	}

	for name, candidates := range data.Substitutes {
		key := common.NormalizeName(name)
		list := make([]Candidate, 0, len(candidates))
		for _, c := range candidates {
			c.Name = common.NormalizeName(c.Name)
			if c.Name == "" {
				return nil, common.ErrInternalError.WithMessage("knowledge: empty candidate for %q", name)
			}
			if c.Confidence < 0 || c.Confidence > 1 {
				return nil, common.ErrInternalError.WithMessage("knowledge: confidence of %q for %q out of range", c.Name, name)
			}
			c.Categories = normalizeSet(c.Categories)
			c.Flavor = copyFlavor(c.Flavor)
			list = append(list, c)
		}
		kb.substitutes[key] = list
	}

	return kb, nil
}

// Categories 食材分類，合併食譜提供的分類與詞庫分類
func (kb *KnowledgeBase) Categories(name string, extra []string) []string {
	merged := append([]string{}, extra...)
	if info, ok := kb.ingredients[common.NormalizeName(name)]; ok {
		merged = append(merged, info.Categories...)
	}
	return normalizeSet(merged)
}

// IsAllergen 名稱完全比對過敏原清單，或分類包含過敏原標籤
func (kb *KnowledgeBase) IsAllergen(name string, categories []string, allergen string) bool {
	tag := common.NormalizeName(allergen)
	if kb.allergens[tag][common.NormalizeName(name)] {
		return true
	}
	for _, c := range categories {
		if c == tag {
			return true
		}
	}
	return false
}

// Candidates 候選副本，順序與資料相同
func (kb *KnowledgeBase) Candidates(name string) []Candidate {
	src := kb.substitutes[common.NormalizeName(name)]
	out := make([]Candidate, len(src))
	for i, c := range src {
		out[i] = c
		out[i].Categories = append([]string(nil), c.Categories...)
		out[i].Flavor = copyFlavor(c.Flavor)
	}
	return out
}

func normalizeSet(in []string) []string {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		if s = common.NormalizeName(s); s != "" {
			set[s] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func copyFlavor(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[common.NormalizeName(k)] = v
	}
	return out
}
