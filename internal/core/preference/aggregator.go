// Package preference 將使用者偏好整合為不可變的快照
package preference

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"recipe-customizer/internal/pkg/common"
)

// Snapshot 單次客製化請求的偏好快照，建立後不可修改
type Snapshot struct {
	dietary   DietaryType
	allergens []Allergen // 已排序
	blocked   []string   // 已正規化、排序
	flavors   map[Flavor]float64
}

// Aggregate 驗證並合併偏好設定
func Aggregate(dietaryType string, allergens, blockedIngredients []string, flavorPreferences map[string]float64) (Snapshot, error) {
	dietary, ok := ParseDietaryType(strings.ToLower(strings.TrimSpace(dietaryType)))
	if !ok {
		return Snapshot{}, common.ErrInvalidPreference.WithMessage("unknown dietary type %q", dietaryType)
	}

	allergenSet := make(map[Allergen]bool, len(allergens))
	for _, raw := range allergens {
		a, ok := ParseAllergen(strings.ToLower(strings.TrimSpace(raw)))
		if !ok {
			return Snapshot{}, common.ErrInvalidPreference.WithMessage("unknown allergen %q", raw)
		}
		allergenSet[a] = true
	}
	sortedAllergens := make([]Allergen, 0, len(allergenSet))
	for _, a := range Allergens {
		if allergenSet[a] {
			sortedAllergens = append(sortedAllergens, a)
		}
	}

	blockedSet := make(map[string]bool, len(blockedIngredients))
	for _, raw := range blockedIngredients {
		if name := common.NormalizeName(raw); name != "" {
			blockedSet[name] = true
		}
	}
	blocked := make([]string, 0, len(blockedSet))
	for name := range blockedSet {
		blocked = append(blocked, name)
	}
	sort.Strings(blocked)

	flavors := make(map[Flavor]float64, len(Flavors))
	for _, f := range Flavors {
		flavors[f] = NeutralIntensity
	}
	for key, value := range flavorPreferences {
		f, ok := ParseFlavor(strings.ToLower(strings.TrimSpace(key)))
		if !ok {
			return Snapshot{}, common.ErrInvalidPreference.WithMessage("unknown flavor %q", key)
		}
		// 超出範圍直接拒絕，不做截斷
		if math.IsNaN(value) || value < 0 || value > 1 {
			return Snapshot{}, common.ErrInvalidPreference.WithMessage("flavor %q must be within [0,1], got %v", key, value)
		}
		flavors[f] = value
	}

	return Snapshot{
		dietary:   dietary,
		allergens: sortedAllergens,
		blocked:   blocked,
		flavors:   flavors,
	}, nil
}

// MustAggregate 測試與種子資料使用，失敗時 panic
func MustAggregate(dietaryType string, allergens, blockedIngredients []string, flavorPreferences map[string]float64) Snapshot {
	s, err := Aggregate(dietaryType, allergens, blockedIngredients, flavorPreferences)
	if err != nil {
		panic(err)
	}
	return s
}

// DietaryType 飲食類型
func (s Snapshot) DietaryType() DietaryType {
	return s.dietary
}

// Allergens 過敏原（排序後的副本）
func (s Snapshot) Allergens() []Allergen {
	out := make([]Allergen, len(s.allergens))
	copy(out, s.allergens)
	return out
}

// HasAllergen 是否排除該過敏原
func (s Snapshot) HasAllergen(a Allergen) bool {
	for _, x := range s.allergens {
		if x == a {
			return true
		}
	}
	return false
}

// BlockedIngredients 封鎖食材（排序後的副本）
func (s Snapshot) BlockedIngredients() []string {
	out := make([]string, len(s.blocked))
	copy(out, s.blocked)
	return out
}

// IsBlocked 以不分大小寫的完全比對判斷食材是否被封鎖
func (s Snapshot) IsBlocked(name string) bool {
	key := common.NormalizeName(name)
	i := sort.SearchStrings(s.blocked, key)
	return i < len(s.blocked) && s.blocked[i] == key
}

// Flavor 風味強度；零值快照回傳中性值
func (s Snapshot) Flavor(f Flavor) float64 {
	if v, ok := s.flavors[f]; ok {
		return v
	}
	return NeutralIntensity
}

// Flavors 風味強度副本
func (s Snapshot) Flavors() map[Flavor]float64 {
	out := make(map[Flavor]float64, len(Flavors))
	for _, f := range Flavors {
		out[f] = s.Flavor(f)
	}
	return out
}

// Fingerprint 穩定的快照字串，用於快取鍵
func (s Snapshot) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString(string(s.dietary))
	sb.WriteString("|")
	for i, a := range s.allergens {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(string(a))
	}
	sb.WriteString("|")
	for i, b := range s.blocked {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(strconv.Quote(b))
	}
	sb.WriteString("|")
	for i, f := range Flavors {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("%s=%s", f, strconv.FormatFloat(s.Flavor(f), 'f', -1, 64)))
	}
	return sb.String()
}

// wireSnapshot 對外 JSON 格式
type wireSnapshot struct {
	DietaryType        string             `json:"dietary_type"`
	Allergens          []string           `json:"allergens"`
	BlockedIngredients []string           `json:"blocked_ingredients"`
	FlavorPreferences  map[string]float64 `json:"flavor_preferences"`
}

// MarshalJSON 輸出與 /api/customize/ 請求相同的欄位
func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := wireSnapshot{
		DietaryType:        string(s.dietary),
		Allergens:          make([]string, len(s.allergens)),
		BlockedIngredients: s.BlockedIngredients(),
		FlavorPreferences:  make(map[string]float64, len(Flavors)),
	}
	for i, a := range s.allergens {
		w.Allergens[i] = string(a)
	}
	for _, f := range Flavors {
		w.FlavorPreferences[string(f)] = s.Flavor(f)
	}
	return json.Marshal(w)
}

// UnmarshalJSON 以 Aggregate 的規則重新驗證
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := Aggregate(w.DietaryType, w.Allergens, w.BlockedIngredients, w.FlavorPreferences)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
