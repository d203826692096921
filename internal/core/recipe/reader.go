package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"recipe-customizer/internal/pkg/common"
)

// RawRecipe 來源資料的食譜格式，欄位皆可能缺漏
type RawRecipe struct {
	ID           interface{}     `json:"id"`
	Name         string          `json:"name"`
	Cuisine      string          `json:"cuisine"`
	Ingredients  []RawIngredient `json:"ingredients"`
	Instructions []string        `json:"instructions"`
	Steps        []string        `json:"steps"` // 舊版 DTO 使用 steps
	DietaryTags  []string        `json:"dietary_tags"`
	PrepTime     interface{}     `json:"prep_time"`
	PrepTimeAlt  interface{}     `json:"prepTime"`
	Servings     interface{}     `json:"servings"`
}

// RawIngredient 來源資料的食材，可為物件或純字串
type RawIngredient struct {
	Name       string
	Quantity   string
	Unit       string
	Categories []string
}

// UnmarshalJSON 支援 "salt" 與 {"name":"salt","quantity":1} 兩種格式
func (ri *RawIngredient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*ri = RawIngredient{Name: name}
		return nil
	}

	var obj struct {
		Name       string      `json:"name"`
		Quantity   interface{} `json:"quantity"`
		Amount     interface{} `json:"amount"`
		Unit       string      `json:"unit"`
		Categories []string    `json:"categories"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return err
	}

	quantity := obj.Quantity
	if quantity == nil {
		quantity = obj.Amount
	}
	q, err := scalarString(quantity)
	if err != nil {
		return fmt.Errorf("ingredient %q quantity: %w", obj.Name, err)
	}

	*ri = RawIngredient{
		Name:       obj.Name,
		Quantity:   q,
		Unit:       obj.Unit,
		Categories: obj.Categories,
	}
	return nil
}

// Parse 解析並驗證 JSON 食譜
func Parse(data []byte) (Recipe, error) {
	var raw RawRecipe
	if err := common.ParseJSONBytes(data, &raw); err != nil {
		return Recipe{}, common.ErrMalformedRecipe.Wrap(err)
	}
	return FromRaw(raw)
}

// ParseList 解析 JSON 陣列，遇到第一筆無效資料即失敗
func ParseList(data []byte) ([]Recipe, error) {
	var raws []RawRecipe
	if err := common.ParseJSONBytes(data, &raws); err != nil {
		return nil, common.ErrMalformedRecipe.Wrap(err)
	}
	out := make([]Recipe, 0, len(raws))
	for i, raw := range raws {
		r, err := FromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("recipe #%d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// FromRaw 驗證並正規化來源食譜
func FromRaw(raw RawRecipe) (Recipe, error) {
	id, err := normalizeID(raw.ID)
	if err != nil {
		return Recipe{}, err
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: name is required", id)
	}

	if len(raw.Ingredients) == 0 {
		return Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: at least one ingredient is required", id)
	}

	ingredients := make([]Ingredient, len(raw.Ingredients))
	for i, ri := range raw.Ingredients {
		ingName := strings.Join(strings.Fields(ri.Name), " ")
		if ingName == "" {
			return Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: ingredient #%d has an empty name", id, i+1)
		}
		ingredients[i] = Ingredient{
			Name:       ingName,
			Quantity:   strings.TrimSpace(ri.Quantity),
			Unit:       strings.TrimSpace(ri.Unit),
			Categories: normalizeSet(ri.Categories),
		}
	}

	steps := raw.Instructions
	if len(steps) == 0 {
		steps = raw.Steps
	}
	instructions := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			instructions = append(instructions, s)
		}
	}

	prep := raw.PrepTime
	if prep == nil {
		prep = raw.PrepTimeAlt
	}
	prepTime, err := normalizePrepTime(prep)
	if err != nil {
		return Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: prep time: %v", id, err)
	}

	servings, err := normalizeServings(raw.Servings)
	if err != nil {
		return Recipe{}, common.ErrMalformedRecipe.WithMessage("recipe %s: servings: %v", id, err)
	}

	tags := normalizeSet(raw.DietaryTags)
	if tags == nil {
		tags = []string{}
	}

	return Recipe{
		ID:           id,
		Name:         name,
		Cuisine:      strings.TrimSpace(raw.Cuisine),
		Ingredients:  ingredients,
		Instructions: instructions,
		DietaryTags:  tags,
		PrepTime:     prepTime,
		Servings:     servings,
	}, nil
}

// normalizeID 識別碼可為字串或數字
func normalizeID(v interface{}) (string, error) {
	var id string
	switch t := v.(type) {
	case nil:
	case string:
		id = strings.TrimSpace(t)
	case json.Number:
		id = t.String()
	case float64:
		id = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		id = strconv.Itoa(t)
	default:
		return "", common.ErrMalformedRecipe.WithMessage("recipe id has unsupported type %T", v)
	}
	if id == "" {
		return "", common.ErrMalformedRecipe.WithMessage("recipe id is required")
	}
	return id, nil
}

func normalizePrepTime(v interface{}) (*string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, nil
		}
		return &t, nil
	case json.Number, float64, int:
		// 純數字視為分鐘
		s, _ := scalarString(t)
		s += " min"
		return &s, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func normalizeServings(v interface{}) (*int, error) {
	var n int
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", t.String())
		}
		n = int(i)
	case float64:
		if t != float64(int(t)) {
			return nil, fmt.Errorf("%v is not an integer", t)
		}
		n = int(t)
	case int:
		n = t
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, nil
		}
		i, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", t)
		}
		n = i
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
	if n <= 0 {
		return nil, fmt.Errorf("must be positive, got %d", n)
	}
	return &n, nil
}

// scalarString 數量欄位轉為原始文字
func scalarString(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}

// normalizeSet 小寫、去空白、去重，保留首次出現順序
func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = common.NormalizeName(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
