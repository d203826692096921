package preference

// DietaryType 飲食類型
type DietaryType string

const (
	NonVegetarian DietaryType = "non-vegetarian"
	Vegetarian    DietaryType = "vegetarian"
	Vegan         DietaryType = "vegan"
	Pescatarian   DietaryType = "pescatarian"
)

// Allergen 過敏原標籤
type Allergen string

const (
	Dairy     Allergen = "dairy"
	Nuts      Allergen = "nuts"
	Gluten    Allergen = "gluten"
	Soy       Allergen = "soy"
	Eggs      Allergen = "eggs"
	Shellfish Allergen = "shellfish"
)

// Flavor 風味維度
type Flavor string

const (
	Spicy  Flavor = "spicy"
	Sweet  Flavor = "sweet"
	Sour   Flavor = "sour"
	Bitter Flavor = "bitter"
	Umami  Flavor = "umami"
)

// NeutralIntensity 未指定風味時的預設強度
const NeutralIntensity = 0.5

var (
	// DietaryTypes 所有飲食類型
	DietaryTypes = []DietaryType{NonVegetarian, Vegetarian, Vegan, Pescatarian}
	// Allergens 所有過敏原（已排序）
	Allergens = []Allergen{Dairy, Eggs, Gluten, Nuts, Shellfish, Soy}
	// Flavors 所有風味維度（固定順序）
	Flavors = []Flavor{Spicy, Sweet, Sour, Bitter, Umami}

	// 前端沿用的別名
	dietaryAliases = map[string]DietaryType{
		"non-veg":        NonVegetarian,
		"nonveg":         NonVegetarian,
		"non_vegetarian": NonVegetarian,
	}
)

// ParseDietaryType 解析飲食類型
func ParseDietaryType(s string) (DietaryType, bool) {
	for _, d := range DietaryTypes {
		if string(d) == s {
			return d, true
		}
	}
	d, ok := dietaryAliases[s]
	return d, ok
}

// ParseAllergen 解析過敏原
func ParseAllergen(s string) (Allergen, bool) {
	for _, a := range Allergens {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// ParseFlavor 解析風味維度
func ParseFlavor(s string) (Flavor, bool) {
	for _, f := range Flavors {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}
