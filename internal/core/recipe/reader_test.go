package recipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-customizer/internal/pkg/common"
)

func TestParseValidRecipe(t *testing.T) {
	data := []byte(`{
		"id": 1,
		"name": "  Chicken Pasta ",
		"cuisine": "Italian",
		"ingredients": [
			{"name": "Chicken", "quantity": 200, "unit": "g", "categories": ["Meat", "protein", "meat"]},
			{"name": "pasta", "quantity": "300", "unit": "g"},
			"salt"
		],
		"instructions": ["Cook pasta", "  ", "Serve"],
		"dietary_tags": ["High-Protein"],
		"prepTime": "30 min",
		"servings": 4
	}`)

	r, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "1", r.ID)
	assert.Equal(t, "Chicken Pasta", r.Name)
	assert.Equal(t, []string{"Chicken", "pasta", "salt"}, r.IngredientNames())
	assert.Equal(t, "200", r.Ingredients[0].Quantity)
	assert.Equal(t, []string{"meat", "protein"}, r.Ingredients[0].Categories)
	assert.Equal(t, "", r.Ingredients[2].Quantity)
	assert.Equal(t, "", r.Ingredients[2].Unit)
	assert.Equal(t, []string{"Cook pasta", "Serve"}, r.Instructions)
	assert.Equal(t, []string{"high-protein"}, r.DietaryTags)
	require.NotNil(t, r.PrepTime)
	assert.Equal(t, "30 min", *r.PrepTime)
	require.NotNil(t, r.Servings)
	assert.Equal(t, 4, *r.Servings)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing id", `{"name":"x","ingredients":["salt"]}`},
		{"blank id", `{"id":"  ","name":"x","ingredients":["salt"]}`},
		{"missing name", `{"id":"1","ingredients":["salt"]}`},
		{"no ingredients", `{"id":"1","name":"x","ingredients":[]}`},
		{"empty ingredient name", `{"id":"1","name":"x","ingredients":[{"name":"  ","quantity":"1"}]}`},
		{"bad servings", `{"id":"1","name":"x","ingredients":["salt"],"servings":"four"}`},
		{"negative servings", `{"id":"1","name":"x","ingredients":["salt"],"servings":-2}`},
		{"bad id type", `{"id":true,"name":"x","ingredients":["salt"]}`},
		{"not json", `{"id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrMalformedRecipe), "got %v", err)
		})
	}
}

func TestParseNumericPrepTimeAndStepsAlias(t *testing.T) {
	r, err := Parse([]byte(`{"id":"7","name":"Soup","ingredients":["water"],"steps":["Boil"],"prep_time":15}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Boil"}, r.Instructions)
	require.NotNil(t, r.PrepTime)
	assert.Equal(t, "15 min", *r.PrepTime)
	assert.Nil(t, r.Servings)
	assert.Equal(t, []string{}, r.DietaryTags)
}

func TestParseList(t *testing.T) {
	list, err := ParseList([]byte(`[{"id":"1","name":"a","ingredients":["x"]},{"id":"2","name":"b","ingredients":["y"]}]`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = ParseList([]byte(`[{"id":"1","name":"a","ingredients":["x"]},{"id":"2","name":"b","ingredients":[]}]`))
	assert.True(t, errors.Is(err, common.ErrMalformedRecipe))
}

func TestDerivedRecipesDoNotAlias(t *testing.T) {
	r, err := Parse([]byte(`{"id":"1","name":"a","ingredients":[{"name":"butter","categories":["dairy"]}],"instructions":["Melt butter"]}`))
	require.NoError(t, err)

	next := r.WithIngredients([]Ingredient{{Name: "olive oil"}})
	next.Ingredients[0].Name = "changed"
	clone := r.Clone()
	clone.Ingredients[0].Categories[0] = "changed"
	clone.Instructions[0] = "changed"

	assert.Equal(t, "butter", r.Ingredients[0].Name)
	assert.Equal(t, "dairy", r.Ingredients[0].Categories[0])
	assert.Equal(t, "Melt butter", r.Instructions[0])
}

func TestHasIngredientIsExactCaseInsensitive(t *testing.T) {
	r := Recipe{ID: "1", Name: "a", Ingredients: []Ingredient{{Name: "Chicken Breast"}}}

	assert.True(t, r.HasIngredient("chicken breast"))
	assert.True(t, r.HasIngredient("  CHICKEN   breast"))
	assert.False(t, r.HasIngredient("chicken"))
}

func TestIngredientText(t *testing.T) {
	assert.Equal(t, "200 g chicken", Ingredient{Name: "chicken", Quantity: "200", Unit: "g"}.Text())
	assert.Equal(t, "salt", Ingredient{Name: "salt"}.Text())
}
