package presenter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-customizer/internal/core/preference"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/pkg/common"
)

func sampleRecipe() recipe.Recipe {
	return recipe.Recipe{
		ID:   "1",
		Name: "Chicken Pasta",
		Ingredients: []recipe.Ingredient{
			{Name: "Chicken", Quantity: "200", Unit: "g"},
			{Name: "pasta", Quantity: "300", Unit: "g"},
		},
		Instructions: []string{"Cook chicken", "Boil pasta"},
	}
}

func TestPresentPairsSubstitutions(t *testing.T) {
	orig := sampleRecipe()
	res := substitution.Result{
		Summary:       "Made 1 substitution:\n- chicken → tofu\n",
		Substitutions: []substitution.Substitution{{Original: "chicken", Substitute: "tofu", Reason: "Common vegan alternative", Confidence: 0.85}},
		ModifiedRecipe: orig.WithIngredients([]recipe.Ingredient{
			{Name: "tofu", Quantity: "200", Unit: "g"},
			{Name: "pasta", Quantity: "300", Unit: "g"},
		}).WithInstructions([]string{"Cook tofu", "Boil pasta"}),
	}

	dm, err := Present(orig, res)
	require.NoError(t, err)

	require.Len(t, dm.Lines, 2)
	assert.True(t, dm.Lines[0].Substituted)
	assert.Equal(t, "200 g Chicken", dm.Lines[0].Text())
	assert.Equal(t, "200 g tofu", dm.Lines[0].SubstituteText())
	assert.Equal(t, 0.85, dm.Lines[0].Confidence)
	assert.False(t, dm.Lines[1].Substituted)
	assert.Equal(t, "", dm.Lines[1].SubstituteText())
	assert.Equal(t, []string{"Cook tofu", "Boil pasta"}, dm.Instructions)
	assert.Equal(t, "Made 1 substitution:\n- chicken → tofu", dm.Summary)
	assert.Equal(t, "Chicken Pasta", dm.Title)
}

func TestPresentFallsBackToOriginalInstructions(t *testing.T) {
	orig := sampleRecipe()
	dm, err := Present(orig, substitution.Result{Summary: "No substitutions needed", ModifiedRecipe: recipe.Recipe{ID: "1"}})
	require.NoError(t, err)
	assert.Equal(t, orig.Instructions, dm.Instructions)

	dm.Instructions[0] = "changed"
	assert.Equal(t, "Cook chicken", orig.Instructions[0])
}

func TestPresentRejectsUnknownOriginal(t *testing.T) {
	res := substitution.Result{
		Substitutions: []substitution.Substitution{{Original: "beef", Substitute: "lentils"}},
	}
	_, err := Present(sampleRecipe(), res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInconsistentResult))
	assert.Equal(t, "customization failed", common.AsCustomError(err).Message)
}

func TestPresentRejectsConflictingSubstitutes(t *testing.T) {
	orig := recipe.Recipe{ID: "2", Name: "Toast", Ingredients: []recipe.Ingredient{{Name: "butter"}, {Name: "Butter"}}}
	res := substitution.Result{
		Substitutions: []substitution.Substitution{
			{Original: "butter", Substitute: "vegan butter"},
			{Original: "Butter", Substitute: "olive oil"},
		},
	}
	_, err := Present(orig, res)
	assert.True(t, errors.Is(err, common.ErrInconsistentResult), "got %v", err)
}

func TestPresentAgreesWithResolverOnRepeatedIngredient(t *testing.T) {
	orig := recipe.Recipe{
		ID:   "3",
		Name: "Shortbread",
		Ingredients: []recipe.Ingredient{
			{Name: "butter", Quantity: "100", Unit: "g"},
			{Name: "salt"},
			{Name: "Butter", Quantity: "1", Unit: "tbsp"},
		},
		Instructions: []string{"Melt the butter."},
	}
	resolver, err := substitution.NewLocalResolver(nil)
	require.NoError(t, err)
	res, err := resolver.Resolve(context.Background(), orig, preference.MustAggregate("vegan", nil, nil, nil))
	require.NoError(t, err)

	dm, err := Present(orig, *res)
	require.NoError(t, err)
	require.Len(t, dm.Lines, 3)
	for i, line := range dm.Lines {
		if !line.Substituted {
			assert.Equal(t, res.ModifiedRecipe.Ingredients[i].Name, line.Name)
			continue
		}
		assert.Equal(t, res.ModifiedRecipe.Ingredients[i].Name, line.Substitute, "line %d", i)
	}
	assert.Equal(t, []string{"Melt the vegan butter."}, dm.Instructions)
}
