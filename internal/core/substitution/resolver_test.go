package substitution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-customizer/internal/core/preference"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/pkg/common"
)

func newResolver(t *testing.T) *LocalResolver {
	t.Helper()
	r, err := NewLocalResolver(nil)
	require.NoError(t, err)
	return r
}

func chickenRecipe() recipe.Recipe {
	return recipe.Recipe{
		ID:   "1",
		Name: "Butter Chicken",
		Ingredients: []recipe.Ingredient{
			{Name: "chicken breast", Quantity: "200", Unit: "g"},
			{Name: "butter", Quantity: "2", Unit: "tbsp"},
			{Name: "salt", Quantity: "1", Unit: "tsp"},
		},
		Instructions: []string{"Brown the Chicken Breast in butter.", "Season with salt."},
		DietaryTags:  []string{},
	}
}

func TestResolveVeganRecipe(t *testing.T) {
	res, err := newResolver(t).Resolve(context.Background(), chickenRecipe(), preference.MustAggregate("vegan", nil, nil, nil))
	require.NoError(t, err)

	require.Len(t, res.Substitutions, 2)
	assert.Equal(t, "chicken breast", res.Substitutions[0].Original)
	assert.Equal(t, "tofu", res.Substitutions[0].Substitute)
	assert.Equal(t, "Firm tofu takes on marinades like chicken", res.Substitutions[0].Reason)
	assert.Equal(t, "butter", res.Substitutions[1].Original)
	assert.Equal(t, "vegan butter", res.Substitutions[1].Substitute)
	assert.Equal(t, "Common vegan alternative", res.Substitutions[1].Reason)

	mod := res.ModifiedRecipe
	require.Len(t, mod.Ingredients, 3)
	assert.Equal(t, []string{"tofu", "vegan butter", "salt"}, mod.IngredientNames())
	assert.Equal(t, "200", mod.Ingredients[0].Quantity)
	assert.Equal(t, "g", mod.Ingredients[0].Unit)
	assert.Equal(t, []string{"Brown the tofu in vegan butter.", "Season with salt."}, mod.Instructions)
	assert.Equal(t, "Made 2 substitutions:\n- chicken breast → tofu\n- butter → vegan butter\n", res.Summary)
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	in := chickenRecipe()
	_, err := newResolver(t).Resolve(context.Background(), in, preference.MustAggregate("vegan", nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, chickenRecipe(), in)
}

func TestResolveNoViolations(t *testing.T) {
	res, err := newResolver(t).Resolve(context.Background(), chickenRecipe(), preference.MustAggregate("non-vegetarian", nil, nil, nil))
	require.NoError(t, err)
	assert.Empty(t, res.Substitutions)
	assert.Equal(t, "No substitutions needed", res.Summary)
	assert.Equal(t, chickenRecipe().Ingredients, res.ModifiedRecipe.Ingredients)
}

func TestResolveNutsUsesExactNames(t *testing.T) {
	r := recipe.Recipe{
		ID:   "2",
		Name: "Stir Fry",
		Ingredients: []recipe.Ingredient{
			{Name: "Cashews", Quantity: "50", Unit: "g"},
			{Name: "cashmere throw"},
			{Name: "rice"},
		},
	}
	res, err := newResolver(t).Resolve(context.Background(), r, preference.MustAggregate("non-vegetarian", []string{"nuts"}, nil, nil))
	require.NoError(t, err)

	require.Len(t, res.Substitutions, 1)
	assert.Equal(t, "Cashews", res.Substitutions[0].Original)
	assert.Equal(t, "sunflower seeds", res.Substitutions[0].Substitute)
	assert.Equal(t, "Free of nuts", res.Substitutions[0].Reason)
	assert.Equal(t, "cashmere throw", res.ModifiedRecipe.Ingredients[1].Name)
}

func TestResolveSkipsCandidatesWithHardViolations(t *testing.T) {
	// 對大豆過敏時 tofu 與 tempeh 都不可用
	res, err := newResolver(t).Resolve(context.Background(), chickenRecipe(), preference.MustAggregate("vegan", []string{"soy"}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "seitan", res.Substitutions[0].Substitute)

	res, err = newResolver(t).Resolve(context.Background(), chickenRecipe(), preference.MustAggregate("vegan", []string{"soy", "gluten"}, []string{"chickpeas"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "jackfruit", res.Substitutions[0].Substitute)
}

func TestResolveFailsWithoutPartialResult(t *testing.T) {
	kb, err := NewKnowledgeBase(KnowledgeData{
		Ingredients: map[string]IngredientInfo{"chicken breast": {Categories: []string{"meat"}}},
	})
	require.NoError(t, err)
	resolver, err := NewLocalResolver(kb)
	require.NoError(t, err)

	res, err := resolver.Resolve(context.Background(), chickenRecipe(), preference.MustAggregate("vegan", nil, nil, nil))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, common.ErrResolution))
	assert.Contains(t, err.Error(), "no vegan substitute available for chicken breast")
}

func TestResolveErrorMessages(t *testing.T) {
	kb, err := NewKnowledgeBase(KnowledgeData{
		Allergens: map[string][]string{"nuts": {"cashews"}},
	})
	require.NoError(t, err)
	resolver, _ := NewLocalResolver(kb)

	r := recipe.Recipe{ID: "1", Name: "x", Ingredients: []recipe.Ingredient{{Name: "cashews"}}}
	_, err = resolver.Resolve(context.Background(), r, preference.MustAggregate("vegan", []string{"nuts"}, nil, nil))
	assert.EqualError(t, err, "no nuts-free substitute available for cashews")

	r.Ingredients[0].Name = "cilantro"
	_, err = resolver.Resolve(context.Background(), r, preference.MustAggregate("vegan", nil, []string{"cilantro"}, nil))
	assert.EqualError(t, err, "no substitute available for blocked ingredient cilantro")
}

func TestResolveRecipeCategoriesCount(t *testing.T) {
	r := recipe.Recipe{ID: "1", Name: "x", Ingredients: []recipe.Ingredient{
		{Name: "mystery patty", Categories: []string{"meat"}},
	}}
	_, err := newResolver(t).Resolve(context.Background(), r, preference.MustAggregate("vegetarian", nil, nil, nil))
	assert.True(t, errors.Is(err, common.ErrResolution))
}

func TestResolveFlavorBreaksConfidenceTies(t *testing.T) {
	kb, err := NewKnowledgeBase(KnowledgeData{
		Ingredients: map[string]IngredientInfo{"beef": {Categories: []string{"meat"}}},
		Substitutes: map[string][]Candidate{"beef": {
			{Name: "sweet potato", Categories: []string{"vegan"}, Confidence: 0.7, Flavor: map[string]float64{"sweet": 0.9}},
			{Name: "mushrooms", Categories: []string{"vegan"}, Confidence: 0.7, Flavor: map[string]float64{"umami": 0.9}},
			{Name: "lentils", Categories: []string{"vegan"}, Confidence: 0.6, Flavor: map[string]float64{"umami": 1}},
		}},
	})
	require.NoError(t, err)
	resolver, _ := NewLocalResolver(kb)
	r := recipe.Recipe{ID: "1", Name: "x", Ingredients: []recipe.Ingredient{{Name: "beef"}}}

	res, err := resolver.Resolve(context.Background(), r, preference.MustAggregate("vegan", nil, nil, map[string]float64{"umami": 1}))
	require.NoError(t, err)
	assert.Equal(t, "mushrooms", res.Substitutions[0].Substitute)

	res, err = resolver.Resolve(context.Background(), r, preference.MustAggregate("vegan", nil, nil, map[string]float64{"sweet": 1}))
	require.NoError(t, err)
	assert.Equal(t, "sweet potato", res.Substitutions[0].Substitute)
}

func TestResolvePrefersCandidatesNotInRecipe(t *testing.T) {
	r := recipe.Recipe{ID: "1", Name: "x", Ingredients: []recipe.Ingredient{
		{Name: "chicken"},
		{Name: "tofu"},
	}}
	res, err := newResolver(t).Resolve(context.Background(), r, preference.MustAggregate("vegan", nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "tempeh", res.Substitutions[0].Substitute)
}

func TestResolveRepeatedIngredientSharesSubstitute(t *testing.T) {
	in := recipe.Recipe{
		ID:   "2",
		Name: "Shortbread",
		Ingredients: []recipe.Ingredient{
			{Name: "butter", Quantity: "100", Unit: "g"},
			{Name: "salt"},
			{Name: "Butter", Quantity: "1", Unit: "tbsp"},
		},
		Instructions: []string{"Melt the butter."},
	}
	res, err := newResolver(t).Resolve(context.Background(), in, preference.MustAggregate("vegan", nil, nil, nil))
	require.NoError(t, err)

	require.Len(t, res.Substitutions, 2)
	assert.Equal(t, "vegan butter", res.Substitutions[0].Substitute)
	assert.Equal(t, "vegan butter", res.Substitutions[1].Substitute)
	assert.Equal(t, []string{"vegan butter", "salt", "vegan butter"}, res.ModifiedRecipe.IngredientNames())
	assert.Equal(t, "1", res.ModifiedRecipe.Ingredients[2].Quantity)
	assert.Equal(t, []string{"Melt the vegan butter."}, res.ModifiedRecipe.Instructions)
}

func TestResolveIsDeterministic(t *testing.T) {
	resolver := newResolver(t)
	prefs := preference.MustAggregate("vegan", []string{"nuts", "gluten"}, nil, map[string]float64{"umami": 0.8})
	first, err := resolver.Resolve(context.Background(), chickenRecipe(), prefs)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := resolver.Resolve(context.Background(), chickenRecipe(), prefs)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveOriginalsComeFromRecipe(t *testing.T) {
	resolver := newResolver(t)
	r := recipe.Recipe{ID: "9", Name: "Everything", Ingredients: []recipe.Ingredient{
		{Name: "bacon"}, {Name: "eggs"}, {Name: "milk"}, {Name: "flour"}, {Name: "honey"}, {Name: "shrimp"}, {Name: "salt"},
	}}
	for _, diet := range preference.DietaryTypes {
		for _, a := range preference.Allergens {
			res, err := resolver.Resolve(context.Background(), r, preference.MustAggregate(string(diet), []string{string(a)}, nil, nil))
			if err != nil {
				assert.True(t, errors.Is(err, common.ErrResolution), "%s/%s: %v", diet, a, err)
				continue
			}
			require.Len(t, res.ModifiedRecipe.Ingredients, len(r.Ingredients))
			for _, s := range res.Substitutions {
				assert.True(t, r.HasIngredient(s.Original), "%s/%s: %s", diet, a, s.Original)
				assert.GreaterOrEqual(t, s.Confidence, 0.0)
				assert.LessOrEqual(t, s.Confidence, 1.0)
			}
		}
	}
}

func TestResolveHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newResolver(t).Resolve(ctx, chickenRecipe(), preference.MustAggregate("vegan", nil, nil, nil))
	assert.True(t, errors.Is(err, common.ErrRequestTimeout))
}

func TestRewriteInstructionsWholeWords(t *testing.T) {
	out := rewriteInstructions(
		[]string{"Add chicken and chicken breast; skip chickenpea.", "Whisk EGGS"},
		map[string]string{"chicken": "tofu", "chicken breast": "seitan", "eggs": "flax egg"},
	)
	assert.Equal(t, []string{"Add tofu and seitan; skip chickenpea.", "Whisk flax egg"}, out)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "No substitutions needed", Summarize(nil))
	assert.Equal(t, "Made 1 substitution:\n- a → b\n", Summarize([]Substitution{{Original: "a", Substitute: "b"}}))
}
