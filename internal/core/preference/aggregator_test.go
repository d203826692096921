package preference

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-customizer/internal/pkg/common"
)

func TestAggregateDefaults(t *testing.T) {
	s, err := Aggregate("vegan", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, Vegan, s.DietaryType())
	assert.Empty(t, s.Allergens())
	assert.Empty(t, s.BlockedIngredients())
	for _, f := range Flavors {
		assert.Equal(t, NeutralIntensity, s.Flavor(f))
	}
}

func TestAggregateNormalizesSets(t *testing.T) {
	s, err := Aggregate(" Vegetarian ",
		[]string{"nuts", "Dairy", "nuts", " dairy "},
		[]string{"Cilantro", "cilantro", "  ", "Blue   Cheese"},
		map[string]float64{"Spicy": 0.9},
	)
	require.NoError(t, err)

	assert.Equal(t, Vegetarian, s.DietaryType())
	assert.Equal(t, []Allergen{Dairy, Nuts}, s.Allergens())
	assert.Equal(t, []string{"blue cheese", "cilantro"}, s.BlockedIngredients())
	assert.True(t, s.IsBlocked("CILANTRO"))
	assert.False(t, s.IsBlocked("cilantro stems"))
	assert.Equal(t, 0.9, s.Flavor(Spicy))
	assert.Equal(t, NeutralIntensity, s.Flavor(Umami))
}

func TestAggregateAcceptsNonVegAlias(t *testing.T) {
	s, err := Aggregate("non-veg", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, NonVegetarian, s.DietaryType())
}

func TestAggregateIsIdempotent(t *testing.T) {
	args := func() (string, []string, []string, map[string]float64) {
		return "pescatarian", []string{"soy", "eggs", "soy"}, []string{"cilantro"}, map[string]float64{"sweet": 0.2, "umami": 1}
	}

	a, err := Aggregate(args())
	require.NoError(t, err)
	b, err := Aggregate(args())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestAggregateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		dietary string
		alg     []string
		flavors map[string]float64
	}{
		{"empty dietary type", "", nil, nil},
		{"unknown dietary type", "carnivore", nil, nil},
		{"unknown allergen", "vegan", []string{"sesame"}, nil},
		{"unknown flavor", "vegan", nil, map[string]float64{"salty": 0.5}},
		{"flavor below range", "vegan", nil, map[string]float64{"spicy": -0.01}},
		{"flavor above range", "vegan", nil, map[string]float64{"sweet": 1.0001}},
		{"flavor NaN", "vegan", nil, map[string]float64{"sour": math.NaN()}},
		{"flavor infinite", "vegan", nil, map[string]float64{"bitter": math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.dietary, tt.alg, nil, tt.flavors)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidPreference), "got %v", err)
		})
	}
}

func TestAggregateOutOfRangeGrid(t *testing.T) {
	for _, v := range []float64{-100, -1, -1e-9, 1 + 1e-9, 2, 42} {
		for _, f := range Flavors {
			_, err := Aggregate("vegan", nil, nil, map[string]float64{string(f): v})
			assert.True(t, errors.Is(err, common.ErrInvalidPreference), "%s=%v", f, v)
		}
	}
	for _, v := range []float64{0, 0.25, 1} {
		_, err := Aggregate("vegan", nil, nil, map[string]float64{"spicy": v})
		assert.NoError(t, err)
	}
}

func TestSnapshotAccessorsReturnCopies(t *testing.T) {
	s := MustAggregate("vegan", []string{"nuts"}, []string{"cilantro"}, nil)

	s.Allergens()[0] = Dairy
	s.BlockedIngredients()[0] = "changed"
	s.Flavors()[Spicy] = 1

	assert.Equal(t, []Allergen{Nuts}, s.Allergens())
	assert.Equal(t, []string{"cilantro"}, s.BlockedIngredients())
	assert.Equal(t, NeutralIntensity, s.Flavor(Spicy))
}

func TestSnapshotJSONRoundTripRevalidates(t *testing.T) {
	s := MustAggregate("vegetarian", []string{"gluten"}, []string{"olives"}, map[string]float64{"spicy": 0.8})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)

	err = json.Unmarshal([]byte(`{"dietary_type":"vegan","flavor_preferences":{"spicy":3}}`), &back)
	assert.True(t, errors.Is(err, common.ErrInvalidPreference))
}
