package cmd

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-customizer/internal/api"
	"recipe-customizer/internal/core/catalog"
	"recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/infrastructure/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSearchOffline(t *testing.T) {
	out, err := run(t, "search", "pa")
	require.NoError(t, err)
	assert.Contains(t, out, "Pad Thai")
	assert.Contains(t, out, "Pancakes")
	assert.NotContains(t, out, "Beef Tacos")

	out, err = run(t, "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No recipes found")
}

func TestShowOffline(t *testing.T) {
	out, err := run(t, "show", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Pasta Carbonara (4)")
	assert.Contains(t, out, "bacon")
	assert.Contains(t, out, "Instructions:")

	_, err = run(t, "show", "999")
	assert.Error(t, err)
}

func TestCustomizeOffline(t *testing.T) {
	out, err := run(t, "customize", "5", "--dietary", "vegan", "--allergen", "nuts", "-f", "sweet=0.8")
	require.NoError(t, err)
	assert.Contains(t, out, "Pancakes (5)")
	assert.Contains(t, out, "milk ->")
	assert.Contains(t, out, "honey ->")
	assert.NotContains(t, out, "almond milk")
}

func TestCustomizeRejectsBadInput(t *testing.T) {
	_, err := run(t, "customize", "5", "--flavor", "spicy=hot")
	assert.Error(t, err)

	_, err = run(t, "customize", "5", "--dietary", "carnivore")
	assert.Error(t, err)

	_, err = run(t, "customize")
	assert.Error(t, err)
}

func TestRemoteServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)
	cfg.RateLimit.Enabled = false

	store, err := catalog.NewSeededMemoryStore()
	require.NoError(t, err)
	resolver, err := substitution.NewLocalResolver(nil)
	require.NoError(t, err)
	srv := httptest.NewServer(api.SetupRouter(cfg, api.Dependencies{
		Catalog:   store,
		Customize: customize.NewService(store, resolver),
	}))
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "search", "Cash")
	require.NoError(t, err)
	assert.Contains(t, out, "Cashew Stir Fry")

	out, err = run(t, "--server", srv.URL, "customize", "8", "-d", "vegan", "-a", "nuts")
	require.NoError(t, err)
	assert.Contains(t, out, "cashews ->")
	assert.Contains(t, out, "sunflower seeds")
}
