package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/infrastructure/config"
	"recipe-customizer/internal/pkg/common"
)

func newNarrator(url string) *OpenRouter {
	return NewOpenRouter(&config.NarratorConfig{
		APIKey:    "sk-test",
		Model:     "test-model",
		MaxTokens: 100,
		BaseURL:   url,
		Timeout:   time.Second,
	})
}

var sampleResult = substitution.Result{
	Summary:       "Made 1 substitution:\n- butter → olive oil\n",
	Substitutions: []substitution.Substitution{{Original: "butter", Substitute: "olive oil", Reason: "Common vegan alternative"}},
}

func TestNarrateRewritesSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "butter -> olive oil")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"  Swapped butter for olive oil. "}}]}`))
	}))
	defer srv.Close()

	out, err := newNarrator(srv.URL).Narrate(context.Background(), recipe.Recipe{Name: "Toast"}, sampleResult)
	require.NoError(t, err)
	assert.Equal(t, "Swapped butter for olive oil.", out)
}

func TestNarrateSkipsWhenNothingChanged(t *testing.T) {
	out, err := newNarrator("http://127.0.0.1:1").Narrate(context.Background(), recipe.Recipe{}, substitution.Result{Summary: "No substitutions needed"})
	require.NoError(t, err)
	assert.Equal(t, "No substitutions needed", out)
}

func TestNarrateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream error", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newNarrator(srv.URL).Narrate(context.Background(), recipe.Recipe{}, sampleResult)
			assert.True(t, errors.Is(err, common.ErrServiceUnavailable), "got %v", err)
		})
	}
}
