// Package narrator 透過 OpenRouter 把替換摘要改寫成自然語句
package narrator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/infrastructure/config"
	"recipe-customizer/internal/pkg/common"
)

// Narrator 改寫客製化摘要
type Narrator interface {
	Narrate(ctx context.Context, r recipe.Recipe, result substitution.Result) (string, error)
}

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request chat completions 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string    `json:"id"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message Message `json:"message"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// apiError OpenRouter 錯誤格式
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = "You rewrite recipe customization summaries for home cooks. " +
	"Keep every substitution listed, do not invent new ones, and answer in three sentences or fewer."

// OpenRouter 以 OpenRouter chat completions 實作 Narrator
type OpenRouter struct {
	client    *resty.Client
	model     string
	maxTokens int
}

// NewOpenRouter 創建 OpenRouter 摘要服務
func NewOpenRouter(cfg *config.NarratorConfig) *OpenRouter {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://recipe-customizer.local").
		SetHeader("X-Title", "Recipe Customizer")

	return &OpenRouter{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Narrate 沒有替換時直接回傳原摘要，不呼叫外部服務
func (o *OpenRouter) Narrate(ctx context.Context, r recipe.Recipe, result substitution.Result) (string, error) {
	if len(result.Substitutions) == 0 {
		return result.Summary, nil
	}

	req := Request{
		Model: o.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(r, result)},
		},
		MaxTokens:   o.maxTokens,
		Temperature: 0.3,
	}

	var out Response
	var apiErr apiError
	start := time.Now()
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	common.LogUpstreamCall("openrouter", "/chat/completions", time.Since(start), err)

	if err != nil {
		return "", common.ErrServiceUnavailable.WithMessage("failed to send request to OpenRouter").Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		common.LogWarn("OpenRouter returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", o.model),
			zap.String("error", apiErr.Error.Message),
		)
		return "", common.ErrServiceUnavailable.WithMessage("OpenRouter returned status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", common.ErrServiceUnavailable.WithMessage("empty choices in OpenRouter response")
	}

	common.LogDebug("Narrated customization summary",
		zap.String("model", o.model),
		zap.Int("total_tokens", out.Usage.TotalTokens),
	)
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func buildPrompt(r recipe.Recipe, result substitution.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Recipe: %s\n", r.Name)
	sb.WriteString("Substitutions:\n")
	for _, s := range result.Substitutions {
		fmt.Fprintf(&sb, "- %s -> %s (%s)\n", s.Original, s.Substitute, s.Reason)
	}
	return sb.String()
}
