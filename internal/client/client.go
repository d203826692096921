// Package client 食譜客製化 API 的 HTTP 客戶端
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/core/presenter"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/pkg/common"
)

// SessionHeader 用於伺服器端世代判斷的標頭
const SessionHeader = "X-Session-ID"

// Client 客製化 API 客戶端，亦可作為 catalog.Store 使用
type Client struct {
	http *resty.Client
}

// wireResponse 上游回應；modified_recipe 可能缺少 id
type wireResponse struct {
	Success        bool                        `json:"success"`
	Summary        string                      `json:"summary"`
	Substitutions  []substitution.Substitution `json:"substitutions"`
	ModifiedRecipe json.RawMessage             `json:"modified_recipe"`
	Display        *presenter.DisplayModel     `json:"display"`
	Generation     uint64                      `json:"generation"`
	Cached         bool                        `json:"cached"`
}

// New 創建客戶端
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// SearchRecipes GET /api/recipes/search
func (c *Client) SearchRecipes(ctx context.Context, query string) ([]recipe.Recipe, error) {
	var out struct {
		Recipes []json.RawMessage `json:"recipes"`
	}
	if err := c.get(ctx, "/api/recipes/search", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	recipes := make([]recipe.Recipe, 0, len(out.Recipes))
	for _, raw := range out.Recipes {
		r, err := recipe.Parse(raw)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// GetRecipe GET /api/recipes/:id
func (c *Client) GetRecipe(ctx context.Context, id string) (recipe.Recipe, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/recipes/"+url.PathEscape(strings.TrimSpace(id)), nil, &raw); err != nil {
		return recipe.Recipe{}, err
	}
	return recipe.Parse(raw)
}

// Get 實作 catalog.Store
func (c *Client) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	return c.GetRecipe(ctx, id)
}

// Search 實作 catalog.Store
func (c *Client) Search(ctx context.Context, query string) ([]recipe.Recipe, error) {
	return c.SearchRecipes(ctx, query)
}

// Customize POST /api/customize/；fallbackID 用於補上缺少的 modified_recipe.id
func (c *Client) Customize(ctx context.Context, session string, req customize.Request, fallbackID string) (*customize.Response, error) {
	var out wireResponse
	var apiErr common.ErrorResponse
	r := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr)
	if session != "" {
		r.SetHeader(SessionHeader, session)
	}

	start := time.Now()
	resp, err := r.Post("/api/customize/")
	common.LogUpstreamCall("customize", "/api/customize/", time.Since(start), err)
	if err != nil {
		return nil, common.ErrServiceUnavailable.WithMessage("customize request failed").Wrap(err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), apiErr)
	}

	modified, err := decodeModified(out.ModifiedRecipe, fallbackID)
	if err != nil {
		return nil, err
	}

	return &customize.Response{
		Success:        out.Success,
		Summary:        out.Summary,
		Substitutions:  out.Substitutions,
		ModifiedRecipe: modified,
		Display:        out.Display,
		Generation:     out.Generation,
		Cached:         out.Cached,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, dst interface{}) error {
	var apiErr common.ErrorResponse
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(dst).
		SetError(&apiErr).
		Get(path)
	common.LogUpstreamCall("catalog", path, time.Since(start), err)
	if err != nil {
		return common.ErrServiceUnavailable.WithMessage("request %s failed", path).Wrap(err)
	}
	if resp.IsError() {
		return statusError(resp.StatusCode(), apiErr)
	}
	return nil
}

// decodeModified 經由 recipe.FromRaw 驗證上游回傳的食譜
func decodeModified(data json.RawMessage, fallbackID string) (recipe.Recipe, error) {
	var raw recipe.RawRecipe
	if err := common.ParseJSONBytes(data, &raw); err != nil {
		return recipe.Recipe{}, common.ErrInconsistentResult.Wrap(err)
	}
	if raw.ID == nil || raw.ID == "" {
		raw.ID = fallbackID
	}
	r, err := recipe.FromRaw(raw)
	if err != nil {
		return recipe.Recipe{}, common.ErrInconsistentResult.Wrap(err)
	}
	return r, nil
}

// statusError 依狀態碼還原伺服器端錯誤
func statusError(status int, body common.ErrorResponse) error {
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return common.ErrNotFound.WithMessage("%s", msg)
	case http.StatusBadRequest:
		if body.Code == common.ErrCodeInvalidPreference {
			return common.ErrInvalidPreference.WithMessage("%s", msg)
		}
		return common.ErrInvalidRequest.WithMessage("%s", msg)
	case http.StatusUnprocessableEntity:
		if body.Code == common.ErrCodeMalformedRecipe {
			return common.ErrMalformedRecipe.WithMessage("%s", msg)
		}
		return common.ErrResolution.WithMessage("%s", msg)
	case http.StatusConflict:
		return common.ErrStaleResult.WithMessage("%s", msg)
	case http.StatusTooManyRequests:
		return common.ErrTooManyRequests.WithMessage("%s", msg)
	default:
		return common.ErrServiceUnavailable.WithMessage("upstream returned %d: %s", status, msg)
	}
}
