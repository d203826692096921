// Package customize 串接偏好、食譜、替換解析與顯示，完成一次客製化
package customize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-customizer/internal/core/cache"
	"recipe-customizer/internal/core/catalog"
	"recipe-customizer/internal/core/narrator"
	"recipe-customizer/internal/core/preference"
	"recipe-customizer/internal/core/presenter"
	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/pkg/common"
	"recipe-customizer/internal/pkg/sequence"
)

// Service 客製化服務
type Service struct {
	catalog  catalog.Store
	resolver substitution.Resolver
	cache    cache.Store
	narrator narrator.Narrator
	tracker  *sequence.Tracker
}

// Option 服務選項
type Option func(*Service)

// WithCache 啟用結果快取
func WithCache(c cache.Store) Option {
	return func(s *Service) { s.cache = c }
}

// WithNarrator 啟用摘要改寫
func WithNarrator(n narrator.Narrator) Option {
	return func(s *Service) { s.narrator = n }
}

// WithTracker 指定世代追蹤器
func WithTracker(t *sequence.Tracker) Option {
	return func(s *Service) { s.tracker = t }
}

// NewService 創建客製化服務
func NewService(store catalog.Store, resolver substitution.Resolver, opts ...Option) *Service {
	s := &Service{
		catalog:  store,
		resolver: resolver,
		tracker:  sequence.NewTracker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog 食譜來源
func (s *Service) Catalog() catalog.Store {
	return s.catalog
}

// Customize 執行一次客製化；同一 session 有較新的請求時回傳 ErrStaleResult
func (s *Service) Customize(ctx context.Context, session string, req Request) (*Response, error) {
	// 驗證偏好
	prefs, err := preference.Aggregate(req.DietaryType, req.Allergens, req.BlockedIngredients, req.FlavorPreferences)
	if err != nil {
		return nil, err
	}
	recipeID := strings.TrimSpace(req.RecipeID)
	if recipeID == "" {
		return nil, common.ErrInvalidRequest.WithMessage("recipe_id is required")
	}

	// 取得原食譜
	original, err := s.catalog.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	ticket := s.tracker.Begin(session)
	defer ticket.Done()

	// 檢查快取
	key := cache.Key("customize:"+s.resolver.Name(), original.ID, prefs.Fingerprint())
	result, cached := s.lookup(ctx, key)
	if !cached {
		start := time.Now()
		result, err = s.resolver.Resolve(ctx, original, prefs)
		if err != nil {
			common.LogWarn("Customization failed",
				zap.String("recipe_id", original.ID),
				zap.String("resolver", s.resolver.Name()),
				zap.Error(err),
			)
			return nil, err
		}
		common.LogDebug("Resolved substitutions",
			zap.String("recipe_id", original.ID),
			zap.Int("substitutions", len(result.Substitutions)),
			zap.Duration("耗時", time.Since(start)),
		)
	}

	display, err := presenter.Present(original, *result)
	if err != nil {
		// 結果不一致時整批丟棄
		common.LogError("Inconsistent customization result",
			zap.String("recipe_id", original.ID),
			zap.String("resolver", s.resolver.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	if !cached {
		s.narrate(ctx, original, result, &display)
		s.store(ctx, key, result)
	}

	if !ticket.Current() {
		common.LogInfo("Discarded stale customization",
			zap.String("recipe_id", original.ID),
			zap.Uint64("generation", ticket.Generation()),
		)
		return nil, common.ErrStaleResult.WithMessage("a newer customization superseded generation %d", ticket.Generation())
	}

	return &Response{
		Success:        true,
		Summary:        result.Summary,
		Substitutions:  result.Substitutions,
		ModifiedRecipe: result.ModifiedRecipe,
		Display:        &display,
		Generation:     ticket.Generation(),
		Cached:         cached,
	}, nil
}

func (s *Service) lookup(ctx context.Context, key string) (*substitution.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("Cache lookup failed", zap.Error(err))
		}
		return nil, false
	}
	var result substitution.Result
	if err := json.Unmarshal(data, &result); err != nil {
		common.LogWarn("Discarding undecodable cache entry", zap.String("鍵", key), zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (s *Service) store(ctx context.Context, key string, result *substitution.Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		common.LogWarn("Failed to encode cache entry", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		common.LogWarn("Cache store failed", zap.Error(err))
	}
}

// narrate 改寫失敗時保留原摘要
func (s *Service) narrate(ctx context.Context, original recipe.Recipe, result *substitution.Result, display *presenter.DisplayModel) {
	if s.narrator == nil {
		return
	}
	summary, err := s.narrator.Narrate(ctx, original, *result)
	if err != nil {
		common.LogWarn("Narration failed, keeping deterministic summary",
			zap.String("recipe_id", original.ID),
			zap.Error(err),
		)
		return
	}
	result.Summary = summary
	display.Summary = summary
}
