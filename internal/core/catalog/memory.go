package catalog

import (
	"context"
	"strings"
	"sync"

	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/pkg/common"
)

// MemoryStore 記憶體食譜庫，保留寫入順序
type MemoryStore struct {
	mu      sync.RWMutex
	recipes []recipe.Recipe
	index   map[string]int
}

// NewMemoryStore 以指定食譜建立；重複 ID 以後者為準
func NewMemoryStore(recipes []recipe.Recipe) *MemoryStore {
	s := &MemoryStore{index: make(map[string]int, len(recipes))}
	for _, r := range recipes {
		s.put(r)
	}
	return s
}

// NewSeededMemoryStore 以內嵌種子資料建立
func NewSeededMemoryStore() (*MemoryStore, error) {
	recipes, err := SeedRecipes()
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(recipes), nil
}

// Get 依 ID 取得食譜副本
func (s *MemoryStore) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return recipe.Recipe{}, common.ErrNotFound.WithMessage("recipe %s not found", id)
	}
	return s.recipes[i].Clone(), nil
}

// Search 名稱前綴比對
func (s *MemoryStore) Search(ctx context.Context, query string) ([]recipe.Recipe, error) {
	q := normalizeQuery(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]recipe.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		if q == "" || strings.HasPrefix(strings.ToLower(r.Name), q) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Save 新增或覆寫食譜
func (s *MemoryStore) Save(ctx context.Context, r recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(r)
	return nil
}

// Len 食譜數量
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}

func (s *MemoryStore) put(r recipe.Recipe) {
	if i, ok := s.index[r.ID]; ok {
		s.recipes[i] = r.Clone()
		return
	}
	s.index[r.ID] = len(s.recipes)
	s.recipes = append(s.recipes, r.Clone())
}
