// Package cache 客製化結果快取，支援記憶體與 Redis 後端
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"recipe-customizer/internal/infrastructure/config"
	"recipe-customizer/internal/pkg/common"
)

// Store 位元組快取；未命中時回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Stats() map[string]interface{}
	Close() error
}

// New 依設定建立快取；停用時回傳 nil
func New(ctx context.Context, cfg *config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}
	if cfg.Backend == config.CacheRedis {
		return NewRedisStore(ctx, cfg)
	}
	return NewMemoryStore(cfg), nil
}

// Key 以 sha256 壓縮鍵的變動部分，前綴保持可讀
func Key(prefix string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return prefix + ":" + hex.EncodeToString(hash[:])
}
