package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 食譜來源
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
	CatalogRemote   = "remote"
)

// 替換解析模式
const (
	ResolverLocal  = "local"
	ResolverRemote = "remote"
)

// 快取後端
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Log         LogConfig       `mapstructure:"log"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Resolver    ResolverConfig  `mapstructure:"resolver"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Narrator    NarratorConfig  `mapstructure:"narrator"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// LogConfig 日誌輸出設定
type LogConfig struct {
	File string `mapstructure:"file"`
}

// CatalogConfig 食譜來源設定
type CatalogConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Seed   bool   `mapstructure:"seed"`
}

// ResolverConfig 替換解析設定
type ResolverConfig struct {
	Mode        string        `mapstructure:"mode"`
	UpstreamURL string        `mapstructure:"upstream_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
}

// NarratorConfig 摘要改寫（OpenRouter）設定
type NarratorConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入 .env 與環境變數
func LoadConfig() (*Config, error) {
	// .env 不存在時略過
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New())
}

// Load 以指定的 viper 實例解析設定
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 相容舊的環境變數名稱
	v.BindEnv("narrator.api_key", "OPENROUTER_API_KEY")
	v.BindEnv("narrator.model", "OPENROUTER_MODEL")
	v.BindEnv("narrator.max_tokens", "MODEL_MAX_TOKENS")
	v.BindEnv("catalog.dsn", "DATABASE_URL")
	v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	v.BindEnv("dedup_window", "DEDUP_WINDOW")
	v.BindEnv("log_level", "LOG_LEVEL")

	if file := os.Getenv("APP_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Catalog.Driver = strings.ToLower(strings.TrimSpace(config.Catalog.Driver))
	config.Resolver.Mode = strings.ToLower(strings.TrimSpace(config.Resolver.Mode))
	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskSecret 遮罩密鑰，只顯示前後各 4 個字符
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值；每個鍵都需有預設值，AutomaticEnv 才會套用到 Unmarshal
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-customizer")

	// 伺服器設定
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("log_level", "info")
	v.SetDefault("log.file", "")

	// 食譜來源
	v.SetDefault("catalog.driver", CatalogMemory)
	v.SetDefault("catalog.dsn", "")
	v.SetDefault("catalog.seed", true)

	// 替換解析
	v.SetDefault("resolver.mode", ResolverLocal)
	v.SetDefault("resolver.upstream_url", "")
	v.SetDefault("resolver.timeout", "10s")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// 摘要改寫
	v.SetDefault("narrator.enabled", false)
	v.SetDefault("narrator.api_key", "")
	v.SetDefault("narrator.model", "qwen/qwen2.5-vl-72b-instruct:free")
	v.SetDefault("narrator.max_tokens", 300)
	v.SetDefault("narrator.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("narrator.timeout", "20s")
	v.SetDefault("narrator.workers", 2)
	v.SetDefault("narrator.queue_size", 50)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Catalog.Driver {
	case CatalogMemory:
	case CatalogPostgres:
		if config.Catalog.DSN == "" {
			return fmt.Errorf("catalog dsn is required for postgres")
		}
	case CatalogRemote:
		if config.Resolver.UpstreamURL == "" {
			return fmt.Errorf("resolver upstream_url is required for remote catalog")
		}
	default:
		return fmt.Errorf("unknown catalog driver %q", config.Catalog.Driver)
	}

	switch config.Resolver.Mode {
	case ResolverLocal:
	case ResolverRemote:
		if config.Resolver.UpstreamURL == "" {
			return fmt.Errorf("resolver upstream_url is required for remote mode")
		}
	default:
		return fmt.Errorf("unknown resolver mode %q", config.Resolver.Mode)
	}

	if config.Cache.Enabled {
		if config.Cache.Backend != CacheMemory && config.Cache.Backend != CacheRedis {
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	if config.Narrator.Enabled {
		if config.Narrator.APIKey == "" {
			return fmt.Errorf("narrator api_key is required when enabled")
		}
		if config.Narrator.Workers <= 0 || config.Narrator.QueueSize <= 0 {
			return fmt.Errorf("invalid narrator workers or queue size")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
