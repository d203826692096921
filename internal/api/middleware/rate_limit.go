package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"recipe-customizer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter 令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   float64(requests),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		lastTime: time.Now(),
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow() bool {
	return rl.allowAt(time.Now())
}

func (rl *RateLimiter) allowAt(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// 以小數累積令牌，避免短間隔請求永遠補不到整數
	elapsed := now.Sub(rl.lastTime).Seconds()
	rl.lastTime = now
	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}

	// 消耗一個令牌
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// ClientLimiter 依來源 IP 分別限流
type ClientLimiter struct {
	mu       sync.Mutex
	requests int
	window   time.Duration
	clients  map[string]*clientBucket
}

type clientBucket struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// NewClientLimiter 創建依 IP 的限流器
func NewClientLimiter(requests int, window time.Duration) *ClientLimiter {
	return &ClientLimiter{
		requests: requests,
		window:   window,
		clients:  make(map[string]*clientBucket),
	}
}

// Allow 檢查來源是否可再發出請求
func (cl *ClientLimiter) Allow(key string) bool {
	now := time.Now()

	cl.mu.Lock()
	b, ok := cl.clients[key]
	if !ok {
		b = &clientBucket{limiter: NewRateLimiter(cl.requests, cl.window)}
		cl.clients[key] = b
	}
	b.lastSeen = now
	// 清除閒置超過十個視窗的來源
	if len(cl.clients) > 1024 {
		for k, other := range cl.clients {
			if now.Sub(other.lastSeen) > 10*cl.window {
				delete(cl.clients, k)
			}
		}
	}
	cl.mu.Unlock()

	return b.limiter.allowAt(now)
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewClientLimiter(requests, window)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: common.ErrTooManyRequests.Message,
			})
			return
		}

		c.Next()
	}
}
