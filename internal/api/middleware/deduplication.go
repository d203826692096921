package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-customizer/internal/pkg/common"
)

// Deduplicator 在視窗內拒絕同一來源連續送出的相同內容；來源送出不同內容後即重新計算
type Deduplicator struct {
	mu     sync.Mutex
	window time.Duration
	latest map[string]lastRequest
	now    func() time.Time
}

// lastRequest 來源最近一次請求
type lastRequest struct {
	digest string
	at     time.Time
}

// NewDeduplicator 創建去重器；window 非正值時使用 1 秒
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	return &Deduplicator{
		window: window,
		latest: make(map[string]lastRequest),
		now:    time.Now,
	}
}

// Seen 記錄來源最新的內容摘要；與上一次相同且仍在視窗內時回傳 true
func (d *Deduplicator) Seen(source, digest string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.latest[source]; ok && last.digest == digest && now.Sub(last.at) <= d.window {
		return true
	}
	// 只保留最新內容，A→B→A 的最後一次不算重複
	d.latest[source] = lastRequest{digest: digest, at: now}

	// 順便清理過舊的紀錄
	if len(d.latest) > 4096 {
		for k, last := range d.latest {
			if now.Sub(last.at) > 10*d.window {
				delete(d.latest, k)
			}
		}
	}
	return false
}

// Deduplication 請求去重中間件
func Deduplication(d *Deduplicator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			common.LogWarn("Failed to read request body", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
				Code:    common.ErrCodeInvalidRequest,
				Message: "failed to read request body",
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		// 來源 = IP + session + 路徑
		source := c.ClientIP() + ":" + c.GetHeader("X-Session-ID") + ":" + c.Request.URL.Path
		hash := sha256.Sum256(body)

		if d.Seen(source, hex.EncodeToString(hash[:])) {
			common.LogInfo("Duplicate request rejected",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "duplicate request",
			})
			return
		}

		c.Next()
	}
}
