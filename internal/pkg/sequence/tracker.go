// Package sequence 提供請求世代追蹤，讓較慢的舊請求無法覆蓋較新的結果
package sequence

import (
	"sync"
)

// Tracker 依 key 追蹤最新一次請求的世代
type Tracker struct {
	mu     sync.Mutex
	next   uint64
	latest map[string]uint64
}

// Ticket 單一請求持有的世代憑證
type Ticket struct {
	tracker    *Tracker
	key        string
	generation uint64
}

// NewTracker 創建世代追蹤器
func NewTracker() *Tracker {
	return &Tracker{
		latest: make(map[string]uint64),
	}
}

// Begin 為 key 發出新的世代，之前發出的憑證隨即失效
func (t *Tracker) Begin(key string) *Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	// 世代號全域單調遞增，key 被清除後重新開始也不會與舊憑證重複
	t.next++
	t.latest[key] = t.next
	return &Ticket{tracker: t, key: key, generation: t.next}
}

// Latest 回傳 key 目前最新的世代，0 表示沒有進行中的請求
func (t *Tracker) Latest(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[key]
}

// Len 回傳追蹤中的 key 數量
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.latest)
}

// Generation 回傳憑證世代
func (tk *Ticket) Generation() uint64 {
	return tk.generation
}

// Current 判斷憑證是否仍為最新世代
func (tk *Ticket) Current() bool {
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	return tk.tracker.latest[tk.key] == tk.generation
}

// Done 結束請求；若仍為最新世代則清除 key
func (tk *Ticket) Done() {
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	if tk.tracker.latest[tk.key] == tk.generation {
		delete(tk.tracker.latest, tk.key)
	}
}
