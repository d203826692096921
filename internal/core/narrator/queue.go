package narrator

import (
	"context"
	"sync"
	"sync/atomic"

	"recipe-customizer/internal/core/recipe"
	"recipe-customizer/internal/core/substitution"
	"recipe-customizer/internal/pkg/common"

	"go.uber.org/zap"
)

// job 排隊中的改寫請求
type job struct {
	ctx    context.Context
	recipe recipe.Recipe
	result substitution.Result
	reply  chan reply
}

type reply struct {
	summary string
	err     error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Queue 以固定數量的 worker 呼叫下層 Narrator；隊列已滿時立即失敗
type Queue struct {
	next      Narrator
	queue     chan *job
	done      chan struct{}
	workers   int
	processed int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewQueue 創建並啟動隊列
func NewQueue(next Narrator, workers, size int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		next:    next,
		queue:   make(chan *job, size),
		done:    make(chan struct{}),
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	return q
}

func (q *Queue) work(id int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case j := <-q.queue:
			// 呼叫端已放棄的請求直接略過
			if err := j.ctx.Err(); err != nil {
				j.reply <- reply{err: err}
				continue
			}
			summary, err := q.next.Narrate(j.ctx, j.recipe, j.result)
			atomic.AddInt64(&q.processed, 1)
			if err != nil {
				common.LogDebug("Narration worker failed", zap.Int("worker", id), zap.Error(err))
			}
			j.reply <- reply{summary: summary, err: err}
		}
	}
}

// Narrate 排入隊列並等待結果
func (q *Queue) Narrate(ctx context.Context, r recipe.Recipe, result substitution.Result) (string, error) {
	j := &job{ctx: ctx, recipe: r, result: result, reply: make(chan reply, 1)}

	select {
	case <-q.done:
		return "", common.ErrServiceUnavailable.WithMessage("narration queue is closed")
	default:
	}

	select {
	case q.queue <- j:
	default:
		common.LogWarn("Narration queue full", zap.Int("max_queue_size", cap(q.queue)))
		return "", common.ErrServiceUnavailable.WithMessage("narration queue is full")
	}

	select {
	case rep := <-j.reply:
		return rep.summary, rep.err
	case <-ctx.Done():
		return "", common.ErrRequestTimeout.Wrap(ctx.Err())
	case <-q.done:
		return "", common.ErrServiceUnavailable.WithMessage("narration queue is closed")
	}
}

// Status 目前隊列狀態
func (q *Queue) Status() Status {
	return Status{
		QueueLength:    len(q.queue),
		ProcessedCount: atomic.LoadInt64(&q.processed),
		MaxQueueSize:   cap(q.queue),
		Workers:        q.workers,
	}
}

// Close 停止 worker；尚未處理的請求會收到 ErrServiceUnavailable
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
		q.wg.Wait()
	})
	return nil
}
