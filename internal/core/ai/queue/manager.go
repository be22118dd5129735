package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"recipe-chef/internal/infrastructure/config"
	"recipe-chef/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 等待中的工作已達上限
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed 隊列已關閉
	ErrQueueClosed = errors.New("queue manager is closed")
)

// Job 在 worker 上執行的模型呼叫
type Job func(ctx context.Context) (string, error)

// request 隊列請求
type request struct {
	ctx    context.Context
	job    Job
	result chan result
}

// result 處理結果
type result struct {
	output string
	err    error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 固定數量的 worker 依序處理模型呼叫，限制同時對外的推論請求數
type Manager struct {
	config    config.QueueConfig
	queue     chan *request
	done      chan struct{}
	stopped   chan struct{}
	processed int64
	wg        sync.WaitGroup
	once      sync.Once
}

// NewManager 創建隊列管理器並啟動 worker
func NewManager(cfg config.QueueConfig) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}

	m := &Manager{
		config:  cfg,
		queue:   make(chan *request, cfg.MaxSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}

	common.LogInfo("推論隊列已啟動",
		zap.Int("workers", cfg.Workers),
		zap.Int("max_queue_size", cfg.MaxSize),
	)
	return m
}

// Submit 將工作加入隊列並等待結果；m 為 nil 時直接執行
func (m *Manager) Submit(ctx context.Context, job Job) (string, error) {
	if m == nil {
		return job(ctx)
	}

	req := &request{
		ctx:    ctx,
		job:    job,
		result: make(chan result, 1),
	}

	select {
	case <-m.done:
		return "", ErrQueueClosed
	default:
	}

	select {
	case m.queue <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		common.LogWarn("推論隊列已滿",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.MaxSize),
		)
		return "", ErrQueueFull
	}

	select {
	case res := <-req.result:
		return res.output, res.err
	case <-m.stopped:
		// 關閉前已完成的結果優先
		select {
		case res := <-req.result:
			return res.output, res.err
		default:
			return "", ErrQueueClosed
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// worker 處理隊列中的工作，呼叫端已放棄的工作直接略過
func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		default:
		}

		select {
		case <-m.done:
			return
		case req := <-m.queue:
			if err := req.ctx.Err(); err != nil {
				req.result <- result{err: err}
				continue
			}
			out, err := req.job(req.ctx)
			atomic.AddInt64(&m.processed, 1)
			req.result <- result{output: out, err: err}
		}
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() Status {
	if m == nil {
		return Status{}
	}
	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.config.MaxSize,
		Workers:        m.config.Workers,
	}
}

// Close 停止 worker，等待執行中的工作結束；尚未處理的請求回傳 ErrQueueClosed
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.once.Do(func() {
		close(m.done)
		m.wg.Wait()
		pending := m.drain()
		close(m.stopped)
		if pending > 0 {
			common.LogWarn("隊列關閉，取消等待中的工作", zap.Int("pending", pending))
		}
	})
}

// drain 清空隊列，通知每個等待者
func (m *Manager) drain() int {
	n := 0
	for {
		select {
		case req := <-m.queue:
			req.result <- result{err: ErrQueueClosed}
			n++
		default:
			return n
		}
	}
}
