package worker

import (
	"context"
	"runtime"
	"sync"

	"dhtshare/internal/logger"
)

// Job はワーカーが実行するジョブ。ctx はプールの停止時にキャンセルされる
type Job func(ctx context.Context)

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	NumWorkers  int // ワーカー数（0でCPU数）
	QueueFactor int // キューサイズ = NumWorkers * QueueFactor
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers:  0,
		QueueFactor: 100,
	}
}

type poolState int

const (
	stateIdle poolState = iota
	stateRunning
	stateStopped
)

// Pool はゴルーチンのプールを管理する。一度停止したプールは再開できない
type Pool struct {
	numWorkers int
	jobs       chan Job
	wg         sync.WaitGroup

	mu     sync.Mutex
	state  poolState
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool は新しいワーカープールを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewPool(numWorkers int) *Pool {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewPoolWithConfig(config)
}

// NewPoolWithConfig は設定を指定してワーカープールを作成する
func NewPoolWithConfig(config PoolConfig) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	queueFactor := config.QueueFactor
	if queueFactor <= 0 {
		queueFactor = DefaultPoolConfig().QueueFactor
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, numWorkers*queueFactor),
	}
}

// Start はワーカープールを起動する。二回目以降の呼び出しは何もしない
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateIdle {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.state = stateRunning

	for range p.numWorkers {
		p.wg.Add(1)
		go p.worker()
	}

	logger.Debug("", "WorkerPool started with %d workers", p.numWorkers)
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			job(p.ctx)
		}
	}
}

// runningCtx は実行中ならプールのコンテキストを返す
func (p *Pool) runningCtx() (context.Context, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateRunning {
		return nil, false
	}
	return p.ctx, true
}

// Submit はジョブをキューに入れる。キューに空きがなければブロックする。
// プールが実行中でない場合やキャンセルされた場合は false を返す
func (p *Pool) Submit(job Job) bool {
	ctx, ok := p.runningCtx()
	if !ok || ctx.Err() != nil {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// TrySubmit はキューに空きがある場合のみジョブを入れる
func (p *Pool) TrySubmit(job Job) bool {
	ctx, ok := p.runningCtx()
	if !ok || ctx.Err() != nil {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop はワーカープールを停止し、実行中のジョブの終了を待つ。
// キューに残ったジョブは実行されない
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.state != stateRunning {
		p.state = stateStopped
		p.mu.Unlock()
		return
	}
	p.state = stateStopped
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logger.Debug("", "WorkerPool stopped")
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// QueueSize は現在のキューサイズを返す
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}
