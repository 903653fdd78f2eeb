package loadgen

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"dhtshare/internal/client"
	"dhtshare/internal/logger"
	"dhtshare/internal/metrics"
	"dhtshare/internal/protocol"
	"dhtshare/internal/worker"
)

// Config はGeneratorの設定
type Config struct {
	NumWorkers    int     // ワーカー数（0でCPU数）
	WriteRatio    float64 // Store比率（0.0〜1.0）
	KeyRange      int     // キーの範囲（0〜KeyRange-1）
	ValueSize     int     // 値のサイズ（文字数）
	RequestsLimit uint64  // リクエスト上限（0で無制限）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		NumWorkers:    0,   // CPU数
		WriteRatio:    0.5, // 50% Store
		KeyRange:      10000,
		ValueSize:     100,
		RequestsLimit: 0,
	}
}

// Generator はブートストラップノードに対する負荷生成器
type Generator struct {
	config  Config
	client  *client.Client
	pool    *worker.Pool
	metrics *metrics.Metrics

	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	submitted atomic.Uint64
	completed atomic.Uint64
	done      chan struct{}
}

// New は新しいGeneratorを作成する
func New(c *client.Client, config Config) *Generator {
	if config.KeyRange <= 0 {
		config.KeyRange = DefaultConfig().KeyRange
	}
	if config.ValueSize < 0 {
		config.ValueSize = 0
	}
	return &Generator{
		config:  config,
		client:  c,
		pool:    worker.NewPool(config.NumWorkers),
		metrics: metrics.New(),
		done:    make(chan struct{}),
	}
}

// Start は負荷生成を開始する
func (g *Generator) Start(ctx context.Context) {
	if g.running.Swap(true) {
		return // Already running
	}

	g.ctx, g.cancel = context.WithCancel(ctx)
	g.pool.Start(g.ctx)

	logger.Info(g.client.Addr(), "Load generator started (workers: %d, write_ratio: %.1f%%)",
		g.pool.NumWorkers(), g.config.WriteRatio*100)

	// リクエスト生成ループ
	g.wg.Add(1)
	go g.generateRequests()
}

// generateRequests はリクエストを生成し続ける
func (g *Generator) generateRequests() {
	defer g.wg.Done()

	for {
		select {
		case <-g.ctx.Done():
			return
		default:
		}

		// リクエスト上限チェック
		if g.config.RequestsLimit > 0 && g.submitted.Load() >= g.config.RequestsLimit {
			return
		}

		key := fmt.Sprintf("key-%d", rand.Intn(g.config.KeyRange))
		isWrite := rand.Float64() < g.config.WriteRatio

		if !g.pool.Submit(g.createJob(key, isWrite)) {
			return
		}
		g.submitted.Add(1)
	}
}

// createJob はリクエストジョブを作成する
func (g *Generator) createJob(key string, isWrite bool) worker.Job {
	return func(ctx context.Context) {
		start := time.Now()
		var err error
		kind := protocol.KindLookup

		if isWrite {
			kind = protocol.KindStore
			err = g.client.Store(ctx, key, randomValue(g.config.ValueSize))
		} else {
			var found bool
			_, found, err = g.client.Lookup(ctx, key)
			if err == nil {
				g.metrics.RecordLookup(found)
			}
		}

		latency := time.Since(start)
		switch {
		case err == nil:
			g.metrics.RecordRequest(string(kind), latency)
		case ctx.Err() != nil:
			// 停止による中断は失敗として数えない
			return
		default:
			g.metrics.RecordFailure(latency)
			logger.Debug(g.client.Addr(), "%s %q failed: %v", string(kind), key, err)
		}

		if limit := g.config.RequestsLimit; limit > 0 && g.completed.Add(1) == limit {
			close(g.done)
		}
	}
}

// randomValue は n 文字のランダムな16進文字列を返す
func randomValue(n int) string {
	buf := make([]byte, (n+1)/2)
	_, _ = cryptorand.Read(buf)
	return hex.EncodeToString(buf)[:n]
}

// Stop は負荷生成を停止する
func (g *Generator) Stop() {
	if !g.running.Swap(false) {
		return // Not running
	}

	g.cancel()
	g.pool.Stop()
	g.wg.Wait()

	logger.Info(g.client.Addr(), "Load generator stopped")
}

// Metrics はメトリクスを返す
func (g *Generator) Metrics() *metrics.Metrics {
	return g.metrics
}

// IsRunning は実行中かどうかを返す
func (g *Generator) IsRunning() bool {
	return g.running.Load()
}

// RunFor は指定時間だけ負荷生成を実行する
func (g *Generator) RunFor(ctx context.Context, duration time.Duration) *metrics.Snapshot {
	g.Start(ctx)

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	g.Stop()

	snapshot := g.metrics.Snapshot()
	return &snapshot
}

// RunRequests は count 件のリクエストが完了するか ctx が終了するまで実行する
func (g *Generator) RunRequests(ctx context.Context, count uint64) *metrics.Snapshot {
	if count > 0 {
		g.config.RequestsLimit = count
		g.Start(ctx)

		select {
		case <-g.done:
		case <-ctx.Done():
		}

		g.Stop()
	}

	snapshot := g.metrics.Snapshot()
	return &snapshot
}
