package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int // P99計算用に保持するサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		MaxLatencySamples: 1000,
	}
}

// Metrics はブートストラップノードのリクエストメトリクスを収集する
type Metrics struct {
	totalRequests   atomic.Uint64
	successRequests atomic.Uint64
	failedRequests  atomic.Uint64
	totalLatencyNs  atomic.Uint64

	lookupHits   atomic.Uint64
	lookupMisses atomic.Uint64
	decodeErrors atomic.Uint64
	ioErrors     atomic.Uint64
	acceptErrors atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	byKind            map[string]uint64
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	samples := config.MaxLatencySamples
	if samples <= 0 {
		samples = DefaultConfig().MaxLatencySamples
	}
	return &Metrics{
		startTime:         time.Now(),
		byKind:            make(map[string]uint64),
		latencies:         make([]time.Duration, 0, samples),
		maxLatencySamples: samples,
	}
}

// RecordRequest は処理が完了したリクエストを種類ごとに記録する
func (m *Metrics) RecordRequest(kind string, latency time.Duration) {
	m.totalRequests.Add(1)
	m.successRequests.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	m.byKind[kind]++
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, latency)
	}
	m.mu.Unlock()
}

// RecordFailure は応答できなかったリクエストを記録する
func (m *Metrics) RecordFailure(latency time.Duration) {
	m.totalRequests.Add(1)
	m.failedRequests.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
}

// RecordLookup はLookupのヒット/ミスを記録する
func (m *Metrics) RecordLookup(found bool) {
	if found {
		m.lookupHits.Add(1)
	} else {
		m.lookupMisses.Add(1)
	}
}

// RecordDecodeError はデコード失敗を記録する
func (m *Metrics) RecordDecodeError() { m.decodeErrors.Add(1) }

// RecordIOError は読み書き失敗を記録する
func (m *Metrics) RecordIOError() { m.ioErrors.Add(1) }

// RecordAcceptError は接続受付の失敗を記録する
func (m *Metrics) RecordAcceptError() { m.acceptErrors.Add(1) }

// TotalRequests は総リクエスト数を返す
func (m *Metrics) TotalRequests() uint64 {
	return m.totalRequests.Load()
}

// SuccessRequests は成功リクエスト数を返す
func (m *Metrics) SuccessRequests() uint64 {
	return m.successRequests.Load()
}

// FailedRequests は失敗リクエスト数を返す
func (m *Metrics) FailedRequests() uint64 {
	return m.failedRequests.Load()
}

// KindCount は指定した種類のリクエスト数を返す
func (m *Metrics) KindCount(kind string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byKind[kind]
}

// OverallRPS は開始からの平均RPSを返す
func (m *Metrics) OverallRPS() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.totalRequests.Load()) / elapsed
}

// AverageLatency は平均レイテンシを返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.totalRequests.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// P99Latency はP99レイテンシを返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ErrorRate はエラー率を返す（0.0〜1.0）
func (m *Metrics) ErrorRate() float64 {
	total := m.totalRequests.Load()
	if total == 0 {
		return 0
	}
	return float64(m.failedRequests.Load()) / float64(total)
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	TotalRequests   uint64            `json:"total_requests"`
	SuccessRequests uint64            `json:"success_requests"`
	FailedRequests  uint64            `json:"failed_requests"`
	ByKind          map[string]uint64 `json:"by_kind"`
	LookupHits      uint64            `json:"lookup_hits"`
	LookupMisses    uint64            `json:"lookup_misses"`
	DecodeErrors    uint64            `json:"decode_errors"`
	IOErrors        uint64            `json:"io_errors"`
	AcceptErrors    uint64            `json:"accept_errors"`
	OverallRPS      float64           `json:"rps"`
	AverageLatency  time.Duration     `json:"avg_latency_ns"`
	P99Latency      time.Duration     `json:"p99_latency_ns"`
	ErrorRate       float64           `json:"error_rate"`
	Elapsed         time.Duration     `json:"elapsed_ns"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	byKind := make(map[string]uint64, len(m.byKind))
	for k, v := range m.byKind {
		byKind[k] = v
	}
	m.mu.RUnlock()

	return Snapshot{
		TotalRequests:   m.TotalRequests(),
		SuccessRequests: m.SuccessRequests(),
		FailedRequests:  m.FailedRequests(),
		ByKind:          byKind,
		LookupHits:      m.lookupHits.Load(),
		LookupMisses:    m.lookupMisses.Load(),
		DecodeErrors:    m.decodeErrors.Load(),
		IOErrors:        m.ioErrors.Load(),
		AcceptErrors:    m.acceptErrors.Load(),
		OverallRPS:      m.OverallRPS(),
		AverageLatency:  m.AverageLatency(),
		P99Latency:      m.P99Latency(),
		ErrorRate:       m.ErrorRate(),
		Elapsed:         time.Since(m.startTime),
	}
}
