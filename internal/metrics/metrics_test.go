package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewMetrics(t *testing.T) {
	m := New()

	if m.TotalRequests() != 0 {
		t.Errorf("expected 0 total requests, got %d", m.TotalRequests())
	}
	if m.AverageLatency() != 0 {
		t.Errorf("expected 0 average latency, got %v", m.AverageLatency())
	}
	if m.P99Latency() != 0 {
		t.Errorf("expected 0 P99 latency, got %v", m.P99Latency())
	}
	if m.ErrorRate() != 0 {
		t.Errorf("expected 0 error rate, got %f", m.ErrorRate())
	}
}

func TestRecordRequestByKind(t *testing.T) {
	m := New()

	m.RecordRequest("Store", 10*time.Millisecond)
	m.RecordRequest("Store", 20*time.Millisecond)
	m.RecordRequest("Lookup", 30*time.Millisecond)

	if m.TotalRequests() != 3 {
		t.Errorf("expected 3 total requests, got %d", m.TotalRequests())
	}
	if m.KindCount("Store") != 2 {
		t.Errorf("expected 2 Store requests, got %d", m.KindCount("Store"))
	}
	if m.KindCount("Lookup") != 1 {
		t.Errorf("expected 1 Lookup request, got %d", m.KindCount("Lookup"))
	}
	if m.AverageLatency() != 20*time.Millisecond {
		t.Errorf("expected average 20ms, got %v", m.AverageLatency())
	}
}

func TestRecordFailure(t *testing.T) {
	m := New()

	m.RecordRequest("Ping", time.Millisecond)
	m.RecordFailure(time.Millisecond)

	if m.FailedRequests() != 1 {
		t.Errorf("expected 1 failed request, got %d", m.FailedRequests())
	}
	if rate := m.ErrorRate(); rate != 0.5 {
		t.Errorf("expected error rate 0.5, got %f", rate)
	}
}

func TestErrorCounters(t *testing.T) {
	m := New()

	m.RecordLookup(true)
	m.RecordLookup(false)
	m.RecordLookup(false)
	m.RecordDecodeError()
	m.RecordIOError()
	m.RecordIOError()
	m.RecordAcceptError()

	snap := m.Snapshot()
	if snap.LookupHits != 1 || snap.LookupMisses != 2 {
		t.Errorf("unexpected lookup counters: hits=%d misses=%d", snap.LookupHits, snap.LookupMisses)
	}
	if snap.DecodeErrors != 1 || snap.IOErrors != 2 || snap.AcceptErrors != 1 {
		t.Errorf("unexpected error counters: %+v", snap)
	}
}

func TestP99Latency(t *testing.T) {
	m := New()

	for i := 1; i <= 100; i++ {
		m.RecordRequest("Store", time.Duration(i)*time.Millisecond)
	}

	p99 := m.P99Latency()
	if p99 < 99*time.Millisecond {
		t.Errorf("expected P99 >= 99ms, got %v", p99)
	}
}

func TestLatencySampleCap(t *testing.T) {
	m := NewWithConfig(Config{MaxLatencySamples: 5})

	for range 10 {
		m.RecordRequest("Ping", time.Millisecond)
	}

	m.mu.RLock()
	n := len(m.latencies)
	m.mu.RUnlock()
	if n != 5 {
		t.Errorf("expected 5 samples, got %d", n)
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	m := New()
	m.RecordRequest("Store", time.Millisecond)

	snap := m.Snapshot()
	m.RecordRequest("Store", time.Millisecond)

	if snap.ByKind["Store"] != 1 {
		t.Errorf("snapshot should not change after further records, got %d", snap.ByKind["Store"])
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.RecordRequest("Lookup", time.Microsecond)
				m.RecordLookup(true)
			}
		}()
	}

	wg.Wait()

	if m.TotalRequests() != 10000 {
		t.Errorf("expected 10000 total requests, got %d", m.TotalRequests())
	}
	if m.KindCount("Lookup") != 10000 {
		t.Errorf("expected 10000 Lookup requests, got %d", m.KindCount("Lookup"))
	}
}
