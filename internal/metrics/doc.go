// Package metrics provides request metrics collection and reporting.
//
// The bootstrap node records every handled connection here: request counts
// per message kind, lookup hits and misses, decode/io/accept errors, and
// latency. The load generator uses the same type to report client-side
// results.
//
// # Basic Usage
//
//	m := metrics.New()
//
//	start := time.Now()
//	// ... handle a Store request ...
//	m.RecordRequest("Store", time.Since(start))
//
//	snap := m.Snapshot()
//	fmt.Printf("Total: %d, P99: %v\n", snap.TotalRequests, snap.P99Latency)
//
// # Configuration
//
// Use NewWithConfig for custom settings:
//
//	m := metrics.NewWithConfig(metrics.Config{MaxLatencySamples: 5000})
//
// # Thread Safety
//
// Counters are atomic; per-kind counts and latency samples are guarded by a
// RWMutex. All methods are safe for concurrent use.
package metrics
