// Package loadgen provides a load generator for benchmarking a bootstrap node.
//
// A Generator issues a mix of Store and Lookup requests through
// internal/client from a worker pool and collects metrics about them.
//
// # Basic Usage
//
//	c := client.New("127.0.0.1:8080")
//
//	config := loadgen.DefaultConfig()
//	config.WriteRatio = 0.3 // 30% Store, 70% Lookup
//	g := loadgen.New(c, config)
//
//	// Run for a duration
//	snap := g.RunFor(ctx, 10*time.Second)
//	fmt.Printf("Total: %d, RPS: %.2f\n", snap.TotalRequests, snap.OverallRPS)
//
//	// Or run a fixed number of requests
//	snap = loadgen.New(c, config).RunRequests(ctx, 10000)
//
// # Configuration
//
// The Config struct allows tuning:
//   - NumWorkers: parallel workers (0 = CPU count)
//   - WriteRatio: fraction of Store requests (0.0 to 1.0)
//   - KeyRange: key space size
//   - ValueSize: length of generated values
//   - RequestsLimit: max requests (0 = unlimited)
package loadgen
