package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"dhtshare/internal/client"
	"dhtshare/internal/loadgen"
	"dhtshare/internal/metrics"
	"dhtshare/internal/protocol"
)

// nodeOptions は node サブコマンドのフラグ
type nodeOptions struct {
	*rootOptions
	addr   string
	nodeID string
}

func (o *nodeOptions) client(cmd *cobra.Command) *client.Client {
	addr := o.cfg.Node.BootstrapAddr
	if cmd.Flags().Changed("addr") {
		addr = o.addr
	}
	return client.New(addr, client.WithDialTimeout(o.cfg.DialTimeout()))
}

func newNodeCmd(root *rootOptions) *cobra.Command {
	opts := &nodeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "node",
		Short: "ブートストラップノードにリクエストを送る（アクション省略時は join）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.addr, "addr", "127.0.0.1:8080", "ブートストラップノードのアドレス (host:port)")
	cmd.PersistentFlags().StringVar(&opts.nodeID, "node-id", "", "Join で名乗るノードID (省略時はランダム)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "join",
			Short: "ネットワークへの参加を通知する",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runJoin(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "store <key> <value>",
			Short: "キーと値を保存する",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.client(cmd).Store(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Store response: %s\n", protocol.Ack())
				return nil
			},
		},
		&cobra.Command{
			Use:   "lookup <key>",
			Short: "キーを検索する",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := args[0]
				value, found, err := opts.client(cmd).Lookup(cmd.Context(), key)
				if err != nil {
					return err
				}
				reply := protocol.Ack()
				if found {
					reply = protocol.LookupResult(key, value)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Lookup response: %s\n", reply)
				return nil
			},
		},
		&cobra.Command{
			Use:   "ping",
			Short: "ブートストラップノードの応答を確認する",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := opts.client(cmd).Ping(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ping response: %s\n", protocol.Ack())
				return nil
			},
		},
		newBenchCmd(opts),
	)
	return cmd
}

func runJoin(cmd *cobra.Command, opts *nodeOptions) error {
	nodeID := opts.cfg.Node.NodeID
	if cmd.Flags().Changed("node-id") {
		nodeID = opts.nodeID
	}
	if nodeID == "" {
		nodeID = client.NewNodeID()
	}

	reply, err := opts.client(cmd).Join(cmd.Context(), nodeID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Join response (node %s): %s\n", nodeID, reply)
	return nil
}

func newBenchCmd(opts *nodeOptions) *cobra.Command {
	var (
		requests   uint64
		duration   time.Duration
		workers    int
		writeRatio float64
		keys       int
		valueSize  int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Store/Lookup の負荷をかけてメトリクスを表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := opts.cfg.Bench
			flags := cmd.Flags()
			if flags.Changed("requests") {
				b.Requests = requests
			}
			if flags.Changed("workers") {
				b.Workers = workers
			}
			if flags.Changed("write-ratio") {
				b.WriteRatio = writeRatio
			}
			if flags.Changed("keys") {
				b.Keys = keys
			}
			if flags.Changed("value-size") {
				b.ValueSize = valueSize
			}

			c := opts.client(cmd)
			g := loadgen.New(c, loadgen.Config{
				NumWorkers: b.Workers,
				WriteRatio: b.WriteRatio,
				KeyRange:   b.Keys,
				ValueSize:  b.ValueSize,
			})

			var snap *metrics.Snapshot
			if duration > 0 {
				snap = g.RunFor(cmd.Context(), duration)
			} else {
				snap = g.RunRequests(cmd.Context(), b.Requests)
			}

			printReport(cmd.OutOrStdout(), c.Addr(), snap)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&requests, "requests", 0, "送信するリクエスト数")
	cmd.Flags().DurationVar(&duration, "duration", 0, "実行時間 (指定時は --requests より優先)")
	cmd.Flags().IntVar(&workers, "workers", 0, "ワーカー数 (0でCPU数)")
	cmd.Flags().Float64Var(&writeRatio, "write-ratio", 0, "Store の比率 (0.0〜1.0)")
	cmd.Flags().IntVar(&keys, "keys", 0, "キーの範囲")
	cmd.Flags().IntVar(&valueSize, "value-size", 0, "値の長さ")
	return cmd
}

// printReport は負荷生成の結果を表示する
func printReport(w io.Writer, addr string, snap *metrics.Snapshot) {
	fmt.Fprintln(w, "====================================================")
	fmt.Fprintf(w, "Target:    %s\n", addr)
	fmt.Fprintf(w, "Elapsed:   %v\n", snap.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Requests:  %d (success: %d, failed: %d)\n",
		snap.TotalRequests, snap.SuccessRequests, snap.FailedRequests)
	fmt.Fprintf(w, "  Store:   %d\n", snap.ByKind[string(protocol.KindStore)])
	fmt.Fprintf(w, "  Lookup:  %d (hits: %d, misses: %d)\n",
		snap.ByKind[string(protocol.KindLookup)], snap.LookupHits, snap.LookupMisses)
	fmt.Fprintf(w, "RPS:       %.2f\n", snap.OverallRPS)
	fmt.Fprintf(w, "Latency:   avg %v, p99 %v\n", snap.AverageLatency, snap.P99Latency)
	fmt.Fprintf(w, "Errors:    %.2f%%\n", snap.ErrorRate*100)
	fmt.Fprintln(w, "====================================================")
}
