// Package main is the entry point for dhtshare.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"dhtshare/internal/config"
	"dhtshare/internal/logger"
)

var (
	version = "dev"
)

// rootOptions はすべてのサブコマンドで共有するフラグ
type rootOptions struct {
	configFile string
	logLevel   string

	cfg *config.FileConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("", "%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "dhtshare",
		Short:         "Key-value exchange over a line-delimited TCP protocol",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "設定ファイルパス (YAML/JSON)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")

	cmd.AddCommand(
		newBootstrapCmd(opts),
		newNodeCmd(opts),
		newChunkCmd(opts),
	)
	return cmd
}

// load は設定ファイルを読み込み、ログレベルを反映する
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.configFile != "" {
		loaded, err := config.LoadFile(o.configFile)
		if err != nil {
			return errors.Wrap(err, "設定ファイル読み込みエラー")
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "設定検証エラー")
	}

	o.cfg = cfg
	logger.Default.SetLevel(cfg.LogLevel())
	return nil
}
