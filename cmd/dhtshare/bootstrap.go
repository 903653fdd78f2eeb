package main

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dhtshare/internal/api"
	"dhtshare/internal/events"
	"dhtshare/internal/logger"
	"dhtshare/internal/server"
	"dhtshare/internal/store"
)

func newBootstrapCmd(opts *rootOptions) *cobra.Command {
	var (
		port   int
		listen string
		admin  string
	)

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "ブートストラップノードを起動する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := opts.cfg.Bootstrap
			addr := b.Listen
			switch {
			case cmd.Flags().Changed("listen"):
				addr = listen
			case cmd.Flags().Changed("port"):
				addr = net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
			}
			if cmd.Flags().Changed("admin") {
				b.AdminListen = admin
			}

			st := store.New()
			bus := events.NewBus()
			defer bus.Close()

			srv := server.New(st,
				server.WithEvents(bus),
				server.WithMaxLineBytes(b.MaxLineBytes),
				server.WithIdleTimeout(opts.cfg.IdleTimeout()),
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return srv.ListenAndServe(ctx, addr)
			})
			if b.AdminListen != "" {
				adminServer := api.NewServer(b.AdminListen, srv, st, bus)
				g.Go(func() error {
					return adminServer.Start(ctx)
				})
			}

			err := g.Wait()
			logger.Info("", "Store held %d entries at shutdown", st.Len())
			return err
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "待ち受けポート (0.0.0.0 にバインド)")
	cmd.Flags().StringVar(&listen, "listen", "", "待ち受けアドレス (--port より優先)")
	cmd.Flags().StringVar(&admin, "admin", "", "管理APIの待ち受けアドレス (例: 127.0.0.1:8081)")
	return cmd
}
