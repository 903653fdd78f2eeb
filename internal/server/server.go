package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"dhtshare/internal/events"
	"dhtshare/internal/logger"
	"dhtshare/internal/metrics"
	"dhtshare/internal/protocol"
	"dhtshare/internal/store"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = 1 * time.Second
)

// Option はServerの設定を変更する
type Option func(*Server)

// WithLogger はロガーを設定する
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics はメトリクスの記録先を設定する
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithEvents はイベントの配信先を設定する
func WithEvents(b *events.Bus) Option {
	return func(s *Server) { s.events = b }
}

// WithMaxLineBytes は1リクエスト行の上限を設定する
func WithMaxLineBytes(n int) Option {
	return func(s *Server) { s.maxLine = n }
}

// WithIdleTimeout は1接続あたりの読み書き期限を設定する（0で無期限）
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// Server はブートストラップノードのTCPサーバー
type Server struct {
	store       store.Backend
	log         *logger.Logger
	metrics     *metrics.Metrics
	events      *events.Bus
	maxLine     int
	idleTimeout time.Duration

	mu      sync.Mutex
	addr    net.Addr
	conns   map[net.Conn]struct{}
	closing atomic.Bool
	wg      sync.WaitGroup
}

// New は新しいServerを作成する。st は全接続で共有される
func New(st store.Backend, opts ...Option) *Server {
	s := &Server{
		store:   st,
		log:     logger.Default,
		metrics: metrics.New(),
		maxLine: protocol.DefaultMaxLineBytes,
		conns:   make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics はメトリクスを返す
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Addr は待ち受け中のアドレスを返す。Serve前は nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe は addr で待ち受けを開始し、ctx が終了するまで接続を処理する
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve は accept → ハンドラ起動 → 繰り返し のループを実行する。
// 受付の失敗はログに記録してループを継続する。ctx が終了すると
// リスナーと処理中の接続を閉じ、全ハンドラの終了を待って nil を返す
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		s.closing.Store(true)
		_ = ln.Close()
	})
	defer stop()

	s.log.Info("", "Bootstrap node listening on %s", ln.Addr())

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.shutdown()
				return errors.Wrap(err, "listener closed")
			}

			s.reportAcceptError(err)

			backoff = nextBackoff(backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)

			peer := conn.RemoteAddr().String()
			if err := s.ServeConn(conn); err != nil {
				s.reportConnError(peer, err)
			}
		}()
	}
}

// shutdown は処理中の接続を閉じてハンドラの終了を待つ
func (s *Server) shutdown() {
	s.closing.Store(true)

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("", "Bootstrap node stopped")
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func nextBackoff(cur time.Duration) time.Duration {
	if cur == 0 {
		return minAcceptBackoff
	}
	cur *= 2
	if cur > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return cur
}

// reportAcceptError は受付失敗を記録する。致命的なエラーとしては扱わない
func (s *Server) reportAcceptError(err error) {
	err = errors.Mark(errors.Wrap(err, "accept connection"), protocol.ErrAccept)
	s.log.Error("", "%v", err)
	s.metrics.RecordAcceptError()
	s.events.Publish(events.NewErrorEvent(events.EventAcceptError, "", err))
}

// reportConnError はハンドラが返したエラーを分類して記録する
func (s *Server) reportConnError(peer string, err error) {
	switch {
	case errors.Is(err, protocol.ErrDecode):
		s.metrics.RecordDecodeError()
		s.events.Publish(events.NewErrorEvent(events.EventDecodeError, peer, err))
		s.log.Warn(peer, "Dropping connection without reply: %v", err)
	case s.closing.Load():
		s.log.Debug(peer, "Connection closed during shutdown: %v", err)
	default:
		s.metrics.RecordIOError()
		s.events.Publish(events.NewErrorEvent(events.EventIOError, peer, err))
		s.log.Warn(peer, "Connection failed: %v", err)
	}
}
