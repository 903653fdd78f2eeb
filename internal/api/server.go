package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"golang.org/x/net/websocket"

	"dhtshare/internal/events"
	"dhtshare/internal/logger"
	"dhtshare/internal/metrics"
)

// Node は管理APIが参照するブートストラップノード
type Node interface {
	Addr() net.Addr
	Metrics() *metrics.Metrics
}

// Counter は保存件数を返す。ストアを書き換える手段は渡さない
type Counter interface {
	Len() int
}

// Server は管理APIサーバー
type Server struct {
	addr    string
	node    Node
	store   Counter
	bus     *events.Bus
	started time.Time

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	server *http.Server
}

// NewServer は新しいAPIサーバーを作成する。bus が nil なら /ws は何も配信しない
func NewServer(addr string, node Node, store Counter, bus *events.Bus) *Server {
	return &Server{
		addr:    addr,
		node:    node,
		store:   store,
		bus:     bus,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/metrics", s.handleMetrics).Methods(http.MethodGet)
	router.Handle("/ws", websocket.Handler(s.handleWebSocket)).Methods(http.MethodGet)

	return router
}

// Start はサーバーを開始し、ctx が終了するまでブロックする
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "admin API listen on %s", s.addr)
	}
	return s.Serve(ctx, ln)
}

// Serve は ln で待ち受ける。ctx が終了すると接続中のリクエストを待って停止する
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	logger.Info("api", "Admin API listening on http://%s", ln.Addr())

	stop := context.AfterFunc(ctx, func() {
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "admin API")
	}
	return nil
}

// Close はWebSocketの配信を終了させる
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Listen  string `json:"listen"`
	Entries int    `json:"entries"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if addr := s.node.Addr(); addr != nil {
		resp.Listen = addr.String()
	}
	if s.store != nil {
		resp.Entries = s.store.Len()
	}

	s.writeJSON(w, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.node.Metrics().Snapshot())
}

// handleWebSocket は発生したイベントを1件ずつJSONで送る
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	defer ws.Close()

	var stream <-chan events.Event
	if s.bus != nil {
		sub := s.bus.Subscribe()
		defer s.bus.Unsubscribe(sub)
		stream = sub
	}

	// クライアントからの受信はすべて捨てる。切断の検知にだけ使う
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			var msg string
			if err := websocket.Message.Receive(ws, &msg); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-s.done:
			return
		case <-gone:
			return
		case ev, ok := <-stream:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(ws, ev); err != nil {
				logger.Debug("api", "WebSocket send failed: %v", err)
				return
			}
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("api", "Failed to encode JSON: %v", err)
	}
}
