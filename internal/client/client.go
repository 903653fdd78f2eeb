package client

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"dhtshare/internal/logger"
	"dhtshare/internal/protocol"
)

// ErrUnexpectedReply は応答のバリアントが要求に対して想定外であることを表す
var ErrUnexpectedReply = errors.New("unexpected reply")

// Option はClientの設定を変更する
type Option func(*Client)

// WithDialTimeout は接続確立の期限を設定する（0で無期限）
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithMaxLineBytes は応答行の上限を設定する
func WithMaxLineBytes(n int) Option {
	return func(c *Client) { c.maxLine = n }
}

// WithLogger はロガーを設定する
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client はブートストラップノードへの1要求1応答の呼び出しを行う
type Client struct {
	addr        string
	dialTimeout time.Duration
	maxLine     int
	log         *logger.Logger
}

// New は addr (host:port) のブートストラップノード向けのClientを作成する
func New(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		maxLine: protocol.DefaultMaxLineBytes,
		log:     logger.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr は接続先アドレスを返す
func (c *Client) Addr() string {
	return c.addr
}

// NewNodeID はJoin用のランダムなノードIDを生成する
func NewNodeID() string {
	return uuid.NewString()
}

// Call は接続を開き、req を1行送信し、応答を1行読み取って返す。
// 失敗は ErrConnect / ErrIO / ErrDecode のいずれかでマークされる。リトライはしない
func (c *Client) Call(ctx context.Context, req protocol.Message) (protocol.Message, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return protocol.Message{}, errors.Mark(
			errors.Wrapf(err, "could not connect to bootstrap node %s", c.addr), protocol.ErrConnect)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// キャンセル時はブロック中の読み書きを解除する
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	c.log.Debug(c.addr, "Sending %s", req)

	if err := protocol.WriteMessage(conn, req); err != nil {
		return protocol.Message{}, errors.Wrapf(err, "send %s", string(req.Kind))
	}

	reply, err := protocol.ReadMessage(bufio.NewReader(conn), c.maxLine)
	if err != nil {
		return protocol.Message{}, errors.Wrapf(err, "read %s response", string(req.Kind))
	}

	c.log.Debug(c.addr, "Received %s", reply)
	return reply, nil
}

// Join はネットワークへの参加を通知する。nodeID が空ならランダムなIDを使う
func (c *Client) Join(ctx context.Context, nodeID string) (protocol.Message, error) {
	if nodeID == "" {
		nodeID = NewNodeID()
	}
	return c.Call(ctx, protocol.Join(nodeID))
}

// Ping はブートストラップノードの応答を確認する
func (c *Client) Ping(ctx context.Context) error {
	reply, err := c.Call(ctx, protocol.Ping())
	if err != nil {
		return err
	}
	return expectAck(protocol.KindPing, reply)
}

// Store はキーと値を保存する
func (c *Client) Store(ctx context.Context, key, value string) error {
	reply, err := c.Call(ctx, protocol.Store(key, value))
	if err != nil {
		return err
	}
	return expectAck(protocol.KindStore, reply)
}

// Lookup はキーを検索する。見つからない場合は found が false になる
func (c *Client) Lookup(ctx context.Context, key string) (value string, found bool, err error) {
	reply, err := c.Call(ctx, protocol.Lookup(key))
	if err != nil {
		return "", false, err
	}

	switch reply.Kind {
	case protocol.KindAck:
		return "", false, nil
	case protocol.KindStore:
		if reply.Key != key {
			return "", false, errors.Wrapf(ErrUnexpectedReply,
				"lookup for %q answered for key %q", key, reply.Key)
		}
		return reply.Value, true, nil
	default:
		return "", false, errors.Wrapf(ErrUnexpectedReply, "lookup answered with %s", reply)
	}
}

func expectAck(kind protocol.Kind, reply protocol.Message) error {
	if reply.Kind != protocol.KindAck {
		return errors.Wrapf(ErrUnexpectedReply, "%s answered with %s", string(kind), reply)
	}
	return nil
}
