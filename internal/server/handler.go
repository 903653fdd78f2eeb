package server

import (
	"bufio"
	"net"
	"time"

	"dhtshare/internal/events"
	"dhtshare/internal/protocol"
)

// ServeConn は1接続分の交換を処理する:
// 1行読み取り (AwaitRequest) → デコードしてストアに適用 (Dispatch)
// → 応答を1行書き込み (SendReply) → 接続を閉じる (Done)。
// 読み取り・デコード・書き込みのいずれかが失敗した場合は応答せずにエラーを返す
func (s *Server) ServeConn(conn net.Conn) error {
	defer conn.Close()

	start := time.Now()
	peer := conn.RemoteAddr().String()

	if s.idleTimeout > 0 {
		_ = conn.SetDeadline(start.Add(s.idleTimeout))
	}

	line, err := protocol.ReadLine(bufio.NewReader(conn), s.maxLine)
	if err != nil {
		s.metrics.RecordFailure(time.Since(start))
		return err
	}

	req, err := protocol.Decode(line)
	if err != nil {
		s.metrics.RecordFailure(time.Since(start))
		return err
	}
	s.log.Debug(peer, "Received %s", req)

	reply := s.dispatch(peer, req)

	if err := protocol.WriteMessage(conn, reply); err != nil {
		s.metrics.RecordFailure(time.Since(start))
		return err
	}

	s.metrics.RecordRequest(string(req.Kind), time.Since(start))
	return nil
}

// dispatch はリクエストをストアに適用し、応答メッセージを返す
func (s *Server) dispatch(peer string, req protocol.Message) protocol.Message {
	switch req.Kind {
	case protocol.KindStore:
		s.store.Put(req.Key, req.Value)
		s.log.Info(peer, "Stored %q (%d bytes)", req.Key, len(req.Value))
		s.events.Publish(events.NewStoreEvent(peer, req.Key))
		return protocol.Ack()

	case protocol.KindLookup:
		value, found := s.store.Get(req.Key)
		s.metrics.RecordLookup(found)
		s.events.Publish(events.NewLookupEvent(peer, req.Key, found))
		if !found {
			s.log.Info(peer, "Lookup miss: %q", req.Key)
			return protocol.Ack()
		}
		s.log.Info(peer, "Lookup hit: %q", req.Key)
		return protocol.LookupResult(req.Key, value)

	case protocol.KindJoin:
		s.log.Info(peer, "Node %q joined", req.NodeID)
		s.events.Publish(events.NewJoinEvent(peer, req.NodeID))
		return protocol.Ack()

	default:
		// Ping, Pong, FileRequest, FileData は受領確認のみ
		return protocol.Ack()
	}
}
