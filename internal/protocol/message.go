package protocol

import (
	"fmt"
)

// Kind はメッセージのバリアントを表すタグ
type Kind string

const (
	KindJoin        Kind = "Join"
	KindPing        Kind = "Ping"
	KindPong        Kind = "Pong"
	KindStore       Kind = "Store"
	KindLookup      Kind = "Lookup"
	KindFileRequest Kind = "FileRequest"
	KindFileData    Kind = "FileData"
	KindAck         Kind = "Ack"
)

// Valid は既知のバリアントかどうかを返す
func (k Kind) Valid() bool {
	switch k {
	case KindJoin, KindPing, KindPong, KindStore, KindLookup,
		KindFileRequest, KindFileData, KindAck:
		return true
	default:
		return false
	}
}

// unit はフィールドを持たないバリアントかどうかを返す
func (k Kind) unit() bool {
	return k == KindPing || k == KindPong || k == KindAck
}

// Message はプロトコル上でやり取りされる1単位。
// Kind に応じて意味を持つフィールドだけが設定される:
//
//	Join        NodeID
//	Store       Key, Value
//	Lookup      Key
//	FileRequest FileID
//	FileData    FileID, Data
//
// 構築後は変更しない
type Message struct {
	Kind   Kind
	NodeID string
	Key    string
	Value  string
	FileID string
	Data   []byte
}

// Join はネットワーク参加メッセージを作成する
func Join(nodeID string) Message {
	return Message{Kind: KindJoin, NodeID: nodeID}
}

// Ping は死活確認メッセージを作成する
func Ping() Message {
	return Message{Kind: KindPing}
}

// Pong はPingへの応答メッセージを作成する
func Pong() Message {
	return Message{Kind: KindPong}
}

// Store はキーと値の保存要求を作成する
func Store(key, value string) Message {
	return Message{Kind: KindStore, Key: key, Value: value}
}

// LookupResult はLookup成功時の応答を作成する。
// 新しいバリアントではなく、Store と同じ形のメッセージで値を運ぶ
func LookupResult(key, value string) Message {
	return Store(key, value)
}

// Lookup はキーの検索要求を作成する
func Lookup(key string) Message {
	return Message{Kind: KindLookup, Key: key}
}

// FileRequest はファイル（またはチャンク）の要求を作成する
func FileRequest(fileID string) Message {
	return Message{Kind: KindFileRequest, FileID: fileID}
}

// FileData はファイルデータを運ぶメッセージを作成する。data はコピーされる
func FileData(fileID string, data []byte) Message {
	return Message{Kind: KindFileData, FileID: fileID, Data: append([]byte{}, data...)}
}

// Ack はデフォルトの応答メッセージを作成する
func Ack() Message {
	return Message{Kind: KindAck}
}

// String はログ出力用の表現を返す
func (m Message) String() string {
	switch m.Kind {
	case KindJoin:
		return fmt.Sprintf("Join{node_id: %q}", m.NodeID)
	case KindStore:
		return fmt.Sprintf("Store{key: %q, value: %q}", m.Key, m.Value)
	case KindLookup:
		return fmt.Sprintf("Lookup{key: %q}", m.Key)
	case KindFileRequest:
		return fmt.Sprintf("FileRequest{file_id: %q}", m.FileID)
	case KindFileData:
		return fmt.Sprintf("FileData{file_id: %q, data: %d bytes}", m.FileID, len(m.Data))
	case KindPing, KindPong, KindAck:
		return string(m.Kind)
	default:
		return fmt.Sprintf("Unknown(%q)", string(m.Kind))
	}
}
