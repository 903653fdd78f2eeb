package protocol

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Encode はメッセージを外部タグ形式のJSONにエンコードする。
// フィールドを持たないバリアントは "Ack" のような文字列、
// それ以外は {"Store":{"key":"k","value":"v"}} のようなオブジェクトになる。
// 出力に改行は含まれない
func Encode(m Message) ([]byte, error) {
	switch m.Kind {
	case KindPing, KindPong, KindAck:
		return json.Marshal(string(m.Kind))
	case KindJoin:
		return encodeTagged(m.Kind, map[string]any{"node_id": m.NodeID})
	case KindStore:
		return encodeTagged(m.Kind, map[string]any{"key": m.Key, "value": m.Value})
	case KindLookup:
		return encodeTagged(m.Kind, map[string]any{"key": m.Key})
	case KindFileRequest:
		return encodeTagged(m.Kind, map[string]any{"file_id": m.FileID})
	case KindFileData:
		return encodeTagged(m.Kind, map[string]any{"file_id": m.FileID, "data": byteArray(m.Data)})
	default:
		return nil, errors.Newf("cannot encode message of unknown kind %q", string(m.Kind))
	}
}

func encodeTagged(kind Kind, body map[string]any) ([]byte, error) {
	return json.Marshal(map[string]any{string(kind): body})
}

// Decode は1行分のJSONをメッセージにデコードする。
// 未知のタグ、未知または欠落したフィールド、型の不一致は全て ErrDecode になる
func Decode(line []byte) (Message, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return Message{}, markDecode(err, "malformed message")
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Message{}, newDecodeError("empty message")
	}

	switch raw[0] {
	case '"':
		var tag string
		if err := json.Unmarshal(raw, &tag); err != nil {
			return Message{}, markDecode(err, "malformed message tag")
		}
		kind := Kind(tag)
		if !kind.Valid() {
			return Message{}, newDecodeError("unknown message variant %q", tag)
		}
		if !kind.unit() {
			return Message{}, newDecodeError("variant %q requires fields", tag)
		}
		return Message{Kind: kind}, nil

	case '{':
		var tagged map[string]json.RawMessage
		if err := json.Unmarshal(raw, &tagged); err != nil {
			return Message{}, markDecode(err, "malformed message object")
		}
		if len(tagged) != 1 {
			return Message{}, newDecodeError("message object must have exactly one variant tag, got %d", len(tagged))
		}
		for tag, body := range tagged {
			return decodeVariant(Kind(tag), body)
		}
	}

	return Message{}, newDecodeError("message must be a JSON string or object")
}

func decodeVariant(kind Kind, body json.RawMessage) (Message, error) {
	if !kind.Valid() {
		return Message{}, newDecodeError("unknown message variant %q", string(kind))
	}

	if kind.unit() {
		trimmed := bytes.TrimSpace(body)
		if bytes.Equal(trimmed, []byte("null")) {
			return Message{Kind: kind}, nil
		}
		var empty map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &empty); err != nil || len(empty) != 0 {
			return Message{}, newDecodeError("variant %q takes no fields", string(kind))
		}
		return Message{Kind: kind}, nil
	}

	switch kind {
	case KindJoin:
		f, err := decodeFields(kind, body, "node_id")
		if err != nil {
			return Message{}, err
		}
		nodeID, err := f.str("node_id")
		if err != nil {
			return Message{}, err
		}
		return Join(nodeID), nil

	case KindStore:
		f, err := decodeFields(kind, body, "key", "value")
		if err != nil {
			return Message{}, err
		}
		key, err := f.str("key")
		if err != nil {
			return Message{}, err
		}
		value, err := f.str("value")
		if err != nil {
			return Message{}, err
		}
		return Store(key, value), nil

	case KindLookup:
		f, err := decodeFields(kind, body, "key")
		if err != nil {
			return Message{}, err
		}
		key, err := f.str("key")
		if err != nil {
			return Message{}, err
		}
		return Lookup(key), nil

	case KindFileRequest:
		f, err := decodeFields(kind, body, "file_id")
		if err != nil {
			return Message{}, err
		}
		fileID, err := f.str("file_id")
		if err != nil {
			return Message{}, err
		}
		return FileRequest(fileID), nil

	case KindFileData:
		f, err := decodeFields(kind, body, "file_id", "data")
		if err != nil {
			return Message{}, err
		}
		fileID, err := f.str("file_id")
		if err != nil {
			return Message{}, err
		}
		data, err := f.bytes("data")
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindFileData, FileID: fileID, Data: data}, nil
	}

	return Message{}, newDecodeError("unknown message variant %q", string(kind))
}

// fields はバリアント本体のフィールド
type fields struct {
	kind Kind
	raw  map[string]json.RawMessage
}

// decodeFields は本体が names と完全に一致するフィールドを持つことを検証する
func decodeFields(kind Kind, body json.RawMessage, names ...string) (fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fields{}, markDecode(err, "malformed %s body", string(kind))
	}
	if raw == nil {
		return fields{}, newDecodeError("%s body must be an object", string(kind))
	}
	for name := range raw {
		if !slices.Contains(names, name) {
			return fields{}, newDecodeError("%s: unknown field %q", string(kind), name)
		}
	}
	for _, name := range names {
		if _, ok := raw[name]; !ok {
			return fields{}, newDecodeError("%s: missing field %q", string(kind), name)
		}
	}
	return fields{kind: kind, raw: raw}, nil
}

func (f fields) str(name string) (string, error) {
	v := bytes.TrimSpace(f.raw[name])
	if len(v) == 0 || v[0] != '"' {
		return "", newDecodeError("%s: field %q must be a string", string(f.kind), name)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", markDecode(err, "%s: field %q", string(f.kind), name)
	}
	return s, nil
}

func (f fields) bytes(name string) ([]byte, error) {
	var b byteArray
	if err := json.Unmarshal(f.raw[name], &b); err != nil {
		return nil, markDecode(err, "%s: field %q", string(f.kind), name)
	}
	return []byte(b), nil
}

// byteArray はバイト列を 0〜255 の整数配列としてJSON化する
type byteArray []byte

func (b byteArray) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, c := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(c), 10)
	}
	out = append(out, ']')
	return out, nil
}

func (b *byteArray) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return errors.New("byte data must be a JSON array of integers")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	out := make([]byte, len(elems))
	for i, elem := range elems {
		v, err := strconv.ParseUint(string(bytes.TrimSpace(elem)), 10, 8)
		if err != nil {
			return errors.Newf("byte %d is not an integer in 0..255: %s", i, string(elem))
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
