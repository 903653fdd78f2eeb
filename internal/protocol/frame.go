package protocol

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
)

// Delimiter は唯一のフレーミング手段
const Delimiter = '\n'

// DefaultMaxLineBytes は1行（1メッセージ）の既定の上限
const DefaultMaxLineBytes = 16 << 20

// WriteMessage はメッセージと区切り文字を1回の書き込みで送信する
func WriteMessage(w io.Writer, m Message) error {
	payload, err := Encode(m)
	if err != nil {
		return err
	}

	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, payload...)
	frame = append(frame, Delimiter)

	if _, err := w.Write(frame); err != nil {
		return markIO(err, "write message")
	}
	return nil
}

// ReadLine は区切り文字で終わる1行を読み取り、区切り文字（と直前の \r）を除いて返す。
// 何も読まずに接続が閉じられた場合は io.EOF、行の途中で閉じられた場合は
// io.ErrUnexpectedEOF を ErrIO として返す。maxLine が 0 以下なら上限なし
func ReadLine(r *bufio.Reader, maxLine int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice(Delimiter)
		line = append(line, chunk...)

		// 区切り文字と \r を除いた本体が上限を超えたら打ち切る
		if maxLine > 0 && len(line) > maxLine+2 {
			return nil, errors.Mark(ErrLineTooLong, ErrDecode)
		}

		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil, markIO(io.EOF, "read message")
			}
			return nil, markIO(io.ErrUnexpectedEOF, "read message")
		}
		return nil, markIO(err, "read message")
	}

	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if maxLine > 0 && len(line) > maxLine {
		return nil, errors.Mark(ErrLineTooLong, ErrDecode)
	}
	return line, nil
}

// ReadMessage は1行を読み取ってメッセージにデコードする
func ReadMessage(r *bufio.Reader, maxLine int) (Message, error) {
	line, err := ReadLine(r, maxLine)
	if err != nil {
		return Message{}, err
	}
	return Decode(line)
}
