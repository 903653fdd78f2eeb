package protocol

import "github.com/cockroachdb/errors"

// エラー分類。各エラーは errors.Mark で付与され、errors.Is で判定する
var (
	// ErrConnect はTCP接続を確立できなかったことを表す
	ErrConnect = errors.New("connect error")
	// ErrIO は交換途中の読み書き失敗を表す
	ErrIO = errors.New("io error")
	// ErrDecode は不正または未知のメッセージエンコーディングを表す
	ErrDecode = errors.New("decode error")
	// ErrAccept はリスナーが1件の接続受付に失敗したことを表す
	ErrAccept = errors.New("accept error")
)

// ErrLineTooLong は区切り文字までの行が上限を超えたことを表す
var ErrLineTooLong = errors.New("line exceeds maximum length")

func markDecode(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrDecode)
}

func newDecodeError(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrDecode)
}

func markIO(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrIO)
}
