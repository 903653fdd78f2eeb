package filechunk

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"lukechampine.com/blake3"
)

// DefaultChunkSize は分割サイズの既定値（1 MiB）
const DefaultChunkSize = 1 << 20

// Digest はチャンクのハッシュアルゴリズム名
type Digest string

const (
	DigestSHA256 Digest = "sha256"
	DigestBLAKE3 Digest = "blake3"
)

// blake3 の出力サイズ（バイト）
const blake3Size = 32

// ParseDigest はアルゴリズム名を解釈する。空文字は sha256
func ParseDigest(s string) (Digest, error) {
	switch Digest(strings.ToLower(strings.TrimSpace(s))) {
	case "", DigestSHA256:
		return DigestSHA256, nil
	case DigestBLAKE3:
		return DigestBLAKE3, nil
	default:
		return "", errors.Newf("unknown digest: %q", s)
	}
}

func (d Digest) newHash() (hash.Hash, error) {
	switch d {
	case DigestSHA256:
		return sha256.New(), nil
	case DigestBLAKE3:
		return blake3.New(blake3Size, nil), nil
	default:
		return nil, errors.Newf("unknown digest: %q", string(d))
	}
}

// Chunk は分割されたファイルの一片
type Chunk struct {
	Index  int
	Offset int64
	Data   []byte
}

// Split は path のファイルを chunkSize バイトごとに分割する。
// 最後のチャンクだけは短くなりうる。空のファイルはチャンクを持たない
func Split(path string, chunkSize int) ([][]byte, error) {
	chunks, err := SplitChunks(path, chunkSize)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(chunks))
	for i, c := range chunks {
		out[i] = c.Data
	}
	return out, nil
}

// SplitChunks は Split と同じだが、各チャンクの位置も返す
func SplitChunks(path string, chunkSize int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, errors.Newf("chunk size must be positive, got %d", chunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var chunks []Chunk
	var offset int64
	for {
		buf := make([]byte, chunkSize)
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			chunks = append(chunks, Chunk{Index: len(chunks), Offset: offset, Data: buf[:n]})
			offset += int64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return chunks, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
	}
}

// Hash は data の SHA-256 を小文字の16進文字列で返す
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashWith は指定したアルゴリズムで data のハッシュを16進文字列で返す
func HashWith(d Digest, data []byte) (string, error) {
	h, err := d.newHash()
	if err != nil {
		return "", err
	}
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile はファイル全体をメモリに載せずにハッシュする
func HashFile(d Digest, path string) (string, error) {
	h, err := d.newHash()
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
