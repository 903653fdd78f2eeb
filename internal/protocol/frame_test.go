package protocol

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMessageAppendsDelimiter(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteMessage(&buf, Store("alpha", "1")))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestReadMessageSequence(t *testing.T) {
	var buf bytes.Buffer
	msgs := []Message{Join("n1"), Store("k", "v"), FileData("f", allBytes()), Ack()}
	for _, m := range msgs {
		require.NoError(t, WriteMessage(&buf, m))
	}

	r := bufio.NewReader(&buf)
	for _, want := range msgs {
		got, err := ReadMessage(r, DefaultMaxLineBytes)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ReadMessage(r, DefaultMaxLineBytes)
	assert.True(t, errors.Is(err, io.EOF))
	assert.True(t, errors.Is(err, ErrIO))
}

func TestReadLineTrimsCarriageReturn(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\"Ack\"\r\n"))

	msg, err := ReadMessage(r, 0)
	require.NoError(t, err)
	assert.Equal(t, Ack(), msg)
}

func TestReadLinePeerClosedMidLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(`{"Store":{"key":"a","value":"b"}}`))

	_, err := ReadLine(r, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.True(t, errors.Is(err, ErrIO))
}

func TestReadLineLongerThanBuffer(t *testing.T) {
	value := strings.Repeat("x", 10000)
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, Store("big", value)))

	// bufio buffer smaller than the line
	r := bufio.NewReaderSize(&buf, 64)
	msg, err := ReadMessage(r, DefaultMaxLineBytes)
	require.NoError(t, err)
	assert.Equal(t, value, msg.Value)
}

func TestReadLineTooLong(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader(strings.Repeat("a", 500)+"\n"), 16)

	_, err := ReadLine(r, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLineTooLong))
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestReadLineExactlyAtLimit(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(strings.Repeat("a", 100) + "\r\n"))

	line, err := ReadLine(r, 100)
	require.NoError(t, err)
	assert.Len(t, line, 100)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteMessageFailureIsIOError(t *testing.T) {
	err := WriteMessage(failingWriter{}, Ack())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, io.ErrClosedPipe))
}
