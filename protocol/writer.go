package protocol

import (
	"bufio"
	"fmt"
	"io"
)

// Writer provides buffered writing of RESP frames. A Writer speaks one
// protocol version at a time; with RESP2 every frame is passed through
// Downgrade before it is encoded.
type Writer struct {
	bw      *bufio.Writer
	scratch []byte
	version int
}

// NewWriter creates a new RESP writer that writes frames unchanged (RESP3)
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		bw:      bufio.NewWriter(w),
		scratch: make([]byte, 0, 512),
		version: RESP3,
	}
}

// SetProtocol selects RESP2 or RESP3 output
func (w *Writer) SetProtocol(version int) error {
	if version != RESP2 && version != RESP3 {
		return fmt.Errorf("unsupported protocol version %d", version)
	}
	w.version = version
	return nil
}

// Protocol returns the protocol version in use
func (w *Writer) Protocol() int {
	return w.version
}

// WriteFrame encodes f into the output buffer. An *EncodeError leaves the
// buffer untouched.
func (w *Writer) WriteFrame(f Frame) error {
	if w.version == RESP2 {
		f = Downgrade(f)
	}
	buf, err := AppendFrame(w.scratch[:0], f)
	if err != nil {
		return err
	}
	w.scratch = buf
	_, err = w.bw.Write(buf)
	return err
}

// WriteSimpleString writes a simple string
func (w *Writer) WriteSimpleString(s string) error {
	return w.WriteFrame(SimpleString(s))
}

// WriteError writes an error message. Line breaks in msg are replaced
// with spaces.
func (w *Writer) WriteError(msg string) error {
	return w.WriteFrame(ErrorReply(msg))
}

// WriteInteger writes an integer
func (w *Writer) WriteInteger(n int64) error {
	return w.WriteFrame(Integer(n))
}

// WriteBulkString writes a bulk string
func (w *Writer) WriteBulkString(data []byte) error {
	return w.WriteFrame(BulkString(data))
}

// WriteNull writes the null reply of the negotiated protocol
func (w *Writer) WriteNull() error {
	return w.WriteFrame(Null{})
}

// WriteArray writes an array of frames
func (w *Writer) WriteArray(frames []Frame) error {
	return w.WriteFrame(Array(frames))
}

// WriteCommand writes a Redis command as a RESP array of bulk strings
func (w *Writer) WriteCommand(cmd string, args ...string) error {
	return w.WriteFrame(NewCommand(cmd, args...))
}

// WriteOK writes a simple "OK" response
func (w *Writer) WriteOK() error {
	return w.WriteSimpleString("OK")
}

// Flush flushes any buffered data to the underlying writer
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Reset discards buffered data and writes to writer from now on. The
// protocol version returns to RESP3.
func (w *Writer) Reset(writer io.Writer) {
	w.bw.Reset(writer)
	w.version = RESP3
}
