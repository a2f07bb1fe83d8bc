package protocol

import (
	"errors"
	"io"
)

const (
	// minReadSize is the smallest free space handed to the underlying reader
	minReadSize = 4096

	// maxEmptyReads bounds consecutive (0, nil) reads before giving up
	maxEmptyReads = 100
)

var (
	// ErrBufferFull is returned when a frame does not fit in the reader's
	// configured buffer limit
	ErrBufferFull = errors.New("protocol: frame exceeds reader buffer limit")
)

// Reader is a streaming RESP reader. It accumulates bytes from the
// underlying reader and hands them to Decode until a complete frame is
// available.
//
// After a malformed frame every further call returns the same error; the
// stream position is lost.
type Reader struct {
	rd     io.Reader
	buf    []byte // buf[off:] holds bytes not yet consumed
	off    int
	limits Limits

	// maxBuffered limits the bytes held for a single pending frame, 0 means
	// no limit beyond the decode limits
	maxBuffered int

	readErr error
	err     error
}

// NewReader creates a new streaming RESP reader using DefaultLimits
func NewReader(r io.Reader) *Reader {
	return &Reader{
		rd:     r,
		buf:    make([]byte, 0, minReadSize),
		limits: DefaultLimits(),
	}
}

// SetLimits changes the limits applied to each decoded frame
func (r *Reader) SetLimits(limits Limits) {
	r.limits = limits.normalize()
}

// SetMaxBuffered limits how many bytes may be buffered while waiting for a
// single frame to complete. Zero disables the limit.
func (r *Reader) SetMaxBuffered(n int) {
	r.maxBuffered = n
}

// Buffered returns the number of bytes read from the underlying reader but
// not consumed by a frame yet
func (r *Reader) Buffered() int {
	return len(r.buf) - r.off
}

// ReadFrame reads the next frame from the stream.
//
// It returns io.EOF when the stream ends cleanly between frames and
// io.ErrUnexpectedEOF when it ends inside a frame.
func (r *Reader) ReadFrame() (Frame, error) {
	if r.err != nil {
		return nil, r.err
	}

	for {
		if r.off < len(r.buf) {
			f, n, err := DecodeWithLimits(r.buf[r.off:], r.limits)
			if err == nil {
				r.off += n
				return f, nil
			}
			if !errors.Is(err, ErrIncomplete) {
				r.err = err
				return nil, err
			}
		}

		if err := r.fill(); err != nil {
			if errors.Is(err, io.EOF) && r.Buffered() > 0 {
				err = io.ErrUnexpectedEOF
			}
			r.err = err
			return nil, err
		}
	}
}

// fill reads at least one more byte into the buffer
func (r *Reader) fill() error {
	if r.readErr != nil {
		return r.readErr
	}

	// Move pending bytes to the front so the buffer only grows for frames
	// that are genuinely large.
	if r.off > 0 {
		n := copy(r.buf, r.buf[r.off:])
		r.buf = r.buf[:n]
		r.off = 0
	}

	if r.maxBuffered > 0 && len(r.buf) >= r.maxBuffered {
		return ErrBufferFull
	}

	if cap(r.buf)-len(r.buf) < minReadSize {
		grown := make([]byte, len(r.buf), 2*cap(r.buf)+minReadSize)
		copy(grown, r.buf)
		r.buf = grown
	}

	for i := 0; i < maxEmptyReads; i++ {
		n, err := r.rd.Read(r.buf[len(r.buf):cap(r.buf)])
		r.buf = r.buf[:len(r.buf)+n]
		if err != nil {
			r.readErr = err
		}
		if n > 0 {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return io.ErrNoProgress
}

// Reset discards any buffered data and state and switches to reading
// from rd
func (r *Reader) Reset(rd io.Reader) {
	r.rd = rd
	r.buf = r.buf[:0]
	r.off = 0
	r.readErr = nil
	r.err = nil
}
