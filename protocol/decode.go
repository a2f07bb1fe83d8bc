package protocol

import (
	"bytes"
	"unicode/utf8"
)

const (
	// DefaultMaxDepth is the default limit on aggregate nesting
	DefaultMaxDepth = 128

	// DefaultMaxBulkLen is the default limit on bulk payloads (512MB)
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// DefaultMaxAggregateLen is the default limit on aggregate element counts
	DefaultMaxAggregateLen = 1024 * 1024

	// minFrameLen is the size of the shortest complete frame ("_\r\n")
	minFrameLen = 3
)

// Limits constrains the resources a single Decode call may commit to.
// Zero fields fall back to the defaults.
type Limits struct {
	MaxDepth        int
	MaxBulkLen      int64
	MaxAggregateLen int64
}

// DefaultLimits returns the limits used by Decode
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        DefaultMaxDepth,
		MaxBulkLen:      DefaultMaxBulkLen,
		MaxAggregateLen: DefaultMaxAggregateLen,
	}
}

func (l Limits) normalize() Limits {
	def := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = def.MaxBulkLen
	}
	if l.MaxAggregateLen <= 0 {
		l.MaxAggregateLen = def.MaxAggregateLen
	}
	return l
}

// Decode parses exactly one frame from the start of buf using DefaultLimits.
//
// It returns the frame and the number of bytes it occupies. If buf holds only
// a prefix of a frame the error is ErrIncomplete and nothing is consumed; the
// caller appends more data and calls Decode again on the same buffer. If buf
// violates the protocol the error is a *MalformedError.
//
// The returned frame does not reference buf.
func Decode(buf []byte) (Frame, int, error) {
	return DecodeWithLimits(buf, DefaultLimits())
}

// DecodeWithLimits is like Decode with explicit limits
func DecodeWithLimits(buf []byte, limits Limits) (Frame, int, error) {
	d := decoder{buf: buf, limits: limits.normalize()}
	f, n, err := d.frame(0, 0)
	if err != nil {
		return nil, 0, err
	}
	return f, n, nil
}

// decoder is a recursive descent parser over a fixed buffer. Every method
// takes the offset to start at and returns the offset just past what it
// parsed.
type decoder struct {
	buf    []byte
	limits Limits
}

func (d *decoder) frame(pos, depth int) (Frame, int, error) {
	if pos >= len(d.buf) {
		return nil, 0, ErrIncomplete
	}

	switch tag := d.buf[pos]; tag {
	case TagSimpleString, TagSimpleError:
		line, next, err := d.line(pos + 1)
		if err != nil {
			return nil, 0, err
		}
		if !utf8.Valid(line) {
			return nil, 0, malformed(pos+1, "text is not valid UTF-8")
		}
		if tag == TagSimpleError {
			return SimpleError(line), next, nil
		}
		return SimpleString(line), next, nil

	case TagInteger:
		line, next, err := d.line(pos + 1)
		if err != nil {
			return nil, 0, err
		}
		n, err := parseInteger(line)
		if err != nil {
			return nil, 0, malformed(pos+1, "invalid integer %q", line)
		}
		return Integer(n), next, nil

	case TagDouble:
		line, next, err := d.line(pos + 1)
		if err != nil {
			return nil, 0, err
		}
		f, ok := parseDouble(line)
		if !ok {
			return nil, 0, malformed(pos+1, "invalid double %q", line)
		}
		return Double(f), next, nil

	case TagBoolean:
		line, next, err := d.line(pos + 1)
		if err != nil {
			return nil, 0, err
		}
		switch {
		case len(line) == 1 && line[0] == 't':
			return Boolean(true), next, nil
		case len(line) == 1 && line[0] == 'f':
			return Boolean(false), next, nil
		}
		return nil, 0, malformed(pos+1, "invalid boolean %q", line)

	case TagNull:
		line, next, err := d.line(pos + 1)
		if err != nil {
			return nil, 0, err
		}
		if len(line) != 0 {
			return nil, 0, malformed(pos+1, "null frame has payload %q", line)
		}
		return Null{}, next, nil

	case TagBulkString, TagBulkError:
		return d.bulk(pos, tag)

	case TagArray, TagSet:
		return d.sequence(pos, depth, tag)

	case TagMap:
		return d.mapFrame(pos, depth)

	default:
		return nil, 0, malformed(pos, "unknown type byte %q", tag)
	}
}

// line returns the bytes between start and the next CRLF, and the offset
// after the CRLF.
func (d *decoder) line(start int) ([]byte, int, error) {
	rest := d.buf[start:]
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		// A CR that is already followed by something other than LF can
		// never become a terminator.
		if cr := bytes.IndexByte(rest, '\r'); cr >= 0 && cr < len(rest)-1 {
			return nil, 0, malformed(start+cr, "CR not followed by LF")
		}
		return nil, 0, ErrIncomplete
	}
	if i == 0 || rest[i-1] != '\r' {
		return nil, 0, malformed(start+i, "LF not preceded by CR")
	}
	line := rest[:i-1]
	if cr := bytes.IndexByte(line, '\r'); cr >= 0 {
		return nil, 0, malformed(start+cr, "CR not followed by LF")
	}
	return line, start + i + 1, nil
}

func (d *decoder) bulk(pos int, tag byte) (Frame, int, error) {
	header, next, err := d.line(pos + 1)
	if err != nil {
		return nil, 0, err
	}

	n, ok := parseLength(header)
	if !ok {
		return nil, 0, malformed(pos+1, "invalid bulk length %q", header)
	}
	if n == -1 {
		if tag == TagBulkString {
			return NullBulkString{}, next, nil
		}
		return nil, 0, malformed(pos+1, "bulk error cannot be null")
	}
	if n > d.limits.MaxBulkLen {
		return nil, 0, malformed(pos+1, "bulk length %d exceeds limit %d", n, d.limits.MaxBulkLen)
	}

	size := int(n)
	avail := len(d.buf) - next
	// Trailer bytes that have already arrived are checked right away so a
	// short payload is reported as malformed instead of incomplete.
	if avail > size && d.buf[next+size] != '\r' {
		return nil, 0, malformed(next+size, "bulk payload not terminated by CRLF")
	}
	if avail > size+1 && d.buf[next+size+1] != '\n' {
		return nil, 0, malformed(next+size+1, "bulk payload not terminated by CRLF")
	}
	if avail < size+2 {
		return nil, 0, ErrIncomplete
	}

	payload := make([]byte, size)
	copy(payload, d.buf[next:next+size])
	end := next + size + 2

	if tag == TagBulkError {
		return BulkError(payload), end, nil
	}
	return BulkString(payload), end, nil
}

// aggregateHeader parses the element count of an aggregate and enforces the
// count and depth limits. A count of -1 is returned as is.
func (d *decoder) aggregateHeader(pos, depth int) (int64, int, error) {
	header, next, err := d.line(pos + 1)
	if err != nil {
		return 0, 0, err
	}

	n, ok := parseLength(header)
	if !ok {
		return 0, 0, malformed(pos+1, "invalid aggregate length %q", header)
	}
	if n > d.limits.MaxAggregateLen {
		return 0, 0, malformed(pos+1, "aggregate length %d exceeds limit %d", n, d.limits.MaxAggregateLen)
	}
	if n > 0 && depth >= d.limits.MaxDepth {
		return 0, 0, malformed(pos, "nesting exceeds depth limit %d", d.limits.MaxDepth)
	}
	return n, next, nil
}

func (d *decoder) sequence(pos, depth int, tag byte) (Frame, int, error) {
	n, next, err := d.aggregateHeader(pos, depth)
	if err != nil {
		return nil, 0, err
	}
	if n == -1 {
		if tag == TagArray {
			return NullArray{}, next, nil
		}
		return nil, 0, malformed(pos+1, "set cannot be null")
	}

	elems := make([]Frame, 0, d.capacity(n, next, minFrameLen))
	for i := int64(0); i < n; i++ {
		var elem Frame
		elem, next, err = d.frame(next, depth+1)
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, elem)
	}

	if tag == TagSet {
		return Set(elems), next, nil
	}
	return Array(elems), next, nil
}

func (d *decoder) mapFrame(pos, depth int) (Frame, int, error) {
	n, next, err := d.aggregateHeader(pos, depth)
	if err != nil {
		return nil, 0, err
	}
	if n == -1 {
		return nil, 0, malformed(pos+1, "map cannot be null")
	}

	m := &Map{entries: make(map[string]Frame, d.capacity(n, next, 2*minFrameLen))}
	for i := int64(0); i < n; i++ {
		keyPos := next
		var key, value Frame
		key, next, err = d.frame(next, depth+1)
		if err != nil {
			return nil, 0, err
		}
		text, ok := mapKey(key)
		if !ok {
			return nil, 0, malformed(keyPos, "map key must be text, got %s", key.Kind())
		}
		if _, dup := m.entries[text]; dup {
			return nil, 0, malformed(keyPos, "duplicate map key %q", text)
		}

		value, next, err = d.frame(next, depth+1)
		if err != nil {
			return nil, 0, err
		}
		m.entries[text] = value
	}
	return m, next, nil
}

// capacity bounds preallocation by what the remaining bytes could possibly
// hold, so a forged count cannot force a large allocation.
func (d *decoder) capacity(n int64, next, minLen int) int {
	fit := int64((len(d.buf) - next) / minLen)
	if n < fit {
		return int(n)
	}
	return int(fit)
}

func mapKey(f Frame) (string, bool) {
	switch k := f.(type) {
	case SimpleString:
		return string(k), true
	case BulkString:
		if !utf8.Valid(k) {
			return "", false
		}
		return string(k), true
	default:
		return "", false
	}
}
