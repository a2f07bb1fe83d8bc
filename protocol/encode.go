package protocol

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// CRLF is the Redis protocol line terminator
	CRLF = "\r\n"
)

var (
	nullBulkBytes  = []byte("$-1\r\n")
	nullArrayBytes = []byte("*-1\r\n")
	nullBytes      = []byte("_\r\n")
	trueBytes      = []byte("#t\r\n")
	falseBytes     = []byte("#f\r\n")
)

// Encode returns the wire representation of f
func Encode(f Frame) ([]byte, error) {
	return AppendFrame(nil, f)
}

// AppendFrame appends the wire representation of f to dst. On error dst is
// returned unchanged.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	out, err := appendFrame(dst, f)
	if err != nil {
		return dst, err
	}
	return out, nil
}

// MustEncode is like Encode but panics on error. It is meant for frames
// built from constants.
func MustEncode(f Frame) []byte {
	b, err := Encode(f)
	if err != nil {
		panic(err)
	}
	return b
}

func appendFrame(dst []byte, f Frame) ([]byte, error) {
	switch v := f.(type) {
	case SimpleString:
		if err := validateLine(KindSimpleString, string(v)); err != nil {
			return dst, err
		}
		return appendLine(dst, TagSimpleString, string(v)), nil
	case SimpleError:
		if err := validateLine(KindSimpleError, string(v)); err != nil {
			return dst, err
		}
		return appendLine(dst, TagSimpleError, string(v)), nil
	case BulkError:
		return appendBulk(dst, TagBulkError, v), nil
	case Integer:
		dst = append(dst, TagInteger)
		dst = strconv.AppendInt(dst, int64(v), 10)
		return append(dst, CRLF...), nil
	case BulkString:
		return appendBulk(dst, TagBulkString, v), nil
	case NullBulkString:
		return append(dst, nullBulkBytes...), nil
	case Array:
		return appendAggregate(dst, TagArray, v)
	case NullArray:
		return append(dst, nullArrayBytes...), nil
	case Null:
		return append(dst, nullBytes...), nil
	case Boolean:
		if v {
			return append(dst, trueBytes...), nil
		}
		return append(dst, falseBytes...), nil
	case Double:
		dst = append(dst, TagDouble)
		dst = appendDouble(dst, float64(v))
		return append(dst, CRLF...), nil
	case *Map:
		return appendMap(dst, v)
	case Set:
		return appendAggregate(dst, TagSet, v)
	case nil:
		return dst, &EncodeError{Reason: "nil frame"}
	default:
		return dst, &EncodeError{Kind: f.Kind(), Reason: "unsupported frame type"}
	}
}

func appendLine(dst []byte, tag byte, text string) []byte {
	dst = append(dst, tag)
	dst = append(dst, text...)
	return append(dst, CRLF...)
}

func appendHeader(dst []byte, tag byte, n int) []byte {
	dst = append(dst, tag)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, CRLF...)
}

func appendBulk(dst []byte, tag byte, data []byte) []byte {
	dst = appendHeader(dst, tag, len(data))
	dst = append(dst, data...)
	return append(dst, CRLF...)
}

func appendAggregate(dst []byte, tag byte, elems []Frame) ([]byte, error) {
	dst = appendHeader(dst, tag, len(elems))
	var err error
	for _, elem := range elems {
		if dst, err = appendFrame(dst, elem); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func appendMap(dst []byte, m *Map) ([]byte, error) {
	entries := m.Entries()
	dst = appendHeader(dst, TagMap, len(entries))
	var err error
	for _, e := range entries {
		if err := validateLine(KindMap, e.Key); err != nil {
			return dst, err
		}
		dst = appendLine(dst, TagSimpleString, e.Key)
		if dst, err = appendFrame(dst, e.Value); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// appendDouble writes the shortest decimal text that parses back to f, or
// one of inf, -inf and nan.
func appendDouble(dst []byte, f float64) []byte {
	switch {
	case math.IsInf(f, 1):
		return append(dst, "inf"...)
	case math.IsInf(f, -1):
		return append(dst, "-inf"...)
	case math.IsNaN(f):
		return append(dst, "nan"...)
	}
	return strconv.AppendFloat(dst, f, 'g', -1, 64)
}

// validateLine checks text that is written between a type tag and CRLF
func validateLine(kind Kind, text string) error {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return &EncodeError{Kind: kind, Reason: "line break at byte " + strconv.Itoa(i)}
	}
	if !utf8.ValidString(text) {
		return &EncodeError{Kind: kind, Reason: "text is not valid UTF-8"}
	}
	return nil
}
