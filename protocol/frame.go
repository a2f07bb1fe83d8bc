package protocol

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a Frame
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindSimpleError
	KindBulkError
	KindInteger
	KindBulkString
	KindNullBulkString
	KindArray
	KindNullArray
	KindNull
	KindBoolean
	KindDouble
	KindMap
	KindSet
)

// RESP type tags as they appear on the wire
const (
	TagSimpleString byte = '+'
	TagSimpleError  byte = '-'
	TagBulkError    byte = '!'
	TagInteger      byte = ':'
	TagBulkString   byte = '$'
	TagArray        byte = '*'
	TagNull         byte = '_'
	TagBoolean      byte = '#'
	TagDouble       byte = ','
	TagMap          byte = '%'
	TagSet          byte = '~'
)

var kindNames = [...]string{
	KindSimpleString:   "simple-string",
	KindSimpleError:    "simple-error",
	KindBulkError:      "bulk-error",
	KindInteger:        "integer",
	KindBulkString:     "bulk-string",
	KindNullBulkString: "null-bulk-string",
	KindArray:          "array",
	KindNullArray:      "null-array",
	KindNull:           "null",
	KindBoolean:        "boolean",
	KindDouble:         "double",
	KindMap:            "map",
	KindSet:            "set",
}

var kindTags = [...]byte{
	KindSimpleString:   TagSimpleString,
	KindSimpleError:    TagSimpleError,
	KindBulkError:      TagBulkError,
	KindInteger:        TagInteger,
	KindBulkString:     TagBulkString,
	KindNullBulkString: TagBulkString,
	KindArray:          TagArray,
	KindNullArray:      TagArray,
	KindNull:           TagNull,
	KindBoolean:        TagBoolean,
	KindDouble:         TagDouble,
	KindMap:            TagMap,
	KindSet:            TagSet,
}

// String returns the name of the kind
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Tag returns the wire type byte of the kind. NullBulkString and NullArray
// share the tags of BulkString and Array.
func (k Kind) Tag() byte {
	if int(k) < len(kindTags) {
		return kindTags[k]
	}
	return 0
}

// IsAggregate reports whether frames of this kind contain nested frames
func (k Kind) IsAggregate() bool {
	return k == KindArray || k == KindMap || k == KindSet
}

// Frame is a single RESP value. The set of implementations is closed to the
// types declared in this package.
type Frame interface {
	Kind() Kind
	String() string
	isFrame()
}

// SimpleString is a line-delimited status reply such as "+OK"
type SimpleString string

// SimpleError is a line-delimited error reply such as "-ERR unknown command"
type SimpleError string

// BulkError is a length-prefixed error reply; it may contain any bytes
type BulkError []byte

// Integer is a signed 64-bit integer reply
type Integer int64

// BulkString is a length-prefixed binary-safe string
type BulkString []byte

// NullBulkString is the RESP2 null bulk string "$-1"
type NullBulkString struct{}

// Array is an ordered sequence of frames
type Array []Frame

// NullArray is the RESP2 null array "*-1"
type NullArray struct{}

// Null is the RESP3 null "_"
type Null struct{}

// Boolean is a RESP3 boolean
type Boolean bool

// Double is a RESP3 floating point number, including infinities and NaN
type Double float64

// Set is a RESP3 set. Elements keep insertion order and duplicates are not
// removed.
type Set []Frame

func (SimpleString) Kind() Kind   { return KindSimpleString }
func (SimpleError) Kind() Kind    { return KindSimpleError }
func (BulkError) Kind() Kind      { return KindBulkError }
func (Integer) Kind() Kind        { return KindInteger }
func (BulkString) Kind() Kind     { return KindBulkString }
func (NullBulkString) Kind() Kind { return KindNullBulkString }
func (Array) Kind() Kind          { return KindArray }
func (NullArray) Kind() Kind      { return KindNullArray }
func (Null) Kind() Kind           { return KindNull }
func (Boolean) Kind() Kind        { return KindBoolean }
func (Double) Kind() Kind         { return KindDouble }
func (Set) Kind() Kind            { return KindSet }

func (SimpleString) isFrame()   {}
func (SimpleError) isFrame()    {}
func (BulkError) isFrame()      {}
func (Integer) isFrame()        {}
func (BulkString) isFrame()     {}
func (NullBulkString) isFrame() {}
func (Array) isFrame()          {}
func (NullArray) isFrame()      {}
func (Null) isFrame()           {}
func (Boolean) isFrame()        {}
func (Double) isFrame()         {}
func (Set) isFrame()            {}

// String returns the status text
func (s SimpleString) String() string { return string(s) }

// String returns the error text prefixed with "(error)"
func (e SimpleError) String() string { return "(error) " + string(e) }

// String returns the error text prefixed with "(error)"
func (e BulkError) String() string { return "(error) " + string(e) }

// String returns the decimal form of the integer
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// String returns the raw bytes as a string
func (b BulkString) String() string { return string(b) }

// String returns "(nil)"
func (NullBulkString) String() string { return "(nil)" }

// String returns "(nil)"
func (NullArray) String() string { return "(nil)" }

// String returns "(nil)"
func (Null) String() string { return "(nil)" }

// String returns "true" or "false"
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// String returns the same text the encoder writes on the wire
func (d Double) String() string { return string(appendDouble(nil, float64(d))) }

// String returns the elements in brackets
func (a Array) String() string { return "[" + joinFrames(a) + "]" }

// String returns the elements in brackets, prefixed with "~"
func (s Set) String() string { return "~[" + joinFrames(s) + "]" }

func joinFrames(frames []Frame) string {
	parts := make([]string, len(frames))
	for i, f := range frames {
		if f == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

// Text returns the textual payload of string-like frames (SimpleString,
// SimpleError, BulkString, BulkError) and false for every other kind.
func Text(f Frame) (string, bool) {
	switch v := f.(type) {
	case SimpleString:
		return string(v), true
	case SimpleError:
		return string(v), true
	case BulkString:
		return string(v), true
	case BulkError:
		return string(v), true
	default:
		return "", false
	}
}

// IsNull reports whether f is one of the null variants
func IsNull(f Frame) bool {
	switch f.(type) {
	case Null, NullBulkString, NullArray:
		return true
	default:
		return false
	}
}

// IsError reports whether f is an error reply
func IsError(f Frame) bool {
	switch f.(type) {
	case SimpleError, BulkError:
		return true
	default:
		return false
	}
}
