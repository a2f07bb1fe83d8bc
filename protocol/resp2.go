package protocol

import "strings"

// Protocol versions negotiated with HELLO
const (
	RESP2 = 2
	RESP3 = 3
)

// Downgrade rewrites f so it only uses types a RESP2 peer understands.
// Maps become flat key/value arrays, sets become arrays, Null becomes the
// null bulk string, booleans become the integers 1 and 0, doubles become bulk
// strings of their text and bulk errors become simple errors. Aggregates are
// rewritten recursively; frames that are already RESP2 are returned as is.
func Downgrade(f Frame) Frame {
	switch v := f.(type) {
	case Null:
		return NullBulkString{}
	case Boolean:
		if v {
			return Integer(1)
		}
		return Integer(0)
	case Double:
		return BulkString(appendDouble(nil, float64(v)))
	case BulkError:
		return SimpleError(flattenLine(string(v)))
	case Array:
		return downgradeFrames(v)
	case Set:
		return downgradeFrames(v)
	case *Map:
		out := make(Array, 0, 2*v.Len())
		v.Range(func(key string, value Frame) bool {
			out = append(out, BulkString(key), Downgrade(value))
			return true
		})
		return out
	default:
		return f
	}
}

func downgradeFrames(frames []Frame) Array {
	out := make(Array, len(frames))
	for i, f := range frames {
		out[i] = Downgrade(f)
	}
	return out
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// flattenLine replaces line breaks and invalid UTF-8 so text can be sent as
// a simple string or simple error
func flattenLine(s string) string {
	s = strings.ToValidUTF8(s, "�")
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return lineBreaks.Replace(s)
}

// ErrorReply builds an error frame from arbitrary text, replacing line
// breaks with spaces
func ErrorReply(msg string) SimpleError {
	return SimpleError(flattenLine(msg))
}
