package protocol

import (
	"bytes"
	"cmp"
	"strings"
)

// Equal reports whether a and b are the same variant holding structurally
// equal payloads. Doubles follow IEEE semantics, so NaN is not equal to
// itself.
func Equal(a, b Frame) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case SimpleString:
		y, ok := b.(SimpleString)
		return ok && x == y
	case SimpleError:
		y, ok := b.(SimpleError)
		return ok && x == y
	case BulkError:
		y, ok := b.(BulkError)
		return ok && bytes.Equal(x, y)
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case BulkString:
		y, ok := b.(BulkString)
		return ok && bytes.Equal(x, y)
	case NullBulkString:
		_, ok := b.(NullBulkString)
		return ok
	case Array:
		y, ok := b.(Array)
		return ok && equalFrames(x, y)
	case NullArray:
		_, ok := b.(NullArray)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case Double:
		y, ok := b.(Double)
		return ok && x == y
	case *Map:
		y, ok := b.(*Map)
		return ok && equalMaps(x, y)
	case Set:
		y, ok := b.(Set)
		return ok && equalFrames(x, y)
	default:
		return false
	}
}

func equalFrames(a, b []Frame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalMaps(a, b *Map) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Range(func(key string, av Frame) bool {
		bv, ok := b.Get(key)
		equal = ok && Equal(av, bv)
		return equal
	})
	return equal
}

// Compare orders two frames of the same variant. It returns -1, 0 or +1 and
// true when the frames are comparable. Frames of different variants, NaN
// doubles and aggregates holding such a pair are not comparable and yield
// (0, false).
//
// Numbers compare numerically, string-like frames by their bytes, booleans
// with false before true. Arrays and sets compare element by element and the
// first difference decides; a shorter prefix sorts first. Maps compare their
// entries in key order, key before value.
func Compare(a, b Frame) (int, bool) {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return 0, false
	}
	switch x := a.(type) {
	case SimpleString:
		return strings.Compare(string(x), string(b.(SimpleString))), true
	case SimpleError:
		return strings.Compare(string(x), string(b.(SimpleError))), true
	case BulkError:
		return bytes.Compare(x, b.(BulkError)), true
	case Integer:
		return cmp.Compare(x, b.(Integer)), true
	case BulkString:
		return bytes.Compare(x, b.(BulkString)), true
	case NullBulkString, NullArray, Null:
		return 0, true
	case Boolean:
		y := b.(Boolean)
		switch {
		case x == y:
			return 0, true
		case !bool(x):
			return -1, true
		default:
			return 1, true
		}
	case Double:
		y := b.(Double)
		if x != x || y != y {
			return 0, false
		}
		return cmp.Compare(x, y), true
	case Array:
		return compareFrames(x, b.(Array))
	case Set:
		return compareFrames(x, b.(Set))
	case *Map:
		return compareMaps(x, b.(*Map))
	default:
		return 0, false
	}
}

func compareFrames(a, b []Frame) (int, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		c, ok := Compare(a[i], b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return cmp.Compare(len(a), len(b)), true
}

func compareMaps(a, b *Map) (int, bool) {
	ae, be := a.Entries(), b.Entries()
	for i := 0; i < len(ae) && i < len(be); i++ {
		if c := strings.Compare(ae[i].Key, be[i].Key); c != 0 {
			return c, true
		}
		c, ok := Compare(ae[i].Value, be[i].Value)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return cmp.Compare(len(ae), len(be)), true
}
