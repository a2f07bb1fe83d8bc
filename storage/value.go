package storage

import (
	"time"
	"unsafe"

	"github.com/raniellyferreira/respkit/protocol"
)

// entry is a stored frame with its optional expiry
type entry struct {
	value  protocol.Frame
	expiry *time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return e.expiry != nil && !now.Before(*e.expiry)
}

// TypeName returns the Redis type name for a stored frame. Scalars are
// strings, arrays lists, sets sets and maps hashes.
func TypeName(f protocol.Frame) string {
	switch f.(type) {
	case protocol.SimpleString, protocol.BulkString, protocol.Integer,
		protocol.Double, protocol.Boolean:
		return "string"
	case protocol.Array:
		return "list"
	case protocol.Set:
		return "set"
	case *protocol.Map:
		return "hash"
	default:
		return "none"
	}
}

// frameSize estimates the memory held by a frame in bytes
func frameSize(f protocol.Frame) int64 {
	// safe: unsafe.Sizeof is only used for memory accounting
	size := int64(unsafe.Sizeof(f))

	switch v := f.(type) {
	case protocol.SimpleString:
		size += int64(len(v))
	case protocol.SimpleError:
		size += int64(len(v))
	case protocol.BulkString:
		size += int64(len(v))
	case protocol.BulkError:
		size += int64(len(v))
	case protocol.Array:
		for _, elem := range v {
			size += frameSize(elem)
		}
	case protocol.Set:
		for _, elem := range v {
			size += frameSize(elem)
		}
	case *protocol.Map:
		v.Range(func(key string, value protocol.Frame) bool {
			size += int64(len(key)) + frameSize(value)
			return true
		})
	}
	return size
}
