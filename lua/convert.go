package lua

import (
	"math"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/raniellyferreira/respkit/protocol"
)

// maxConvertDepth bounds nested script results, which may be cyclic tables
const maxConvertDepth = protocol.DefaultMaxDepth

// toLua converts a reply frame to the Lua value scripts receive from
// redis.call. Nil replies become false, status replies {ok=...}, nested
// errors {err=...}, doubles {double=...} and maps {map=...}.
func toLua(L *lua.LState, f protocol.Frame) lua.LValue {
	switch v := f.(type) {
	case protocol.BulkString:
		return lua.LString(v)
	case protocol.SimpleString:
		t := L.NewTable()
		t.RawSetString("ok", lua.LString(v))
		return t
	case protocol.SimpleError:
		return errorTable(L, string(v))
	case protocol.BulkError:
		return errorTable(L, string(v))
	case protocol.Integer:
		return lua.LNumber(v)
	case protocol.Boolean:
		return lua.LBool(v)
	case protocol.Double:
		t := L.NewTable()
		t.RawSetString("double", lua.LNumber(v))
		return t
	case protocol.Array:
		return sequenceTable(L, v)
	case protocol.Set:
		return sequenceTable(L, v)
	case *protocol.Map:
		inner := L.CreateTable(0, v.Len())
		v.Range(func(key string, value protocol.Frame) bool {
			inner.RawSetString(key, toLua(L, value))
			return true
		})
		t := L.NewTable()
		t.RawSetString("map", inner)
		return t
	default:
		// NullBulkString, NullArray, Null
		return lua.LFalse
	}
}

func sequenceTable(L *lua.LState, frames []protocol.Frame) *lua.LTable {
	t := L.CreateTable(len(frames), 0)
	for i, f := range frames {
		t.RawSetInt(i+1, toLua(L, f))
	}
	return t
}

// errorText returns the message of an error reply
func errorText(f protocol.Frame) (string, bool) {
	switch v := f.(type) {
	case protocol.SimpleError:
		return string(v), true
	case protocol.BulkError:
		return string(v), true
	default:
		return "", false
	}
}

// toFrame converts a script result to a reply frame. Strings become bulk
// strings, numbers integers (truncated), nil Null, and tables follow the
// ok, err, double, map and set conventions before being read as arrays up to
// the first nil.
func toFrame(lv lua.LValue, depth int) protocol.Frame {
	if depth > maxConvertDepth {
		return protocol.SimpleError("ERR reached lua stack limit")
	}

	switch v := lv.(type) {
	case lua.LString:
		return protocol.BulkString(v)
	case lua.LNumber:
		return protocol.Integer(truncate(float64(v)))
	case lua.LBool:
		return protocol.Boolean(v)
	case *lua.LTable:
		return tableFrame(v, depth)
	default:
		// nil and values that have no reply form (functions, userdata)
		return protocol.Null{}
	}
}

func tableFrame(t *lua.LTable, depth int) protocol.Frame {
	if ok, isString := t.RawGetString("ok").(lua.LString); isString {
		return protocol.SimpleString(protocol.ErrorReply(string(ok)))
	}
	if msg, isString := t.RawGetString("err").(lua.LString); isString {
		return protocol.ErrorReply(string(msg))
	}
	if d, isNumber := t.RawGetString("double").(lua.LNumber); isNumber {
		return protocol.Double(d)
	}
	if inner, isTable := t.RawGetString("map").(*lua.LTable); isTable {
		m := protocol.NewMap()
		inner.ForEach(func(k, v lua.LValue) {
			if key, ok := tableKey(k); ok {
				m.Set(key, toFrame(v, depth+1))
			}
		})
		return m
	}
	if inner, isTable := t.RawGetString("set").(*lua.LTable); isTable {
		var members []string
		inner.ForEach(func(k, _ lua.LValue) {
			if key, ok := tableKey(k); ok {
				members = append(members, key)
			}
		})
		sort.Strings(members)
		set := make(protocol.Set, len(members))
		for i, member := range members {
			set[i] = protocol.BulkString(member)
		}
		return set
	}

	arr := make(protocol.Array, 0, t.Len())
	for i := 1; ; i++ {
		v := t.RawGetInt(i)
		if v == lua.LNil {
			break
		}
		arr = append(arr, toFrame(v, depth+1))
	}
	return arr
}

// tableKey returns the text of a string or number table key
func tableKey(k lua.LValue) (string, bool) {
	switch v := k.(type) {
	case lua.LString:
		return string(v), true
	case lua.LNumber:
		return v.String(), true
	default:
		return "", false
	}
}

func truncate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
