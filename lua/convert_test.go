package lua

import (
	"math"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/raniellyferreira/respkit/protocol"
)

func TestToLua(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tests := []struct {
		name  string
		frame protocol.Frame
		check func(lua.LValue) bool
	}{
		{"bulk string", protocol.BulkString("v"), func(v lua.LValue) bool { return v == lua.LString("v") }},
		{"integer", protocol.Integer(-3), func(v lua.LValue) bool { return v == lua.LNumber(-3) }},
		{"boolean", protocol.Boolean(true), func(v lua.LValue) bool { return v == lua.LTrue }},
		{"null", protocol.Null{}, func(v lua.LValue) bool { return v == lua.LFalse }},
		{"null bulk string", protocol.NullBulkString{}, func(v lua.LValue) bool { return v == lua.LFalse }},
		{"null array", protocol.NullArray{}, func(v lua.LValue) bool { return v == lua.LFalse }},
		{"status", protocol.SimpleString("OK"), func(v lua.LValue) bool {
			return field(v, "ok") == lua.LString("OK")
		}},
		{"simple error", protocol.SimpleError("ERR x"), func(v lua.LValue) bool {
			return field(v, "err") == lua.LString("ERR x")
		}},
		{"bulk error", protocol.BulkError("SYNTAX y"), func(v lua.LValue) bool {
			return field(v, "err") == lua.LString("SYNTAX y")
		}},
		{"double", protocol.Double(2.5), func(v lua.LValue) bool {
			return field(v, "double") == lua.LNumber(2.5)
		}},
		{"array", protocol.Array{protocol.Integer(1), protocol.BulkString("a")}, func(v lua.LValue) bool {
			tb, ok := v.(*lua.LTable)
			return ok && tb.Len() == 2 && tb.RawGetInt(2) == lua.LString("a")
		}},
		{"map", protocol.NewMap().Set("k", protocol.Integer(1)), func(v lua.LValue) bool {
			return field(field(v, "map"), "k") == lua.LNumber(1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toLua(L, tt.frame); !tt.check(got) {
				t.Errorf("toLua(%v) = %v", tt.frame, got)
			}
		})
	}
}

func field(v lua.LValue, name string) lua.LValue {
	tb, ok := v.(*lua.LTable)
	if !ok {
		return lua.LNil
	}
	return tb.RawGetString(name)
}

func TestToFrameStatusFlattensLineBreaks(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tb := L.NewTable()
	tb.RawSetString("ok", lua.LString("line1\r\nline2"))

	got := toFrame(tb, 0)
	s, ok := got.(protocol.SimpleString)
	if !ok {
		t.Fatalf("toFrame() = %T, want SimpleString", got)
	}
	if _, err := protocol.Encode(s); err != nil {
		t.Errorf("status reply should be encodable: %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{1.9, 1},
		{-1.9, -1},
		{0, 0},
		{math.NaN(), 0},
		{math.Inf(1), math.MaxInt64},
		{math.Inf(-1), math.MinInt64},
		{1e300, math.MaxInt64},
	}

	for _, tt := range tests {
		if got := truncate(tt.in); got != tt.want {
			t.Errorf("truncate(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
