package lua

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
	"github.com/raniellyferreira/respkit/storage"
)

// storageExecutor serves the handful of commands the tests need straight
// from storage
func storageExecutor(stor storage.Storage) Executor {
	return ExecutorFunc(func(cmd *protocol.Command) protocol.Frame {
		switch cmd.Name {
		case "GET":
			if len(cmd.Args) != 1 {
				return protocol.SimpleError("ERR wrong number of arguments for 'get' command")
			}
			value, ok := stor.Get(cmd.Arg(0))
			if !ok {
				return protocol.NullBulkString{}
			}
			return value
		case "SET":
			if len(cmd.Args) != 2 {
				return protocol.SimpleError("ERR wrong number of arguments for 'set' command")
			}
			if err := stor.Set(cmd.Arg(0), protocol.BulkString(cmd.Args[1]), nil); err != nil {
				return protocol.ErrorReply("ERR " + err.Error())
			}
			return protocol.SimpleString("OK")
		case "DEL":
			keys := make([]string, len(cmd.Args))
			for i := range cmd.Args {
				keys[i] = cmd.Arg(i)
			}
			return protocol.Integer(stor.Del(keys...))
		case "TYPE":
			return protocol.SimpleString(stor.Type(cmd.Arg(0)))
		case "HELLO":
			return protocol.NewMap().
				Set("proto", protocol.Integer(3)).
				Set("ratio", protocol.Double(0.5)).
				Set("ready", protocol.Boolean(true))
		default:
			return protocol.ErrorReply("ERR unknown command '" + cmd.Name + "'")
		}
	})
}

func newTestEngine(t testing.TB) (*Engine, *storage.MemoryStorage) {
	t.Helper()
	stor := storage.NewMemory(storage.WithCleanupInterval(0))
	t.Cleanup(func() { _ = stor.Close() })
	return NewEngine(storageExecutor(stor)), stor
}

func TestLuaEngine_BasicExecution(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name     string
		script   string
		keys     []string
		args     []string
		expected protocol.Frame
	}{
		{
			name:     "simple return",
			script:   "return 'hello'",
			expected: protocol.BulkString("hello"),
		},
		{
			name:     "return number",
			script:   "return 42",
			expected: protocol.Integer(42),
		},
		{
			name:     "access KEYS",
			script:   "return KEYS[1]",
			keys:     []string{"mykey"},
			expected: protocol.BulkString("mykey"),
		},
		{
			name:     "access ARGV",
			script:   "return ARGV[1]",
			args:     []string{"myarg"},
			expected: protocol.BulkString("myarg"),
		},
		{
			name:     "concatenate KEYS and ARGV",
			script:   "return KEYS[1] .. ':' .. ARGV[1]",
			keys:     []string{"user"},
			args:     []string{"123"},
			expected: protocol.BulkString("user:123"),
		},
		{
			name:     "count arguments",
			script:   "return #KEYS + #ARGV",
			keys:     []string{"a", "b"},
			args:     []string{"c"},
			expected: protocol.Integer(3),
		},
		{
			name:     "no return",
			script:   "local x = 1",
			expected: protocol.Null{},
		},
		{
			name:     "first of multiple returns",
			script:   "return 1, 2",
			expected: protocol.Integer(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Eval(context.Background(), tt.script, tt.keys, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !protocol.Equal(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestLuaEngine_RedisCommands(t *testing.T) {
	engine, stor := newTestEngine(t)

	tests := []struct {
		name     string
		script   string
		keys     []string
		args     []string
		expected protocol.Frame
		stored   string
	}{
		{
			name:     "SET and GET",
			script:   "redis.call('SET', KEYS[1], ARGV[1]); return redis.call('GET', KEYS[1])",
			keys:     []string{"testkey"},
			args:     []string{"testvalue"},
			expected: protocol.BulkString("testvalue"),
		},
		{
			name:     "GET non-existent key",
			script:   "return redis.call('GET', 'nonexistent') == false",
			expected: protocol.Boolean(true),
		},
		{
			name:     "DEL command",
			script:   "redis.call('SET', 'delkey', 'value'); return redis.call('DEL', 'delkey')",
			expected: protocol.Integer(1),
		},
		{
			name:     "status reply table",
			script:   "return redis.call('SET', 'k', 'v')['ok']",
			expected: protocol.BulkString("OK"),
		},
		{
			name:     "status reply passthrough",
			script:   "return redis.call('SET', 'k', 'v')",
			expected: protocol.SimpleString("OK"),
		},
		{
			name:     "TYPE command",
			script:   "redis.call('SET', 'typekey', 'value'); return redis.call('TYPE', 'typekey').ok",
			expected: protocol.BulkString("string"),
		},
		{
			name:     "numeric arguments",
			script:   "redis.call('SET', 'num', 10); return redis.call('GET', 'num')",
			expected: protocol.BulkString("10"),
		},
		{
			name:     "lowercase command",
			script:   "redis.call('set', 'lower', 'v'); return redis.call('get', 'lower')",
			expected: protocol.BulkString("v"),
			stored:   "lower",
		},
		{
			name:     "RESP3 reply conversion",
			script:   "local r = redis.call('HELLO'); return {r.map.proto, r.map.ready, r.map.ratio.double * 10}",
			expected: protocol.Array{protocol.Integer(3), protocol.Boolean(true), protocol.Integer(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = stor.FlushAll()

			result, err := engine.Eval(context.Background(), tt.script, tt.keys, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !protocol.Equal(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
			if tt.stored != "" {
				if _, ok := stor.Get(tt.stored); !ok {
					t.Errorf("key %q written by the script is missing from storage", tt.stored)
				}
			}
		})
	}
}

func TestLuaEngine_RedisPCall(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name     string
		script   string
		expected protocol.Frame
	}{
		{
			name:     "pcall with valid command",
			script:   "return redis.pcall('SET', 'pcallkey', 'value')",
			expected: protocol.SimpleString("OK"),
		},
		{
			name:     "pcall with invalid command",
			script:   "local result = redis.pcall('INVALIDCMD'); return type(result) == 'table' and result.err ~= nil",
			expected: protocol.Boolean(true),
		},
		{
			name:     "pcall error returned as reply",
			script:   "return redis.pcall('GET')",
			expected: protocol.SimpleError("ERR wrong number of arguments for 'get' command"),
		},
		{
			name:     "pcall without arguments",
			script:   "return redis.pcall().err ~= nil",
			expected: protocol.Boolean(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Eval(context.Background(), tt.script, nil, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !protocol.Equal(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestLuaEngine_ScriptCaching(t *testing.T) {
	engine, _ := newTestEngine(t)

	script := "return 'cached script'"

	sha, err := engine.LoadScript(script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sha) != 40 { // SHA1 is 40 characters in hex
		t.Errorf("expected SHA1 length 40, got %d", len(sha))
	}
	if sha != Digest(script) {
		t.Errorf("LoadScript() = %s, want %s", sha, Digest(script))
	}

	result, err := engine.EvalSHA(context.Background(), strings.ToUpper(sha), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !protocol.Equal(result, protocol.BulkString("cached script")) {
		t.Errorf("expected 'cached script', got %v", result)
	}

	if _, err = engine.EvalSHA(context.Background(), "nonexistent", nil, nil); !errors.Is(err, ErrNoScript) {
		t.Errorf("EvalSHA(nonexistent) error = %v, want ErrNoScript", err)
	}

	if _, err := engine.LoadScript("return +"); err == nil {
		t.Error("LoadScript() should reject syntax errors")
	}
}

func TestLuaEngine_KnownDigest(t *testing.T) {
	// Digest matches redis SCRIPT LOAD for the same body
	if got := Digest("return 1"); got != "e0e1f9fabfc9d4800c877a703b823ac0578ff8db" {
		t.Errorf("Digest() = %s", got)
	}
}

func TestLuaEngine_ScriptExists(t *testing.T) {
	engine, _ := newTestEngine(t)

	sha1, _ := engine.LoadScript("return 1")
	sha2, _ := engine.LoadScript("return 2")

	results := engine.ScriptExists([]string{sha1, sha2, "nonexistent"})
	expected := []bool{true, true, false}

	for i, result := range results {
		if result != expected[i] {
			t.Errorf("position %d: expected %t, got %t", i, expected[i], result)
		}
	}
}

func TestLuaEngine_ScriptFlush(t *testing.T) {
	engine, _ := newTestEngine(t)

	sha, _ := engine.LoadScript("return 'test'")

	if !engine.ScriptExists([]string{sha})[0] {
		t.Error("script should exist before flush")
	}

	engine.ScriptFlush()

	if engine.ScriptExists([]string{sha})[0] {
		t.Error("script should not exist after flush")
	}
}

func TestLuaEngine_DataTypeConversion(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name     string
		script   string
		expected protocol.Frame
	}{
		{"return nil", "return nil", protocol.Null{}},
		{"return boolean true", "return true", protocol.Boolean(true)},
		{"return boolean false", "return false", protocol.Boolean(false)},
		{"return string", "return 'hello world'", protocol.BulkString("hello world")},
		{"return integer", "return 123", protocol.Integer(123)},
		{"return float truncates", "return 123.456", protocol.Integer(123)},
		{"return negative float truncates", "return -2.9", protocol.Integer(-2)},
		{"return array", "return {1, 2, 3}", protocol.Array{protocol.Integer(1), protocol.Integer(2), protocol.Integer(3)}},
		{"array stops at nil", "return {1, nil, 3}", protocol.Array{protocol.Integer(1)}},
		{"nested array", "return {1, {'a'}}", protocol.Array{protocol.Integer(1), protocol.Array{protocol.BulkString("a")}}},
		{"status reply", "return redis.status_reply('PONG')", protocol.SimpleString("PONG")},
		{"error reply", "return redis.error_reply('ERR custom')", protocol.SimpleError("ERR custom")},
		{"error table", "return {err='WRONGTYPE bad'}", protocol.SimpleError("WRONGTYPE bad")},
		{"double table", "return {double=1.5}", protocol.Double(1.5)},
		{
			"map table",
			"return {map={b=1, a='x'}}",
			protocol.NewMap().Set("a", protocol.BulkString("x")).Set("b", protocol.Integer(1)),
		},
		{
			"set table",
			"return {set={z=true, m=true}}",
			protocol.Set{protocol.BulkString("m"), protocol.BulkString("z")},
		},
		{"sha1hex", "return redis.sha1hex('return 1')", protocol.BulkString("e0e1f9fabfc9d4800c877a703b823ac0578ff8db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Eval(context.Background(), tt.script, nil, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !protocol.Equal(result, tt.expected) {
				t.Errorf("expected %v (%s), got %v (%s)", tt.expected, tt.expected.Kind(), result, result.Kind())
			}
		})
	}
}

func TestLuaEngine_CyclicTable(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Eval(context.Background(), "local t = {}; t[1] = t; return t", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	depth := 0
	for {
		arr, ok := result.(protocol.Array)
		if !ok {
			break
		}
		result = arr[0]
		depth++
	}
	if !protocol.IsError(result) {
		t.Errorf("innermost frame = %v, want error", result)
	}
	if depth == 0 || depth > maxConvertDepth+1 {
		t.Errorf("depth = %d", depth)
	}
}

func TestLuaEngine_ErrorHandling(t *testing.T) {
	engine, _ := newTestEngine(t)

	tests := []struct {
		name    string
		script  string
		message string
	}{
		{"syntax error", "invalid lua syntax !!!", ""},
		{"redis.call with invalid args", "return redis.call()", "Please specify at least one argument"},
		{"redis.call with unknown command", "return redis.call('UNKNOWNCMD')", "unknown command"},
		{"redis.call with table argument", "return redis.call('GET', {})", "must be strings or integers"},
		{"runtime error", "error('boom')", "boom"},
		{"sandboxed file access", "return dofile('/etc/passwd')", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Eval(context.Background(), tt.script, nil, nil)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			var scriptErr *ScriptError
			if !errors.As(err, &scriptErr) {
				t.Errorf("error %T is not *ScriptError", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not contain %q", err, tt.message)
			}
		})
	}
}

func TestLuaEngine_ContextTimeout(t *testing.T) {
	engine, _ := newTestEngine(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := engine.Eval(ctx, "while true do end", nil, nil)
	if err == nil {
		t.Fatal("expected infinite loop to be interrupted")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("script ran for %v after the deadline", elapsed)
	}
}
