package lua

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/raniellyferreira/respkit/protocol"
)

var (
	// ErrNoScript is returned by EvalSHA for unknown digests
	ErrNoScript = errors.New("NOSCRIPT No matching script. Please use EVAL.")
)

// Executor runs the commands a script issues through redis.call and
// redis.pcall. Error replies are returned as error frames.
type Executor interface {
	Execute(cmd *protocol.Command) protocol.Frame
}

// ExecutorFunc adapts a function to the Executor interface
type ExecutorFunc func(cmd *protocol.Command) protocol.Frame

// Execute calls f(cmd)
func (f ExecutorFunc) Execute(cmd *protocol.Command) protocol.Frame {
	return f(cmd)
}

// ScriptError reports a script that failed to compile or raised an error
type ScriptError struct {
	Err error
}

func (e *ScriptError) Error() string {
	return "Error running script: " + e.Err.Error()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Engine provides Redis-compatible Lua script execution
type Engine struct {
	exec    Executor
	scripts sync.Map // map[string]string - SHA1 -> script content
}

// NewEngine creates a new Lua execution engine that sends script commands
// to exec
func NewEngine(exec Executor) *Engine {
	return &Engine{
		exec: exec,
	}
}

// Eval executes a Lua script with the given keys and arguments and returns
// its result as a frame. Scripts stop when ctx is done.
func (e *Engine) Eval(ctx context.Context, script string, keys []string, args []string) (protocol.Frame, error) {
	L := newState()
	defer L.Close()

	if ctx != nil {
		L.SetContext(ctx)
	}

	e.setupRedisAPI(L, keys, args)

	if err := L.DoString(script); err != nil {
		return nil, &ScriptError{Err: err}
	}

	if L.GetTop() == 0 {
		return protocol.Null{}, nil
	}
	return toFrame(L.Get(1), 0), nil
}

// EvalSHA executes a previously loaded script by its SHA1 hash
func (e *Engine) EvalSHA(ctx context.Context, sha string, keys []string, args []string) (protocol.Frame, error) {
	script, exists := e.scripts.Load(strings.ToLower(sha))
	if !exists {
		return nil, ErrNoScript
	}

	return e.Eval(ctx, script.(string), keys, args)
}

// LoadScript caches a script and returns its SHA1 hash. The script is
// compiled first so syntax errors are reported here.
func (e *Engine) LoadScript(script string) (string, error) {
	L := newState()
	defer L.Close()
	if _, err := L.LoadString(script); err != nil {
		return "", &ScriptError{Err: err}
	}

	hash := Digest(script)
	e.scripts.Store(hash, script)
	return hash, nil
}

// ScriptExists checks if scripts with given SHA1 hashes exist
func (e *Engine) ScriptExists(hashes []string) []bool {
	results := make([]bool, len(hashes))
	for i, hash := range hashes {
		_, exists := e.scripts.Load(strings.ToLower(hash))
		results[i] = exists
	}
	return results
}

// ScriptFlush removes all cached scripts
func (e *Engine) ScriptFlush() {
	e.scripts.Range(func(key, value interface{}) bool {
		e.scripts.Delete(key)
		return true
	})
}

// Digest returns the lowercase hex SHA1 of a script, the name EVALSHA uses
func Digest(script string) string {
	sum := sha1.Sum([]byte(script))
	return hex.EncodeToString(sum[:])
}

// newState creates a Lua state with only the base, table, string and math
// libraries and without file access
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// setupRedisAPI configures the Lua state with Redis-compatible functions
func (e *Engine) setupRedisAPI(L *lua.LState, keys []string, args []string) {
	keysTable := L.CreateTable(len(keys), 0)
	for i, key := range keys {
		keysTable.RawSetInt(i+1, lua.LString(key)) // Lua arrays are 1-indexed
	}
	L.SetGlobal("KEYS", keysTable)

	argvTable := L.CreateTable(len(args), 0)
	for i, arg := range args {
		argvTable.RawSetInt(i+1, lua.LString(arg))
	}
	L.SetGlobal("ARGV", argvTable)

	redisTable := L.NewTable()
	L.SetFuncs(redisTable, map[string]lua.LGFunction{
		"call":         e.redisCall,
		"pcall":        e.redisPCall,
		"status_reply": statusReply,
		"error_reply":  errorReply,
		"sha1hex":      sha1Hex,
	})
	L.SetGlobal("redis", redisTable)
}

// redisCall implements redis.call(), which raises error replies
func (e *Engine) redisCall(L *lua.LState) int {
	reply, err := e.executeRedisCommand(L)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	if msg, ok := errorText(reply); ok {
		L.RaiseError("%s", msg)
		return 0
	}
	L.Push(toLua(L, reply))
	return 1
}

// redisPCall implements redis.pcall(), which returns error replies as
// {err=...} tables
func (e *Engine) redisPCall(L *lua.LState) int {
	reply, err := e.executeRedisCommand(L)
	if err != nil {
		L.Push(errorTable(L, err.Error()))
		return 1
	}
	L.Push(toLua(L, reply))
	return 1
}

// executeRedisCommand builds a command from the Lua call arguments and runs
// it through the executor
func (e *Engine) executeRedisCommand(L *lua.LState) (protocol.Frame, error) {
	argc := L.GetTop()
	if argc == 0 {
		return nil, errors.New("ERR Please specify at least one argument for this redis lib call")
	}

	frame := make(protocol.Array, 0, argc)
	for i := 1; i <= argc; i++ {
		switch v := L.Get(i).(type) {
		case lua.LString:
			frame = append(frame, protocol.BulkString(v))
		case lua.LNumber:
			frame = append(frame, protocol.BulkString(v.String()))
		default:
			return nil, errors.New("ERR Lua redis lib command arguments must be strings or integers")
		}
	}

	cmd, err := protocol.ParseCommand(frame)
	if err != nil {
		return nil, fmt.Errorf("ERR %v", err)
	}
	if e.exec == nil {
		return nil, fmt.Errorf("ERR unknown command '%s'", cmd.Name)
	}
	return e.exec.Execute(cmd), nil
}

func statusReply(L *lua.LState) int {
	t := L.NewTable()
	t.RawSetString("ok", lua.LString(L.CheckString(1)))
	L.Push(t)
	return 1
}

func errorReply(L *lua.LState) int {
	L.Push(errorTable(L, L.CheckString(1)))
	return 1
}

func sha1Hex(L *lua.LState) int {
	L.Push(lua.LString(Digest(L.CheckString(1))))
	return 1
}

func errorTable(L *lua.LState, msg string) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("err", lua.LString(msg))
	return t
}
