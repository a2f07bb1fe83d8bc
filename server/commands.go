package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raniellyferreira/respkit/protocol"
)

// commandFunc handles one command. c is nil when the command is issued by
// a script.
type commandFunc func(s *Server, c *Client, cmd *protocol.Command) protocol.Frame

type commandFlags uint8

const (
	// flagNoAuth commands run before the client authenticated
	flagNoAuth commandFlags = 1 << iota
	// flagNoScript commands are refused inside scripts
	flagNoScript
	// flagExclusive commands run while no other command does
	flagExclusive
)

// command describes a server command. arity counts the command name and
// follows Redis: positive is an exact count, negative a minimum.
type command struct {
	name  string
	arity int
	flags commandFlags
	fn    commandFunc
}

func (c *command) acceptsArgs(n int) bool {
	n++ // the name
	if c.arity >= 0 {
		return n == c.arity
	}
	return n >= -c.arity
}

var (
	errSyntax      = errors.New("ERR syntax error")
	errNotInteger  = errors.New("ERR value is not an integer or out of range")
	errWrongType   = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	errInvalidPass = errors.New("WRONGPASS invalid username-password pair or user is disabled.")
)

func errWrongArgs(name string) error {
	return fmt.Errorf("ERR wrong number of arguments for '%s' command", name)
}

func errorFrame(err error) protocol.Frame {
	return protocol.ErrorReply(err.Error())
}

var okReply = protocol.SimpleString("OK")

// commandTable returns the commands served, keyed by upper-case name
func commandTable() map[string]*command {
	table := map[string]*command{}
	add := func(name string, arity int, flags commandFlags, fn commandFunc) {
		table[strings.ToUpper(name)] = &command{name: name, arity: arity, flags: flags, fn: fn}
	}

	// Connection
	add("auth", -2, flagNoAuth|flagNoScript, handleAuth)
	add("hello", -1, flagNoAuth|flagNoScript, handleHello)
	add("ping", -1, 0, handlePing)
	add("echo", 2, 0, handleEcho)
	add("quit", -1, flagNoAuth|flagNoScript, handleQuit)
	add("select", 2, flagNoScript, handleSelect)
	add("client", -2, flagNoScript, handleClient)

	// Keyspace
	add("get", 2, 0, handleGet)
	add("set", -3, 0, handleSet)
	add("del", -2, 0, handleDel)
	add("exists", -2, 0, handleExists)
	add("type", 2, 0, handleType)
	add("expire", -3, 0, expireCommand(secondsUnit))
	add("pexpire", -3, 0, expireCommand(millisUnit))
	add("ttl", 2, 0, ttlCommand(secondsUnit))
	add("pttl", 2, 0, ttlCommand(millisUnit))
	add("persist", 2, 0, handlePersist)
	add("dbsize", 1, 0, handleDBSize)
	add("keys", 2, 0, handleKeys)
	add("flushall", -1, 0, handleFlush)
	add("flushdb", -1, 0, handleFlush)
	add("info", -1, 0, handleInfo)

	// Scripting
	add("eval", -3, flagNoScript|flagExclusive, handleEval)
	add("evalsha", -3, flagNoScript|flagExclusive, handleEvalSHA)
	add("script", -2, flagNoScript, handleScript)

	return table
}

// stringArgs returns args as strings
func stringArgs(args [][]byte) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = string(arg)
	}
	return out
}
