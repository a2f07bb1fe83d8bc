package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/raniellyferreira/respkit/lua"
	"github.com/raniellyferreira/respkit/protocol"
)

// scriptArgs splits the arguments of EVAL and EVALSHA after the script into
// keys and args
func scriptArgs(args [][]byte) ([]string, []string, error) {
	numKeys, err := strconv.Atoi(string(args[0]))
	if err != nil {
		return nil, nil, errNotInteger
	}
	if numKeys < 0 {
		return nil, nil, errors.New("ERR Number of keys can't be negative")
	}
	if numKeys > len(args)-1 {
		return nil, nil, errors.New("ERR Number of keys can't be greater than number of args")
	}

	return stringArgs(args[1 : 1+numKeys]), stringArgs(args[1+numKeys:]), nil
}

// scriptContext bounds a script by the client connection and the script
// timeout
func (s *Server) scriptContext(c *Client) (context.Context, context.CancelFunc) {
	ctx := s.ctx
	if c != nil {
		ctx = c.ctx
	}
	if s.scriptTimeout > 0 {
		return context.WithTimeout(ctx, s.scriptTimeout)
	}
	return context.WithCancel(ctx)
}

func scriptReply(result protocol.Frame, err error) protocol.Frame {
	if err == nil {
		return result
	}
	if errors.Is(err, lua.ErrNoScript) {
		return protocol.ErrorReply(err.Error())
	}
	return protocol.ErrorReply("ERR " + err.Error())
}

func handleEval(s *Server, c *Client, cmd *protocol.Command) protocol.Frame {
	keys, args, err := scriptArgs(cmd.Args[1:])
	if err != nil {
		return errorFrame(err)
	}

	ctx, cancel := s.scriptContext(c)
	defer cancel()

	result, err := s.lua.Eval(ctx, cmd.Arg(0), keys, args)
	if err != nil {
		s.logger.Debug("Script failed", "error", err)
	}
	return scriptReply(result, err)
}

func handleEvalSHA(s *Server, c *Client, cmd *protocol.Command) protocol.Frame {
	keys, args, err := scriptArgs(cmd.Args[1:])
	if err != nil {
		return errorFrame(err)
	}

	ctx, cancel := s.scriptContext(c)
	defer cancel()

	return scriptReply(s.lua.EvalSHA(ctx, cmd.Arg(0), keys, args))
}

// handleScript serves SCRIPT LOAD|EXISTS|FLUSH
func handleScript(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	sub := strings.ToUpper(cmd.Arg(0))
	args := cmd.Args[1:]

	switch sub {
	case "LOAD":
		if len(args) != 1 {
			return errorFrame(errWrongArgs("script|load"))
		}
		sha, err := s.lua.LoadScript(string(args[0]))
		if err != nil {
			return protocol.ErrorReply("ERR " + err.Error())
		}
		return protocol.BulkString(sha)

	case "EXISTS":
		if len(args) == 0 {
			return errorFrame(errWrongArgs("script|exists"))
		}
		results := s.lua.ScriptExists(stringArgs(args))

		reply := make(protocol.Array, len(results))
		for i, exists := range results {
			if exists {
				reply[i] = protocol.Integer(1)
			} else {
				reply[i] = protocol.Integer(0)
			}
		}
		return reply

	case "FLUSH":
		if len(args) > 1 {
			return errorFrame(errWrongArgs("script|flush"))
		}
		if len(args) == 1 {
			if mode := strings.ToUpper(string(args[0])); mode != "ASYNC" && mode != "SYNC" {
				return protocol.SimpleError("ERR SCRIPT FLUSH only support SYNC|ASYNC option")
			}
		}
		s.lua.ScriptFlush()
		return okReply

	default:
		return protocol.ErrorReply(fmt.Sprintf("ERR unknown subcommand '%s'. Try SCRIPT HELP.", cmd.Arg(0)))
	}
}
