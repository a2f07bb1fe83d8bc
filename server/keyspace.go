package server

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
	"github.com/raniellyferreira/respkit/storage"
)

// timeUnit is the resolution of an expire or TTL command
type timeUnit struct {
	unit time.Duration
	max  int64 // largest count that fits a time.Duration
}

var (
	secondsUnit = timeUnit{unit: time.Second, max: math.MaxInt64 / int64(time.Second)}
	millisUnit  = timeUnit{unit: time.Millisecond, max: math.MaxInt64 / int64(time.Millisecond)}
)

func (u timeUnit) duration(n int64) (time.Duration, bool) {
	if n > u.max || n < -u.max {
		return 0, false
	}
	return time.Duration(n) * u.unit, true
}

// stringValue returns the bulk string form of a stored value, or false for
// values that are not strings
func stringValue(f protocol.Frame) (protocol.Frame, bool) {
	switch v := f.(type) {
	case protocol.BulkString:
		return v, true
	case protocol.SimpleString:
		return protocol.BulkString(v), true
	case protocol.Integer, protocol.Double:
		return protocol.BulkString(v.String()), true
	case protocol.Boolean:
		if v {
			return protocol.BulkString("1"), true
		}
		return protocol.BulkString("0"), true
	default:
		return nil, false
	}
}

func handleGet(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	value, exists := s.storage.Get(cmd.Arg(0))
	if !exists {
		return protocol.Null{}
	}
	str, ok := stringValue(value)
	if !ok {
		return errorFrame(errWrongType)
	}
	return str
}

// setOptions holds the parsed modifiers of SET
type setOptions struct {
	expiry  *time.Time
	nx, xx  bool
	get     bool
	keepTTL bool
}

func parseSetOptions(args [][]byte, now time.Time) (setOptions, error) {
	var opts setOptions
	for i := 0; i < len(args); i++ {
		switch opt := strings.ToUpper(string(args[i])); opt {
		case "NX":
			opts.nx = true
		case "XX":
			opts.xx = true
		case "GET":
			opts.get = true
		case "KEEPTTL":
			opts.keepTTL = true
		case "EX", "PX", "EXAT", "PXAT":
			if opts.expiry != nil || i+1 >= len(args) {
				return opts, errSyntax
			}
			i++
			n, err := strconv.ParseInt(string(args[i]), 10, 64)
			if err != nil {
				return opts, errNotInteger
			}
			at, ok := expireAt(now, opt, n)
			if !ok {
				return opts, fmt.Errorf("ERR invalid expire time in 'set' command")
			}
			opts.expiry = &at
		default:
			return opts, errSyntax
		}
	}

	if (opts.nx && opts.xx) || (opts.keepTTL && opts.expiry != nil) {
		return opts, errSyntax
	}
	return opts, nil
}

func expireAt(now time.Time, opt string, n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	switch opt {
	case "EX":
		d, ok := secondsUnit.duration(n)
		return now.Add(d), ok
	case "PX":
		d, ok := millisUnit.duration(n)
		return now.Add(d), ok
	case "EXAT":
		return time.Unix(n, 0), n <= secondsUnit.max
	default: // PXAT
		return time.UnixMilli(n), true
	}
}

func handleSet(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	key := cmd.Arg(0)
	now := time.Now()

	opts, err := parseSetOptions(cmd.Args[2:], now)
	if err != nil {
		return errorFrame(err)
	}

	old, exists := s.storage.Get(key)
	var previous protocol.Frame = protocol.Null{}
	if opts.get && exists {
		str, ok := stringValue(old)
		if !ok {
			return errorFrame(errWrongType)
		}
		previous = str
	}

	if (opts.nx && exists) || (opts.xx && !exists) {
		if opts.get {
			return previous
		}
		return protocol.Null{}
	}

	expiry := opts.expiry
	if opts.keepTTL && exists {
		if ttl := s.storage.TTL(key); ttl > 0 {
			at := now.Add(ttl)
			expiry = &at
		}
	}

	if err := s.storage.Set(key, protocol.BulkString(cmd.Args[1]), expiry); err != nil {
		return protocol.ErrorReply("ERR " + err.Error())
	}

	if opts.get {
		return previous
	}
	return okReply
}

func handleDel(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	return protocol.Integer(s.storage.Del(stringArgs(cmd.Args)...))
}

func handleExists(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	return protocol.Integer(s.storage.Exists(stringArgs(cmd.Args)...))
}

func handleType(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	return protocol.SimpleString(s.storage.Type(cmd.Arg(0)))
}

// expireCommand builds EXPIRE and PEXPIRE
func expireCommand(u timeUnit) commandFunc {
	return func(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
		name := strings.ToLower(cmd.Name)
		key := cmd.Arg(0)

		n, err := strconv.ParseInt(cmd.Arg(1), 10, 64)
		if err != nil {
			return errorFrame(errNotInteger)
		}
		d, ok := u.duration(n)
		if !ok {
			return protocol.ErrorReply(fmt.Sprintf("ERR invalid expire time in '%s' command", name))
		}

		var cond string
		switch len(cmd.Args) {
		case 2:
		case 3:
			cond = strings.ToUpper(cmd.Arg(2))
			if cond != "NX" && cond != "XX" && cond != "GT" && cond != "LT" {
				return protocol.ErrorReply("ERR Unsupported option " + cmd.Arg(2))
			}
		default:
			return errorFrame(errWrongArgs(name))
		}

		ttl := s.storage.TTL(key)
		if ttl == storage.TTLKeyMissing {
			return protocol.Integer(0)
		}

		hasTTL := ttl != storage.TTLNoExpiry
		switch cond {
		case "NX":
			if hasTTL {
				return protocol.Integer(0)
			}
		case "XX":
			if !hasTTL {
				return protocol.Integer(0)
			}
		case "GT":
			// No expiry counts as infinite
			if !hasTTL || d <= ttl {
				return protocol.Integer(0)
			}
		case "LT":
			if hasTTL && d >= ttl {
				return protocol.Integer(0)
			}
		}

		if d <= 0 {
			return protocol.Integer(s.storage.Del(key))
		}
		if s.storage.Expire(key, time.Now().Add(d)) {
			return protocol.Integer(1)
		}
		return protocol.Integer(0)
	}
}

// ttlCommand builds TTL and PTTL. Missing keys report -2, keys without
// expiry -1.
func ttlCommand(u timeUnit) commandFunc {
	return func(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
		ttl := s.storage.TTL(cmd.Arg(0))
		switch ttl {
		case storage.TTLKeyMissing:
			return protocol.Integer(-2)
		case storage.TTLNoExpiry:
			return protocol.Integer(-1)
		}
		// Round to the nearest unit like Redis
		return protocol.Integer((ttl + u.unit/2) / u.unit)
	}
}

func handlePersist(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	if s.storage.Persist(cmd.Arg(0)) {
		return protocol.Integer(1)
	}
	return protocol.Integer(0)
}

func handleDBSize(s *Server, _ *Client, _ *protocol.Command) protocol.Frame {
	return protocol.Integer(s.storage.KeyCount())
}

func handleKeys(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	keys := s.storage.Keys(cmd.Arg(0))
	reply := make(protocol.Array, len(keys))
	for i, key := range keys {
		reply[i] = protocol.BulkString(key)
	}
	return reply
}

// handleFlush serves FLUSHALL and FLUSHDB. ASYNC and SYNC are accepted and
// both flush synchronously.
func handleFlush(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	switch len(cmd.Args) {
	case 0:
	case 1:
		mode := strings.ToUpper(cmd.Arg(0))
		if mode != "ASYNC" && mode != "SYNC" {
			return errorFrame(errSyntax)
		}
	default:
		return errorFrame(errSyntax)
	}

	if err := s.storage.FlushAll(); err != nil {
		return protocol.ErrorReply("ERR " + err.Error())
	}
	return okReply
}
