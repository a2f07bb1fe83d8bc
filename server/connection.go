package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
)

func (s *Server) checkPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
}

func handleAuth(s *Server, c *Client, cmd *protocol.Command) protocol.Frame {
	if len(cmd.Args) > 2 {
		return errorFrame(errSyntax)
	}
	if s.password == "" {
		return protocol.SimpleError("ERR AUTH <password> called without any password configured for the default user. Are you sure your configuration is correct?")
	}

	// AUTH [username] password, only the default user exists
	password := cmd.Arg(len(cmd.Args) - 1)
	if len(cmd.Args) == 2 && cmd.Arg(0) != "default" {
		return errorFrame(errInvalidPass)
	}
	if !s.checkPassword(password) {
		return errorFrame(errInvalidPass)
	}

	c.authenticated = true
	return okReply
}

// handleHello serves HELLO [protover [AUTH username password] [SETNAME name]]
func handleHello(s *Server, c *Client, cmd *protocol.Command) protocol.Frame {
	version := c.proto
	if len(cmd.Args) > 0 {
		v, err := strconv.Atoi(cmd.Arg(0))
		if err != nil {
			return protocol.SimpleError("ERR Protocol version is not an integer or out of range")
		}
		if v != protocol.RESP2 && v != protocol.RESP3 {
			return protocol.SimpleError("NOPROTO unsupported protocol version")
		}
		version = v
	}

	var name string
	var setName bool
	for i := 1; i < len(cmd.Args); i++ {
		switch strings.ToUpper(cmd.Arg(i)) {
		case "AUTH":
			if i+2 >= len(cmd.Args) {
				return errorFrame(errSyntax)
			}
			user, password := cmd.Arg(i+1), cmd.Arg(i+2)
			i += 2
			if s.password == "" || user != "default" || !s.checkPassword(password) {
				return errorFrame(errInvalidPass)
			}
			c.authenticated = true
		case "SETNAME":
			if i+1 >= len(cmd.Args) {
				return errorFrame(errSyntax)
			}
			i++
			if err := validClientName(cmd.Arg(i)); err != nil {
				return errorFrame(err)
			}
			name, setName = cmd.Arg(i), true
		default:
			return protocol.ErrorReply(fmt.Sprintf("ERR Syntax error in HELLO option '%s'", cmd.Arg(i)))
		}
	}

	if !c.authenticated {
		return protocol.SimpleError("NOAUTH HELLO must be called with the client already authenticated, otherwise the HELLO <proto> AUTH <user> <pass> option can be used to authenticate the client and select the RESP protocol version at the same time")
	}

	if err := c.setProtocol(version); err != nil {
		return protocol.ErrorReply("ERR " + err.Error())
	}
	if setName {
		c.name = name
	}

	s.logger.Debug("Client hello", "id", c.id.String(), "proto", version)

	return protocol.NewMap().
		Set("server", protocol.BulkString(Name)).
		Set("version", protocol.BulkString(s.version)).
		Set("proto", protocol.Integer(version)).
		Set("id", protocol.BulkString(c.id.String())).
		Set("mode", protocol.BulkString("standalone")).
		Set("role", protocol.BulkString("master")).
		Set("modules", protocol.Array{})
}

func handlePing(_ *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	switch len(cmd.Args) {
	case 0:
		return protocol.SimpleString("PONG")
	case 1:
		return protocol.BulkString(cmd.Args[0])
	default:
		return errorFrame(errWrongArgs("ping"))
	}
}

func handleEcho(_ *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	return protocol.BulkString(cmd.Args[0])
}

func handleQuit(_ *Server, c *Client, _ *protocol.Command) protocol.Frame {
	c.quit = true
	return okReply
}

// handleSelect accepts database 0 only, the server has a single keyspace
func handleSelect(_ *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	db, err := strconv.Atoi(cmd.Arg(0))
	if err != nil {
		return errorFrame(errNotInteger)
	}
	if db != 0 {
		return protocol.SimpleError("ERR DB index is out of range")
	}
	return okReply
}

func validClientName(name string) error {
	for i := 0; i < len(name); i++ {
		if name[i] <= ' ' || name[i] > '~' {
			return errors.New("ERR Client names cannot contain spaces, newlines or special characters.")
		}
	}
	return nil
}

// handleClient serves CLIENT ID|GETNAME|SETNAME|SETINFO|INFO
func handleClient(_ *Server, c *Client, cmd *protocol.Command) protocol.Frame {
	sub := strings.ToUpper(cmd.Arg(0))
	args := cmd.Args[1:]

	switch sub {
	case "ID":
		if len(args) != 0 {
			return errorFrame(errWrongArgs("client|id"))
		}
		return protocol.Integer(c.num)
	case "GETNAME":
		if len(args) != 0 {
			return errorFrame(errWrongArgs("client|getname"))
		}
		if c.name == "" {
			return protocol.Null{}
		}
		return protocol.BulkString(c.name)
	case "SETNAME":
		if len(args) != 1 {
			return errorFrame(errWrongArgs("client|setname"))
		}
		if err := validClientName(string(args[0])); err != nil {
			return errorFrame(err)
		}
		c.name = string(args[0])
		return okReply
	case "SETINFO":
		if len(args) != 2 {
			return errorFrame(errWrongArgs("client|setinfo"))
		}
		switch attr := strings.ToUpper(string(args[0])); attr {
		case "LIB-NAME":
			c.libName = string(args[1])
		case "LIB-VER":
			c.libVersion = string(args[1])
		default:
			return protocol.ErrorReply(fmt.Sprintf("ERR Unrecognized option '%s'", args[0]))
		}
		return okReply
	case "INFO":
		return protocol.BulkString(c.info() + "\n")
	default:
		return protocol.ErrorReply(fmt.Sprintf("ERR unknown subcommand '%s'. Try CLIENT HELP.", cmd.Arg(0)))
	}
}

// info formats the client the way CLIENT INFO does
func (c *Client) info() string {
	now := time.Now()
	return fmt.Sprintf("id=%d addr=%s name=%s age=%d idle=%d resp=%d lib-name=%s lib-ver=%s",
		c.num,
		c.conn.RemoteAddr(),
		c.name,
		int64(now.Sub(c.createdAt)/time.Second),
		int64(now.Sub(c.lastCmd)/time.Second),
		c.proto,
		c.libName,
		c.libVersion)
}

// handleInfo serves INFO [section ...] with server, clients, stats and
// keyspace sections
func handleInfo(s *Server, _ *Client, cmd *protocol.Command) protocol.Frame {
	sections := map[string]bool{}
	for _, arg := range cmd.Args {
		sections[strings.ToLower(string(arg))] = true
	}
	want := func(name string) bool {
		return len(sections) == 0 || sections["all"] || sections["everything"] || sections["default"] || sections[name]
	}

	stats := s.Stats()
	var b strings.Builder

	if want("server") {
		b.WriteString("# Server\r\n")
		fmt.Fprintf(&b, "redis_version:%s\r\n", s.version)
		fmt.Fprintf(&b, "server_name:%s\r\n", Name)
		fmt.Fprintf(&b, "go_version:%s\r\n", runtime.Version())
		fmt.Fprintf(&b, "tcp_port:%s\r\n", portOf(s.Addr()))
		fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", int64(time.Since(s.started)/time.Second))
		b.WriteString("\r\n")
	}
	if want("clients") {
		b.WriteString("# Clients\r\n")
		fmt.Fprintf(&b, "connected_clients:%v\r\n", stats["connected_clients"])
		b.WriteString("\r\n")
	}
	if want("stats") {
		b.WriteString("# Stats\r\n")
		fmt.Fprintf(&b, "total_connections_received:%v\r\n", stats["total_connections"])
		fmt.Fprintf(&b, "total_commands_processed:%v\r\n", stats["total_commands"])
		fmt.Fprintf(&b, "total_error_replies:%v\r\n", stats["total_errors"])
		if info := s.storage.Info(); info != nil {
			fmt.Fprintf(&b, "expired_keys:%v\r\n", info["expired_keys"])
		}
		b.WriteString("\r\n")
	}
	if want("memory") {
		info := s.storage.Info()
		b.WriteString("# Memory\r\n")
		fmt.Fprintf(&b, "used_memory:%v\r\n", info["memory_usage"])
		b.WriteString("\r\n")
	}
	if want("keyspace") {
		b.WriteString("# Keyspace\r\n")
		info := s.storage.Info()
		if keys, _ := info["keys"].(int64); keys > 0 {
			fmt.Fprintf(&b, "db0:keys=%d,expires=%v,avg_ttl=0\r\n", keys, info["expires"])
		}
	}

	return protocol.BulkString(strings.TrimSuffix(b.String(), "\r\n"))
}

func portOf(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[i+1:]
	}
	return addr
}
