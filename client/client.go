package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raniellyferreira/respkit/protocol"
)

// ErrClosed is returned by calls on a closed or broken connection
var ErrClosed = errors.New("client: connection closed")

// ReplyError is an error reply sent by the server
type ReplyError struct {
	Message string
}

// Error implements the error interface
func (e *ReplyError) Error() string {
	return e.Message
}

// Prefix returns the error code, the first word of the message
func (e *ReplyError) Prefix() string {
	if i := strings.IndexByte(e.Message, ' '); i >= 0 {
		return e.Message[:i]
	}
	return e.Message
}

// Logger is the logging interface used by the client. Fields are passed as
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Stats holds connection statistics
type Stats struct {
	Addr        string
	Protocol    int
	Connected   bool
	Commands    int64
	ReplyErrors int64
}

// Client is a single RESP connection
type Client struct {
	// Configuration
	addr           string
	password       string
	name           string
	tlsConfig      *tls.Config
	protocol       int
	limits         protocol.Limits
	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	logger         Logger

	// Connection state
	mu     sync.Mutex
	conn   net.Conn
	reader *protocol.Reader
	writer *protocol.Writer
	closed bool
	hello  protocol.Frame

	// Statistics
	commands    atomic.Int64
	replyErrors atomic.Int64
}

// Dial connects to addr and performs the handshake
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{
		addr:           addr,
		protocol:       protocol.RESP2,
		limits:         protocol.DefaultLimits(),
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		writeTimeout:   DefaultWriteTimeout,
		logger:         nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// connect dials the server and runs the handshake
func (c *Client) connect(ctx context.Context) error {
	c.logger.Debug("Connecting", "addr", c.addr)

	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	dialer := &net.Dialer{}

	var conn net.Conn
	var err error
	if c.tlsConfig != nil {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: c.tlsConfig}
		conn, err = tlsDialer.DialContext(ctx, "tcp", c.addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", c.addr)
	}
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.conn = conn
	c.reader = protocol.NewReader(conn)
	c.reader.SetLimits(c.limits)
	c.writer = protocol.NewWriter(conn)

	if err := c.handshake(ctx); err != nil {
		conn.Close()
		c.closed = true
		return fmt.Errorf("handshake failed: %w", err)
	}

	if err := c.writer.SetProtocol(c.protocol); err != nil {
		conn.Close()
		c.closed = true
		return err
	}

	c.logger.Info("Connected", "addr", c.addr, "protocol", c.protocol)
	return nil
}

// handshake negotiates the protocol with HELLO. Servers without HELLO are
// accepted for RESP2, authenticating with AUTH instead.
func (c *Client) handshake(ctx context.Context) error {
	args := []string{"HELLO", strconv.Itoa(c.protocol)}
	if c.password != "" {
		args = append(args, "AUTH", "default", c.password)
	}
	if c.name != "" {
		args = append(args, "SETNAME", c.name)
	}

	reply, err := c.roundTrip(ctx, args)
	if err == nil {
		c.hello = reply
		return nil
	}

	var replyErr *ReplyError
	if !errors.As(err, &replyErr) {
		return err
	}
	switch replyErr.Prefix() {
	case "NOAUTH", "WRONGPASS", "NOPROTO":
		return err
	}
	if c.protocol == protocol.RESP3 {
		return fmt.Errorf("server does not support RESP3: %w", err)
	}

	c.logger.Debug("HELLO not supported, using AUTH", "addr", c.addr)
	if c.password != "" {
		if _, err := c.roundTrip(ctx, []string{"AUTH", c.password}); err != nil {
			return err
		}
	}
	if c.name != "" {
		if _, err := c.roundTrip(ctx, []string{"CLIENT", "SETNAME", c.name}); err != nil {
			return err
		}
	}
	return nil
}

// Do sends a command and waits for its reply. An error reply is returned as
// the frame and a *ReplyError.
func (c *Client) Do(ctx context.Context, args ...string) (protocol.Frame, error) {
	if len(args) == 0 {
		return nil, errors.New("client: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	return c.roundTrip(ctx, args)
}

// Pipeline sends every command before reading any reply. Error replies stay
// in the returned frames; the error reports transport failures only.
func (c *Client) Pipeline(ctx context.Context, cmds [][]string) ([]protocol.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	stop, err := c.guard(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	for _, args := range cmds {
		if len(args) == 0 {
			return nil, errors.New("client: empty command")
		}
		if err := c.writer.WriteCommand(args[0], args[1:]...); err != nil {
			return nil, c.fail(ctx, err)
		}
	}
	if err := c.writer.Flush(); err != nil {
		return nil, c.fail(ctx, err)
	}

	replies := make([]protocol.Frame, 0, len(cmds))
	for range cmds {
		reply, err := c.reader.ReadFrame()
		if err != nil {
			return replies, c.fail(ctx, err)
		}
		c.commands.Add(1)
		if protocol.IsError(reply) {
			c.replyErrors.Add(1)
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

// roundTrip writes one command and reads its reply. The caller holds mu or
// owns the connection exclusively.
func (c *Client) roundTrip(ctx context.Context, args []string) (protocol.Frame, error) {
	stop, err := c.guard(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	if err := c.writer.WriteCommand(args[0], args[1:]...); err != nil {
		return nil, c.fail(ctx, err)
	}
	if err := c.writer.Flush(); err != nil {
		return nil, c.fail(ctx, err)
	}

	reply, err := c.reader.ReadFrame()
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	c.commands.Add(1)

	if protocol.IsError(reply) {
		c.replyErrors.Add(1)
		msg, _ := protocol.Text(reply)
		return reply, &ReplyError{Message: msg}
	}
	return reply, nil
}

// guard sets the connection deadlines from the timeouts and ctx, and
// interrupts blocked I/O when ctx is cancelled
func (c *Client) guard(ctx context.Context) (func() bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := c.conn.SetReadDeadline(deadline(ctx, now, c.readTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	if err := c.conn.SetWriteDeadline(deadline(ctx, now, c.writeTimeout)); err != nil {
		return nil, fmt.Errorf("failed to set write deadline: %w", err)
	}

	conn := c.conn
	return context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	}), nil
}

// deadline returns the earlier of now+d and the ctx deadline. The zero time
// means no deadline.
func deadline(ctx context.Context, now time.Time, d time.Duration) time.Time {
	var t time.Time
	if d > 0 {
		t = now.Add(d)
	}
	if dl, ok := ctx.Deadline(); ok && (t.IsZero() || dl.Before(t)) {
		t = dl
	}
	return t
}

// fail closes the connection after a transport error. The stream position
// is unknown after a partial read or write.
func (c *Client) fail(ctx context.Context, err error) error {
	c.logger.Error("Connection failed", "addr", c.addr, "error", err)
	c.conn.Close()
	c.closed = true

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return err
}

// Hello returns the HELLO reply of the handshake, or nil when the server
// does not support HELLO
func (c *Client) Hello() protocol.Frame {
	return c.hello
}

// Protocol returns the negotiated protocol version
func (c *Client) Protocol() int {
	return c.protocol
}

// Stats returns connection statistics
func (c *Client) Stats() Stats {
	c.mu.Lock()
	connected := !c.closed
	c.mu.Unlock()

	return Stats{
		Addr:        c.addr,
		Protocol:    c.protocol,
		Connected:   connected,
		Commands:    c.commands.Load(),
		ReplyErrors: c.replyErrors.Load(),
	}
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
