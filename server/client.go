package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/raniellyferreira/respkit/protocol"
)

// Client represents a connected Redis client
type Client struct {
	id     ksuid.KSUID
	num    int64
	conn   net.Conn
	reader *protocol.Reader
	writer *protocol.Writer
	server *Server

	// Client state, only touched by the client goroutine
	authenticated bool
	proto         int
	name          string
	libName       string
	libVersion    string
	createdAt     time.Time
	lastCmd       time.Time
	quit          bool

	// Control
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newClient(s *Server, conn net.Conn) *Client {
	ctx, cancel := context.WithCancel(s.ctx)
	now := time.Now()

	c := &Client{
		id:            ksuid.New(),
		num:           s.nextID.Add(1),
		conn:          conn,
		reader:        protocol.NewReader(conn),
		writer:        protocol.NewWriter(conn),
		server:        s,
		authenticated: s.password == "", // Auto-authenticated if no password
		proto:         protocol.RESP2,
		createdAt:     now,
		lastCmd:       now,
		ctx:           ctx,
		cancel:        cancel,
	}
	c.reader.SetLimits(s.limits)
	_ = c.writer.SetProtocol(protocol.RESP2)
	return c
}

// ID returns the unique id of the connection
func (c *Client) ID() ksuid.KSUID {
	return c.id
}

// Close closes the client connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close()
		c.server.forget(c.id)
	})
}

// handle serves requests until the client disconnects or the server stops
func (c *Client) handle() {
	defer c.server.wg.Done()
	defer c.Close()

	log := c.server.logger
	for !c.quit {
		if c.ctx.Err() != nil {
			return
		}

		if c.server.readTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.server.readTimeout))
		}

		frame, err := c.reader.ReadFrame()
		if err != nil {
			c.readFailed(err)
			return
		}

		cmd, err := protocol.ParseCommand(frame)
		if err != nil {
			c.reply(protocol.ErrorReply("ERR Protocol error: " + err.Error()))
		} else {
			c.lastCmd = time.Now()
			c.reply(c.execute(cmd))
		}

		// Pipelined requests are answered in one write
		if c.reader.Buffered() == 0 || c.quit {
			if err := c.writer.Flush(); err != nil {
				log.Debug("Write failed", "id", c.id.String(), "error", err)
				return
			}
		}
	}
}

// readFailed answers protocol errors and logs why the connection ends
func (c *Client) readFailed(err error) {
	log := c.server.logger

	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		log.Debug("Client disconnected", "id", c.id.String())
	case c.ctx.Err() != nil:
		// Server shutting down
	case errors.As(err, &ne) && ne.Timeout():
		log.Debug("Client idle timeout", "id", c.id.String())
	case protocol.IsMalformed(err) || errors.Is(err, protocol.ErrBufferFull):
		log.Info("Protocol error", "id", c.id.String(), "error", err)
		c.reply(protocol.ErrorReply("ERR Protocol error: " + err.Error()))
		_ = c.writer.Flush()
	default:
		log.Debug("Read failed", "id", c.id.String(), "error", err)
	}
}

// execute dispatches one command and returns its reply
func (c *Client) execute(cmd *protocol.Command) protocol.Frame {
	s := c.server
	s.commandCount.Add(1)

	def, err := s.lookup(cmd)
	if err != nil {
		s.metrics.RecordCommand(unknownCommand, 0, true)
		return protocol.ErrorReply(err.Error())
	}

	// Check authentication first
	if !c.authenticated && def.flags&flagNoAuth == 0 {
		s.metrics.RecordCommand(def.name, 0, true)
		return protocol.SimpleError("NOAUTH Authentication required.")
	}

	start := time.Now()
	if def.flags&flagExclusive != 0 {
		s.exec.Lock()
		defer s.exec.Unlock()
	} else {
		s.exec.RLock()
		defer s.exec.RUnlock()
	}

	reply := def.fn(s, c, cmd)
	s.metrics.RecordCommand(def.name, time.Since(start), protocol.IsError(reply))
	return reply
}

// reply queues f for the client. Frames that cannot be encoded are logged
// and replaced with an error reply.
func (c *Client) reply(f protocol.Frame) {
	if protocol.IsError(f) {
		c.server.errorCount.Add(1)
	}

	err := c.writer.WriteFrame(f)
	if err == nil {
		return
	}

	var encErr *protocol.EncodeError
	if errors.As(err, &encErr) {
		c.server.logger.Error("Reply encoding failed", "id", c.id.String(), "error", err)
		c.server.errorCount.Add(1)
		_ = c.writer.WriteError("ERR reply could not be encoded")
		return
	}
	c.server.logger.Debug("Write failed", "id", c.id.String(), "error", err)
	c.quit = true
}

// setProtocol switches the reply protocol of the connection
func (c *Client) setProtocol(version int) error {
	if err := c.writer.SetProtocol(version); err != nil {
		return err
	}
	c.proto = version
	return nil
}
