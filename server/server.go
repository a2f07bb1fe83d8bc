package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/raniellyferreira/respkit/lua"
	"github.com/raniellyferreira/respkit/protocol"
	"github.com/raniellyferreira/respkit/storage"
)

// Name is reported by HELLO and INFO as the server name
const Name = "respkit"

// Server provides Redis protocol server functionality
type Server struct {
	storage  storage.Storage
	lua      *lua.Engine
	commands map[string]*command

	// Server configuration
	addr          string
	password      string
	readTimeout   time.Duration
	scriptTimeout time.Duration
	limits        protocol.Limits
	logger        Logger
	metrics       MetricsCollector
	version       string

	// Connection management
	listener net.Listener
	clients  sync.Map // map[ksuid.KSUID]*Client
	nextID   atomic.Int64

	// exec serializes scripts against all other commands. Commands hold it
	// shared, scripts exclusively.
	exec sync.RWMutex

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started time.Time

	// Metrics
	connCount    atomic.Int64
	commandCount atomic.Int64
	errorCount   atomic.Int64
}

// NewServer creates a new Redis protocol server for stor listening on addr
func NewServer(addr string, stor storage.Storage, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		storage:       stor,
		addr:          addr,
		readTimeout:   DefaultReadTimeout,
		scriptTimeout: DefaultScriptTimeout,
		limits:        protocol.DefaultLimits(),
		logger:        nopLogger{},
		metrics:       nopMetrics{},
		version:       "dev",
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.commands = commandTable()
	s.lua = lua.NewEngine(s)
	return s
}

// Start starts listening and serving clients in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.started = time.Now()

	s.logger.Info("Server listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

// Stop closes the listener and every client connection and waits for the
// client goroutines to finish
func (s *Server) Stop() error {
	s.cancel()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.clients.Range(func(_, value interface{}) bool {
		value.(*Client).Close()
		return true
	})

	s.wg.Wait()
	s.logger.Info("Server stopped", "addr", s.Addr())
	return err
}

// Addr returns the server's listening address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stats returns server statistics
func (s *Server) Stats() map[string]interface{} {
	clientCount := 0
	s.clients.Range(func(_, _ interface{}) bool {
		clientCount++
		return true
	})

	return map[string]interface{}{
		"connected_clients": clientCount,
		"total_commands":    s.commandCount.Load(),
		"total_errors":      s.errorCount.Load(),
		"total_connections": s.connCount.Load(),
	}
}

// Execute runs a command issued by a script. Connection and scripting
// commands are refused.
func (s *Server) Execute(cmd *protocol.Command) protocol.Frame {
	def, err := s.lookup(cmd)
	if err != nil {
		s.metrics.RecordCommand(unknownCommand, 0, true)
		return protocol.ErrorReply(err.Error())
	}
	if def.flags&flagNoScript != 0 {
		s.metrics.RecordCommand(def.name, 0, true)
		return protocol.ErrorReply("ERR This Redis command is not allowed from script")
	}
	s.commandCount.Add(1)

	start := time.Now()
	reply := def.fn(s, nil, cmd)
	s.metrics.RecordCommand(def.name, time.Since(start), protocol.IsError(reply))
	return reply
}

// lookup resolves a command and checks its arity
func (s *Server) lookup(cmd *protocol.Command) (*command, error) {
	def, ok := s.commands[cmd.Name]
	if !ok {
		return nil, fmt.Errorf("ERR unknown command '%s'", cmd.Name)
	}
	if !def.acceptsArgs(len(cmd.Args)) {
		return nil, errWrongArgs(def.name)
	}
	return def, nil
}

// acceptConnections accepts new client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return // Server is shutting down
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			s.logger.Error("Accept failed", "error", err)
			return
		}

		s.handleNewClient(conn)
	}
}

// handleNewClient registers a connection and starts serving it
func (s *Server) handleNewClient(conn net.Conn) {
	s.connCount.Add(1)
	s.metrics.RecordConnection(true)

	client := newClient(s, conn)
	s.clients.Store(client.id, client)

	s.logger.Debug("Client connected",
		"id", client.id.String(),
		"remote_addr", conn.RemoteAddr().String())

	s.wg.Add(1)
	go client.handle()
}

// forget removes a closed client
func (s *Server) forget(id ksuid.KSUID) {
	if _, loaded := s.clients.LoadAndDelete(id); loaded {
		s.metrics.RecordConnection(false)
	}
}
