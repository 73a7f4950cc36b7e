package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cobaltdb/sqlitescan/pkg/catalog"
	"github.com/cobaltdb/sqlitescan/pkg/engine"
	"github.com/cobaltdb/sqlitescan/pkg/logging"
	"github.com/cobaltdb/sqlitescan/pkg/wire"
)

var (
	ErrServerClosed = errors.New("server is closed")
)

// Server serves read-only queries against one database over the wire protocol
type Server struct {
	listener net.Listener
	db       *engine.DB
	config   *Config
	logger   *slog.Logger
	clients  map[uint64]*ClientConn
	nextID   uint64
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// Config contains server configuration
type Config struct {
	Address string
	// QueryTimeout bounds a single query; 0 means no limit
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Address:      ":4200",
		QueryTimeout: 30 * time.Second,
	}
}

// New creates a new server
func New(db *engine.DB, config *Config) (*Server, error) {
	if db == nil {
		return nil, errors.New("server needs a database")
	}
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		db:      db,
		config:  config,
		logger:  logger,
		clients: make(map[uint64]*ClientConn),
	}, nil
}

// Listen listens on address, or the configured address when empty, and
// serves until Close
func (s *Server) Listen(address string) error {
	if address == "" {
		address = s.config.Address
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Close. It returns nil after
// Close and the accept error otherwise.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("server listening", "addr", listener.Addr().String())
	return s.acceptLoop()
}

// Addr returns the listening address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			closed := s.closed
			s.mu.RUnlock()
			if closed {
				return nil
			}
			return err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.nextID++
		clientID := s.nextID
		client := &ClientConn{
			ID:     clientID,
			Conn:   conn,
			Server: s,
			reader: bufio.NewReader(conn),
		}
		s.clients[clientID] = client
		s.wg.Add(1)
		s.mu.Unlock()

		s.logger.Debug("client connected", "client", clientID, "remote", conn.RemoteAddr().String())
		go client.Handle()
	}
}

// Close stops accepting connections, disconnects clients and waits for
// their handlers to return
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	for _, client := range s.clients {
		client.Conn.Close()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// removeClient removes a client connection
func (s *Server) removeClient(id uint64) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
	s.wg.Done()
}

// ClientConn represents a client connection
type ClientConn struct {
	ID     uint64
	Conn   net.Conn
	Server *Server
	reader *bufio.Reader
}

// Handle serves requests until the client disconnects or sends a frame
// that cannot be read
func (c *ClientConn) Handle() {
	defer func() {
		c.Conn.Close()
		c.Server.removeClient(c.ID)
		c.Server.logger.Debug("client disconnected", "client", c.ID)
	}()

	for {
		msgType, payload, err := wire.ReadFrame(c.reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.sendError(wire.CodeProtocol, err.Error())
			}
			return
		}

		ctx := logging.WithRequestID(context.Background(), uuid.NewString())
		respType, response := c.handleMessage(ctx, msgType, payload)

		if err := wire.WriteFrame(c.Conn, respType, response); err != nil {
			return
		}
	}
}

// handleMessage handles a single message and returns the response frame
func (c *ClientConn) handleMessage(ctx context.Context, msgType wire.MsgType, payload []byte) (wire.MsgType, interface{}) {
	logger := logging.FromContext(ctx, c.Server.logger)
	start := time.Now()

	switch msgType {
	case wire.MsgPing:
		return wire.MsgPong, nil

	case wire.MsgInfo:
		info := c.Server.db.Info()
		return wire.MsgInfo, &wire.InfoMessage{
			PageSize:   info.PageSize,
			PageCount:  info.PageCount,
			TableCount: info.TableCount,
			Tables:     c.Server.db.Tables(),
		}

	case wire.MsgQuery:
		var query wire.QueryMessage
		if err := wire.Decode(payload, &query); err != nil {
			return wire.MsgError, wire.NewErrorMessage(wire.CodeDecode, err.Error())
		}

		result, err := c.handleQuery(ctx, &query)
		if err != nil {
			logger.Info("query failed", "client", c.ID, "sql", query.SQL, "error", err)
			return wire.MsgError, wire.NewErrorMessage(errorCode(err), err.Error())
		}
		logger.Info("query", "client", c.ID, "sql", query.SQL,
			"rows", result.Count, "duration_ms", time.Since(start).Milliseconds())
		return wire.MsgResult, result

	default:
		return wire.MsgError, wire.NewErrorMessage(wire.CodeUnknownMessage,
			fmt.Sprintf("unknown message type: %d", msgType))
	}
}

// handleQuery runs a query and collects its rows
func (c *ClientConn) handleQuery(ctx context.Context, query *wire.QueryMessage) (*wire.ResultMessage, error) {
	if timeout := c.Server.config.QueryTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rows, err := c.Server.db.Query(ctx, query.SQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := rows.Columns()
	var resultRows [][]interface{}
	for rows.Next() {
		values := rows.Values()
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v.Interface()
		}
		resultRows = append(resultRows, row)
	}

	return wire.NewResultMessage(columns, resultRows), nil
}

// sendError sends an error message
func (c *ClientConn) sendError(code int, message string) {
	_ = wire.WriteFrame(c.Conn, wire.MsgError, wire.NewErrorMessage(code, message))
}

// errorCode maps query errors onto protocol error codes
func errorCode(err error) int {
	switch {
	case errors.Is(err, catalog.ErrTableNotFound):
		return wire.CodeTableNotFound
	case errors.Is(err, catalog.ErrColumnNotFound):
		return wire.CodeColumnNotFound
	case errors.Is(err, engine.ErrTypeMismatch):
		return wire.CodeTypeMismatch
	}
	return wire.CodeQuery
}
