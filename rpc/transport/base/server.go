package base

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/MilkClouds/SimpleRPyC/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	factory    transport.SessionFactory
	config     common.ServerConfig
	listener   net.Listener
	bufferPool *sync.Pool
	wg         sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the
// specified connector and read buffer size
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterSessionFactory(factory transport.SessionFactory) {
	t.factory = factory
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	return nil
}

func (t *serverTransport) Serve() error {
	if t.listener == nil {
		return fmt.Errorf("transport is not listening, call Listen first")
	}
	if t.factory == nil {
		return fmt.Errorf("no session factory registered")
	}

	Logger.Infof("Serving %s connections on %s", t.connector.GetName(), t.Addr())

	// Accept connections
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			// Closed listener means a clean shutdown
			if errors.Is(err, net.ErrClosed) {
				t.wg.Wait()
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.handleConnection(conn)
		}()
	}
}

func (t *serverTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *serverTransport) Close() error {
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection authenticates one connection and then processes its
// requests strictly sequentially until the client disconnects.
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Errorf("Failed to upgrade connection: %v", err)
		return
	}

	// Token handshake. A rejected client gets no response; the closed
	// connection is the only signal.
	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			Logger.Errorf("Failed to set handshake deadline: %v", err)
			return
		}
	}

	token, err := readToken(conn)
	if err != nil {
		Logger.Warningf("Handshake failed: %v", err)
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(t.config.Token)) != 1 {
		Logger.Warningf("Rejected connection from %s: invalid token", conn.RemoteAddr())
		return
	}

	// Clear the handshake deadline, idle established connections stay open
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		Logger.Errorf("Failed to clear read deadline: %v", err)
		return
	}

	if _, err := conn.Write([]byte{handshakeAck}); err != nil {
		Logger.Errorf("Failed to acknowledge handshake: %v", err)
		return
	}

	// Per-connection session state
	session := t.factory()
	defer session.Close()

	Logger.Debugf("Accepted connection from %s", conn.RemoteAddr())

	// Requests of one connection are processed one at a time, in order.
	// Responses therefore never interleave and need no write lock.
	for {
		buf := t.bufferPool.Get().([]byte)
		requestID, data, err := readFrame(conn, buf)

		if err != nil {
			t.bufferPool.Put(buf)
			if err == io.EOF {
				Logger.Debugf("Connection closed by client")
			} else if !errors.Is(err, net.ErrClosed) {
				Logger.Errorf("Error reading request: %v", err)
			}
			return
		}

		start := time.Now()
		resp := session.Handle(data)
		t.bufferPool.Put(buf)
		Logger.Debugf("Processed request %d in %s", requestID, time.Since(start))

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}

		if err := writeFrame(conn, requestID, resp); err != nil {
			Logger.Errorf("Failed to write response: %v", err)
			return
		}
	}
}
