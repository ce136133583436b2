package base

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/MilkClouds/SimpleRPyC/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.).
//
// It owns exactly one connection. Server-issued references are bound to
// this connection's execution context, so there is no pooling, no round
// robin and no transparent reconnect: once the connection dies every
// reference from it is dead too and pending requests fail fast.
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	conn          net.Conn
	writeMu       sync.Mutex // Serializes frame writes
	requestChans  *xsync.MapOf[uint64, chan responseResult]
	nextRequestID atomic.Uint64
	readerDone    chan struct{} // Closed when the reader goroutine exits
	closed        atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector:    connector,
		requestChans: xsync.NewMapOf[uint64, chan responseResult](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}
	t.config = config

	// Establish the connection
	conn, err := t.connector.Connect(config.Endpoint)
	if err != nil {
		return &common.TransportError{Op: "connect", Err: err}
	}

	// Apply protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return &common.TransportError{Op: "connect", Err: err}
	}

	// Token handshake
	if err := t.handshake(conn); err != nil {
		conn.Close()
		return err
	}

	t.conn = conn
	t.readerDone = make(chan struct{})

	Logger.Infof("Connected to %s using %s transport", config.Endpoint, t.connector.GetName())

	go t.readResponses()
	return nil
}

func (t *clientTransport) Send(req []byte) ([]byte, error) {
	if t.conn == nil {
		return nil, &common.TransportError{Op: "send", Err: fmt.Errorf("not connected")}
	}

	// Generate a unique request ID (ids start at 1, 0 is never used)
	requestID := t.nextRequestID.Add(1)

	// Register the request before writing so the reader can never race us
	respCh := make(chan responseResult, 1)
	t.requestChans.Store(requestID, respCh)
	defer t.requestChans.Delete(requestID)

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second
	if timeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return nil, &common.TransportError{Op: "send", Err: err}
		}
	}

	t.writeMu.Lock()
	err := writeFrame(t.conn, requestID, req)
	t.writeMu.Unlock()

	if err != nil {
		return nil, &common.TransportError{Op: "send", Err: err}
	}

	// Wait for the response, a dead reader or the timeout. Waiting on
	// readerDone guarantees Send never hangs after the connection died.
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-t.readerDone:
		// The reader may have delivered the result just before exiting
		select {
		case result := <-respCh:
			return result.data, result.err
		default:
			return nil, &common.TransportError{Op: "receive", Err: fmt.Errorf("connection closed")}
		}
	case <-timeoutCh:
		return nil, &common.TransportError{Op: "receive", Err: fmt.Errorf("request timed out after %s", timeout)}
	}
}

func (t *clientTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handshake sends the token frame and waits for the single acknowledgement
// byte. A server that rejects the token closes the connection without
// sending anything, which surfaces here as an AuthError.
func (t *clientTransport) handshake(conn net.Conn) error {
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return &common.TransportError{Op: "handshake", Err: err}
		}
	}

	if err := writeToken(conn, t.config.Token); err != nil {
		return &common.TransportError{Op: "handshake", Err: err}
	}

	ack := make([]byte, 1)
	if _, err := io.ReadFull(conn, ack); err != nil {
		// Connection closed before the ack byte means the token was refused
		return &common.AuthError{Endpoint: t.config.Endpoint}
	}
	if ack[0] != handshakeAck {
		return &common.TransportError{Op: "handshake", Err: fmt.Errorf("unexpected handshake response 0x%02x", ack[0])}
	}

	// Clear the handshake deadline, Send manages its own deadlines
	if err := conn.SetDeadline(time.Time{}); err != nil {
		return &common.TransportError{Op: "handshake", Err: err}
	}
	return nil
}

// readResponses reads response frames in a loop and distributes them to
// waiting requests. When the connection dies it fails every pending request
// and closes readerDone.
func (t *clientTransport) readResponses() {
	defer close(t.readerDone)

	for {
		requestID, data, err := readFrame(t.conn, nil)
		if err != nil {
			if !t.closed.Load() && err != io.EOF {
				Logger.Errorf("Error reading response: %v", err)
			}
			t.failPending(err)
			return
		}

		respCh, found := t.requestChans.Load(requestID)
		if !found {
			// Response arrived after the request timed out
			Logger.Warningf("Received response for unknown request ID %d", requestID)
			continue
		}

		// readFrame allocated a fresh buffer, the waiter takes ownership
		respCh <- responseResult{data, nil}
	}
}

// failPending unblocks every in-flight request with a transport error.
func (t *clientTransport) failPending(cause error) {
	t.requestChans.Range(func(id uint64, respCh chan responseResult) bool {
		select {
		case respCh <- responseResult{nil, &common.TransportError{Op: "receive", Err: cause}}:
		default:
		}
		return true
	})
}
